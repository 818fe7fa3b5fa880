// Package logging is a small logfmt logger. One line per record, key=value
// pairs, values quoted only when they need it. The interface is deliberately
// tiny so every package can hold a Logger without caring about the sink.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "debug"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "info"
	}
}

func ParseLevel(raw string) Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return Debug
	case "warn", "warning":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

type Field struct {
	Key   string
	Value any
}

func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
	Enabled(level Level) bool
}

type logger struct {
	mu    *sync.Mutex
	sink  io.Writer
	level Level
	bound []Field
	nowFn func() time.Time
}

func New(sink io.Writer, level Level) Logger {
	if sink == nil {
		sink = os.Stderr
	}
	return &logger{mu: &sync.Mutex{}, sink: sink, level: level, nowFn: time.Now}
}

func Nop() Logger {
	return &logger{mu: &sync.Mutex{}, sink: io.Discard, level: Error + 1, nowFn: time.Now}
}

func (l *logger) Enabled(level Level) bool {
	return l != nil && level >= l.level
}

func (l *logger) With(fields ...Field) Logger {
	if l == nil {
		return Nop()
	}
	bound := make([]Field, 0, len(l.bound)+len(fields))
	bound = append(bound, l.bound...)
	bound = append(bound, fields...)
	return &logger{mu: l.mu, sink: l.sink, level: l.level, bound: bound, nowFn: l.nowFn}
}

func (l *logger) Debug(msg string, fields ...Field) { l.emit(Debug, msg, fields) }
func (l *logger) Info(msg string, fields ...Field)  { l.emit(Info, msg, fields) }
func (l *logger) Warn(msg string, fields ...Field)  { l.emit(Warn, msg, fields) }
func (l *logger) Error(msg string, fields ...Field) { l.emit(Error, msg, fields) }

func (l *logger) emit(level Level, msg string, fields []Field) {
	if !l.Enabled(level) {
		return
	}
	var line strings.Builder
	writePair(&line, "ts", l.nowFn().UTC().Format(time.RFC3339Nano))
	line.WriteByte(' ')
	writePair(&line, "level", level.String())
	line.WriteByte(' ')
	writePair(&line, "msg", msg)
	for _, field := range l.bound {
		line.WriteByte(' ')
		writePair(&line, field.Key, field.Value)
	}
	for _, field := range fields {
		line.WriteByte(' ')
		writePair(&line, field.Key, field.Value)
	}
	line.WriteByte('\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.sink, line.String())
}

func writePair(line *strings.Builder, key string, value any) {
	line.WriteString(key)
	line.WriteByte('=')
	line.WriteString(renderValue(value))
}

func renderValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return maybeQuote(v)
	case error:
		return maybeQuote(v.Error())
	case bool:
		return strconv.FormatBool(v)
	case time.Duration:
		return maybeQuote(v.String())
	case fmt.Stringer:
		return maybeQuote(v.String())
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprintf("%v", v)
	default:
		return maybeQuote(fmt.Sprintf("%v", v))
	}
}

func maybeQuote(value string) string {
	if value == "" {
		return `""`
	}
	if strings.ContainsAny(value, " \t\n\r\"=") {
		return strconv.Quote(value)
	}
	return value
}

// OpenFile builds a logger appending to path, creating parent directories as
// needed. The returned closer owns the file handle. A blank path yields a
// no-op logger, which is how the stream debug log stays disabled by default.
func OpenFile(path string, level Level) (Logger, io.Closer, error) {
	if strings.TrimSpace(path) == "" {
		return Nop(), nopCloser{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return New(file, level), file, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
