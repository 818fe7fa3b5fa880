package pipeline

import (
	"strings"
	"sync"
	"time"
)

// defaultFrameInterval bounds streaming-text mutations to roughly one per
// display frame. The server may emit dozens of token fragments per frame.
const defaultFrameInterval = 33 * time.Millisecond

// DeltaBuffer coalesces high-frequency text fragments into a single state
// update per frame. At most one flush is scheduled at a time; a fragment
// arriving while a flush is pending only grows the accumulator.
type DeltaBuffer struct {
	mu       sync.Mutex
	buf      strings.Builder
	pending  *time.Timer
	interval time.Duration
	flush    func(chunk string)
	closed   bool
}

func NewDeltaBuffer(interval time.Duration, flush func(chunk string)) *DeltaBuffer {
	if interval <= 0 {
		interval = defaultFrameInterval
	}
	return &DeltaBuffer{interval: interval, flush: flush}
}

func (b *DeltaBuffer) Append(fragment string) {
	if b == nil || fragment == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.buf.WriteString(fragment)
	if b.pending != nil {
		return
	}
	b.pending = time.AfterFunc(b.interval, b.onFrame)
}

func (b *DeltaBuffer) onFrame() {
	b.mu.Lock()
	b.pending = nil
	if b.closed {
		b.mu.Unlock()
		return
	}
	chunk := b.buf.String()
	b.buf.Reset()
	flush := b.flush
	b.mu.Unlock()
	if chunk != "" && flush != nil {
		flush(chunk)
	}
}

// Flush delivers any buffered text immediately and cancels the pending
// frame. Used when a completion event arrives before the next frame.
func (b *DeltaBuffer) Flush() {
	if b == nil {
		return
	}
	b.mu.Lock()
	if b.pending != nil {
		b.pending.Stop()
		b.pending = nil
	}
	if b.closed {
		b.mu.Unlock()
		return
	}
	chunk := b.buf.String()
	b.buf.Reset()
	flush := b.flush
	b.mu.Unlock()
	if chunk != "" && flush != nil {
		flush(chunk)
	}
}

// Discard cancels any scheduled flush and drops buffered fragments without
// closing the buffer. Used when a completion event supersedes the in-flight
// stream.
func (b *DeltaBuffer) Discard() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending != nil {
		b.pending.Stop()
		b.pending = nil
	}
	b.buf.Reset()
}

// Close cancels any scheduled flush and drops buffered text so teardown
// cannot mutate state afterwards.
func (b *DeltaBuffer) Close() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	if b.pending != nil {
		b.pending.Stop()
		b.pending = nil
	}
	b.buf.Reset()
}

func (b *DeltaBuffer) PendingFlush() bool {
	if b == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending != nil
}
