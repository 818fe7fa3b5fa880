package config

import (
	"errors"
	"os"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const defaultServerAddress = "127.0.0.1:8700"

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Logging   LoggingConfig   `toml:"logging"`
	Debug     DebugConfig     `toml:"debug"`
	Reconnect ReconnectConfig `toml:"reconnect"`
	UI        UIConfig        `toml:"ui"`
}

type ServerConfig struct {
	Address string `toml:"address"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

type DebugConfig struct {
	StreamDebug bool `toml:"stream_debug"`
}

type ReconnectConfig struct {
	InitialDelayMS int `toml:"initial_delay_ms"`
	MaxDelayMS     int `toml:"max_delay_ms"`
	MaxAttempts    int `toml:"max_attempts"`
}

type UIConfig struct {
	TickMS        int   `toml:"tick_ms"`
	AltScreen     *bool `toml:"alt_screen"`
	MouseDisabled bool  `toml:"mouse_disabled"`
}

func Default() Config {
	return Config{
		Server:  ServerConfig{Address: defaultServerAddress},
		Logging: LoggingConfig{Level: "info"},
	}
}

func Load() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	return loadFromPath(path)
}

func loadFromPath(path string) (Config, error) {
	cfg := Default()
	if err := readTOML(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// readTOML treats a missing or empty file as the default configuration.
func readTOML(path string, out any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	return toml.Unmarshal(data, out)
}

func (c Config) ServerAddress() string {
	addr := strings.TrimSpace(c.Server.Address)
	addr = strings.TrimPrefix(addr, "http://")
	addr = strings.TrimPrefix(addr, "https://")
	addr = strings.TrimRight(addr, "/")
	if addr == "" {
		return defaultServerAddress
	}
	return addr
}

func (c Config) ServerBaseURL() string {
	return "http://" + c.ServerAddress()
}

func (c Config) LogLevel() string {
	level := strings.TrimSpace(c.Logging.Level)
	if level == "" {
		return "info"
	}
	return level
}

func (c Config) StreamDebugEnabled() bool {
	if strings.TrimSpace(os.Getenv("LOOM_STREAM_DEBUG")) == "1" {
		return true
	}
	return c.Debug.StreamDebug
}

func (c Config) ReconnectInitialDelay() time.Duration {
	if c.Reconnect.InitialDelayMS <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.Reconnect.InitialDelayMS) * time.Millisecond
}

func (c Config) ReconnectMaxDelay() time.Duration {
	if c.Reconnect.MaxDelayMS <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Reconnect.MaxDelayMS) * time.Millisecond
}

func (c Config) ReconnectMaxAttempts() int {
	if c.Reconnect.MaxAttempts < 0 {
		return 0
	}
	return c.Reconnect.MaxAttempts
}

func (c Config) UITickInterval() time.Duration {
	if c.UI.TickMS <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(c.UI.TickMS) * time.Millisecond
}

func (c Config) UIAltScreen() bool {
	if c.UI.AltScreen == nil {
		return true
	}
	return *c.UI.AltScreen
}

func (c Config) UIMouseEnabled() bool {
	return !c.UI.MouseDisabled
}
