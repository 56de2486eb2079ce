// Package config loads loan-engine settings from a TOML file.
//
// Every field has a default, so a missing file or an empty section is not
// an error. Command-line flags override file values in cmd/.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"

	"github.com/warp/loan-engine/generic"
)

// Config is the root of config.toml.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Log      LogConfig      `toml:"log"`
	Engine   EngineConfig   `toml:"engine"`
}

// ServerConfig is the [server] section.
type ServerConfig struct {
	Host            string   `toml:"host"`
	Port            int      `toml:"port"`
	ReadTimeout     string   `toml:"read_timeout"`
	WriteTimeout    string   `toml:"write_timeout"`
	ShutdownTimeout string   `toml:"shutdown_timeout"`
	AllowedOrigins  []string `toml:"allowed_origins"`
}

// DatabaseConfig is the [database] section. Path ":memory:" keeps
// everything in memory.
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// LogConfig is the [log] section.
type LogConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // human or json
}

// EngineConfig is the [engine] section.
type EngineConfig struct {
	Currency string `toml:"currency"`
}

// DefaultConfig returns the settings used when no file is given.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			ReadTimeout:     "15s",
			WriteTimeout:    "15s",
			ShutdownTimeout: "10s",
			AllowedOrigins:  []string{"*"},
		},
		Database: DatabaseConfig{Path: "./data/loans.db"},
		Log:      LogConfig{Level: "info", Format: "human"},
		Engine:   EngineConfig{Currency: string(generic.DefaultCurrency)},
	}
}

// Load reads path over the defaults. An empty path or a file that does not
// exist yields the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Parse decodes TOML text over the defaults.
func Parse(data string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.Decode(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks values that would otherwise fail at startup.
func (c Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port: %d out of range", c.Server.Port)
	}
	for name, d := range map[string]string{
		"server.read_timeout":     c.Server.ReadTimeout,
		"server.write_timeout":    c.Server.WriteTimeout,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
	} {
		if _, err := time.ParseDuration(d); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "human", "json":
	default:
		return fmt.Errorf("log.format: must be human or json, got %q", c.Log.Format)
	}
	if len(c.Engine.Currency) != 3 {
		return fmt.Errorf("engine.currency: want a 3-letter code, got %q", c.Engine.Currency)
	}
	if c.Database.Path == "" {
		return errors.New("database.path: required")
	}
	return nil
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Timeouts returns the parsed read, write and shutdown timeouts. Call
// after Validate.
func (s ServerConfig) Timeouts() (read, write, shutdown time.Duration) {
	read, _ = time.ParseDuration(s.ReadTimeout)
	write, _ = time.ParseDuration(s.WriteTimeout)
	shutdown, _ = time.ParseDuration(s.ShutdownTimeout)
	return read, write, shutdown
}

// DefaultCurrency is the currency given to loans that name none.
func (e EngineConfig) DefaultCurrency() generic.Currency {
	return generic.Currency(strings.ToUpper(e.Currency))
}

// Logger builds the process logger: console output for "human", JSON lines
// otherwise, with timestamps.
func (l LogConfig) Logger(w io.Writer) zerolog.Logger {
	if l.Format == "human" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	level, err := zerolog.ParseLevel(strings.ToLower(l.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
