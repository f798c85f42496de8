// Package config loads the advcases YAML configuration file.
//
// Every key is optional. Values missing from the file keep their defaults,
// and command-line flags override both.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/advcases/internal/abi"
	"github.com/roach88/advcases/internal/store"
)

// Config holds process-wide settings.
type Config struct {
	// Database is the SQLite path; ":memory:" for a throwaway store.
	Database string `yaml:"database"`

	// Driver selects the SQLite driver: "sqlite3" (cgo) or "sqlite" (pure Go).
	Driver string `yaml:"driver"`

	// Listen is the HTTP listen address for serve.
	Listen string `yaml:"listen"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// Format is the CLI output format, json or text.
	Format string `yaml:"format"`

	// Caller is the default account: a dev name or 0x-prefixed account id.
	Caller string `yaml:"caller"`
}

// Formats lists the accepted output formats.
var Formats = []string{"text", "json"}

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Database: "advcases.db",
		Driver:   store.DriverCGO,
		Listen:   "127.0.0.1:8545",
		LogLevel: "info",
		Format:   "text",
		Caller:   "alice",
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
// Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every field. Errors for all bad fields are joined.
func (c Config) Validate() error {
	var errs []error
	if c.Database == "" {
		errs = append(errs, errors.New("database is required"))
	}
	if c.Driver != store.DriverCGO && c.Driver != store.DriverPure {
		errs = append(errs, fmt.Errorf("driver %q: want %s or %s", c.Driver, store.DriverCGO, store.DriverPure))
	}
	if c.Listen == "" {
		errs = append(errs, errors.New("listen is required"))
	}
	if _, ok := levels[c.LogLevel]; !ok {
		errs = append(errs, fmt.Errorf("log_level %q: want debug, info, warn or error", c.LogLevel))
	}
	if !slices.Contains(Formats, c.Format) {
		errs = append(errs, fmt.Errorf("format %q: must be one of %v", c.Format, Formats))
	}
	if _, err := abi.ParseAccountID(c.Caller); err != nil {
		errs = append(errs, fmt.Errorf("caller: %w", err))
	}
	return errors.Join(errs...)
}

// Level returns the slog level for LogLevel, defaulting to Info.
func (c Config) Level() slog.Level {
	if l, ok := levels[c.LogLevel]; ok {
		return l
	}
	return slog.LevelInfo
}

// CallerID resolves Caller to an account id.
func (c Config) CallerID() (abi.AccountID, error) {
	return abi.ParseAccountID(c.Caller)
}
