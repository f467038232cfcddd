// Package config holds the client settings: where the learning API lives,
// where local state is kept and how long remote calls may take.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config is the resolved client configuration.
type Config struct {
	// APIURL is the learning API base, including the /api prefix.
	APIURL string

	// DBPath is the SQLite file holding the journal, path cache and LLM log.
	DBPath string

	// LogFile receives structured logs; the terminal belongs to the TUI.
	LogFile string

	// LogMode is "dev" (console encoder, debug) or "prod" (JSON, info).
	LogMode string

	// RequestTimeout bounds ordinary API calls.
	RequestTimeout time.Duration

	// GenerateTimeout bounds path, content and quiz generation calls.
	GenerateTimeout time.Duration

	// PollInterval is how often draft paths are refreshed.
	PollInterval time.Duration

	// MinServerVersion is the oldest API version accepted.
	MinServerVersion string

	// SandboxAddr is the listen address of `cognigen sandbox`.
	SandboxAddr string

	// JournalKeep bounds the mutation journal; older rows are pruned at start.
	JournalKeep int
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		APIURL:           "http://localhost:5000/api",
		DBPath:           filepath.Join(dataHome(), "cognigen", "cognigen.db"),
		LogFile:          filepath.Join(stateHome(), "cognigen", "cognigen.log"),
		LogMode:          "dev",
		RequestTimeout:   30 * time.Second,
		GenerateTimeout:  5 * time.Minute,
		PollInterval:     5 * time.Second,
		MinServerVersion: "v1.0.0",
		SandboxAddr:      "localhost:5000",
		JournalKeep:      5000,
	}
}

// FromEnv overlays COGNIGEN_* variables on the defaults.
func FromEnv() (Config, error) {
	return from(os.Getenv)
}

func from(getenv func(string) string) (Config, error) {
	cfg := DefaultConfig()
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	var errs []error
	dur := func(key string, dst *time.Duration) {
		if v := getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("COGNIGEN_API_URL", &cfg.APIURL)
	str("COGNIGEN_DB", &cfg.DBPath)
	str("COGNIGEN_LOG_FILE", &cfg.LogFile)
	str("COGNIGEN_LOG_MODE", &cfg.LogMode)
	str("COGNIGEN_MIN_SERVER_VERSION", &cfg.MinServerVersion)
	str("COGNIGEN_SANDBOX_ADDR", &cfg.SandboxAddr)
	dur("COGNIGEN_REQUEST_TIMEOUT", &cfg.RequestTimeout)
	dur("COGNIGEN_GENERATE_TIMEOUT", &cfg.GenerateTimeout)
	dur("COGNIGEN_POLL_INTERVAL", &cfg.PollInterval)
	if v := getenv("COGNIGEN_JOURNAL_KEEP"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("COGNIGEN_JOURNAL_KEEP: %w", err))
		} else {
			cfg.JournalKeep = n
		}
	}
	return cfg, errors.Join(errs...)
}

// Validate checks the configuration.
func (c Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid API URL %q", c.APIURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("API URL must be http or https, got %q", u.Scheme)
	}
	if c.DBPath == "" {
		return errors.New("database path is required")
	}
	if c.RequestTimeout <= 0 || c.GenerateTimeout <= 0 {
		return errors.New("timeouts must be positive")
	}
	if c.PollInterval < 500*time.Millisecond {
		return fmt.Errorf("poll interval %s is below 500ms", c.PollInterval)
	}
	if c.JournalKeep < 0 {
		return errors.New("journal keep must not be negative")
	}
	return nil
}

func dataHome() string {
	if d := os.Getenv("XDG_DATA_HOME"); d != "" {
		return d
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

func stateHome() string {
	if d := os.Getenv("XDG_STATE_HOME"); d != "" {
		return d
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "state")
}
