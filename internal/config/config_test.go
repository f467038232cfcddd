package config

import (
	"strings"
	"testing"
	"time"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestDefaultsAreValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := from(env(map[string]string{
		"COGNIGEN_API_URL":          "https://learn.example.com/api",
		"COGNIGEN_DB":               "/tmp/c.db",
		"COGNIGEN_GENERATE_TIMEOUT": "90s",
		"COGNIGEN_POLL_INTERVAL":    "2s",
		"COGNIGEN_JOURNAL_KEEP":     "10",
	}))
	if err != nil {
		t.Fatalf("from: %v", err)
	}
	if cfg.APIURL != "https://learn.example.com/api" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.DBPath != "/tmp/c.db" {
		t.Errorf("DBPath = %q, want /tmp/c.db", cfg.DBPath)
	}
	if cfg.GenerateTimeout != 90*time.Second {
		t.Errorf("GenerateTimeout = %v, want 90s", cfg.GenerateTimeout)
	}
	if cfg.PollInterval != 2*time.Second {
		t.Errorf("PollInterval = %v, want 2s", cfg.PollInterval)
	}
	if cfg.JournalKeep != 10 {
		t.Errorf("JournalKeep = %d, want 10", cfg.JournalKeep)
	}
	if want := DefaultConfig().RequestTimeout; cfg.RequestTimeout != want {
		t.Errorf("RequestTimeout = %v, want default %v", cfg.RequestTimeout, want)
	}
}

func TestFromEnvReportsBadValues(t *testing.T) {
	_, err := from(env(map[string]string{
		"COGNIGEN_REQUEST_TIMEOUT": "soon",
		"COGNIGEN_JOURNAL_KEEP":    "many",
	}))
	if err == nil {
		t.Fatal("from accepted malformed values")
	}
	for _, name := range []string{"COGNIGEN_REQUEST_TIMEOUT", "COGNIGEN_JOURNAL_KEEP"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q does not name %s", err, name)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"relative url", func(c *Config) { c.APIURL = "/api" }},
		{"ftp url", func(c *Config) { c.APIURL = "ftp://host/api" }},
		{"no db", func(c *Config) { c.DBPath = "" }},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }},
		{"fast poll", func(c *Config) { c.PollInterval = time.Millisecond }},
		{"negative keep", func(c *Config) { c.JournalKeep = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}
