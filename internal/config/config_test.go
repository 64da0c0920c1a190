package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want default 8080", cfg.Server.Port)
	}
	if cfg.History.MaxEntries != 1000 {
		t.Errorf("max entries = %d, want 1000", cfg.History.MaxEntries)
	}
	if cfg.Printer.DefaultPort != 9100 {
		t.Errorf("printer port = %d, want 9100", cfg.Printer.DefaultPort)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
history:
  max_entries: 50
render:
  timeout: 30s
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.History.MaxEntries != 50 {
		t.Errorf("max entries = %d, want 50", cfg.History.MaxEntries)
	}
	if cfg.Render.Timeout != 30*time.Second {
		t.Errorf("render timeout = %v, want 30s", cfg.Render.Timeout)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q", cfg.Logging.Level)
	}
	// untouched keys keep their defaults
	if cfg.Database.Path != "./data/barcodecentral.db" {
		t.Errorf("db path = %q", cfg.Database.Path)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load should reject malformed yaml")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("BARCODE_PORT", "7000")
	t.Setenv("BARCODE_DB_PATH", "/tmp/reg.db")
	t.Setenv("BARCODE_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("port = %d, env should win over file", cfg.Server.Port)
	}
	if cfg.Database.Path != "/tmp/reg.db" {
		t.Errorf("db path = %q", cfg.Database.Path)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("log level = %q", cfg.Logging.Level)
	}

	t.Setenv("BARCODE_PORT", "not-a-number")
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, unparsable env should fall back to the file value", cfg.Server.Port)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BARCODE_RENDER_URL", "http://labelary.internal/v1/printers")

	cfg := LoadFromEnv()
	if cfg.Render.BaseURL != "http://labelary.internal/v1/printers" {
		t.Errorf("render base url = %q", cfg.Render.BaseURL)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want default", cfg.Server.Port)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port too small", func(c *Config) { c.Server.Port = 0 }},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }},
		{"empty db path", func(c *Config) { c.Database.Path = "" }},
		{"empty history path", func(c *Config) { c.History.Path = "" }},
		{"zero history entries", func(c *Config) { c.History.MaxEntries = 0 }},
		{"empty previews dir", func(c *Config) { c.Previews.Dir = "" }},
		{"empty render url", func(c *Config) { c.Render.BaseURL = "" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate should fail")
			}
		})
	}
}
