package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	History  HistoryConfig  `yaml:"history"`
	Previews PreviewsConfig `yaml:"previews"`
	Render   RenderConfig   `yaml:"render"`
	Printer  PrinterConfig  `yaml:"printer"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type HistoryConfig struct {
	Path       string `yaml:"path"`
	MaxEntries int    `yaml:"max_entries"`
}

type PreviewsConfig struct {
	Dir string `yaml:"dir"`
}

type RenderConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type PrinterConfig struct {
	DefaultPort int           `yaml:"default_port"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
	SendTimeout time.Duration `yaml:"send_timeout"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Path: "./data/barcodecentral.db",
		},
		History: HistoryConfig{
			Path:       "./data/history.json",
			MaxEntries: 1000,
		},
		Previews: PreviewsConfig{
			Dir: "./data/previews",
		},
		Render: RenderConfig{
			BaseURL: "http://api.labelary.com/v1/printers",
			Timeout: 10 * time.Second,
		},
		Printer: PrinterConfig{
			DefaultPort: 9100,
			DialTimeout: 5 * time.Second,
			SendTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the YAML file at configPath over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(configPath string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnv(cfg)
	return cfg, nil
}

func LoadFromEnv() *Config {
	cfg := defaults()
	applyEnv(cfg)
	return cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("BARCODE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("BARCODE_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}

	if v := os.Getenv("BARCODE_HISTORY_PATH"); v != "" {
		cfg.History.Path = v
	}

	if v := os.Getenv("BARCODE_PREVIEW_DIR"); v != "" {
		cfg.Previews.Dir = v
	}

	if v := os.Getenv("BARCODE_RENDER_URL"); v != "" {
		cfg.Render.BaseURL = v
	}

	if v := os.Getenv("BARCODE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout < 0 {
		return fmt.Errorf("server read timeout must be non-negative")
	}

	if c.Server.WriteTimeout < 0 {
		return fmt.Errorf("server write timeout must be non-negative")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if c.History.Path == "" {
		return fmt.Errorf("history path is required")
	}

	if c.History.MaxEntries < 1 {
		return fmt.Errorf("history max entries must be at least 1")
	}

	if c.Previews.Dir == "" {
		return fmt.Errorf("previews dir is required")
	}

	if c.Render.BaseURL == "" {
		return fmt.Errorf("render base URL is required")
	}

	if c.Render.Timeout < 0 {
		return fmt.Errorf("render timeout must be non-negative")
	}

	if c.Printer.DefaultPort < 1 || c.Printer.DefaultPort > 65535 {
		return fmt.Errorf("printer default port must be between 1 and 65535, got %d", c.Printer.DefaultPort)
	}

	if c.Printer.DialTimeout < 0 {
		return fmt.Errorf("printer dial timeout must be non-negative")
	}

	if c.Printer.SendTimeout < 0 {
		return fmt.Errorf("printer send timeout must be non-negative")
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (valid: json, console)", c.Logging.Format)
	}

	return nil
}
