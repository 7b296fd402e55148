package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/runnerr0/meterreport/internal/meter"
)

// DefaultConfigPath is read when --config is not given and the file exists.
const DefaultConfigPath = "meterreport.yaml"

// Config holds all meterreport configuration.
type Config struct {
	Dataset   DatasetConfig   `yaml:"dataset"`
	Columns   meter.Columns   `yaml:"columns"`
	Normalize NormalizeConfig `yaml:"normalize"`
	Report    ReportConfig    `yaml:"report"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type DatasetConfig struct {
	Path      string `yaml:"path"`
	Format    string `yaml:"format"` // "auto", "csv" or "sqlite"
	Delimiter string `yaml:"delimiter"`
}

type NormalizeConfig struct {
	AgePrecision  string `yaml:"age_precision"`
	ReferenceDate string `yaml:"reference_date"` // empty means load time
	Strict        bool   `yaml:"strict"`
}

type ReportConfig struct {
	ConnectedStatus string `yaml:"connected_status"`
}

type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	AllowedOrigins string `yaml:"allowed_origins"`
	GinMode        string `yaml:"gin_mode"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads a YAML config file at path and merges it with defaults.
// Returns an error if the file cannot be read or contains invalid YAML.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.Dataset.Path, err = expandPath(cfg.Dataset.Path)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault loads path when given. With an empty path it loads
// DefaultConfigPath if present and falls back to defaults otherwise.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	if _, err := os.Stat(DefaultConfigPath); err == nil {
		return Load(DefaultConfigPath)
	}
	return DefaultConfig(), nil
}

// ApplyEnv overrides selected fields from environment variables.
func (c *Config) ApplyEnv() error {
	if v := getEnv("METERREPORT_DATA"); v != "" {
		c.Dataset.Path = v
	}
	if v := getEnv("METERREPORT_REFERENCE_DATE"); v != "" {
		c.Normalize.ReferenceDate = v
	}
	if v := getEnv("METERREPORT_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse METERREPORT_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := getEnv("GIN_MODE"); v != "" {
		c.Server.GinMode = v
	}
	return nil
}

// Validate checks values that would otherwise fail late, during a load.
func (c *Config) Validate() error {
	if _, err := meter.ParsePrecision(c.Normalize.AgePrecision); err != nil {
		return err
	}
	switch c.Dataset.Format {
	case "", "auto", "csv", "sqlite":
	default:
		return fmt.Errorf("unknown dataset format %q (use auto, csv or sqlite)", c.Dataset.Format)
	}
	if len([]rune(c.Dataset.Delimiter)) > 1 {
		return fmt.Errorf("dataset delimiter must be a single character, got %q", c.Dataset.Delimiter)
	}
	if c.Columns.Diameter == "" {
		return errors.New("columns.diameter is required")
	}
	switch c.Server.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("unknown gin_mode %q (use debug, release or test)", c.Server.GinMode)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if _, err := c.ReferenceTime(time.Now); err != nil {
		return err
	}
	return nil
}

// Precision returns the configured age precision.
func (c *Config) Precision() meter.AgePrecision {
	p, err := meter.ParsePrecision(c.Normalize.AgePrecision)
	if err != nil {
		return meter.PrecisionInteger
	}
	return p
}

// ReferenceTime returns the configured reference date, or now() when none
// is set. Callers capture it once per loaded dataset.
func (c *Config) ReferenceTime(now func() time.Time) (time.Time, error) {
	s := strings.TrimSpace(c.Normalize.ReferenceDate)
	if s == "" {
		return now(), nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid reference_date %q (use YYYY-MM-DD or RFC3339)", s)
}

// Addr returns the server listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

func getEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
