package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// RateRule is one rate-limit budget: at most Max admissions per
// operation name within WindowSec seconds.
type RateRule struct {
	WindowSec int `mapstructure:"window_sec" yaml:"window_sec"`
	Max       int `mapstructure:"max" yaml:"max"`
}

// SecurityConfig holds the security gate settings.
type SecurityConfig struct {
	// DefaultRate applies to any operation without an explicit rule.
	DefaultRate RateRule `mapstructure:"default_rate" yaml:"default_rate"`

	// Rates maps operation names to their rate budgets.
	Rates map[string]RateRule `mapstructure:"rates" yaml:"rates"`

	// MaxBulkItems caps the number of items in one bulk operation.
	MaxBulkItems int `mapstructure:"max_bulk_items" yaml:"max_bulk_items"`

	// MaxRecipients caps total recipients (to + cc + bcc) per send.
	MaxRecipients int `mapstructure:"max_recipients" yaml:"max_recipients"`

	// AllowExecutables permits dangerous attachment extensions.
	AllowExecutables bool `mapstructure:"allow_executables" yaml:"allow_executables"`
}

// AttachmentConfig holds attachment handling limits.
type AttachmentConfig struct {
	// MaxSize is the largest attachment accepted, in bytes.
	MaxSize int64 `mapstructure:"max_size" yaml:"max_size"`

	// MaxExtractSize caps the text returned by extraction, in bytes.
	MaxExtractSize int64 `mapstructure:"max_extract_size" yaml:"max_extract_size"`
}

// Config is the top-level bridge configuration.
type Config struct {
	// OsascriptPath is the absolute path of the script interpreter.
	OsascriptPath string `mapstructure:"osascript_path" yaml:"osascript_path"`

	// TimeoutSec bounds each interpreter invocation.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`

	// AuditDBPath is the sqlite file for the persistent audit trail.
	// Empty disables persistence; the in-memory ring is always kept.
	AuditDBPath string `mapstructure:"audit_db_path" yaml:"audit_db_path"`

	// AuditRingSize is how many recent records the in-memory audit
	// ring retains.
	AuditRingSize int `mapstructure:"audit_ring_size" yaml:"audit_ring_size"`

	Security   SecurityConfig   `mapstructure:"security" yaml:"security"`
	Attachment AttachmentConfig `mapstructure:"attachment" yaml:"attachment"`
}

// DefaultConfigPath returns the default configuration file location,
// ~/.config/mailbridge/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "mailbridge", "config.yaml")
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		OsascriptPath: "/usr/bin/osascript",
		TimeoutSec:    30,
		AuditRingSize: 1000,
		Security: SecurityConfig{
			DefaultRate:   RateRule{WindowSec: 60, Max: 10},
			Rates:         map[string]RateRule{},
			MaxBulkItems:  100,
			MaxRecipients: 100,
		},
		Attachment: AttachmentConfig{
			MaxSize:        25 * 1024 * 1024,
			MaxExtractSize: 1024 * 1024,
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using
// Viper. A missing file yields the defaults, not an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("osascript_path", "/usr/bin/osascript")
	v.SetDefault("timeout_sec", 30)
	v.SetDefault("audit_ring_size", 1000)
	v.SetDefault("security.default_rate.window_sec", 60)
	v.SetDefault("security.default_rate.max", 10)
	v.SetDefault("security.max_bulk_items", 100)
	v.SetDefault("security.max_recipients", 100)
	v.SetDefault("attachment.max_size", 25*1024*1024)
	v.SetDefault("attachment.max_extract_size", 1024*1024)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return DefaultConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the configuration to a YAML file at path, creating
// parent directories if needed.
func SaveConfig(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("osascript_path", cfg.OsascriptPath)
	v.Set("timeout_sec", cfg.TimeoutSec)
	v.Set("audit_db_path", cfg.AuditDBPath)
	v.Set("audit_ring_size", cfg.AuditRingSize)
	v.Set("security", cfg.Security)
	v.Set("attachment", cfg.Attachment)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

// RateFor returns the rate rule for an operation, falling back to the
// default rule when no explicit one is configured.
func (c *SecurityConfig) RateFor(operation string) RateRule {
	if r, ok := c.Rates[operation]; ok {
		return r
	}
	return c.DefaultRate
}
