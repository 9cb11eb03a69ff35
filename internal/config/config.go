// Package config loads the single HabitQuest configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"habitquest/internal/activity"
	"habitquest/internal/persist"
	"habitquest/internal/reminder"
	"habitquest/internal/storage"
)

// PathEnv names the config file when --config is not given.
const PathEnv = "HABITQUEST_CONFIG"

type Config struct {
	DataDir     string            `yaml:"data_dir"`
	DBPath      string            `yaml:"db_path"`
	Log         LogConfig         `yaml:"log"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Activity    ActivityConfig    `yaml:"activity"`
	Reminders   reminder.Config   `yaml:"reminders"`
	MetricsAddr string            `yaml:"metrics_addr"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

type PersistenceConfig struct {
	Debounce             time.Duration `yaml:"debounce"`
	BatchInterval        time.Duration `yaml:"batch_interval"`
	Compression          string        `yaml:"compression"`
	CompressionThreshold int           `yaml:"compression_threshold"`
	MaxRetries           int           `yaml:"max_retries"`
	RetryBackoff         time.Duration `yaml:"retry_backoff"`
	BackupInterval       time.Duration `yaml:"backup_interval"`
	BackupRetention      time.Duration `yaml:"backup_retention"`

	// QuotaBytes caps total stored bytes; zero means unlimited.
	QuotaBytes int64 `yaml:"quota_bytes"`
}

type ActivityConfig struct {
	InactivityTimeout time.Duration `yaml:"inactivity_timeout"`
	RiskWindowHours   float64       `yaml:"risk_window_hours"`
	WarningAfterHours float64       `yaml:"warning_after_hours"`

	// Timezone is an IANA name; empty uses the system zone.
	Timezone string `yaml:"timezone"`
}

// Default returns the built-in configuration.
func Default() *Config {
	p := persist.DefaultOptions()
	a := activity.DefaultOptions()
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Persistence: PersistenceConfig{
			Debounce:             p.Debounce,
			BatchInterval:        p.BatchInterval,
			Compression:          "zstd",
			CompressionThreshold: p.CompressionThreshold,
			MaxRetries:           p.MaxRetries,
			RetryBackoff:         p.RetryBackoff,
			BackupInterval:       p.BackupInterval,
			BackupRetention:      p.BackupRetention,
		},
		Activity: ActivityConfig{
			InactivityTimeout: a.InactivityTimeout,
			RiskWindowHours:   a.RiskWindowHours,
			WarningAfterHours: a.WarningAfterHours,
		},
		Reminders: reminder.DefaultConfig(),
	}
}

// ResolvePath returns the explicit path, else $HABITQUEST_CONFIG, else "".
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	return os.Getenv(PathEnv)
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := cfg.decode(path, data); err != nil {
			return nil, err
		}
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes data as the file at path would be decoded, without
// env overrides.
func Parse(path string, data []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(path, data); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(path string, data []byte) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if path := os.Getenv(storage.DBPathEnv); path != "" {
		c.DBPath = path
	}
}

// Validate reports every invalid field.
func (c *Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch c.Log.Format {
	case "", "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not json or console", c.Log.Format))
	}

	p := c.Persistence
	if _, err := persist.CompressorByName(p.Compression); err != nil {
		errs = append(errs, fmt.Errorf("persistence.compression: %w", err))
	}
	for _, f := range []struct {
		name string
		d    time.Duration
	}{
		{"persistence.debounce", p.Debounce},
		{"persistence.batch_interval", p.BatchInterval},
		{"persistence.backup_interval", p.BackupInterval},
		{"persistence.backup_retention", p.BackupRetention},
	} {
		if f.d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", f.name))
		}
	}
	if p.Debounce > p.BatchInterval {
		errs = append(errs, fmt.Errorf("persistence.debounce %s exceeds batch_interval %s", p.Debounce, p.BatchInterval))
	}
	if p.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("persistence.max_retries must be non-negative, got %d", p.MaxRetries))
	}
	if p.QuotaBytes < 0 {
		errs = append(errs, fmt.Errorf("persistence.quota_bytes must be non-negative, got %d", p.QuotaBytes))
	}

	a := c.Activity
	if a.InactivityTimeout <= 0 {
		errs = append(errs, errors.New("activity.inactivity_timeout must be positive"))
	}
	if a.WarningAfterHours <= 0 || a.WarningAfterHours >= 24 {
		errs = append(errs, fmt.Errorf("activity.warning_after_hours must be in (0, 24), got %g", a.WarningAfterHours))
	}
	if a.RiskWindowHours <= 0 {
		errs = append(errs, errors.New("activity.risk_window_hours must be positive"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}

	if err := c.Reminders.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("reminders: %w", err))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("invalid config: %w", errors.Join(errs...))
}

// Location resolves Activity.Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Activity.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Activity.Timezone)
	if err != nil {
		return nil, fmt.Errorf("activity.timezone: %w", err)
	}
	return loc, nil
}

// DatabasePath returns db_path, else data_dir/habitquest.db, else the
// storage default.
func (c *Config) DatabasePath() (string, error) {
	if c.DBPath != "" {
		return c.DBPath, nil
	}
	if c.DataDir != "" {
		return filepath.Join(c.DataDir, "habitquest.db"), nil
	}
	return storage.ResolveDBPath("")
}

// PersistOptions maps the persistence section onto engine options.
// Clock, logger and metrics are left for the caller.
func (c *Config) PersistOptions() (persist.Options, error) {
	comp, err := persist.CompressorByName(c.Persistence.Compression)
	if err != nil {
		return persist.Options{}, err
	}
	p := c.Persistence
	return persist.Options{
		Key:                  persist.DefaultKey,
		SchemaVersion:        persist.SchemaVersion,
		Debounce:             p.Debounce,
		BatchInterval:        p.BatchInterval,
		CompressionThreshold: p.CompressionThreshold,
		Compressor:           comp,
		MaxRetries:           p.MaxRetries,
		RetryBackoff:         p.RetryBackoff,
		BackupInterval:       p.BackupInterval,
		BackupRetention:      p.BackupRetention,
	}, nil
}

func (c *Config) ActivityOptions() (activity.Options, error) {
	loc, err := c.Location()
	if err != nil {
		return activity.Options{}, err
	}
	return activity.Options{
		Key:               activity.DefaultKey,
		InactivityTimeout: c.Activity.InactivityTimeout,
		RiskWindowHours:   c.Activity.RiskWindowHours,
		WarningAfterHours: c.Activity.WarningAfterHours,
		Location:          loc,
	}, nil
}
