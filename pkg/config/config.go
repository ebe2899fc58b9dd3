// Package config loads configuration for the hnblacklist command.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	configEnvVar   = "HNBLACKLIST_CONFIG"
	configFileName = "config.toml"
	settingsName   = "settings.toml"
)

// Config contains all runtime options of a filtering pass.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Settings  SettingsConfig  `mapstructure:"settings"`
	Filtering FilteringConfig `mapstructure:"filtering"`
	SelfTest  SelfTestConfig  `mapstructure:"selftest"`
	Report    ReportConfig    `mapstructure:"report"`
	Watch     WatchConfig     `mapstructure:"watch"`

	// Source is the configuration file that was read, empty when none was.
	Source string `mapstructure:"-"`
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	Level          string `mapstructure:"level"`
	File           string `mapstructure:"file"`
	RuleErrorLimit int    `mapstructure:"rule_error_limit"`
}

// SettingsConfig locates the key/value settings store.
type SettingsConfig struct {
	Path string `mapstructure:"path"`
}

// FilteringConfig holds filter pass settings.
type FilteringConfig struct {
	// Rules is a rule file used instead of the filters kept in the settings store.
	Rules                      string `mapstructure:"rules"`
	Renumber                   bool   `mapstructure:"renumber"`
	RemovedLog                 string `mapstructure:"removed_log"`
	FilterEvenWithTestFailures bool   `mapstructure:"filter_even_with_test_failures"`
}

// SelfTestConfig holds self test settings.
type SelfTestConfig struct {
	ExpectedSubmissions int `mapstructure:"expected_submissions"`
}

// ReportConfig holds report output settings.
type ReportConfig struct {
	Path string `mapstructure:"path"`
}

// WatchConfig holds watch mode settings.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"-"`
}

// ValidateLogLevel ensures the user-provided log level matches the supported set.
func ValidateLogLevel(level string) error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(level)] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", level)
	}
	return nil
}

// DefaultDir is the directory holding the default config and settings files.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".", ".hnblacklist")
	}
	return filepath.Join(home, ".config", "hnblacklist")
}

// Setup loads the configuration from path, or from the file named by
// HNBLACKLIST_CONFIG, or from the default location.
func Setup(path string) (*Config, error) {
	return Load(viper.New(), path)
}

// Load reads the configuration into v and produces a Config. Values already
// set on v, such as bound command line flags, take precedence over the file.
// A missing file is an error unless the default location is used.
func Load(v *viper.Viper, path string) (*Config, error) {
	configPath, required := resolvePath(path)

	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	setDefaults(v)

	source := configPath
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if required || !(errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		source = ""
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Source = source

	var err error
	cfg.Watch.Debounce, err = parseDuration(v.GetString("watch.debounce"))
	if err != nil {
		return nil, fmt.Errorf("invalid watch.debounce: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func resolvePath(path string) (string, bool) {
	if p := strings.TrimSpace(path); p != "" {
		return p, true
	}
	if fromEnv := strings.TrimSpace(os.Getenv(configEnvVar)); fromEnv != "" {
		return fromEnv, true
	}
	return filepath.Join(DefaultDir(), configFileName), false
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "stderr")
	v.SetDefault("logging.rule_error_limit", 20)
	v.SetDefault("settings.path", filepath.Join(DefaultDir(), settingsName))
	v.SetDefault("filtering.renumber", true)
	v.SetDefault("filtering.filter_even_with_test_failures", false)
	v.SetDefault("selftest.expected_submissions", 30)
	v.SetDefault("watch.debounce", "200ms")
}

func parseDuration(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	return time.ParseDuration(raw)
}

func validateConfig(cfg *Config) error {
	if err := ValidateLogLevel(cfg.Logging.Level); err != nil {
		return err
	}

	if cfg.Logging.RuleErrorLimit < 0 {
		return errors.New("logging.rule_error_limit must be >= 0")
	}

	if strings.TrimSpace(cfg.Settings.Path) == "" {
		return errors.New("settings.path is required")
	}

	if cfg.SelfTest.ExpectedSubmissions <= 0 {
		return errors.New("selftest.expected_submissions must be > 0")
	}

	if cfg.Watch.Debounce < 0 {
		return errors.New("watch.debounce must be >= 0")
	}

	if rulesFile := cfg.Filtering.Rules; rulesFile != "" {
		if _, err := os.Stat(rulesFile); err != nil {
			return fmt.Errorf("filtering.rules not accessible: %w", err)
		}
	}

	return nil
}
