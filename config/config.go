// Package config loads the editor and CLI configuration from a file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rero/recordform"
	"github.com/rero/recordform/i18n"
	"github.com/rero/recordform/recordstore"
)

// EnvPrefix prefixes the environment overrides: RECORDFORM_EDITOR_LONG_MODE
// overrides editor.long_mode.
const EnvPrefix = "RECORDFORM"

// ErrConfigNotFound is returned when the config file given to Load does not
// exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// Config represents the application configuration
type Config struct {
	Editor  EditorConfig  `mapstructure:"editor"`
	Store   StoreConfig   `mapstructure:"store"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// EditorConfig represents the form settings
type EditorConfig struct {
	LongMode bool          `mapstructure:"long_mode"`
	Debounce time.Duration `mapstructure:"debounce"`
	FormID   string        `mapstructure:"form_id"`
	Language string        `mapstructure:"language"`
}

// StoreConfig represents the record store REST API
type StoreConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	RefPrefix string        `mapstructure:"ref_prefix"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Editor: EditorConfig{
			LongMode: true,
			Debounce: recordform.DefaultDebounce,
			FormID:   "editor",
			Language: "en",
		},
		Store: StoreConfig{
			Timeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from path (YAML, JSON or TOML, by extension) over
// the defaults, then applies the environment overrides. An empty path reads
// the environment only.
func Load(path string) (*Config, error) {
	config := Default()

	v := viper.New()
	setDefaults(v, config)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file content: %w", err)
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// setDefaults registers every key so that environment variables override
// keys missing from the file.
func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("editor.long_mode", c.Editor.LongMode)
	v.SetDefault("editor.debounce", c.Editor.Debounce)
	v.SetDefault("editor.form_id", c.Editor.FormID)
	v.SetDefault("editor.language", c.Editor.Language)
	v.SetDefault("store.base_url", c.Store.BaseURL)
	v.SetDefault("store.ref_prefix", c.Store.RefPrefix)
	v.SetDefault("store.timeout", c.Store.Timeout)
	v.SetDefault("logging.level", c.Logging.Level)
}

// Validate checks the values a file or the environment may get wrong.
func (c *Config) Validate() error {
	if c.Editor.Debounce < 0 {
		return fmt.Errorf("editor.debounce must not be negative, got %s", c.Editor.Debounce)
	}
	if c.Store.Timeout < 0 {
		return fmt.Errorf("store.timeout must not be negative, got %s", c.Store.Timeout)
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}

// Logger builds a production logger at the configured level.
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// Form returns the tree configuration; the translator starts in the
// configured language.
func (c *Config) Form(logger *zap.Logger) recordform.Config {
	return recordform.Config{
		FormID:     c.Editor.FormID,
		LongMode:   c.Editor.LongMode,
		Debounce:   c.Editor.Debounce,
		Translator: i18n.NewCatalog(c.Editor.Language),
		Logger:     logger,
	}
}

// Endpoints returns the REST API endpoints of the record store.
func (c *Config) Endpoints() recordstore.Endpoints {
	return recordstore.Endpoints{BaseURL: c.Store.BaseURL, RefPrefix: c.Store.RefPrefix}
}

// Client returns a REST client of the record store, or nil when no base URL
// is configured.
func (c *Config) Client(logger *zap.Logger) *recordstore.Client {
	if c.Store.BaseURL == "" {
		return nil
	}
	return recordstore.NewClient(c.Endpoints(), c.Store.Timeout, logger)
}
