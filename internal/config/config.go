// Package config loads stubgen settings from defaults, an optional
// stubgen.yaml and STUBGEN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrEmptyNamespace   = errors.New("stub namespace must be non-empty")
	ErrInvalidWorkers   = errors.New("generate workers must be positive")
	ErrInvalidCacheSize = errors.New("generate cache size must not be negative")
	ErrInvalidLogLevel  = errors.New("invalid logging level")
	ErrEmptyStorePath   = errors.New("store path must be set when the store is enabled")
	ErrEmptyOutputDir   = errors.New("output dir must be non-empty")
	ErrInvalidBundleExt = errors.New("bundle extension must not contain a path separator")
)

// Default configuration values.
const (
	DefaultNamespace = "Package"
	DefaultOutputDir = ".stubgen/stubs"
	DefaultStorePath = ".stubgen/history.db"
	DefaultWorkers   = 4
	DefaultCacheSize = 256
	DefaultLogLevel  = "info"

	// EnvPrefix is prepended to every environment override, e.g.
	// STUBGEN_STUB_NAMESPACE for stub.namespace.
	EnvPrefix = "STUBGEN"
)

// Config holds all configuration for stubgen.
type Config struct {
	Stub     StubConfig     `mapstructure:"stub"`
	Output   OutputConfig   `mapstructure:"output"`
	Store    StoreConfig    `mapstructure:"store"`
	Generate GenerateConfig `mapstructure:"generate"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// StubConfig controls the emitted statements.
type StubConfig struct {
	// Namespace is the runtime object stubs read live exports from.
	Namespace       string `mapstructure:"namespace"`
	BundleExtension string `mapstructure:"bundle_extension"`
}

// OutputConfig controls where stubs are written.
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// StoreConfig controls the generation history database.
type StoreConfig struct {
	Path    string `mapstructure:"path"`
	Enabled bool   `mapstructure:"enabled"`
}

// GenerateConfig controls the parallel generator.
type GenerateConfig struct {
	Workers   int `mapstructure:"workers"`
	CacheSize int `mapstructure:"cache_size"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// SlogLevel returns the configured level as a slog.Level.
func (c LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Level)
	}
	return level, nil
}

// LoadConfig loads configuration from file and environment variables.
// An empty configPath searches for stubgen.yaml in . and ./config; a missing
// file is not an error in that case.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("stubgen")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
	}

	viperCfg.SetEnvPrefix(EnvPrefix)
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := Validate(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("stub.namespace", DefaultNamespace)
	viperCfg.SetDefault("stub.bundle_extension", "")

	viperCfg.SetDefault("output.dir", DefaultOutputDir)

	viperCfg.SetDefault("store.path", DefaultStorePath)
	viperCfg.SetDefault("store.enabled", true)

	viperCfg.SetDefault("generate.workers", DefaultWorkers)
	viperCfg.SetDefault("generate.cache_size", DefaultCacheSize)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
}

// Validate checks a configuration, typically after CLI flags were applied.
func Validate(config *Config) error {
	if strings.TrimSpace(config.Stub.Namespace) == "" {
		return ErrEmptyNamespace
	}

	if strings.ContainsAny(config.Stub.BundleExtension, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidBundleExt, config.Stub.BundleExtension)
	}

	if strings.TrimSpace(config.Output.Dir) == "" {
		return ErrEmptyOutputDir
	}

	if config.Store.Enabled && strings.TrimSpace(config.Store.Path) == "" {
		return ErrEmptyStorePath
	}

	if config.Generate.Workers <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, config.Generate.Workers)
	}

	if config.Generate.CacheSize < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCacheSize, config.Generate.CacheSize)
	}

	if _, err := config.Logging.SlogLevel(); err != nil {
		return err
	}

	return nil
}
