package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "cutout"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "CUTOUT"
)

// Loader handles loading configuration from various sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader backed by the global
// viper instance so cobra flag bindings take effect.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// GetViper exposes the underlying viper instance, used to re-read
// values after cobra flag binding.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

// Load loads configuration from files, environment variables and
// defaults, then validates it.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")
	l.addConfigPaths()
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env vars apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &config, nil
}

// LoadWithFile loads configuration from a specific file path.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	if configFile == "" {
		return l.Load()
	}
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configFile)
	}

	l.v.SetConfigFile(configFile)
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
	}

	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &config, nil
}

// addConfigPaths registers the configuration file search paths.
func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(home)
		l.v.AddConfigPath(filepath.Join(home, ".config", "cutout"))
	}
	l.v.AddConfigPath("/etc/cutout")
}

// setupEnvironmentVariables configures CUTOUT_* environment overrides.
func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()
}

// setDefaults registers all default values with viper.
func (l *Loader) setDefaults() {
	def := DefaultConfig()

	l.v.SetDefault("log_level", def.LogLevel)
	l.v.SetDefault("verbose", def.Verbose)

	l.v.SetDefault("pipeline.background_tolerance", def.Pipeline.BackgroundTolerance)
	l.v.SetDefault("pipeline.interior_sampling", def.Pipeline.InteriorSampling)
	l.v.SetDefault("pipeline.dilation_radius", def.Pipeline.DilationRadius)
	l.v.SetDefault("pipeline.simplify_tolerance", def.Pipeline.SimplifyTolerance)
	l.v.SetDefault("pipeline.piece_count", def.Pipeline.PieceCount)
	l.v.SetDefault("pipeline.seed", def.Pipeline.Seed)
	l.v.SetDefault("pipeline.max_dimension", def.Pipeline.MaxDimension)

	l.v.SetDefault("output.format", def.Output.Format)
	l.v.SetDefault("output.file", def.Output.File)

	l.v.SetDefault("server.host", def.Server.Host)
	l.v.SetDefault("server.port", def.Server.Port)
	l.v.SetDefault("server.cors_origin", def.Server.CORSOrigin)
	l.v.SetDefault("server.max_upload_mb", def.Server.MaxUploadMB)
	l.v.SetDefault("server.timeout_sec", def.Server.TimeoutSec)
	l.v.SetDefault("server.shutdown_timeout", def.Server.ShutdownTimeout)
}
