package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Config represents the complete configuration for the cutout
// application. It covers all commands (trace, mask, serve) and supports
// loading from configuration files, environment variables and
// command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Pipeline configuration
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline" json:"pipeline"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`
}

// PipelineConfig contains segmentation and decomposition settings.
type PipelineConfig struct {
	// BackgroundTolerance biases mask extraction sensitivity (0-100, 50 neutral).
	BackgroundTolerance int `mapstructure:"background_tolerance" yaml:"background_tolerance" json:"background_tolerance"`
	// InteriorSampling enables the saturated-interior recovery pass.
	InteriorSampling bool `mapstructure:"interior_sampling" yaml:"interior_sampling" json:"interior_sampling"`
	// DilationRadius closes small mask gaps from anti-aliased edges.
	DilationRadius int `mapstructure:"dilation_radius" yaml:"dilation_radius" json:"dilation_radius"`
	// SimplifyTolerance is the Douglas-Peucker tolerance in normalized units.
	SimplifyTolerance float64 `mapstructure:"simplify_tolerance" yaml:"simplify_tolerance" json:"simplify_tolerance"`
	// PieceCount is the target number of puzzle pieces.
	PieceCount int `mapstructure:"piece_count" yaml:"piece_count" json:"piece_count"`
	// Seed fixes the decomposition RNG; zero seeds from the clock.
	Seed int64 `mapstructure:"seed" yaml:"seed" json:"seed"`
	// MaxDimension caps the working resolution; zero disables scaling.
	MaxDimension int `mapstructure:"max_dimension" yaml:"max_dimension" json:"max_dimension"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
	File   string `mapstructure:"file" yaml:"file" json:"file"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// DefaultConfig returns a configuration with all defaults applied.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Verbose:  false,
		Pipeline: PipelineConfig{
			BackgroundTolerance: 50,
			InteriorSampling:    false,
			DilationRadius:      2,
			SimplifyTolerance:   0.0025,
			PieceCount:          12,
			Seed:                0,
			MaxDimension:        1024,
		},
		Output: OutputConfig{
			Format: "json",
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     20,
			TimeoutSec:      60,
			ShutdownTimeout: 10,
		},
	}
}

// Validate checks configuration values for consistency.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.LogLevel)
	}
	if c.Pipeline.BackgroundTolerance < 0 || c.Pipeline.BackgroundTolerance > 100 {
		return fmt.Errorf("background_tolerance must be in [0, 100], got %d", c.Pipeline.BackgroundTolerance)
	}
	if c.Pipeline.DilationRadius < 0 {
		return fmt.Errorf("dilation_radius must be non-negative, got %d", c.Pipeline.DilationRadius)
	}
	if c.Pipeline.PieceCount < 1 {
		return fmt.Errorf("piece_count must be at least 1, got %d", c.Pipeline.PieceCount)
	}
	if c.Pipeline.SimplifyTolerance < 0 {
		return fmt.Errorf("simplify_tolerance must be non-negative, got %g", c.Pipeline.SimplifyTolerance)
	}
	if c.Pipeline.MaxDimension < 0 {
		return fmt.Errorf("max_dimension must be non-negative, got %d", c.Pipeline.MaxDimension)
	}
	switch c.Output.Format {
	case "json", "":
	default:
		return fmt.Errorf("invalid output format: %q", c.Output.Format)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be in [1, 65535], got %d", c.Server.Port)
	}
	return nil
}

// MarshalYAML renders the configuration as a YAML document, used to
// write a starter config file.
func (c *Config) MarshalYAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return out, nil
}
