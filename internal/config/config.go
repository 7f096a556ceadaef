package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/MeKo-Tech/isbnx/internal/barcode"
	"github.com/MeKo-Tech/isbnx/internal/imageio"
	"github.com/MeKo-Tech/isbnx/internal/pipeline"
)

// Config represents the complete configuration for isbnx. It is loaded from
// defaults, an optional configuration file, ISBNX_* environment variables
// and command-line flags, in increasing order of precedence.
type Config struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Image   ImageConfig   `mapstructure:"image" yaml:"image" json:"image"`
	Scan    ScanConfig    `mapstructure:"scan" yaml:"scan" json:"scan"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output" json:"output"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics" json:"metrics"`
}

// ImageConfig controls the image decoding facility.
type ImageConfig struct {
	// Formats lists the enabled codecs (png, jpeg, gif, bmp, tiff, webp).
	Formats []string `mapstructure:"formats" yaml:"formats" json:"formats"`
}

// ScanConfig controls the barcode scanner.
type ScanConfig struct {
	Symbologies []string `mapstructure:"symbologies" yaml:"symbologies" json:"symbologies"`
	TryHarder   bool     `mapstructure:"try_harder" yaml:"try_harder" json:"try_harder"`
}

// OutputConfig controls result rendering.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

// MetricsConfig controls the optional Prometheus textfile output.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile" yaml:"textfile" json:"textfile"`
}

var (
	validLogLevels     = []string{"debug", "info", "warn", "error"}
	validOutputFormats = []string{"text", "json"}
)

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		LogLevel: "warn",
		Verbose:  false,
		Image: ImageConfig{
			Formats: slices.Clone(imageio.SupportedFormats),
		},
		Scan: ScanConfig{
			Symbologies: []string{barcode.FormatISBN13.String()},
			TryHarder:   true,
		},
		Output: OutputConfig{
			Format: "text",
		},
	}
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	if c.Output.Format != "" && !slices.Contains(validOutputFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(validOutputFormats, ", "))
	}

	if len(c.Image.Formats) == 0 {
		return fmt.Errorf("image.formats must not be empty (supported: %s)", strings.Join(imageio.SupportedFormats, ", "))
	}
	for _, f := range c.Image.Formats {
		name := strings.ToLower(strings.TrimSpace(f))
		if name == "jpg" || name == "tif" {
			continue
		}
		if !slices.Contains(imageio.SupportedFormats, name) {
			return fmt.Errorf("invalid image format: %s (must be one of: %s)", f, strings.Join(imageio.SupportedFormats, ", "))
		}
	}

	if len(c.Scan.Symbologies) == 0 {
		return fmt.Errorf("scan.symbologies must not be empty")
	}
	if _, err := barcode.ParseFormats(c.Scan.Symbologies); err != nil {
		return fmt.Errorf("invalid scan.symbologies: %w", err)
	}

	return nil
}

// ToPipelineConfig converts the loaded configuration into pipeline settings.
// The configuration must have been validated.
func (c *Config) ToPipelineConfig() (pipeline.Config, error) {
	formats, err := barcode.ParseFormats(c.Scan.Symbologies)
	if err != nil {
		return pipeline.Config{}, err
	}
	return pipeline.Config{
		Image: imageio.Options{Formats: c.Image.Formats},
		Scan:  barcode.Config{Symbologies: formats, TryHarder: c.Scan.TryHarder},
	}, nil
}
