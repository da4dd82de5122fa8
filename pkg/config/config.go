// Package config provides the engine configuration for lattice.
//
// EngineConfig is a single structure organized into sections: vector backend
// selection, display rendering, payload compression and logging. Configs
// load from YAML files with ${ENV_VAR} substitution, so credentials and
// host-specific paths never need to live in the file itself.
package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/latticedata/lattice/pkg/errors"
)

// EngineConfig is the top-level configuration consumed by the CLI and by
// embedding applications.
type EngineConfig struct {
	// Logging controls the global structured logger.
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Vector steers column backend selection.
	Vector VectorConfig `yaml:"vector" json:"vector"`

	// Display controls frame rendering.
	Display DisplayConfig `yaml:"display" json:"display"`

	// Compress sets the default codec for encoded frame payloads.
	Compress CompressConfig `yaml:"compress" json:"compress"`
}

// LoggingConfig mirrors logger.Config in YAML form.
type LoggingConfig struct {
	// Level is the minimum level emitted: debug, info, warn or error.
	Level string `yaml:"level" json:"level"`
	// Encoding selects json or console output.
	Encoding string `yaml:"encoding" json:"encoding"`
	// Development switches to colored, developer-friendly output.
	Development bool `yaml:"development" json:"development"`
}

// VectorConfig carries the backend selection knobs.
type VectorConfig struct {
	// SampleSize bounds how many leading cells content analysis inspects.
	SampleSize int `yaml:"sample_size" json:"sample_size"`
	// PreferArrow biases classified untyped input toward the Arrow backend.
	PreferArrow bool `yaml:"prefer_arrow" json:"prefer_arrow"`
	// NeverArrow forbids the Arrow backend entirely.
	NeverArrow bool `yaml:"never_arrow" json:"never_arrow"`
}

// DisplayConfig carries frame rendering limits.
type DisplayConfig struct {
	// MaxRows caps how many rows a rendered frame shows before eliding.
	MaxRows int `yaml:"max_rows" json:"max_rows"`
	// MaxColWidth truncates rendered cells beyond this many runes.
	MaxColWidth int `yaml:"max_col_width" json:"max_col_width"`
}

// CompressConfig names the default payload codec.
type CompressConfig struct {
	// Codec is one of none, gzip, snappy, s2, lz4 or zstd.
	Codec string `yaml:"codec" json:"codec"`
	// Level is the codec-relative compression level (1 fastest, 9 best).
	Level int `yaml:"level" json:"level"`
}

// Default returns the configuration the engine runs with when no file is
// given.
func Default() *EngineConfig {
	return &EngineConfig{
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "json",
		},
		Vector: VectorConfig{
			SampleSize: 128,
		},
		Display: DisplayConfig{
			MaxRows:     20,
			MaxColWidth: 48,
		},
		Compress: CompressConfig{
			Codec: "none",
			Level: 5,
		},
	}
}

// Validate checks section values for shape errors. Codec names are validated
// where they are parsed, not here.
func (c *EngineConfig) Validate() error {
	if c.Vector.SampleSize <= 0 {
		return errors.Newf(errors.ErrorTypeValidation,
			"vector.sample_size must be positive, got %d", c.Vector.SampleSize)
	}
	if c.Vector.PreferArrow && c.Vector.NeverArrow {
		return errors.New(errors.ErrorTypeValidation,
			"vector.prefer_arrow conflicts with vector.never_arrow")
	}
	if c.Display.MaxRows <= 0 {
		return errors.Newf(errors.ErrorTypeValidation,
			"display.max_rows must be positive, got %d", c.Display.MaxRows)
	}
	if c.Display.MaxColWidth < 4 {
		return errors.Newf(errors.ErrorTypeValidation,
			"display.max_col_width must be at least 4, got %d", c.Display.MaxColWidth)
	}
	if c.Compress.Level < 0 || c.Compress.Level > 9 {
		return errors.Newf(errors.ErrorTypeValidation,
			"compress.level must be in [0, 9], got %d", c.Compress.Level)
	}
	switch c.Logging.Encoding {
	case "", "json", "console":
	default:
		return errors.Newf(errors.ErrorTypeValidation,
			"logging.encoding must be json or console, got %q", c.Logging.Encoding)
	}
	return nil
}

// Load reads a YAML config file into cfg after substituting environment
// variables written as ${VAR_NAME}.
func Load(path string, cfg interface{}) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the caller
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeValidation, "read config file")
	}

	content := substituteEnvVars(string(data))
	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return errors.Wrap(err, errors.ErrorTypeValidation, "parse config YAML")
	}
	return nil
}

// Save writes cfg to a YAML file.
func Save(path string, cfg interface{}) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "marshal config YAML")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec
		return errors.Wrap(err, errors.ErrorTypeValidation, "write config file")
	}
	return nil
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values.
// Unset variables substitute to the empty string.
func substituteEnvVars(content string) string {
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		content = content[:start] + os.Getenv(varName) + content[end+1:]
	}
	return content
}
