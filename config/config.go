// Package config loads decibel settings from a YAML file.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/noriah/decibel"
	"github.com/noriah/decibel/graphic"
	"github.com/noriah/decibel/meter"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Output names
const (
	OutputTerm = "term"
	OutputText = "text"
	OutputWS   = "ws"
)

var validate = validator.New()

// Display holds the terminal chart geometry.
type Display struct {
	Bar   int `yaml:"bar" validate:"gte=1"`
	Space int `yaml:"space" validate:"gte=0"`
	Base  int `yaml:"base" validate:"gte=0"`
}

// Config is the file layout. Keys left out of a file keep their defaults.
type Config struct {
	// Backend is the backend name from list-backends
	Backend string `yaml:"backend"`
	// Device is the device name from list-devices
	Device string `yaml:"device"`
	// SampleRate is the rate at which samples are read
	SampleRate float64 `yaml:"sample_rate" validate:"gt=0"`
	// SampleSize is the number of frames per capture buffer
	SampleSize int `yaml:"sample_size" validate:"gte=4,lte=16384"`
	// Channels is the number of channels captured
	Channels int `yaml:"channels" validate:"gte=1,lte=8"`

	// Output is one of term, text or ws
	Output string `yaml:"output" validate:"oneof=term text ws"`
	// Listen is the websocket address for the ws output
	Listen string `yaml:"listen" validate:"required_if=Output ws"`
	// Path is the websocket path
	Path string `yaml:"path" validate:"startswith=/"`

	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFile  string `yaml:"log_file"`

	Meter   meter.Config  `yaml:"meter" validate:"-"`
	Bands   graphic.Bands `yaml:"bands"`
	Display Display       `yaml:"display"`
}

// Default returns the settings used without a config file. The meter
// ceiling is the top of the default chart scale.
func Default() Config {
	bands := graphic.DefaultBands()

	m := meter.DefaultConfig()
	m.Ceiling = bands.Max

	return Config{
		SampleRate: 44100,
		SampleSize: 1024,
		Channels:   1,
		Output:     OutputTerm,
		Listen:     "127.0.0.1:8090",
		Path:       "/levels",
		LogLevel:   "info",
		Meter:      m,
		Bands:      bands,
		Display: Display{
			Bar:   2,
			Space: 1,
			Base:  1,
		},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "failed to read config file")
	}

	if err := Parse(data, &cfg); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

// Parse decodes YAML data into cfg. Unknown keys are rejected.
func Parse(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return errors.Wrap(err, "failed to parse config file")
	}

	return nil
}

// Validate checks every field, then the meter settings and the bands. The
// bands must be scaled to the meter ceiling so a full level fills the chart.
func (cfg Config) Validate() error {
	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return errors.Wrap(err, "invalid config")
		}

		msgs := make([]string, len(fieldErrs))
		for i, fe := range fieldErrs {
			msgs[i] = formatFieldError(fe)
		}
		return errors.Errorf("invalid config: %s", strings.Join(msgs, "; "))
	}

	if cfg.Meter.Channel >= cfg.Channels {
		return errors.Errorf("invalid config: meter channel %d not captured (%d channels)",
			cfg.Meter.Channel, cfg.Channels)
	}

	if err := cfg.Meter.Validate(); err != nil {
		return err
	}

	if err := cfg.Bands.Validate(); err != nil {
		return errors.Wrap(err, "invalid config")
	}

	if ceiling := cfg.Meter.WithDefaults().Ceiling; cfg.Bands.Max != ceiling {
		return errors.Errorf("invalid config: bands max %v differs from meter ceiling %v",
			cfg.Bands.Max, ceiling)
	}

	return nil
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Namespace(), fe.Param())
	case "required_if":
		return fmt.Sprintf("%s is required", fe.Namespace())
	case "startswith":
		return fmt.Sprintf("%s must start with %q", fe.Namespace(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s %s", fe.Namespace(), fe.Tag(), fe.Param())
	}
}

// Session returns the session settings. Output and the hooks are left for
// the caller.
func (cfg Config) Session() decibel.Config {
	sess := decibel.NewZeroConfig()

	sess.Backend = cfg.Backend
	sess.Device = cfg.Device
	sess.SampleRate = cfg.SampleRate
	sess.SampleSize = cfg.SampleSize
	sess.ChannelCount = cfg.Channels
	sess.Meter = cfg.Meter.WithDefaults()

	return sess
}
