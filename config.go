package decibel

import (
	"context"

	"github.com/noriah/decibel/meter"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Limits on the capture shape.
const (
	MaxChannelCount = 8
	MaxSampleSize   = 16384
)

type (
	// SetupFunc is called before the capture starts.
	SetupFunc func() error
	// StartFunc may derive the context the session runs under. Outputs use
	// it to end the session, for example when the user quits.
	StartFunc func(ctx context.Context) (context.Context, error)
	// CleanupFunc is called once the session has ended.
	CleanupFunc func() error
)

type Config struct {
	// The name of the backend from the input package
	Backend string
	// The name of the device to pull data from
	Device string
	// The rate that samples are read
	SampleRate float64
	// The number of samples per batch
	SampleSize int
	// The number of channels to capture
	ChannelCount int

	// Sampling, conversion and window settings
	Meter meter.Config

	// Function to call when setting up the pipeline
	SetupFunc SetupFunc
	// Function to call when starting the pipeline
	StartFunc StartFunc
	// Function to call when cleaning up the pipeline
	CleanupFunc CleanupFunc
	// Where to send the window after each update
	Output Output
	// Receives sampler lifecycle events. Optional.
	OnEvent func(meter.Event)

	Logger zerolog.Logger
}

func NewZeroConfig() Config {
	return Config{
		SampleRate:   44100,
		SampleSize:   1024,
		ChannelCount: 1,
		Meter:        meter.DefaultConfig(),
		Logger:       zerolog.Nop(),
	}
}

func (cfg *Config) Validate() error {
	if cfg.SampleRate < float64(cfg.SampleSize) {
		return errors.New("sample rate lower than sample size")
	}

	if cfg.SampleSize < 4 {
		return errors.New("sample size too small (4+ required)")
	}

	switch {
	case cfg.ChannelCount > MaxChannelCount:
		return errors.Errorf("too many channels (%d max)", MaxChannelCount)

	case cfg.ChannelCount < 1:
		return errors.New("too few channels (1 min)")

	case cfg.SampleSize > MaxSampleSize:
		return errors.Errorf("sample size too large (%d max)", MaxSampleSize)

	case cfg.Meter.Channel >= cfg.ChannelCount:
		return errors.Errorf("metered channel %d not captured (%d channels)",
			cfg.Meter.Channel, cfg.ChannelCount)

	case cfg.Output == nil:
		return errors.New("no output")
	}

	return cfg.Meter.Validate()
}
