// Package decibel runs a level meter session: it captures from an input
// backend, samples the peak level on a fixed period and hands the scrolling
// history to an output after every update.
package decibel

import (
	"context"

	"github.com/noriah/decibel/input"
	"github.com/noriah/decibel/meter"
	"github.com/pkg/errors"
)

// Output receives the level history, oldest first, after each update. The
// slice is only valid during the call.
type Output interface {
	Write(levels []float64) error
}

// OutputFunc adapts a function to an Output.
type OutputFunc func(levels []float64) error

func (f OutputFunc) Write(levels []float64) error {
	return f(levels)
}

// Source is what Render pulls from. *meter.Sampler implements it.
type Source interface {
	Updates() <-chan struct{}
	Snapshot() []float64
}

// Capture opens sessions on an input backend for a sampler.
type Capture struct {
	Backend input.Backend
	Session input.SessionConfig
}

// Open implements meter.Capture.
func (c Capture) Open(ctx context.Context) (meter.Reader, error) {
	s, err := c.Backend.Start(ctx, c.Session)
	if err != nil {
		return nil, errors.Wrap(err, "failed to start the input backend")
	}
	return s, nil
}

// Run meters the configured device until ctx is done. A failure to start the
// capture is returned as an error matching meter.ErrSessionStart.
func Run(cfg *Config, ctx context.Context) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := cfg.Logger

	backend, err := input.InitBackend(cfg.Backend)
	if err != nil {
		return err
	}
	defer backend.Close()

	sessConfig := input.SessionConfig{
		FrameSize:  cfg.ChannelCount,
		SampleSize: cfg.SampleSize,
		SampleRate: cfg.SampleRate,
	}

	if sessConfig.Device, err = input.GetDevice(backend, cfg.Device); err != nil {
		return err
	}

	sampler, err := meter.New(cfg.Meter, Capture{
		Backend: backend,
		Session: sessConfig,
	})
	if err != nil {
		return err
	}

	sampler.Log = log.With().Str("component", "sampler").Logger()
	sampler.OnEvent = func(e meter.Event) {
		log.Debug().Stringer("event", e).Msg("sampler event")
		if cfg.OnEvent != nil {
			cfg.OnEvent(e)
		}
	}

	if cfg.SetupFunc != nil {
		if err := cfg.SetupFunc(); err != nil {
			return err
		}
	}

	if cfg.CleanupFunc != nil {
		defer cfg.CleanupFunc()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.StartFunc != nil {
		if ctx, err = cfg.StartFunc(ctx); err != nil {
			return err
		}
	}

	log.Info().
		Str("backend", cfg.Backend).
		Stringer("device", sessConfig.Device).
		Dur("period", cfg.Meter.Period).
		Int("capacity", cfg.Meter.WindowCapacity).
		Msg("starting level meter")

	if err := sampler.Start(ctx); err != nil {
		return err
	}
	defer sampler.Stop()

	return Render(ctx, sampler, cfg.Output)
}

// Render writes a snapshot of src to out after each update until ctx is done.
func Render(ctx context.Context, src Source, out Output) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-src.Updates():
		}

		levels := src.Snapshot()
		if levels == nil {
			continue
		}

		if err := out.Write(levels); err != nil {
			return errors.Wrap(err, "failed to write levels")
		}
	}
}
