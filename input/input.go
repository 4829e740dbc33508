// Package input provides capture backends and the per-channel peak
// accumulator that turns their sample buffers into level readings.
package input

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// errors
var (
	// ErrNotRecording is returned by PeakPower before the first buffer
	// arrives and after the session is closed.
	ErrNotRecording = errors.New("not recording")
	// ErrNoReading is returned when the capture has stopped delivering
	// buffers for longer than the stale interval.
	ErrNoReading = errors.New("no recent reading")
	// ErrBadChannel is returned for a channel the session does not capture.
	ErrBadChannel = errors.New("channel out of range")
)

// Sample is the datatype backends write into session buffers.
type Sample = float64

// Device is a capture device of a backend.
type Device interface {
	fmt.Stringer
}

// SessionConfig describes the capture a backend should start.
type SessionConfig struct {
	Device     Device
	FrameSize  int     // number of channels per frame
	SampleSize int     // number of frames per buffer
	SampleRate float64 // sample rate
}

// BufferDuration is how long one buffer of audio lasts.
func (cfg SessionConfig) BufferDuration() time.Duration {
	if cfg.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(cfg.SampleSize) / cfg.SampleRate * float64(time.Second))
}

// Validate checks that the buffer shape is usable.
func (cfg SessionConfig) Validate() error {
	switch {
	case cfg.Device == nil:
		return errors.New("no device given")
	case cfg.FrameSize < 1:
		return errors.Errorf("invalid channel count %d", cfg.FrameSize)
	case cfg.SampleSize < 1:
		return errors.Errorf("invalid sample size %d", cfg.SampleSize)
	case !(cfg.SampleRate > 0):
		return errors.Errorf("invalid sample rate %v", cfg.SampleRate)
	}
	return nil
}

// Session is a running capture.
type Session interface {
	// PeakPower returns the peak level of channel, in dBFS, since the
	// previous call.
	PeakPower(ctx context.Context, channel int) (float64, error)
	// Close stops the capture. It blocks until the capture has stopped.
	Close() error
}

// MakeBuffers allocates a slice of sample buffers, one per channel.
func MakeBuffers(channels, samples int) [][]Sample {
	buf := make([]Sample, channels*samples)
	out := make([][]Sample, channels)

	for i := range out {
		out[i] = buf[i*samples : (i+1)*samples : (i+1)*samples]
	}

	return out
}

// EnsureBufferLen reports whether dst has the shape cfg asks for.
func EnsureBufferLen(cfg SessionConfig, dst [][]Sample) bool {
	if len(dst) != cfg.FrameSize {
		return false
	}

	for _, buf := range dst {
		if len(buf) < cfg.SampleSize {
			return false
		}
	}

	return true
}
