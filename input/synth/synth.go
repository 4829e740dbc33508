// Package synth is a capture backend that generates its own audio. It needs
// no hardware, which makes it useful for demos and tests.
package synth

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/noriah/decibel/dsp"
	"github.com/noriah/decibel/input"
	"github.com/pkg/errors"
)

func init() {
	input.RegisterBackend("synth", Backend{})
}

// SweepFloor is where a sweeping device starts and ends each cycle.
const SweepFloor = -60.0

// Device is a generated signal.
type Device struct {
	Name  string
	Freq  float64       // tone frequency in Hz
	Level float64       // peak level in dBFS
	Sweep time.Duration // if set, the level rises from SweepFloor to Level and back over this period
}

func (d Device) String() string {
	return d.Name
}

// LevelAt returns the peak level in dBFS after t of playback.
func (d Device) LevelAt(t time.Duration) float64 {
	if d.Sweep <= 0 {
		return d.Level
	}

	phase := math.Mod(float64(t)/float64(d.Sweep), 1)
	tri := 1 - math.Abs(2*phase-1)

	return SweepFloor + (d.Level-SweepFloor)*tri
}

// Devices are the signals the backend offers.
var Devices = []Device{
	{Name: "sweep", Freq: 440, Level: 0, Sweep: 4 * time.Second},
	{Name: "tone", Freq: 1000, Level: -12},
	{Name: "quiet", Freq: 1000, Level: -48},
	{Name: "silence", Freq: 1000, Level: math.Inf(-1)},
}

type Backend struct{}

func (Backend) Init() error {
	return nil
}

func (Backend) Close() error {
	return nil
}

func (Backend) Devices() ([]input.Device, error) {
	out := make([]input.Device, len(Devices))
	for i, d := range Devices {
		out[i] = d
	}
	return out, nil
}

func (Backend) DefaultDevice() (input.Device, error) {
	return Devices[0], nil
}

func (Backend) Start(ctx context.Context, cfg input.SessionConfig) (input.Session, error) {
	dv, ok := cfg.Device.(Device)
	if !ok {
		return nil, errors.Errorf("invalid device type %T", cfg.Device)
	}

	return input.StartSession(ctx, cfg, NewSession(dv, cfg))
}

// Session writes one buffer of the signal every buffer duration. It
// implements input.Producer.
type Session struct {
	device Device
	cfg    input.SessionConfig
}

func NewSession(d Device, cfg input.SessionConfig) *Session {
	return &Session{device: d, cfg: cfg}
}

func (s *Session) Start(ctx context.Context, dst [][]input.Sample, kickChan chan bool, mu *sync.Mutex) error {
	if !input.EnsureBufferLen(s.cfg, dst) {
		return errors.New("invalid dst length given")
	}

	period := s.cfg.BufferDuration()
	if period <= 0 {
		return errors.New("buffer duration too short")
	}

	oscs := make([]dsp.Oscillator, len(dst))
	for i := range oscs {
		oscs[i] = dsp.Oscillator{Freq: s.device.Freq, Rate: s.cfg.SampleRate}
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	var elapsed time.Duration

	for {
		amp := dsp.Amplitude(s.device.LevelAt(elapsed))
		elapsed += period

		mu.Lock()
		for ch := range dst {
			oscs[ch].Fill(dst[ch][:s.cfg.SampleSize], amp)
		}
		mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case kickChan <- true:
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
