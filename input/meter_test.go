package input

import (
	"context"
	"testing"
	"time"

	"github.com/noriah/decibel/dsp"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestMeter(channels int, stale time.Duration) (*PeakMeter, *fakeClock) {
	clock := &fakeClock{now: time.Unix(100, 0)}
	m := NewPeakMeter(channels, stale)
	m.now = clock.Now
	return m, clock
}

func peak(t *testing.T, m *PeakMeter, ch int) float64 {
	t.Helper()

	db, err := m.PeakPower(context.Background(), ch)
	if err != nil {
		t.Fatalf("PeakPower(%d): %v", ch, err)
	}
	return db
}

func TestPeakMeterHoldsLoudestSample(t *testing.T) {
	m, _ := newTestMeter(2, 0)

	m.Update([][]Sample{{0.1, -0.2}, {0.01, 0}})
	m.Update([][]Sample{{0.5, 0.05}, {-0.001, 0}})

	if db := peak(t, m, 0); !floats.EqualWithinAbs(db, dsp.DBFS(0.5), 1e-9) {
		t.Errorf("left = %v dBFS", db)
	}
	if db := peak(t, m, 1); !floats.EqualWithinAbs(db, -40, 1e-9) {
		t.Errorf("right = %v dBFS, want -40", db)
	}
}

func TestPeakMeterStartsNewIntervalOnRead(t *testing.T) {
	m, _ := newTestMeter(1, 0)

	m.Update([][]Sample{{1}})
	if db := peak(t, m, 0); db != 0 {
		t.Fatalf("first read = %v, want 0 dBFS", db)
	}

	m.Update([][]Sample{{0.1}})
	if db := peak(t, m, 0); !floats.EqualWithinAbs(db, -20, 1e-9) {
		t.Errorf("second read = %v, want -20 dBFS", db)
	}
}

func TestPeakMeterRepeatsWithoutNewAudio(t *testing.T) {
	m, _ := newTestMeter(1, time.Second)

	m.Update([][]Sample{{0.1}})
	first := peak(t, m, 0)

	if again := peak(t, m, 0); again != first {
		t.Errorf("read without audio = %v, want %v", again, first)
	}
}

func TestPeakMeterErrors(t *testing.T) {
	m, clock := newTestMeter(2, 300*time.Millisecond)

	if _, err := m.PeakPower(context.Background(), 0); !errors.Is(err, ErrNotRecording) {
		t.Errorf("before audio: err = %v", err)
	}

	m.Update([][]Sample{{0.5}, {0.5}})

	for _, ch := range []int{-1, 2} {
		if _, err := m.PeakPower(context.Background(), ch); !errors.Is(err, ErrBadChannel) {
			t.Errorf("channel %d: err = %v", ch, err)
		}
	}

	clock.now = clock.now.Add(time.Second)
	if _, err := m.PeakPower(context.Background(), 0); !errors.Is(err, ErrNoReading) {
		t.Errorf("stale: err = %v", err)
	}

	m.Update([][]Sample{{0.5}, {0.5}})
	peak(t, m, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.PeakPower(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled: err = %v", err)
	}

	m.Close()
	m.Update([][]Sample{{0.5}, {0.5}})
	if _, err := m.PeakPower(context.Background(), 0); !errors.Is(err, ErrNotRecording) {
		t.Errorf("closed: err = %v", err)
	}
}

func TestMakeBuffers(t *testing.T) {
	bufs := MakeBuffers(3, 16)

	cfg := SessionConfig{FrameSize: 3, SampleSize: 16}
	if !EnsureBufferLen(cfg, bufs) {
		t.Fatal("MakeBuffers shape rejected")
	}

	// channels do not overlap
	bufs[0] = append(bufs[0], 1)
	if bufs[1][0] != 0 {
		t.Error("appending to one channel wrote into the next")
	}

	if EnsureBufferLen(SessionConfig{FrameSize: 2, SampleSize: 16}, bufs) {
		t.Error("wrong channel count accepted")
	}
	if EnsureBufferLen(SessionConfig{FrameSize: 3, SampleSize: 17}, MakeBuffers(3, 16)) {
		t.Error("short buffers accepted")
	}
}

func TestSessionConfig(t *testing.T) {
	cfg := SessionConfig{Device: testDevice("x"), FrameSize: 2, SampleSize: 441, SampleRate: 44100}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	if d := cfg.BufferDuration(); d != 10*time.Millisecond {
		t.Errorf("BufferDuration = %v", d)
	}

	for _, bad := range []SessionConfig{
		{FrameSize: 2, SampleSize: 441, SampleRate: 44100},
		{Device: testDevice("x"), FrameSize: 0, SampleSize: 441, SampleRate: 44100},
		{Device: testDevice("x"), FrameSize: 2, SampleSize: 0, SampleRate: 44100},
		{Device: testDevice("x"), FrameSize: 2, SampleSize: 441},
	} {
		if bad.Validate() == nil {
			t.Errorf("accepted %+v", bad)
		}
	}
}
