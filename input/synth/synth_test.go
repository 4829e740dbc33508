package synth

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/noriah/decibel/dsp"
	"github.com/noriah/decibel/input"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

func testConfig(d input.Device) input.SessionConfig {
	return input.SessionConfig{
		Device:     d,
		FrameSize:  2,
		SampleSize: 480,
		SampleRate: 48000,
	}
}

func TestLevelAt(t *testing.T) {
	sweep := Device{Name: "s", Level: 0, Sweep: 4 * time.Second}

	for _, trial := range []struct {
		at     time.Duration
		expect float64
	}{
		{0, SweepFloor},
		{time.Second, -30},
		{2 * time.Second, 0},
		{3 * time.Second, -30},
		{4 * time.Second, SweepFloor},
		{5 * time.Second, -30},
	} {
		if got := sweep.LevelAt(trial.at); !floats.EqualWithinAbs(got, trial.expect, 1e-9) {
			t.Errorf("LevelAt(%v) = %v, want %v", trial.at, got, trial.expect)
		}
	}

	steady := Device{Level: -12}
	if got := steady.LevelAt(time.Hour); got != -12 {
		t.Errorf("steady LevelAt = %v", got)
	}
}

func TestToneSession(t *testing.T) {
	tone, err := input.GetDevice(Backend{}, "tone")
	if err != nil {
		t.Fatalf("GetDevice: %v", err)
	}

	s, err := Backend{}.Start(context.Background(), testConfig(tone))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Close()

	for ch := 0; ch < 2; ch++ {
		db, err := s.PeakPower(context.Background(), ch)
		if err != nil {
			t.Fatalf("PeakPower(%d): %v", ch, err)
		}
		if !floats.EqualWithinAbs(db, -12, 0.01) {
			t.Errorf("channel %d peak = %v dBFS, want -12", ch, db)
		}
	}

	if _, err := s.PeakPower(context.Background(), 2); !errors.Is(err, input.ErrBadChannel) {
		t.Errorf("channel 2: err = %v", err)
	}
}

func TestSilenceSession(t *testing.T) {
	silence := Devices[len(Devices)-1]

	s, err := Backend{}.Start(context.Background(), testConfig(silence))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Close()

	db, err := s.PeakPower(context.Background(), 0)
	if err != nil {
		t.Fatalf("PeakPower: %v", err)
	}
	if db != dsp.MinDBFS {
		t.Errorf("silence peak = %v, want %v", db, dsp.MinDBFS)
	}
	if math.IsInf(db, 0) {
		t.Error("silence reported as infinity")
	}
}

func TestCloseStopsReadings(t *testing.T) {
	s, err := Backend{}.Start(context.Background(), testConfig(Devices[1]))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := s.PeakPower(context.Background(), 0); !errors.Is(err, input.ErrNotRecording) {
		t.Errorf("after Close: err = %v, want ErrNotRecording", err)
	}
}

func TestStartRejectsForeignDevice(t *testing.T) {
	cfg := testConfig(fakeDevice{})

	if _, err := (Backend{}).Start(context.Background(), cfg); err == nil {
		t.Error("foreign device accepted")
	}
}

type fakeDevice struct{}

func (fakeDevice) String() string { return "fake" }
