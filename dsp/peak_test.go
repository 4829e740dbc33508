package dsp

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
)

func TestPeak(t *testing.T) {
	for _, trial := range []struct {
		name   string
		buf    []float64
		expect float64
	}{
		{"empty", nil, 0},
		{"silence", []float64{0, 0, 0}, 0},
		{"positive", []float64{0.1, 0.5, -0.2}, 0.5},
		{"negative", []float64{0.1, -0.75, 0.3}, 0.75},
		{"clipped", []float64{-1, 1}, 1},
	} {
		if got := Peak(trial.buf); got != trial.expect {
			t.Errorf("%s: Peak = %v, want %v", trial.name, got, trial.expect)
		}
	}
}

func TestDBFS(t *testing.T) {
	for _, trial := range []struct {
		amp    float64
		expect float64
	}{
		{1, 0},
		{0.5, -6.020599913279624},
		{0.1, -20},
		{0, MinDBFS},
		{-1, MinDBFS},
		{math.NaN(), MinDBFS},
		{1e-12, MinDBFS},
		{2, 6.020599913279624},
	} {
		if got := DBFS(trial.amp); !floats.EqualWithinAbs(got, trial.expect, 1e-9) {
			t.Errorf("DBFS(%v) = %v, want %v", trial.amp, got, trial.expect)
		}
	}
}

func TestAmplitudeInvertsDBFS(t *testing.T) {
	for _, db := range []float64{0, -3, -20, -60, -120} {
		if got := DBFS(Amplitude(db)); !floats.EqualWithinAbs(got, db, 1e-9) {
			t.Errorf("DBFS(Amplitude(%v)) = %v", db, got)
		}
	}
}

func TestOscillatorFill(t *testing.T) {
	osc := Oscillator{Freq: 1000, Rate: 48000}

	buf := make([]float64, 480)
	osc.Fill(buf, 0.25)

	if p := Peak(buf); !floats.EqualWithinAbs(p, 0.25, 1e-3) {
		t.Errorf("peak = %v, want 0.25", p)
	}

	// the next buffer continues the wave
	next := make([]float64, 1)
	osc.Fill(next, 0.25)

	want := 0.25 * math.Sin(2*math.Pi*1000/48000*480)
	if !floats.EqualWithinAbs(next[0], want, 1e-9) {
		t.Errorf("first sample of next buffer = %v, want %v", next[0], want)
	}
}

func TestOscillatorWithoutRate(t *testing.T) {
	var osc Oscillator

	buf := []float64{1, 2, 3}
	osc.Fill(buf, 1)

	if Peak(buf) != 0 {
		t.Errorf("buf = %v, want silence", buf)
	}
}
