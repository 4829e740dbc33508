package dsp

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Oscillator generates a sine wave across successive buffers without
// discontinuities.
type Oscillator struct {
	Freq float64 // tone frequency in Hz
	Rate float64 // sample rate in Hz

	phase float64
}

// Fill writes the next len(buf) samples at the given peak amplitude.
func (o *Oscillator) Fill(buf []float64, amplitude float64) {
	if o.Rate <= 0 {
		floats.Scale(0, buf)
		return
	}

	step := 2 * math.Pi * o.Freq / o.Rate

	for i := range buf {
		buf[i] = math.Sin(o.phase)
		o.phase += step
	}

	o.phase = math.Mod(o.phase, 2*math.Pi)

	floats.Scale(amplitude, buf)
}
