// Package dsp provides the sample math behind the level readings.
package dsp

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// MinDBFS is the quietest level we report. Digital silence reads as this
// instead of -Inf.
const MinDBFS = -160.0

// Peak returns the largest absolute sample in buf. An empty buffer has no
// peak and returns 0.
func Peak(buf []float64) float64 {
	if len(buf) == 0 {
		return 0
	}

	return math.Max(math.Abs(floats.Max(buf)), math.Abs(floats.Min(buf)))
}

// DBFS converts a linear amplitude, where 1 is full scale, to decibels
// relative to full scale. The result never goes below MinDBFS.
func DBFS(amplitude float64) float64 {
	if !(amplitude > 0) {
		return MinDBFS
	}

	return math.Max(MinDBFS, 20*math.Log10(amplitude))
}

// Amplitude is the inverse of DBFS.
func Amplitude(dbfs float64) float64 {
	return math.Pow(10, dbfs/20)
}
