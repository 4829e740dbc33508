// Package meter turns raw peak readings into a scrolling history of display
// levels.
package meter

import "math"

// Converter defaults
const (
	DefaultFloorDB = -60.0
	DefaultCeiling = 100.0
	DefaultRoot    = 2.0
)

// Converter maps dBFS readings onto a perceptual 0..Ceiling scale.
type Converter struct {
	Floor   float64 // dBFS at and below which the level is 0
	Ceiling float64 // level reported for 0 dBFS and above
	Root    float64 // curve root, 2 is a square-root curve
}

// NewConverter returns a square-root converter for the given floor and ceiling.
func NewConverter(floor, ceiling float64) Converter {
	return Converter{
		Floor:   floor,
		Ceiling: ceiling,
		Root:    DefaultRoot,
	}
}

// Convert maps raw onto the square-root curve between floor and 0 dBFS,
// scaled to ceiling.
func Convert(raw, floor, ceiling float64) float64 {
	return NewConverter(floor, ceiling).Convert(raw)
}

// Convert maps a dBFS reading to a level in [0, Ceiling].
func (c Converter) Convert(raw float64) float64 {
	switch {
	case math.IsNaN(raw), raw < c.Floor:
		return 0
	case raw >= 0:
		return c.Ceiling
	}

	minAmp := math.Pow(10, 0.05*c.Floor)
	inverseRange := 1 / (1 - minAmp)
	amp := math.Pow(10, 0.05*raw)
	adjAmp := (amp - minAmp) * inverseRange

	level := math.Pow(adjAmp, 1/c.Root) * c.Ceiling

	return math.Max(0, math.Min(level, c.Ceiling))
}
