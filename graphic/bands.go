package graphic

import "github.com/pkg/errors"

// Band is where a level sits relative to the target range.
type Band int

// Bands
const (
	BandBelow Band = iota
	BandTarget
	BandAbove
)

func (b Band) String() string {
	switch b {
	case BandBelow:
		return "below"
	case BandTarget:
		return "target"
	case BandAbove:
		return "above"
	}
	return "unknown"
}

// Bands split the level scale into a target range. Levels are drawn scaled
// to Max.
type Bands struct {
	Low  float64 `yaml:"low"`  // lower edge of the target range
	High float64 `yaml:"high"` // upper edge of the target range
	Max  float64 `yaml:"max"`  // top of the scale
}

// DefaultBands returns the target range 60 to 80 on a scale of 120.
func DefaultBands() Bands {
	return Bands{Low: 60, High: 80, Max: 120}
}

// Validate checks that 0 <= Low <= High <= Max and Max > 0.
func (b Bands) Validate() error {
	switch {
	case !(b.Max > 0):
		return errors.Errorf("band max %v must be > 0", b.Max)
	case b.Low < 0 || b.Low > b.High:
		return errors.Errorf("band low %v must be within [0, %v]", b.Low, b.High)
	case b.High > b.Max:
		return errors.Errorf("band high %v must be <= max %v", b.High, b.Max)
	}
	return nil
}

// Classify returns the band of level. The target range includes both edges.
func (b Bands) Classify(level float64) Band {
	switch {
	case level < b.Low:
		return BandBelow
	case level > b.High:
		return BandAbove
	}
	return BandTarget
}
