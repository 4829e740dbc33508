package meter

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// Sampler defaults
const (
	DefaultPeriod          = 100 * time.Millisecond
	DefaultToleratedJitter = 10 * time.Millisecond
	DefaultWindowCapacity  = 100
	DefaultMissThreshold   = 10
)

var validate = validator.New()

// Config holds the settings of one sampling session. It cannot change while
// a session runs; start a new session instead.
type Config struct {
	// Period is the time between ticks.
	Period time.Duration `yaml:"period" validate:"gt=0"`
	// ToleratedJitter is how late a tick may be before it is counted as late.
	ToleratedJitter time.Duration `yaml:"tolerated_jitter" validate:"gte=0"`
	// WindowCapacity is the number of levels kept in the history.
	WindowCapacity int `yaml:"window_capacity" validate:"gt=0"`
	// FloorDB is the dBFS reading treated as silence.
	FloorDB float64 `yaml:"floor_db" validate:"lt=0"`
	// Ceiling is the level reported at full scale.
	Ceiling float64 `yaml:"ceiling" validate:"gt=0"`
	// Root shapes the curve. 2 gives the square-root curve.
	Root float64 `yaml:"root" validate:"gt=0"`
	// Channel selects the capture channel to read.
	Channel int `yaml:"channel" validate:"gte=0"`
	// ReadTimeout bounds a single capture read. Zero uses half the period.
	ReadTimeout time.Duration `yaml:"read_timeout" validate:"gte=0"`
	// MissThreshold is the number of consecutive missed ticks before the
	// capture is reported unavailable. Zero never reports.
	MissThreshold int `yaml:"miss_threshold" validate:"gte=0"`
}

// DefaultConfig returns the settings used when none are given.
func DefaultConfig() Config {
	return Config{
		Period:          DefaultPeriod,
		ToleratedJitter: DefaultToleratedJitter,
		WindowCapacity:  DefaultWindowCapacity,
		FloorDB:         DefaultFloorDB,
		Ceiling:         DefaultCeiling,
		Root:            DefaultRoot,
		MissThreshold:   DefaultMissThreshold,
	}
}

// WithDefaults returns a copy of cfg with zero fields set to their defaults.
// Channel, ToleratedJitter and MissThreshold keep their zero values.
func (cfg Config) WithDefaults() Config {
	def := DefaultConfig()

	if cfg.Period == 0 {
		cfg.Period = def.Period
	}
	if cfg.WindowCapacity == 0 {
		cfg.WindowCapacity = def.WindowCapacity
	}
	if cfg.FloorDB == 0 {
		cfg.FloorDB = def.FloorDB
	}
	if cfg.Ceiling == 0 {
		cfg.Ceiling = def.Ceiling
	}
	if cfg.Root == 0 {
		cfg.Root = def.Root
	}

	return cfg
}

// Validate reports every field that is out of range. The error matches
// ErrConfigurationInvalid.
func (cfg Config) Validate() error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.Wrap(ErrConfigurationInvalid, err.Error())
	}

	msgs := make([]string, len(fieldErrs))
	for i, fe := range fieldErrs {
		msgs[i] = fmt.Sprintf("%s must be %s %s", fe.Field(), opName(fe.Tag()), fe.Param())
	}

	return invalid("%s", strings.Join(msgs, "; "))
}

// Converter returns the level converter for this config.
func (cfg Config) Converter() Converter {
	return Converter{
		Floor:   cfg.FloorDB,
		Ceiling: cfg.Ceiling,
		Root:    cfg.Root,
	}
}

func (cfg Config) readTimeout() time.Duration {
	if cfg.ReadTimeout > 0 {
		return cfg.ReadTimeout
	}
	return cfg.Period / 2
}

func opName(tag string) string {
	switch tag {
	case "gt":
		return ">"
	case "gte":
		return ">="
	case "lt":
		return "<"
	case "lte":
		return "<="
	default:
		return tag
	}
}
