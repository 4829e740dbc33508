package main

import (
	"time"

	"github.com/noriah/decibel/config"
	"github.com/pkg/errors"
)

// flags holds command line values. Zero values leave the config file or the
// defaults in place.
type flags struct {
	configPath string

	backend    string
	device     string
	sampleRate float64
	sampleSize int
	channels   int
	channel    int

	period   string
	capacity int
	floor    float64
	ceiling  float64

	output string
	listen string

	barSize   int
	spaceSize int
	baseSize  int

	logLevel string
	logFile  string
}

func newFlags() flags {
	return flags{channel: -1, baseSize: -1, spaceSize: -1}
}

// apply overlays the flags that were given onto cfg.
func (f flags) apply(cfg *config.Config) error {
	if f.backend != "" {
		cfg.Backend = f.backend
	}
	if f.device != "" {
		cfg.Device = f.device
	}
	if f.sampleRate > 0 {
		cfg.SampleRate = f.sampleRate
	}
	if f.sampleSize > 0 {
		cfg.SampleSize = f.sampleSize
	}
	if f.channels > 0 {
		cfg.Channels = f.channels
	}
	if f.channel >= 0 {
		cfg.Meter.Channel = f.channel
	}

	if f.period != "" {
		period, err := time.ParseDuration(f.period)
		if err != nil {
			return errors.Wrap(err, "invalid period")
		}
		cfg.Meter.Period = period
	}
	if f.capacity > 0 {
		cfg.Meter.WindowCapacity = f.capacity
	}
	if f.floor < 0 {
		cfg.Meter.FloorDB = f.floor
	}
	if f.ceiling > 0 {
		cfg.Meter.Ceiling = f.ceiling
		cfg.Bands.Max = f.ceiling
	}

	if f.output != "" {
		cfg.Output = f.output
	}
	if f.listen != "" {
		cfg.Listen = f.listen
	}

	if f.barSize > 0 {
		cfg.Display.Bar = f.barSize
	}
	if f.spaceSize >= 0 {
		cfg.Display.Space = f.spaceSize
	}
	if f.baseSize >= 0 {
		cfg.Display.Base = f.baseSize
	}

	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if f.logFile != "" {
		cfg.LogFile = f.logFile
	}

	return cfg.Validate()
}
