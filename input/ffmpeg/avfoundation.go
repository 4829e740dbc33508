//go:build darwin

package ffmpeg

import (
	"context"

	"github.com/noriah/decibel/input"
)

func init() {
	input.RegisterBackend("ffmpeg-avfoundation", AVFoundation{})
}

// AVFoundation is the avfoundation input for FFmpeg.
type AVFoundation struct{ stateless }

// Devices asks ffmpeg for the avfoundation audio devices.
func (p AVFoundation) Devices() ([]input.Device, error) {
	o, _ := listDevices("avfoundation")
	return parseAVFoundationDevices(o)
}

func (p AVFoundation) DefaultDevice() (input.Device, error) {
	return AVFoundationDevice{-1, "default"}, nil
}

func (p AVFoundation) Start(ctx context.Context, cfg input.SessionConfig) (input.Session, error) {
	dv, err := device[AVFoundationDevice](cfg)
	if err != nil {
		return nil, err
	}

	return Start(ctx, dv, cfg)
}
