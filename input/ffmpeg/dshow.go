//go:build windows

package ffmpeg

import (
	"context"

	"github.com/noriah/decibel/input"
)

func init() {
	input.RegisterBackend("ffmpeg-dshow", DShow{})
}

// DShow is the DirectShow input for FFmpeg on Windows.
type DShow struct{ stateless }

// Devices returns a list of dshow devices.
func (p DShow) Devices() ([]input.Device, error) {
	o, _ := listDevices("dshow")
	return parseDShowDevices(o)
}

// DefaultDevice returns the first audio device, since dshow has no default.
func (p DShow) DefaultDevice() (input.Device, error) {
	devices, err := p.Devices()
	if err != nil {
		return nil, err
	}
	return devices[0], nil
}

func (p DShow) Start(ctx context.Context, cfg input.SessionConfig) (input.Session, error) {
	dv, err := device[DShowDevice](cfg)
	if err != nil {
		return nil, err
	}

	return Start(ctx, dv, cfg)
}
