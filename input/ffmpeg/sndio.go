package ffmpeg

import (
	"context"
	"path/filepath"

	"github.com/noriah/decibel/input"
	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

func init() {
	input.RegisterBackend("ffmpeg-sndio", Sndio{})
}

// Sndio is the sndio input for FFmpeg.
type Sndio struct{ stateless }

// Devices returns a list of sndio devices from /dev/audio*. This is
// kernel-specific and is only known to work on OpenBSD.
func (p Sndio) Devices() ([]input.Device, error) {
	n, err := filepath.Glob("/dev/audio*")
	if err != nil {
		return nil, errors.Wrap(err, "failed to glob /dev/audio")
	}

	var devices = make([]input.Device, len(n))
	for i, path := range n {
		devices[i] = SndioDevice(path)
	}

	return devices, nil
}

func (p Sndio) DefaultDevice() (input.Device, error) {
	return SndioDevice("/dev/audio0"), nil
}

func (p Sndio) Start(ctx context.Context, cfg input.SessionConfig) (input.Session, error) {
	dv, err := device[SndioDevice](cfg)
	if err != nil {
		return nil, err
	}

	return Start(ctx, dv, cfg)
}

// SndioDevice is a string that is the path to /dev/audioN.
type SndioDevice string

func (d SndioDevice) InputArgs() (string, ffmpeg.KwArgs) {
	return string(d), ffmpeg.KwArgs{"f": "sndio"}
}

func (d SndioDevice) String() string {
	return string(d)
}
