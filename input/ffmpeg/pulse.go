package ffmpeg

import (
	"context"

	"github.com/noriah/decibel/input"
	"github.com/noriah/decibel/input/parec"
)

func init() {
	input.RegisterBackend("ffmpeg-pulse", Pulse{})
}

// Pulse is the pulse input for FFmpeg. It lists devices the same way parec
// does.
type Pulse struct {
	parec.Backend
}

func (p Pulse) Start(ctx context.Context, cfg input.SessionConfig) (input.Session, error) {
	dv, err := device[parec.PulseDevice](cfg)
	if err != nil {
		return nil, err
	}

	return Start(ctx, dv, cfg)
}
