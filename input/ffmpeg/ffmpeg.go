// Package ffmpeg captures through an ffmpeg process that writes raw f64le
// frames to its stdout.
package ffmpeg

import (
	"context"
	"fmt"

	"github.com/noriah/decibel/input"
	"github.com/noriah/decibel/input/common/execread"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// FFmpegBackend is a device that knows how ffmpeg should open it.
type FFmpegBackend interface {
	// InputArgs returns the input url and the options that go before it.
	InputArgs() (string, ffmpeg.KwArgs)
}

// stateless backends keep nothing between sessions.
type stateless struct{}

func (stateless) Init() error  { return nil }
func (stateless) Close() error { return nil }

// Args returns the ffmpeg command line for capturing from b.
func Args(b FFmpegBackend, cfg input.SessionConfig) []string {
	url, opts := b.InputArgs()

	inputOpts := ffmpeg.KwArgs{
		"hide_banner": "",
		"loglevel":    "panic",
	}
	for k, v := range opts {
		inputOpts[k] = v
	}

	stream := ffmpeg.Input(url, inputOpts).
		Output("pipe:", ffmpeg.KwArgs{
			"ar": fmt.Sprintf("%.0f", cfg.SampleRate),
			"ac": fmt.Sprintf("%d", cfg.FrameSize),
			"f":  "f64le",
		})

	return append([]string{"ffmpeg"}, stream.GetArgs()...)
}

func NewSession(b FFmpegBackend, cfg input.SessionConfig) *execread.Session {
	return execread.NewSession(Args(b, cfg), execread.F64LE, cfg)
}

// Start runs ffmpeg for b and meters its output.
func Start(ctx context.Context, b FFmpegBackend, cfg input.SessionConfig) (input.Session, error) {
	return input.StartSession(ctx, cfg, NewSession(b, cfg))
}

// device checks that the configured device is of type T.
func device[T input.Device](cfg input.SessionConfig) (T, error) {
	dv, ok := cfg.Device.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("invalid device type %T", cfg.Device)
	}
	return dv, nil
}
