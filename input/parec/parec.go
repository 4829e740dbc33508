// Package parec captures from PulseAudio, or PipeWire's pulse server, with
// the parec recorder.
package parec

import (
	"context"
	"fmt"

	"github.com/lawl/pulseaudio"
	"github.com/noriah/decibel/input"
	"github.com/noriah/decibel/input/common/execread"
	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

func init() {
	input.RegisterBackend("parec", Backend{})
}

// Backend lists sources over the PulseAudio protocol and records them with
// parec.
type Backend struct{}

func (Backend) Init() error  { return nil }
func (Backend) Close() error { return nil }

func (p Backend) Devices() ([]input.Device, error) {
	c, err := pulseaudio.NewClient()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create client")
	}
	defer c.Close()

	s, err := c.Sources()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get sources")
	}

	var devices = make([]input.Device, len(s))
	for i, source := range s {
		devices[i] = PulseDevice(source.Name)
	}

	return devices, nil
}

func (p Backend) DefaultDevice() (input.Device, error) {
	return PulseDevice("default"), nil
}

func (p Backend) Start(ctx context.Context, cfg input.SessionConfig) (input.Session, error) {
	s, err := NewSession(cfg)
	if err != nil {
		return nil, err
	}

	return input.StartSession(ctx, cfg, s)
}

// PulseDevice is a PulseAudio source name.
type PulseDevice string

// InputArgs lets ffmpeg open the same source.
func (d PulseDevice) InputArgs() (string, ffmpeg.KwArgs) {
	return string(d), ffmpeg.KwArgs{"f": "pulse"}
}

func (d PulseDevice) String() string {
	return string(d)
}

// Args returns the parec command line for cfg. The latency asks the server
// for one capture buffer at a time.
func Args(dv PulseDevice, cfg input.SessionConfig) []string {
	latency := cfg.BufferDuration().Milliseconds()
	if latency < 1 {
		latency = 1
	}

	return []string{
		"parec",
		"--client-name=decibel",
		"--stream-name=level meter",
		"--format=float32le",
		fmt.Sprintf("--rate=%.0f", cfg.SampleRate),
		fmt.Sprintf("--channels=%d", cfg.FrameSize),
		fmt.Sprintf("--latency-msec=%d", latency),
		"--device=" + dv.String(),
	}
}

func NewSession(cfg input.SessionConfig) (*execread.Session, error) {
	dv, ok := cfg.Device.(PulseDevice)
	if !ok {
		return nil, fmt.Errorf("invalid device type %T", cfg.Device)
	}

	if cfg.FrameSize > 2 {
		return nil, errors.New("channel count not supported, mono/stereo only")
	}

	return execread.NewSession(Args(dv, cfg), execread.F32LE, cfg), nil
}
