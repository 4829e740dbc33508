package ffmpeg

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/noriah/decibel/input"
	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

func init() {
	input.RegisterBackend("ffmpeg-alsa", ALSA{})
}

// ALSA records ALSA PCM devices through ffmpeg.
type ALSA struct{ stateless }

// Devices lists the PCM devices in /proc/asound/pcm that can capture.
func (p ALSA) Devices() ([]input.Device, error) {
	f, err := os.Open("/proc/asound/pcm")
	if err != nil {
		return nil, errors.Wrap(err, "failed to open pcm")
	}
	defer f.Close()

	return parseALSAPCM(f)
}

// parseALSAPCM reads lines such as
//
//	00-01: ALC887 Analog : ALC887 Analog : playback 1 : capture 1
//
// and returns a device for every one with a capture stream.
func parseALSAPCM(r io.Reader) ([]input.Device, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read pcm list")
	}

	var devices []input.Device

	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Split(line, ":")
		if len(fields) < 2 || !hasCapture(fields[1:]) {
			continue
		}

		d, err := ParseALSADevice(strings.TrimSpace(fields[0]))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse device %q", fields[0])
		}

		devices = append(devices, d)
	}

	return devices, nil
}

func hasCapture(fields []string) bool {
	for _, f := range fields {
		if strings.HasPrefix(strings.TrimSpace(f), "capture") {
			return true
		}
	}
	return false
}

func (p ALSA) DefaultDevice() (input.Device, error) {
	return ALSADevice("default"), nil
}

func (p ALSA) Start(ctx context.Context, cfg input.SessionConfig) (input.Session, error) {
	dv, err := device[ALSADevice](cfg)
	if err != nil {
		return nil, err
	}

	return Start(ctx, dv, cfg)
}

// ALSADevice is an ALSA PCM name such as hw:0,0.
type ALSADevice string

// ParseALSADevice turns the card-device prefix of /proc/asound/pcm, such as
// 01-00, into hw:1,0.
func ParseALSADevice(prefix string) (ALSADevice, error) {
	card, dev, ok := strings.Cut(prefix, "-")
	if strings.Contains(dev, "-") {
		return "", errors.Errorf("malformed alsa device %q", prefix)
	}

	name := "hw:" + trimZeros(card)
	if ok {
		name += "," + trimZeros(dev)
	}

	return ALSADevice(name), nil
}

func trimZeros(s string) string {
	if s = strings.TrimLeft(s, "0"); s == "" {
		return "0"
	}
	return s
}

func (d ALSADevice) InputArgs() (string, ffmpeg.KwArgs) {
	return string(d), ffmpeg.KwArgs{"f": "alsa"}
}

func (d ALSADevice) String() string {
	return string(d)
}
