package ffmpeg

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/noriah/decibel/input"
	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

func parseAVFoundationDevices(o []byte) ([]input.Device, error) {
	var audio bool
	var devices []input.Device

	scanner := bufio.NewScanner(bytes.NewReader(o))
	for scanner.Scan() {
		text := scanner.Text()

		// Trim away the prefix.
		if strings.HasPrefix(text, "[AVFoundation") {
			parts := strings.SplitN(text, "] ", 2)
			if len(parts) == 2 {
				text = parts[1]
			}
		}

		// If we're starting the audio devices section, then mark the boolean to
		// scan.
		if text == "AVFoundation audio devices:" {
			audio = true
			continue
		}

		// If we're not scanning a device (which starts with a square bracket)
		// anymore, then we stop.
		if !strings.HasPrefix(text, "[") {
			audio = false
			continue
		}

		// If we're not under the audio section yet, then skip.
		if !audio {
			continue
		}

		// Parse.
		parts := strings.SplitN(text, " ", 2)
		if len(parts) != 2 {
			continue
		}

		n, err := strconv.Atoi(strings.Trim(parts[0], "[]"))
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse device index")
		}

		devices = append(devices, AVFoundationDevice{
			Index: n,
			Name:  parts[1],
		})
	}

	if len(devices) == 0 {
		return nil, noDevices(o)
	}

	return devices, nil
}


type AVFoundationDevice struct {
	Index int
	Name  string
}

func (d AVFoundationDevice) InputArgs() (string, ffmpeg.KwArgs) {
	url := "none:default"
	if d.Index > -1 {
		url = fmt.Sprintf("none:%d", d.Index)
	}
	return url, ffmpeg.KwArgs{"f": "avfoundation"}
}

func (d AVFoundationDevice) String() string {
	return fmt.Sprintf("%d:%s", d.Index, d.Name)
}

func parseDShowDevices(o []byte) ([]input.Device, error) {
	audio := true
	var devices []input.Device

	var scanner = bufio.NewScanner(bytes.NewReader(o))

	for scanner.Scan() {
		text := scanner.Text()

		// Trim away the prefix.
		if strings.HasPrefix(text, "[dshow") {
			parts := strings.SplitN(text, "] ", 2)
			if len(parts) == 2 && len(parts[1]) > 0 {
				text = parts[1][1:]
			}
		}

		// Older ffmpeg prints section headers that start with a colon after
		// the trim; the audio section is the first one.
		if strings.HasPrefix(text, ":") {
			audio = false
			continue
		}

		if !audio {
			continue
		}

		// Parse.
		parts := strings.SplitN(text, "\" (", 2)
		if len(parts) != 2 {
			continue
		}

		if !strings.HasPrefix(parts[1], "audio") {
			continue
		}

		devices = append(devices, DShowDevice{
			Name: parts[0],
		})
	}

	if len(devices) == 0 {
		return nil, noDevices(o)
	}

	return devices, nil
}

// DShowDevice is a DirectShow audio device, by its friendly name.
type DShowDevice struct {
	Name string
}

func (d DShowDevice) InputArgs() (string, ffmpeg.KwArgs) {
	return "audio=" + d.Name, ffmpeg.KwArgs{
		"f":                 "dshow",
		"audio_buffer_size": "20",
	}
}

func (d DShowDevice) String() string {
	return d.Name
}
