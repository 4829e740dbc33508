package ffmpeg

import (
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

// listDevices runs ffmpeg's device listing for an input format. ffmpeg exits
// with an error after listing, so the error is only useful when there is no
// output at all.
func listDevices(format string) ([]byte, error) {
	cmd := exec.Command(
		"ffmpeg", "-hide_banner", "-loglevel", "info",
		"-f", format, "-list_devices", "true",
		"-i", "",
	)

	return cmd.CombinedOutput()
}

func noDevices(o []byte) error {
	// This is completely for visual.
	lines := strings.Split(string(o), "\n")
	for i, line := range lines {
		lines[i] = "\t" + line
	}

	return errors.Errorf("no devices found; ffmpeg output:\n%s", strings.Join(lines, "\n"))
}
