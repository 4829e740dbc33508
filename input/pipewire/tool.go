package pipewire

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

// runTool runs one of the pw-* tools and returns its output. Stderr is
// folded into the error.
func runTool(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, errors.Wrapf(err, "%s failed: %s", name, msg)
		}
		return nil, errors.Wrapf(err, "%s failed", name)
	}

	return out, nil
}
