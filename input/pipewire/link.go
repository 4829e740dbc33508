package pipewire

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

func pwLink(outPortID, inPortID pwObjectID) error {
	_, err := runTool(context.Background(), "pw-link", "-L", fmt.Sprint(outPortID), fmt.Sprint(inPortID))
	return err
}

// pwPort is a port as pw-link prints it: "<id> <node>:<port>".
type pwPort struct {
	DeviceName string
	PortID     pwObjectID
	PortName   string // such as capture_FL or monitor_FR
}

func parsePort(line string) (pwPort, error) {
	idStr, rest, ok := strings.Cut(line, " ")
	if !ok {
		return pwPort{}, errors.Errorf("malformed pw-link port %q", line)
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return pwPort{}, errors.Wrapf(err, "malformed pw-link port id %q", idStr)
	}

	device, port, ok := strings.Cut(rest, ":")
	if !ok {
		return pwPort{}, errors.Errorf("malformed pw-link port name %q", rest)
	}

	return pwPort{
		DeviceName: device,
		PortID:     pwObjectID(id),
		PortName:   port,
	}, nil
}

// portEvent is a port appearing (or already present) on the graph. Removals
// need no action since PipeWire drops the links with the port.
type portEvent struct {
	pwPort
	Added bool
}

// parseEvent reads one line of pw-link monitor output. Lines start with '='
// for existing ports, '+' for new ones and '-' for removed ones.
func parseEvent(line string) (portEvent, bool) {
	if len(line) < 2 {
		return portEvent{}, false
	}

	port, err := parsePort(strings.TrimSpace(line[1:]))
	if err != nil {
		return portEvent{}, false
	}

	switch line[0] {
	case '=', '+':
		return portEvent{port, true}, true
	case '-':
		return portEvent{port, false}, true
	}

	return portEvent{}, false
}

// scanEvents sends every event read from r until r ends or ctx is done.
func scanEvents(ctx context.Context, r io.Reader, ch chan<- portEvent) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		ev, ok := parseEvent(scanner.Text())
		if !ok {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case ch <- ev:
		}
	}

	return scanner.Err()
}

// monitorOutputPorts follows the output ports of the graph.
func monitorOutputPorts(ctx context.Context, ch chan<- portEvent) error {
	cmd := exec.CommandContext(ctx, "pw-link", "-mIo")

	out, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Wrap(err, "failed to get pw-link stdout")
	}

	if err := cmd.Start(); err != nil {
		return errors.Wrap(err, "failed to start pw-link monitor")
	}

	if err := scanEvents(ctx, out, ch); err != nil {
		cmd.Wait()
		return err
	}

	return errors.Wrap(cmd.Wait(), "pw-link monitor exited")
}
