package pipewire

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/noriah/decibel/input"
	"github.com/noriah/decibel/input/common/execread"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

func init() {
	input.RegisterBackend("pipewire", Backend{})
}

type Backend struct{}

func (p Backend) Init() error {
	return nil
}

func (p Backend) Close() error {
	return nil
}

func (p Backend) Devices() ([]input.Device, error) {
	pwObjs, err := pwDump(context.Background())
	if err != nil {
		return nil, err
	}

	return captureDevices(pwObjs), nil
}

// captureDevices returns the nodes we can record from: sources such as
// microphones, plus sinks and playback streams through their monitors.
func captureDevices(objs pwObjects) []input.Device {
	nodes := objs.Filter(func(o pwObject) bool {
		if o.Type != pwInterfaceNode {
			return false
		}
		switch o.Info.Props.MediaClass {
		case pwAudioSource, pwAudioSink, pwStreamOutputAudio:
			return true
		}
		return false
	})

	devices := make([]input.Device, len(nodes))
	for i, node := range nodes {
		devices[i] = AudioDevice{node.Info.Props.NodeName}
	}

	return devices
}

func (p Backend) DefaultDevice() (input.Device, error) {
	return AudioDevice{"auto"}, nil
}

func (p Backend) Start(ctx context.Context, cfg input.SessionConfig) (input.Session, error) {
	s, err := NewSession(cfg)
	if err != nil {
		return nil, err
	}

	return input.StartSession(ctx, cfg, s)
}

type AudioDevice struct {
	name string
}

func (d AudioDevice) String() string {
	return d.name
}

type decibelProps struct {
	ApplicationName string `json:"application.name"`
	DecibelID       string `json:"decibel.id"`
}

// Session is a PipeWire session. It implements input.Producer.
type Session struct {
	session    execread.Session
	props      decibelProps
	targetName string
}

// NewSession creates a new PipeWire session.
func NewSession(cfg input.SessionConfig) (*Session, error) {
	return newSession(cfg, pwHelp)
}

func newSession(cfg input.SessionConfig, help func() ([]byte, error)) (*Session, error) {
	currentProps := decibelProps{
		ApplicationName: "decibel",
		DecibelID:       generateID(),
	}

	propsJSON, err := json.Marshal(currentProps)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal props")
	}

	dv, ok := cfg.Device.(AudioDevice)
	if !ok {
		return nil, fmt.Errorf("invalid device type %T", cfg.Device)
	}

	target := "0"
	if dv.name == "auto" {
		target = dv.name
	}

	args := []string{
		"pw-record",
		"--format", "f32",
		"--rate", fmt.Sprint(cfg.SampleRate),
		"--latency", fmt.Sprint(cfg.SampleSize),
		"--channels", fmt.Sprint(cfg.FrameSize),
		"--target", target, // see .relink comment below
		"--quality", "0",
		"--media-category", "Capture",
		"--media-role", "Production",
		"--properties", string(propsJSON),
	}

	// pw-cat 1.4.0 introduces explicit stdout support, needs --raw arg
	// see https://gitlab.freedesktop.org/pipewire/pipewire/-/issues/4629#top
	useRawArg, err := checkNeedRawArg(help)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check need of pipewire '--raw' arg")
	}

	if useRawArg {
		args = append(args, "--raw")
	}

	// output to STDOUT
	args = append(args, "-")

	return &Session{
		session:    *execread.NewSession(args, execread.F32LE, cfg),
		props:      currentProps,
		targetName: dv.name,
	}, nil
}

// Start starts the session.
func (s *Session) Start(ctx context.Context, dst [][]input.Sample, kickChan chan bool, mu *sync.Mutex) error {
	ctx, cancel := context.WithCancel(ctx)

	errCh := make(chan error, 1)
	setErr := func(err error) {
		select {
		case errCh <- err:
		default:
		}
	}

	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		setErr(s.session.Start(ctx, dst, kickChan, mu))
	}()

	// No relinking needed if we're not connecting to a specific device.
	if s.targetName != "auto" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			setErr(s.startRelinker(ctx))
		}()
	}

	return <-errCh
}

// startRelinker links the target device's output ports to our input ports
// as they appear. The session manager does not reliably honour --target for
// a named device, so the links are made by hand.
func (s *Session) startRelinker(ctx context.Context) error {
	var ourPorts map[string]pwObjectID
	var err error
	// Our node shows up in pw-dump a little after pw-record starts.
	for i := 0; i < 20; i++ {
		ourPorts, err = findOurPorts(ctx, s.props)
		if err == nil {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
	if err != nil {
		return errors.Wrap(err, "failed to find our input ports")
	}

	events := make(chan portEvent)
	monitorErr := make(chan error, 1)
	go func() { monitorErr <- monitorOutputPorts(ctx, events) }()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-monitorErr:
			return err
		case event := <-events:
			if !event.Added || event.DeviceName != s.targetName {
				continue
			}

			ourPort, ok := matchPort(event.pwPort, ourPorts)
			if !ok {
				log.Warn().
					Str("port", event.PortName).
					Int64("port_id", int64(event.PortID)).
					Msg("device port cannot be matched to an input port")
				continue
			}

			if err := pwLink(event.PortID, ourPort.PortID); err != nil {
				log.Warn().Err(err).
					Str("port", ourPort.PortName).
					Str("device_port", event.PortName).
					Msg("failed to link device port")
			}
		}
	}
}

// matchPort tries to match the given link event to our input ports. It
// returns the port to link to, and whether the event was matched.
func matchPort(event pwPort, ourPorts map[string]pwObjectID) (pwPort, bool) {
	if len(ourPorts) == 1 {
		// We only have one port, so we're probably in mono mode.
		for name, id := range ourPorts {
			return pwPort{PortID: id, PortName: name}, true
		}
	}

	// Try directly matching the port channel with the event's. This usually
	// works if the number of ports is the same.
	_, channel, ok := strings.Cut(event.PortName, "_")
	if ok {
		port := "input_" + channel
		portID, ok := ourPorts[port]
		if ok {
			return pwPort{PortID: portID, PortName: port}, true
		}
	}

	// A mono device goes to our first channel.
	if channel == "MONO" {
		for _, port := range []string{"input_FL", "input_MONO"} {
			if portID, ok := ourPorts[port]; ok {
				return pwPort{PortID: portID, PortName: port}, true
			}
		}
	}

	return pwPort{}, false
}

func findOurPorts(ctx context.Context, ourProps decibelProps) (map[string]pwObjectID, error) {
	objs, err := pwDump(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get pw-dump")
	}

	return ourPorts(objs, ourProps)
}

func ourPorts(objs pwObjects, ourProps decibelProps) (map[string]pwObjectID, error) {
	// Find our recorder node.
	nodeObj := objs.Find(func(obj pwObject) bool {
		if obj.Type != pwInterfaceNode {
			return false
		}
		var props decibelProps
		err := json.Unmarshal(obj.Info.Props.JSON, &props)
		return err == nil && props == ourProps
	})
	if nodeObj == nil {
		return nil, errors.New("failed to find our node in PipeWire")
	}

	// We want the input ports of our node.
	portObjs := objs.Ports(nodeObj, pwPortIn)
	if len(portObjs) == 0 {
		return nil, errors.New("failed to find any of our ports in PipeWire")
	}

	portMap := make(map[string]pwObjectID)
	for _, obj := range portObjs {
		portMap[obj.Info.Props.PortName] = obj.ID
	}

	return portMap, nil
}

var sessionCounter uint64

// generateID generates a unique ID for this session.
func generateID() string {
	return fmt.Sprintf(
		"%d@%s#%d",
		os.Getpid(),
		shortEpoch(),
		atomic.AddUint64(&sessionCounter, 1),
	)
}

// shortEpoch generates a small string that is unique to the current epoch.
func shortEpoch() string {
	now := time.Now().Unix()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(now))
	return base64.RawURLEncoding.EncodeToString(buf[:])
}

func pwHelp() ([]byte, error) {
	return exec.Command("pw-record", "--help").Output()
}

func checkNeedRawArg(help func() ([]byte, error)) (bool, error) {
	out, err := help()
	if err != nil {
		return false, err
	}

	lines := strings.Split(string(out), "\n")

	for _, line := range lines {
		if strings.Contains(line, "--raw") {
			return true, nil
		}
	}

	return false, nil
}
