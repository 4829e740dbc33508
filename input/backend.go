package input

import (
	"context"
	"os/exec"
	"runtime"

	"github.com/pkg/errors"
)

// Backend is a source of capture sessions.
type Backend interface {
	// Init should do nothing if called more than once.
	Init() error
	Close() error

	Devices() ([]Device, error)
	DefaultDevice() (Device, error)
	// Start begins capturing. The capture runs until the session is closed
	// or ctx is done.
	Start(ctx context.Context, cfg SessionConfig) (Session, error)
}

type NamedBackend struct {
	Name string
	Backend
}

var Backends []NamedBackend

// RegisterBackend registers a backend globally. This function is not
// thread-safe, and most packages should call it on init().
func RegisterBackend(name string, b Backend) {
	Backends = append(Backends, NamedBackend{
		Name:    name,
		Backend: b,
	})
}

// GetAllBackendNames returns the registered backend names in order.
func GetAllBackendNames() []string {
	out := make([]string, len(Backends))
	for i, backend := range Backends {
		out[i] = backend.Name
	}
	return out
}

// preference is a backend worth trying on an OS. When tool is set, the
// backend is only picked if that program is installed.
type preference struct {
	name string
	tool string
}

var preferences = map[string][]preference{
	"windows": {{name: "miniaudio"}, {name: "ffmpeg-dshow"}},
	"darwin":  {{name: "miniaudio"}, {name: "ffmpeg-avfoundation"}},
	"linux": {
		{name: "pipewire", tool: "pw-record"},
		{name: "parec", tool: "parec"},
		{name: "miniaudio"},
		{name: "ffmpeg-alsa", tool: "ffmpeg"},
	},
	"openbsd": {{name: "ffmpeg-sndio", tool: "ffmpeg"}},
}

var lookPath = exec.LookPath

// DefaultBackend picks a backend for the current OS. It returns an empty
// string if none of the preferred backends is usable.
func DefaultBackend() string {
	return defaultBackend(runtime.GOOS)
}

func defaultBackend(goos string) string {
	for _, pref := range preferences[goos] {
		if !HasBackend(pref.name) {
			continue
		}
		if pref.tool != "" {
			if _, err := lookPath(pref.tool); err != nil {
				continue
			}
		}
		return pref.name
	}

	return ""
}

// FindBackend is a helper function that finds a backend. It returns nil if the
// backend is not found.
func FindBackend(name string) Backend {
	for _, backend := range Backends {
		if backend.Name == name {
			return backend
		}
	}
	return nil
}

func HasBackend(name string) bool {
	return FindBackend(name) != nil
}

func InitBackend(bknd string) (Backend, error) {
	backend := FindBackend(bknd)
	if backend == nil {
		return nil, errors.Errorf("backend not found: %q; check list-backends", bknd)
	}

	if err := backend.Init(); err != nil {
		return nil, errors.Wrap(err, "failed to initialize input backend")
	}

	return backend, nil
}

func GetDevice(backend Backend, device string) (Device, error) {
	if device == "" {
		def, err := backend.DefaultDevice()
		if err != nil {
			return nil, errors.Wrap(err, "failed to get default device")
		}
		return def, nil
	}

	devices, err := backend.Devices()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get devices")
	}

	for idx := range devices {
		if devices[idx].String() == device {
			return devices[idx], nil
		}
	}

	return nil, errors.Errorf("device %q not found; check list-devices", device)
}
