//go:build cgo

package miniaudio

import (
	"context"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/noriah/decibel/input"
	"github.com/pkg/errors"
)

func init() {
	input.RegisterBackend("miniaudio", &Backend{})
}

// Backend owns one miniaudio context, created on Init.
type Backend struct {
	mu  sync.Mutex
	ctx *malgo.AllocatedContext
}

func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ctx != nil {
		return nil
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return errors.Wrap(err, "failed to initialize miniaudio context")
	}

	b.ctx = ctx
	return nil
}

func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ctx == nil {
		return nil
	}

	err := b.ctx.Uninit()
	b.ctx.Free()
	b.ctx = nil

	return errors.Wrap(err, "failed to release miniaudio context")
}

func (b *Backend) context() (*malgo.AllocatedContext, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ctx == nil {
		return nil, errors.New("backend not initialized")
	}
	return b.ctx, nil
}

func (b *Backend) Devices() ([]input.Device, error) {
	ctx, err := b.context()
	if err != nil {
		return nil, err
	}

	infos, err := ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list capture devices")
	}

	devices := make([]input.Device, len(infos))
	for i, info := range infos {
		devices[i] = Device{
			Name:    info.Name(),
			Default: info.IsDefault != 0,
			id:      info.ID,
			hasID:   true,
		}
	}

	return devices, nil
}

func (b *Backend) DefaultDevice() (input.Device, error) {
	return Device{Name: "default", Default: true}, nil
}

func (b *Backend) Start(ctx context.Context, cfg input.SessionConfig) (input.Session, error) {
	dv, ok := cfg.Device.(Device)
	if !ok {
		return nil, errors.Errorf("invalid device type %T", cfg.Device)
	}

	mctx, err := b.context()
	if err != nil {
		return nil, err
	}

	return input.StartSession(ctx, cfg, &Session{
		mctx:   mctx.Context,
		device: dv,
		cfg:    cfg,
	})
}

// Device is a capture device known to miniaudio.
type Device struct {
	Name    string
	Default bool

	id    malgo.DeviceID
	hasID bool
}

func (d Device) String() string {
	return d.Name
}

// Session runs a miniaudio capture device. It implements input.Producer.
type Session struct {
	mctx   malgo.Context
	device Device
	cfg    input.SessionConfig
}

func (s *Session) Start(ctx context.Context, dst [][]input.Sample, kickChan chan bool, mu *sync.Mutex) error {
	if !input.EnsureBufferLen(s.cfg, dst) {
		return errors.New("invalid dst length given")
	}

	devCfg := malgo.DefaultDeviceConfig(malgo.Capture)
	devCfg.Capture.Format = malgo.FormatS16
	devCfg.Capture.Channels = uint32(s.cfg.FrameSize)
	devCfg.SampleRate = uint32(s.cfg.SampleRate)
	devCfg.PeriodSizeInFrames = uint32(s.cfg.SampleSize)
	devCfg.Alsa.NoMMap = 1

	if s.device.hasID {
		id := s.device.id
		devCfg.Capture.DeviceID = id.Pointer()
	}

	w := frameWriter{dst: dst}

	onData := func(_, in []byte, _ uint32) {
		for len(in) > 0 {
			mu.Lock()
			n, full := w.write(in)
			mu.Unlock()

			in = in[n:]

			if full {
				// never block the audio thread
				select {
				case kickChan <- true:
				default:
				}
			} else if n == 0 {
				return
			}
		}
	}

	device, err := malgo.InitDevice(s.mctx, devCfg, malgo.DeviceCallbacks{
		Data: onData,
	})
	if err != nil {
		return errors.Wrap(err, "failed to initialize capture device")
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return errors.Wrap(err, "failed to start capture device")
	}

	<-ctx.Done()
	return ctx.Err()
}
