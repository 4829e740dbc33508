// Package stdinput reads raw f32le frames piped into standard input.
package stdinput

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/noriah/decibel/input"
	"github.com/noriah/decibel/input/common/execread"
)

func init() {
	input.RegisterBackend("stdin", StdinBackend{})
}

type StdinBackend struct{}

func (b StdinBackend) Init() error {
	return nil
}

func (b StdinBackend) Close() error {
	return nil
}

func (b StdinBackend) Devices() ([]input.Device, error) {
	return []input.Device{StdInputDevice{}}, nil
}

func (b StdinBackend) DefaultDevice() (input.Device, error) {
	return StdInputDevice{}, nil
}

func (b StdinBackend) Start(ctx context.Context, cfg input.SessionConfig) (input.Session, error) {
	return input.StartSession(ctx, cfg, NewSession(cfg, os.Stdin))
}

type StdInputDevice struct{}

func (d StdInputDevice) String() string {
	return "stdin"
}

// Session copies frames from src. It implements input.Producer.
type Session struct {
	cfg input.SessionConfig
	src io.Reader
}

func NewSession(cfg input.SessionConfig, src io.Reader) *Session {
	return &Session{
		cfg: cfg,
		src: src,
	}
}

func (s *Session) Start(ctx context.Context, dst [][]input.Sample, kickChan chan bool, mu *sync.Mutex) error {
	r, ok := s.src.(execread.DeadlineReader)

	// Terminals and regular files have no deadlines. Reads on them block, so
	// the source is closed to end the session.
	if !ok || r.SetReadDeadline(time.Time{}) != nil {
		r = noDeadline{s.src}

		if c, ok := s.src.(io.Closer); ok {
			stop := context.AfterFunc(ctx, func() { c.Close() })
			defer stop()
		}
	}

	return execread.Copy(ctx, r, execread.F32LE, s.cfg, dst, kickChan, mu)
}

type noDeadline struct {
	io.Reader
}

func (noDeadline) SetReadDeadline(time.Time) error {
	return nil
}
