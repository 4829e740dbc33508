// Package execread meters the raw float frames a recorder process writes to
// its stdout.
package execread

import (
	"context"
	"encoding/binary"
	"io"
	"math"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/noriah/decibel/input"
	"github.com/pkg/errors"
)

// Session reads floating-point audio values from a Cmd. It implements
// input.Producer.
type Session struct {
	// OnStart is called when the process starts. Nil by default.
	OnStart func(ctx context.Context, cmd *exec.Cmd) error

	// Stderr receives the process stderr. Nil discards it.
	Stderr io.Writer

	argv   []string
	cfg    input.SessionConfig
	format Format
}

// Format is the sample encoding of the process output. Both are
// little-endian and interleaved.
type Format int

// Formats
const (
	F32LE Format = iota
	F64LE
)

// Size is the number of bytes per sample.
func (f Format) Size() int {
	if f == F64LE {
		return 8
	}
	return 4
}

func (f Format) decode(b []byte) float64 {
	if f == F64LE {
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	}
	return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
}

// NewSession creates a session running argv. It panics on an empty argv.
func NewSession(argv []string, format Format, cfg input.SessionConfig) *Session {
	if len(argv) < 1 {
		panic("argv has no arg0")
	}

	return &Session{
		argv:   argv,
		cfg:    cfg,
		format: format,
	}
}

// Args returns the command line of the session.
func (s *Session) Args() []string {
	return s.argv
}

// Start runs the process and copies its output into dst.
func (s *Session) Start(ctx context.Context, dst [][]input.Sample, kickChan chan bool, mu *sync.Mutex) error {
	if !input.EnsureBufferLen(s.cfg, dst) {
		return errors.New("invalid dst length given")
	}

	cmd := exec.CommandContext(ctx, s.argv[0], s.argv[1:]...)
	cmd.Stderr = s.Stderr

	o, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Wrap(err, "failed to get stdout pipe")
	}
	defer o.Close()

	// We need o as an *os.File for SetReadDeadline.
	of, ok := o.(*os.File)
	if !ok {
		return errors.New("stdout pipe is not an *os.File (bug)")
	}

	if err := cmd.Start(); err != nil {
		return errors.Wrap(err, "failed to start "+s.argv[0])
	}
	defer func() {
		cmd.Process.Kill()
		cmd.Wait()
	}()

	if s.OnStart != nil {
		if err := s.OnStart(ctx, cmd); err != nil {
			return err
		}
	}

	return Copy(ctx, of, s.format, s.cfg, dst, kickChan, mu)
}

// DeadlineReader is a reader whose reads can time out.
type DeadlineReader interface {
	io.Reader
	SetReadDeadline(t time.Time) error
}

// Copy reads frames from r into dst until r ends or ctx is done. A buffer
// that does not arrive in time is not kicked, so the consumer sees a gap
// rather than silence. Bytes that did arrive are kept and the read resumes
// after them, which keeps later frames aligned.
func Copy(ctx context.Context, r DeadlineReader, format Format, cfg input.SessionConfig,
	dst [][]input.Sample, kickChan chan bool, mu *sync.Mutex) error {

	channels := cfg.FrameSize
	size := format.Size()
	raw := make([]byte, cfg.SampleSize*channels*size)

	// The first read may take a while as the recorder starts up. After a
	// timeout, wait only one buffer duration so a recovery shows quickly.
	bufDur := cfg.BufferDuration()
	late := false
	off := 0

	for {
		timeout := bufDur
		if !late {
			timeout *= 6
		}
		if err := r.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return errors.Wrap(err, "failed to set read deadline")
		}

		n, err := io.ReadFull(r, raw[off:])
		if err != nil {
			switch {
			case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
				return nil
			case ctx.Err() != nil:
				return ctx.Err()
			case errors.Is(err, os.ErrDeadlineExceeded):
				off += n
				late = true
				continue
			default:
				return err
			}
		}

		off = 0
		late = false

		mu.Lock()
		for i := 0; i*size < len(raw); i++ {
			dst[i%channels][i/channels] = format.decode(raw[i*size:])
		}
		mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case kickChan <- true:
		}
	}
}
