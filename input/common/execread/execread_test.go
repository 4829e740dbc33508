package execread

import (
	"context"
	"encoding/binary"
	"io"
	"math"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/noriah/decibel/input"
)

type testDevice struct{}

func (testDevice) String() string { return "test" }

func testConfig() input.SessionConfig {
	return input.SessionConfig{
		Device:     testDevice{},
		FrameSize:  2,
		SampleSize: 4,
		SampleRate: 400, // 10ms buffers
	}
}

func encodeF32(values ...float32) []byte {
	raw := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
	}
	return raw
}

func encodeF64(values ...float64) []byte {
	raw := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(raw[i*8:], math.Float64bits(v))
	}
	return raw
}

func startCopy(t *testing.T, format Format) (*os.File, [][]input.Sample, chan bool, *sync.Mutex, chan error, context.CancelFunc) {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	t.Cleanup(func() { r.Close() })

	cfg := testConfig()
	dst := input.MakeBuffers(cfg.FrameSize, cfg.SampleSize)
	kick := make(chan bool)
	mu := &sync.Mutex{}
	done := make(chan error, 1)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go func() { done <- Copy(ctx, r, format, cfg, dst, kick, mu) }()

	return w, dst, kick, mu, done, cancel
}

func waitKick(t *testing.T, kick chan bool) {
	t.Helper()

	select {
	case <-kick:
	case <-time.After(2 * time.Second):
		t.Fatal("no buffer delivered")
	}
}

func TestCopyDeinterleavesF32(t *testing.T) {
	w, dst, kick, mu, done, _ := startCopy(t, F32LE)

	go w.Write(encodeF32(0.1, -0.1, 0.2, -0.2, 0.3, -0.3, 0.4, -0.4))
	waitKick(t, kick)

	mu.Lock()
	left, right := dst[0], dst[1]
	for i, want := range []float32{0.1, 0.2, 0.3, 0.4} {
		if left[i] != float64(want) || right[i] != -float64(want) {
			t.Errorf("frame %d = %v/%v, want %v/%v", i, left[i], right[i], want, -want)
		}
	}
	mu.Unlock()

	w.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Copy ended with %v, want nil on EOF", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Copy did not end on EOF")
	}
}

func TestCopyReadsF64(t *testing.T) {
	w, dst, kick, mu, _, _ := startCopy(t, F64LE)
	defer w.Close()

	go w.Write(encodeF64(1, 0.5, 1, 0.5, 1, 0.5, 1, 0.5))
	waitKick(t, kick)

	mu.Lock()
	defer mu.Unlock()

	if dst[0][3] != 1 || dst[1][3] != 0.5 {
		t.Errorf("dst = %v", dst)
	}
}

func TestCopySkipsLateBuffers(t *testing.T) {
	w, _, kick, _, done, cancel := startCopy(t, F32LE)
	defer w.Close()

	// nothing is written, so the deadline passes without a kick
	select {
	case <-kick:
		t.Fatal("kick without audio")
	case <-time.After(100 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Copy ended with %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Copy ignored cancellation")
	}
}

// stalledReader replays a fixed script of reads. A step with an error fails
// one read without consuming data.
type stalledReader struct {
	steps []readStep
}

type readStep struct {
	data []byte
	err  error
}

func (r *stalledReader) SetReadDeadline(time.Time) error { return nil }

func (r *stalledReader) Read(p []byte) (int, error) {
	if len(r.steps) == 0 {
		return 0, io.EOF
	}

	step := &r.steps[0]
	if step.err != nil {
		r.steps = r.steps[1:]
		return 0, step.err
	}

	n := copy(p, step.data)
	if step.data = step.data[n:]; len(step.data) == 0 {
		r.steps = r.steps[1:]
	}
	return n, nil
}

func TestCopyResumesPartialBufferAfterDeadline(t *testing.T) {
	cfg := testConfig()

	// two full buffers of the same value, cut after 6 bytes by a deadline
	samples := make([]float32, 2*cfg.FrameSize*cfg.SampleSize)
	for i := range samples {
		samples[i] = 0.5
	}
	stream := encodeF32(samples...)

	r := &stalledReader{steps: []readStep{
		{data: stream[:6]},
		{err: os.ErrDeadlineExceeded},
		{data: stream[6:]},
	}}

	dst := input.MakeBuffers(cfg.FrameSize, cfg.SampleSize)
	kick := make(chan bool, 4)

	if err := Copy(context.Background(), r, F32LE, cfg, dst, kick, &sync.Mutex{}); err != nil {
		t.Fatalf("Copy: %v", err)
	}

	if n := len(kick); n != 2 {
		t.Errorf("%d buffers delivered, want 2", n)
	}

	for ch := range dst {
		for i, v := range dst[ch] {
			if v != 0.5 {
				t.Errorf("dst[%d][%d] = %v, want 0.5", ch, i, v)
			}
		}
	}
}

func TestNewSessionPanicsWithoutArgv(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("no panic for empty argv")
		}
	}()

	NewSession(nil, F32LE, testConfig())
}

func TestSessionStartFailsForMissingCommand(t *testing.T) {
	s := NewSession([]string{"decibel-test-no-such-recorder"}, F32LE, testConfig())

	cfg := testConfig()
	dst := input.MakeBuffers(cfg.FrameSize, cfg.SampleSize)

	err := s.Start(context.Background(), dst, make(chan bool), &sync.Mutex{})
	if err == nil {
		t.Fatal("Start succeeded for a missing command")
	}
}
