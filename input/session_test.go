package input

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

func sessionConfig() SessionConfig {
	return SessionConfig{
		Device:     testDevice("test"),
		FrameSize:  1,
		SampleSize: 8,
		SampleRate: 800,
	}
}

// constant writes level into every buffer each time next is signalled.
func constant(level Sample, next <-chan struct{}) ProducerFunc {
	return func(ctx context.Context, dst [][]Sample, kickChan chan bool, mu *sync.Mutex) error {
		for {
			mu.Lock()
			for _, buf := range dst {
				for i := range buf {
					buf[i] = level
				}
			}
			mu.Unlock()

			select {
			case <-ctx.Done():
				return ctx.Err()
			case kickChan <- true:
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-next:
			}
		}
	}
}

func TestStartSessionWaitsForFirstBuffer(t *testing.T) {
	s, err := StartSession(context.Background(), sessionConfig(), constant(0.1, nil))
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	defer s.Close()

	db, err := s.PeakPower(context.Background(), 0)
	if err != nil {
		t.Fatalf("PeakPower: %v", err)
	}
	if !floats.EqualWithinAbs(db, -20, 1e-9) {
		t.Errorf("peak = %v, want -20 dBFS", db)
	}
	if s.Err() != nil {
		t.Errorf("Err = %v while running", s.Err())
	}
}

func TestStartSessionReturnsStartError(t *testing.T) {
	cause := errors.New("device busy")

	failing := ProducerFunc(func(context.Context, [][]Sample, chan bool, *sync.Mutex) error {
		return cause
	})

	s, err := StartSession(context.Background(), sessionConfig(), failing)
	if !errors.Is(err, cause) || s != nil {
		t.Errorf("StartSession = %v, %v; want the cause", s, err)
	}
}

func TestStartSessionRejectsBadConfig(t *testing.T) {
	cfg := sessionConfig()
	cfg.FrameSize = 0

	if _, err := StartSession(context.Background(), cfg, constant(0, nil)); err == nil {
		t.Error("bad config accepted")
	}
}

func TestStartSessionWithSlowProducer(t *testing.T) {
	quiet := ProducerFunc(func(ctx context.Context, _ [][]Sample, _ chan bool, _ *sync.Mutex) error {
		<-ctx.Done()
		return ctx.Err()
	})

	begin := time.Now()
	s, err := StartSession(context.Background(), sessionConfig(), quiet)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	defer s.Close()

	if waited := time.Since(begin); waited < minStale {
		t.Errorf("returned after %v, want at least %v", waited, minStale)
	}

	if _, err := s.PeakPower(context.Background(), 0); !errors.Is(err, ErrNotRecording) {
		t.Errorf("err = %v, want ErrNotRecording", err)
	}
}

func TestSessionEndsWithStream(t *testing.T) {
	stop := make(chan struct{})

	ending := ProducerFunc(func(ctx context.Context, dst [][]Sample, kickChan chan bool, mu *sync.Mutex) error {
		kickChan <- true
		<-stop
		return nil
	})

	s, err := StartSession(context.Background(), sessionConfig(), ending)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	defer s.Close()

	close(stop)

	deadline := time.Now().Add(2 * time.Second)
	for s.Err() == nil {
		if time.Now().After(deadline) {
			t.Fatal("session did not notice the stream end")
		}
		time.Sleep(time.Millisecond)
	}

	if _, err := s.PeakPower(context.Background(), 0); !errors.Is(err, ErrNotRecording) {
		t.Errorf("err = %v, want ErrNotRecording", err)
	}
}

func TestSessionCloseStopsProducer(t *testing.T) {
	next := make(chan struct{})

	s, err := StartSession(context.Background(), sessionConfig(), constant(0.5, next))
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	closed := make(chan struct{})
	go func() {
		s.Close()
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked")
	}

	if _, err := s.PeakPower(context.Background(), 0); !errors.Is(err, ErrNotRecording) {
		t.Errorf("after Close: err = %v", err)
	}
}
