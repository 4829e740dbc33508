package input

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Producer writes audio into dst, one buffer per channel, and sends on
// kickChan after each write. It holds mu while writing. Start returns when
// the stream ends or ctx is done.
type Producer interface {
	Start(ctx context.Context, dst [][]Sample, kickChan chan bool, mu *sync.Mutex) error
}

// ProducerFunc adapts a function to a Producer.
type ProducerFunc func(ctx context.Context, dst [][]Sample, kickChan chan bool, mu *sync.Mutex) error

func (f ProducerFunc) Start(ctx context.Context, dst [][]Sample, kickChan chan bool, mu *sync.Mutex) error {
	return f(ctx, dst, kickChan, mu)
}

// staleBuffers is how many buffer durations may pass without audio before
// readings are reported missing.
const staleBuffers = 6

// minStale keeps tiny buffers from making the meter flap.
const minStale = 250 * time.Millisecond

// MeteredSession runs a Producer and meters what it writes. It implements
// Session.
type MeteredSession struct {
	meter *PeakMeter

	cancel context.CancelFunc
	wg     sync.WaitGroup

	ended chan struct{}
	err   error // set before ended is closed
}

// StartSession starts p and waits until it delivers its first buffer, fails,
// or has been running for a few buffer durations. An error from p during
// that wait is returned and nothing is left running.
func StartSession(ctx context.Context, cfg SessionConfig, p Producer) (*MeteredSession, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	stale := staleBuffers * cfg.BufferDuration()
	if stale < minStale {
		stale = minStale
	}

	ctx, cancel := context.WithCancel(ctx)

	s := &MeteredSession{
		meter:  NewPeakMeter(cfg.FrameSize, stale),
		cancel: cancel,
		ended:  make(chan struct{}),
	}

	var (
		mu    sync.Mutex
		bufs  = MakeBuffers(cfg.FrameSize, cfg.SampleSize)
		kick  = make(chan bool)
		ready = make(chan struct{})
	)

	s.wg.Add(2)

	go func() {
		defer s.wg.Done()
		defer close(s.ended)

		err := p.Start(ctx, bufs, kick, &mu)
		if err == nil || errors.Is(err, context.Canceled) {
			err = errors.New("capture stream ended")
		}
		s.err = err
	}()

	go func() {
		defer s.wg.Done()

		first := true
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.ended:
				return
			case <-kick:
			}

			mu.Lock()
			s.meter.Update(bufs)
			mu.Unlock()

			if first {
				first = false
				close(ready)
			}
		}
	}()

	wait := time.NewTimer(stale)
	defer wait.Stop()

	select {
	case <-ready:
	case <-wait.C:
	case <-s.ended:
		s.Close()
		return nil, s.err
	case <-ctx.Done():
		s.Close()
		return nil, ctx.Err()
	}

	return s, nil
}

// PeakPower implements Session.
func (s *MeteredSession) PeakPower(ctx context.Context, channel int) (float64, error) {
	select {
	case <-s.ended:
		return 0, errors.Wrap(ErrNotRecording, s.err.Error())
	default:
	}

	return s.meter.PeakPower(ctx, channel)
}

// Close implements Session.
func (s *MeteredSession) Close() error {
	s.cancel()
	s.wg.Wait()
	return s.meter.Close()
}

// Err returns why the capture ended, or nil while it is running.
func (s *MeteredSession) Err() error {
	select {
	case <-s.ended:
		return s.err
	default:
		return nil
	}
}
