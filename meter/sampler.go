package meter

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Capture opens capture sessions for a Sampler.
type Capture interface {
	// Open starts capturing. The returned reader must be closed.
	Open(ctx context.Context) (Reader, error)
}

// Reader supplies peak readings from a running capture.
type Reader interface {
	// PeakPower returns the peak dBFS of channel since the previous call. An
	// error means there is no reading for now. It must return promptly once
	// ctx is done.
	PeakPower(ctx context.Context, channel int) (float64, error)
	Close() error
}

// Sampler reads the capture once per period, converts the reading and pushes
// it into a SlidingWindow.
//
// A Sampler is Idle until Start and Running until Stop. Start and Stop are
// idempotent. Each session gets a fresh zero-filled window that is discarded
// on Stop.
type Sampler struct {
	// OnEvent receives lifecycle events in order, on a goroutine owned by the
	// session. It may call Start, Stop and Running. Stop returns after the
	// session's events are delivered, unless it is called while a handler is
	// running. Nil by default. Set it before Start.
	OnEvent func(Event)

	// Log receives diagnostics. Set it before Start.
	Log zerolog.Logger

	cfg     Config
	conv    Converter
	capture Capture

	updates chan struct{}
	window  atomic.Pointer[SlidingWindow]

	ticks  atomic.Uint64
	pushes atomic.Uint64
	misses atomic.Uint64
	late   atomic.Uint64

	// lifecycle state, guarded by mu
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	reader Reader
	events *eventQueue

	newTicker func(time.Duration) (<-chan time.Time, func())
}

// New returns an idle sampler. It fails with ErrConfigurationInvalid if cfg
// is out of range.
func New(cfg Config, capture Capture) (*Sampler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if capture == nil {
		return nil, invalid("capture is nil")
	}

	return &Sampler{
		Log:       zerolog.Nop(),
		cfg:       cfg,
		conv:      cfg.Converter(),
		capture:   capture,
		updates:   make(chan struct{}, 1),
		newTicker: timeTicker,
	}, nil
}

func timeTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Config returns the sampler settings.
func (s *Sampler) Config() Config {
	return s.cfg
}

// Start opens the capture and begins sampling. It does nothing if a session
// is already running. If the capture cannot be opened it returns a
// *SessionError and the sampler stays idle.
//
// The session also ends when ctx is done, but Stop must still be called to
// release the capture.
func (s *Sampler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		if s.alive() {
			return nil
		}
		// the parent context ended the previous session
		events := s.events
		s.teardown()
		events.close()
	}

	reader, err := s.capture.Open(ctx)
	if err != nil {
		s.Log.Error().Err(err).Msg("capture failed to start")
		return &SessionError{Err: err}
	}

	window, err := NewSlidingWindow(s.cfg.WindowCapacity)
	if err != nil {
		reader.Close()
		return err
	}

	s.ticks.Store(0)
	s.pushes.Store(0)
	s.misses.Store(0)
	s.late.Store(0)

	s.window.Store(window)
	s.reader = reader
	s.done = make(chan struct{})
	s.events = newEventQueue(s.OnEvent)
	s.events.push(EventStarted)

	var runCtx context.Context
	runCtx, s.cancel = context.WithCancel(ctx)

	ticks, stopTicker := s.newTicker(s.cfg.Period)
	go s.run(runCtx, ticks, stopTicker, reader, window, s.events, s.done)

	s.Log.Debug().
		Dur("period", s.cfg.Period).
		Int("capacity", s.cfg.WindowCapacity).
		Int("channel", s.cfg.Channel).
		Msg("sampler started")

	return nil
}

// Stop ends the session. When it returns no tick is running and the capture
// is closed. It does nothing if the sampler is idle.
func (s *Sampler) Stop() {
	s.mu.Lock()

	if s.cancel == nil {
		s.mu.Unlock()
		return
	}

	events := s.events
	s.teardown()

	s.Log.Debug().
		Uint64("ticks", s.ticks.Load()).
		Uint64("misses", s.misses.Load()).
		Msg("sampler stopped")

	events.push(EventStopped)
	events.close()
	s.mu.Unlock()

	events.wait()
}

// teardown cancels the loop, waits for it and releases the capture. Caller
// must hold s.mu.
func (s *Sampler) teardown() {
	s.cancel()
	<-s.done

	if err := s.reader.Close(); err != nil {
		s.Log.Warn().Err(err).Msg("failed to close capture")
	}

	s.window.Store(nil)
	s.cancel = nil
	s.reader = nil
	s.done = nil
	s.events = nil
}

// alive reports whether the loop goroutine is still running. Caller must
// hold s.mu.
func (s *Sampler) alive() bool {
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// Running reports whether a session is sampling.
func (s *Sampler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cancel != nil && s.alive()
}

// Snapshot returns the current window, oldest first, or nil when idle.
func (s *Sampler) Snapshot() []float64 {
	if w := s.window.Load(); w != nil {
		return w.Snapshot()
	}
	return nil
}

// Updates receives a value after a tick pushes a level. Notifications that
// are not received in time are merged, so a reader that falls behind only
// sees the newest window.
func (s *Sampler) Updates() <-chan struct{} {
	return s.updates
}

// Stats returns the counters of the current or last session.
func (s *Sampler) Stats() Stats {
	return Stats{
		Ticks:  s.ticks.Load(),
		Pushes: s.pushes.Load(),
		Misses: s.misses.Load(),
		Late:   s.late.Load(),
	}
}

func (s *Sampler) run(ctx context.Context, ticks <-chan time.Time, stopTicker func(),
	reader Reader, window *SlidingWindow, events *eventQueue, done chan struct{}) {

	defer close(done)
	defer stopTicker()

	var (
		last      time.Time
		missed    int
		reported  bool
		allowance = s.cfg.Period + s.cfg.ToleratedJitter
	)

	for {
		var now time.Time

		select {
		case <-ctx.Done():
			return
		case now = <-ticks:
		}

		// a tick and a cancel can be ready together
		if ctx.Err() != nil {
			return
		}

		s.ticks.Add(1)

		if !last.IsZero() {
			if gap := now.Sub(last); gap > allowance {
				s.late.Add(1)
				s.Log.Debug().Dur("gap", gap).Msg("late tick")
			}
		}
		last = now

		raw, err := s.read(ctx, reader)
		if err != nil {
			if ctx.Err() != nil {
				return
			}

			s.misses.Add(1)
			missed++
			s.Log.Debug().Err(err).Int("missed", missed).Msg("no reading")

			if !reported && s.cfg.MissThreshold > 0 && missed >= s.cfg.MissThreshold {
				reported = true
				s.Log.Warn().Int("missed", missed).Msg("capture unavailable")
				events.push(EventCaptureUnavailable)
			}

			continue
		}

		if reported {
			reported = false
			s.Log.Info().Int("missed", missed).Msg("capture recovered")
			events.push(EventCaptureRecovered)
		}
		missed = 0

		window.Push(s.conv.Convert(raw))
		s.pushes.Add(1)

		select {
		case s.updates <- struct{}{}:
		default:
		}
	}
}

func (s *Sampler) read(ctx context.Context, reader Reader) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.readTimeout())
	defer cancel()

	return reader.PeakPower(ctx, s.cfg.Channel)
}

// eventQueue hands a session's events to a handler on a goroutine of its own.
// Pushing never blocks, so neither the sampling loop nor a caller holding the
// lifecycle lock waits on the handler.
type eventQueue struct {
	handler func(Event)

	mu      sync.Mutex
	pending []Event
	closed  bool

	wake chan struct{}
	done chan struct{}
	busy atomic.Bool
}

// newEventQueue returns nil for a nil handler. All methods accept a nil
// queue.
func newEventQueue(handler func(Event)) *eventQueue {
	if handler == nil {
		return nil
	}

	q := &eventQueue{
		handler: handler,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go q.run()

	return q
}

func (q *eventQueue) push(e Event) {
	if q == nil {
		return
	}

	q.mu.Lock()
	if !q.closed {
		q.pending = append(q.pending, e)
	}
	q.mu.Unlock()

	q.signal()
}

// close lets the queue drain and end. Later pushes are dropped.
func (q *eventQueue) close() {
	if q == nil {
		return
	}

	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.signal()
}

// wait blocks until the queue is drained after close. It returns at once
// while a handler is running, since that handler may be the caller.
func (q *eventQueue) wait() {
	if q == nil || q.busy.Load() {
		return
	}
	<-q.done
}

func (q *eventQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *eventQueue) run() {
	defer close(q.done)

	for range q.wake {
		q.mu.Lock()
		batch, closed := q.pending, q.closed
		q.pending = nil
		q.mu.Unlock()

		for _, e := range batch {
			q.busy.Store(true)
			q.handler(e)
			q.busy.Store(false)
		}

		if closed {
			return
		}
	}
}
