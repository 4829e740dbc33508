package input

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/noriah/decibel/dsp"
)

// PeakMeter holds the loudest sample of each channel between reads.
//
// A capture goroutine feeds it with Update while the sampler drains it with
// PeakPower. A read with no buffer since the previous one repeats the
// previous value until the stale interval passes.
type PeakMeter struct {
	mu sync.Mutex

	peaks []float64 // linear peaks since the last read
	held  []float64 // last value returned, per channel
	fresh []bool

	stale   time.Duration
	updated time.Time
	started bool
	closed  bool

	now func() time.Time
}

// NewPeakMeter returns a meter for the given channel count. A stale interval
// of zero disables the staleness check.
func NewPeakMeter(channels int, stale time.Duration) *PeakMeter {
	return &PeakMeter{
		peaks: make([]float64, channels),
		held:  make([]float64, channels),
		fresh: make([]bool, channels),
		stale: stale,
		now:   time.Now,
	}
}

// Channels returns the number of channels metered.
func (m *PeakMeter) Channels() int {
	return len(m.peaks)
}

// Update folds one buffer per channel into the held peaks. Extra buffers are
// ignored.
func (m *PeakMeter) Update(bufs [][]Sample) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	for ch := 0; ch < len(bufs) && ch < len(m.peaks); ch++ {
		m.peaks[ch] = math.Max(m.peaks[ch], dsp.Peak(bufs[ch]))
		m.fresh[ch] = true
	}

	m.started = true
	m.updated = m.now()
}

// PeakPower returns the held peak of channel in dBFS and starts a new
// metering interval for it.
func (m *PeakMeter) PeakPower(ctx context.Context, channel int) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case m.closed || !m.started:
		return 0, ErrNotRecording
	case channel < 0 || channel >= len(m.peaks):
		return 0, ErrBadChannel
	case m.stale > 0 && m.now().Sub(m.updated) > m.stale:
		return 0, ErrNoReading
	}

	if m.fresh[channel] {
		m.held[channel] = m.peaks[channel]
		m.peaks[channel] = 0
		m.fresh[channel] = false
	}

	return dsp.DBFS(m.held[channel]), nil
}

// Close makes further reads fail with ErrNotRecording.
func (m *PeakMeter) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}
