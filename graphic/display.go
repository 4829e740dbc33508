// Package graphic draws the level history as a scrolling bar chart in the
// terminal.
package graphic

import (
	"context"
	"sync"

	"github.com/nsf/termbox-go"
	"github.com/pkg/errors"
)

// Colors used by the chart.
const (
	StyleDefault     = termbox.ColorDefault | termbox.AttrBold
	StyleDefaultBack = termbox.ColorDefault
	StyleBase        = termbox.ColorWhite
	StyleBelow       = termbox.ColorBlue | termbox.AttrBold
	StyleTarget      = termbox.ColorGreen | termbox.AttrBold
	StyleAbove       = termbox.ColorRed | termbox.AttrBold
	StyleLowLine     = termbox.ColorYellow
	StyleHighLine    = termbox.ColorGreen
)

const (
	lineRune    = '─'
	maxBarWidth = 16
)

// Display draws levels with termbox.
type Display struct {
	mu      sync.Mutex
	cfg     Config
	bands   Bands
	restore func()
	cancel  context.CancelFunc
	done    chan struct{}

	// poller state, guarded by mu. Exactly one of them is set once polling
	// is over or about to be.
	exiting      bool
	interrupting bool

	poll      func() termbox.Event
	interrupt func()
}

// NewDisplay returns a display with 2 column bars, 1 column spaces and the
// default bands.
func NewDisplay() *Display {
	return &Display{
		cfg: Config{
			BarWidth:   2,
			SpaceWidth: 1,
			BaseThick:  1,
		},
		bands:     DefaultBands(),
		poll:      termbox.PollEvent,
		interrupt: termbox.Interrupt,
	}
}

// Init sets up the terminal. It must be called before any other method.
func (d *Display) Init() error {
	restore, err := normalizeTerminal()
	if err != nil {
		return errors.Wrap(err, "failed to normalize terminal")
	}

	if err := termbox.Init(); err != nil {
		restore()
		return errors.Wrap(err, "failed to init termbox")
	}

	termbox.SetInputMode(termbox.InputAlt)
	termbox.SetOutputMode(termbox.Output256)
	termbox.HideCursor()

	d.restore = restore

	return nil
}

// Close restores the terminal.
func (d *Display) Close() error {
	termbox.Close()
	if d.restore != nil {
		d.restore()
		d.restore = nil
	}
	return nil
}

// SetSizes sets the bar and space widths.
func (d *Display) SetSizes(bar, space int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.cfg.BarWidth, d.cfg.SpaceWidth = clampSizes(bar, space)
}

// SetBase sets the thickness of the base under the bars.
func (d *Display) SetBase(thick int) {
	if thick < 0 {
		thick = 0
	}

	d.mu.Lock()
	d.cfg.BaseThick = thick
	d.mu.Unlock()
}

// SetBands sets the target range and scale.
func (d *Display) SetBands(b Bands) error {
	if err := b.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	d.bands = b
	d.mu.Unlock()

	return nil
}

func clampSizes(bar, space int) (int, int) {
	if bar < 1 {
		bar = 1
	}
	if bar > maxBarWidth {
		bar = maxBarWidth
	}
	if space < 0 {
		space = 0
	}
	if space > maxBarWidth {
		space = maxBarWidth
	}
	return bar, space
}

// Start polls keyboard events. The returned context is cancelled when the
// user quits.
func (d *Display) Start(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	d.mu.Lock()
	d.cancel, d.done = cancel, done
	d.exiting, d.interrupting = false, false
	d.mu.Unlock()

	go func() {
		defer close(done)
		defer cancel()

		for {
			ev := d.poll()
			if ev.Type == termbox.EventInterrupt {
				return
			}

			quit := ctx.Err() != nil || d.handleEvent(ev)
			if quit && d.exit() {
				return
			}
		}
	}()

	return ctx
}

// exit reports whether the poller may return. It may not once Stop has
// committed to an interrupt, since nothing else would take it.
func (d *Display) exit() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.interrupting {
		return false
	}
	d.exiting = true
	return true
}

// handleEvent reports whether the user asked to quit.
func (d *Display) handleEvent(ev termbox.Event) bool {
	switch ev.Type {
	case termbox.EventKey:
		switch ev.Key {
		case termbox.KeyCtrlC, termbox.KeyEsc:
			return true
		case termbox.KeyArrowUp:
			d.resize(1, 0)
		case termbox.KeyArrowDown:
			d.resize(-1, 0)
		case termbox.KeyArrowRight:
			d.resize(0, 1)
		case termbox.KeyArrowLeft:
			d.resize(0, -1)
		}

		switch ev.Ch {
		case 'q', 'Q':
			return true
		}
	}

	return false
}

func (d *Display) resize(bar, space int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.cfg.BarWidth, d.cfg.SpaceWidth = clampSizes(d.cfg.BarWidth+bar, d.cfg.SpaceWidth+space)
}

// Stop ends event polling and waits for it to return.
func (d *Display) Stop() error {
	d.mu.Lock()
	cancel, done := d.cancel, d.done
	if cancel == nil {
		d.mu.Unlock()
		return nil
	}

	// Interrupt blocks until PollEvent takes it, so send it only while the
	// poller is still bound to poll again.
	send := !d.exiting && !d.interrupting
	d.interrupting = d.interrupting || send
	d.mu.Unlock()

	cancel()
	if send {
		d.interrupt()
	}
	<-done

	return nil
}

// Write draws levels, oldest first, with the newest bar at the right edge.
func (d *Display) Write(levels []float64) error {
	d.mu.Lock()
	cfg, bands := d.cfg, d.bands
	d.mu.Unlock()

	if err := termbox.Clear(StyleDefault, StyleDefaultBack); err != nil {
		return err
	}

	width, height := termbox.Size()
	draw(levels, width, height, cfg, bands)

	return termbox.Flush()
}
