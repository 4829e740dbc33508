package main

import (
	"bufio"
	"io"

	"github.com/fatih/color"
	"github.com/noriah/decibel/graphic"
)

// Writer prints the newest levels as a line of numbers coloured by band.
type Writer struct {
	out   *bufio.Writer
	bands graphic.Bands
	count int

	below  *color.Color
	target *color.Color
	above  *color.Color
}

// NewWriter prints up to count levels per line. A count of 0 prints the
// whole window.
func NewWriter(out io.Writer, bands graphic.Bands, count int) *Writer {
	return &Writer{
		out:    bufio.NewWriter(out),
		bands:  bands,
		count:  count,
		below:  color.New(color.FgBlue),
		target: color.New(color.FgGreen, color.Bold),
		above:  color.New(color.FgRed, color.Bold),
	}
}

func (w *Writer) style(level float64) *color.Color {
	switch w.bands.Classify(level) {
	case graphic.BandTarget:
		return w.target
	case graphic.BandAbove:
		return w.above
	}
	return w.below
}

// Write prints levels, oldest first.
func (w *Writer) Write(levels []float64) error {
	if w.count > 0 && len(levels) > w.count {
		levels = levels[len(levels)-w.count:]
	}

	for i, level := range levels {
		if i > 0 {
			w.out.WriteByte(' ')
		}
		w.style(level).Fprintf(w.out, "%6.2f", level)
	}

	w.out.WriteByte('\n')

	return w.out.Flush()
}
