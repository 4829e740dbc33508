package graphic

import "github.com/nsf/termbox-go"

func bandStyle(b Band) termbox.Attribute {
	switch b {
	case BandTarget:
		return StyleTarget
	case BandAbove:
		return StyleAbove
	}
	return StyleBelow
}

// draw paints the chart into the termbox back buffer. Row 0 is the top of the
// terminal.
func draw(levels []float64, width, height int, cfg Config, bands Bands) {
	vHeight := height - cfg.BaseThick
	if vHeight < 1 {
		return
	}

	// Threshold lines go under the bars.
	lowRow := vHeight - rowOf(bands.Low, vHeight, bands)
	highRow := vHeight - rowOf(bands.High, vHeight, bands)
	for x := 0; x < width; x++ {
		if lowRow < vHeight {
			termbox.SetCell(x, lowRow, lineRune, StyleLowLine, StyleDefaultBack)
		}
		if highRow < vHeight {
			termbox.SetCell(x, highRow, lineRune, StyleHighLine, StyleDefaultBack)
		}
	}

	for _, col := range layout(levels, width, vHeight, cfg, bands) {
		style := bandStyle(col.band)

		for xCol := col.x; xCol < col.x+cfg.BarWidth; xCol++ {
			xRow := height - 1

			for xRow >= vHeight {
				termbox.SetCell(xCol, xRow, BarRune, StyleBase, StyleDefaultBack)
				xRow--
			}

			for stop := vHeight - col.full; xRow >= stop; xRow-- {
				termbox.SetCell(xCol, xRow, BarRune, style, StyleDefaultBack)
			}

			if col.top != barRunes[0] && xRow >= 0 {
				termbox.SetCell(xCol, xRow, col.top, style, StyleDefaultBack)
			}
		}
	}
}
