package graphic

import "math"

// NumRunes number of runes for sub step bars
const NumRunes = 8

// BarRune is the block we use for bars
const BarRune rune = '█'

var barRunes = [NumRunes]rune{
	' ',
	'▁',
	'▂',
	'▃',
	'▄',
	'▅',
	'▆',
	'▇',
}

// Config is the chart geometry.
type Config struct {
	BarWidth   int // columns per bar
	SpaceWidth int // columns between bars
	BaseThick  int // rows under the bars
}

// BinWidth is the width of one bar and its space.
func (cfg Config) BinWidth() int {
	return cfg.BarWidth + cfg.SpaceWidth
}

// column is one bar on screen.
type column struct {
	x     int  // leftmost cell
	full  int  // number of full cells from the bottom
	top   rune // partial cell above the full ones, ' ' if none
	band  Band // color band of the level
	level float64
}

// layout places the newest levels that fit in width, right aligned so the
// newest bar is always at the right edge. Heights are in cells of a chart
// rows tall.
func layout(levels []float64, width, rows int, cfg Config, bands Bands) []column {
	bin := cfg.BinWidth()
	if bin < 1 || cfg.BarWidth < 1 || width < cfg.BarWidth || rows < 1 {
		return nil
	}

	count := (width + cfg.SpaceWidth) / bin
	if count > len(levels) {
		count = len(levels)
	}

	levels = levels[len(levels)-count:]
	used := count*bin - cfg.SpaceWidth
	xCol := width - used

	cols := make([]column, count)
	for i, level := range levels {
		full, top := barHeight(level/bands.Max, rows)
		cols[i] = column{
			x:     xCol + i*bin,
			full:  full,
			top:   top,
			band:  bands.Classify(level),
			level: level,
		}
	}

	return cols
}

// barHeight splits a fraction of rows into whole cells and the rune for the
// partial cell on top.
func barHeight(frac float64, rows int) (int, rune) {
	if !(frac > 0) {
		return 0, barRunes[0]
	}

	cells := math.Min(frac, 1) * float64(rows)
	full := int(cells)
	if full >= rows {
		return rows, barRunes[0]
	}

	part := int((cells - float64(full)) * NumRunes)
	return full, barRunes[part]
}

// rowOf returns the row, counted from the bottom of the chart, that level
// reaches.
func rowOf(level float64, rows int, bands Bands) int {
	row := int(math.Round(level / bands.Max * float64(rows)))
	if row < 0 {
		return 0
	}
	if row > rows {
		return rows
	}
	return row
}
