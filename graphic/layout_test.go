package graphic

import "testing"

func TestBandsClassify(t *testing.T) {
	b := DefaultBands()

	for _, trial := range []struct {
		level  float64
		expect Band
	}{
		{0, BandBelow},
		{59.9, BandBelow},
		{60, BandTarget},
		{70, BandTarget},
		{80, BandTarget},
		{80.1, BandAbove},
		{120, BandAbove},
	} {
		if got := b.Classify(trial.level); got != trial.expect {
			t.Errorf("Classify(%v) = %v, want %v", trial.level, got, trial.expect)
		}
	}
}

func TestBandsValidate(t *testing.T) {
	if err := DefaultBands().Validate(); err != nil {
		t.Fatalf("default bands: %v", err)
	}

	for _, b := range []Bands{
		{Low: 10, High: 20, Max: 0},
		{Low: -1, High: 20, Max: 100},
		{Low: 30, High: 20, Max: 100},
		{Low: 10, High: 120, Max: 100},
	} {
		if err := b.Validate(); err == nil {
			t.Errorf("%+v: expected an error", b)
		}
	}
}

func TestBarHeight(t *testing.T) {
	for _, trial := range []struct {
		frac float64
		rows int
		full int
		top  rune
	}{
		{0, 10, 0, ' '},
		{-1, 10, 0, ' '},
		{1, 10, 10, ' '},
		{2, 10, 10, ' '},
		{0.5, 10, 5, ' '},
		{0.55, 10, 5, '▄'},
		{0.01, 10, 0, ' '},
		{0.015, 10, 0, '▁'},
	} {
		full, top := barHeight(trial.frac, trial.rows)
		if full != trial.full || top != trial.top {
			t.Errorf("barHeight(%v, %d) = %d %q, want %d %q",
				trial.frac, trial.rows, full, top, trial.full, trial.top)
		}
	}
}

func TestLayoutNewestOnRight(t *testing.T) {
	cfg := Config{BarWidth: 2, SpaceWidth: 1}
	bands := Bands{Low: 60, High: 80, Max: 100}
	levels := []float64{10, 20, 30, 70, 90}

	// Room for three bins: 3*3-1 = 8 columns.
	cols := layout(levels, 8, 10, cfg, bands)
	if len(cols) != 3 {
		t.Fatalf("got %d columns, want 3", len(cols))
	}

	expect := []struct {
		x    int
		full int
		band Band
	}{
		{0, 3, BandBelow},
		{3, 7, BandTarget},
		{6, 9, BandAbove},
	}

	for i, e := range expect {
		c := cols[i]
		if c.x != e.x || c.full != e.full || c.band != e.band {
			t.Errorf("column %d = %+v, want x=%d full=%d band=%v", i, c, e.x, e.full, e.band)
		}
	}

	if cols[2].level != 90 {
		t.Errorf("rightmost level = %v, want the newest", cols[2].level)
	}
}

func TestLayoutRightAligned(t *testing.T) {
	cfg := Config{BarWidth: 1, SpaceWidth: 1}
	cols := layout([]float64{50, 50}, 20, 4, cfg, DefaultBands())

	if len(cols) != 2 {
		t.Fatalf("got %d columns, want 2", len(cols))
	}
	if cols[1].x != 19 || cols[0].x != 17 {
		t.Errorf("columns at %d and %d, want 17 and 19", cols[0].x, cols[1].x)
	}
}

func TestLayoutTooSmall(t *testing.T) {
	cfg := Config{BarWidth: 3, SpaceWidth: 1}

	if cols := layout([]float64{1}, 2, 10, cfg, DefaultBands()); cols != nil {
		t.Errorf("layout in a 2 column terminal = %v", cols)
	}
	if cols := layout([]float64{1}, 10, 0, cfg, DefaultBands()); cols != nil {
		t.Errorf("layout with no rows = %v", cols)
	}
}

func TestRowOf(t *testing.T) {
	b := Bands{Low: 60, High: 80, Max: 120}

	if got := rowOf(60, 12, b); got != 6 {
		t.Errorf("rowOf(60) = %d, want 6", got)
	}
	if got := rowOf(500, 12, b); got != 12 {
		t.Errorf("rowOf(500) = %d, want 12", got)
	}
	if got := rowOf(-5, 12, b); got != 0 {
		t.Errorf("rowOf(-5) = %d, want 0", got)
	}
}

func TestClampSizes(t *testing.T) {
	if bar, space := clampSizes(0, -2); bar != 1 || space != 0 {
		t.Errorf("clampSizes(0, -2) = %d, %d", bar, space)
	}
	if bar, space := clampSizes(40, 40); bar != maxBarWidth || space != maxBarWidth {
		t.Errorf("clampSizes(40, 40) = %d, %d", bar, space)
	}
}
