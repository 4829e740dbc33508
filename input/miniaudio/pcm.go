package miniaudio

import (
	"encoding/binary"

	"github.com/noriah/decibel/input"
)

const s16Scale = 1 << 15

// frameWriter collects interleaved s16le frames from the device callback
// into per-channel buffers.
type frameWriter struct {
	dst [][]input.Sample
	pos int
}

// write decodes as many whole frames of in as fit and reports how many
// bytes it consumed and whether dst is now full.
func (w *frameWriter) write(in []byte) (int, bool) {
	channels := len(w.dst)
	if channels == 0 {
		return len(in), false
	}

	size := len(w.dst[0])
	framesz := 2 * channels
	n := 0

	for ; n+framesz <= len(in) && w.pos < size; n += framesz {
		for ch := 0; ch < channels; ch++ {
			v := int16(binary.LittleEndian.Uint16(in[n+2*ch:]))
			w.dst[ch][w.pos] = float64(v) / s16Scale
		}
		w.pos++
	}

	if w.pos < size {
		return n, false
	}

	w.pos = 0
	return n, true
}
