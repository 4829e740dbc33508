// Package all imports all backends implemented by the input package.
package all

import (
	_ "github.com/noriah/decibel/input/ffmpeg"
	_ "github.com/noriah/decibel/input/miniaudio"
	_ "github.com/noriah/decibel/input/parec"
	_ "github.com/noriah/decibel/input/pipewire"
	_ "github.com/noriah/decibel/input/stdinput"
	_ "github.com/noriah/decibel/input/synth"
)
