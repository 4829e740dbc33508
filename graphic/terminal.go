package graphic

import (
	"os"
	"strings"
)

// normalizeTerminal works around terminal settings that termbox cannot
// handle. The returned func puts them back.
func normalizeTerminal() (func(), error) {
	prev, had := os.LookupEnv("TERMINFO")

	// Some TERMINFO values break termbox under tmux.
	if !had || !strings.HasPrefix(os.Getenv("TERM"), "tmux") {
		return func() {}, nil
	}

	if err := os.Unsetenv("TERMINFO"); err != nil {
		return nil, err
	}

	return func() { os.Setenv("TERMINFO", prev) }, nil
}
