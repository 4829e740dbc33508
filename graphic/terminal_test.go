package graphic

import (
	"os"
	"testing"
)

func TestNormalizeTerminalTmux(t *testing.T) {
	t.Setenv("TERM", "tmux-256color")
	t.Setenv("TERMINFO", "/opt/terminfo")

	restore, err := normalizeTerminal()
	if err != nil {
		t.Fatalf("normalizeTerminal: %v", err)
	}

	if _, ok := os.LookupEnv("TERMINFO"); ok {
		t.Error("TERMINFO still set under tmux")
	}

	restore()
	if got := os.Getenv("TERMINFO"); got != "/opt/terminfo" {
		t.Errorf("restored TERMINFO = %q", got)
	}
}

func TestNormalizeTerminalOther(t *testing.T) {
	t.Setenv("TERM", "xterm-256color")
	t.Setenv("TERMINFO", "/opt/terminfo")

	restore, err := normalizeTerminal()
	if err != nil {
		t.Fatalf("normalizeTerminal: %v", err)
	}
	restore()

	if got := os.Getenv("TERMINFO"); got != "/opt/terminfo" {
		t.Errorf("TERMINFO = %q, want it untouched", got)
	}
}
