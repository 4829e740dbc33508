package main

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// newLogger builds a console logger on stderr, or on path when given. The
// returned func closes the log file.
func newLogger(level, path string, quiet bool) (zerolog.Logger, func(), error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), nil, errors.Wrap(err, "invalid log level")
	}

	var out io.Writer = os.Stderr
	closeFn := func() {}

	switch {
	case path != "":
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), nil, errors.Wrap(err, "failed to open log file")
		}
		out = f
		closeFn = func() { f.Close() }

	case quiet && lvl < zerolog.ErrorLevel:
		// The terminal chart owns the screen.
		lvl = zerolog.ErrorLevel
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "15:04:05",
		NoColor:    path != "",
	}

	logger := zerolog.New(consoleWriter).Level(lvl).With().Timestamp().Logger()

	return logger, closeFn, nil
}
