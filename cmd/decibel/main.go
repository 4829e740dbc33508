package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/noriah/decibel"
	"github.com/noriah/decibel/config"
	"github.com/noriah/decibel/graphic"
	"github.com/noriah/decibel/input"
	"github.com/noriah/decibel/meter"
	"github.com/noriah/decibel/stream"

	_ "github.com/noriah/decibel/input/all"

	"github.com/integrii/flaggy"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// AppName is the app name
const AppName = "decibel"

// AppDesc is the app description
const AppDesc = "Scrolling terminal level meter"

// AppSite is the app website
const AppSite = "https://github.com/noriah/decibel"

var version = "unknown"

func main() {
	f := newFlags()

	if doFlags(&f) {
		return
	}

	cfg := config.Default()
	if f.configPath != "" {
		var err error
		cfg, err = config.Load(f.configPath)
		chk(err, "failed to load config")
	}

	chk(f.apply(&cfg), "invalid config")

	if cfg.Backend == "" {
		cfg.Backend = input.DefaultBackend()
	}

	logger, closeLog, err := newLogger(cfg.LogLevel, cfg.LogFile, cfg.Output == config.OutputTerm)
	chk(err, "failed to set up logging")
	defer closeLog()

	log.Logger = logger

	sess := cfg.Session()
	sess.Logger = logger
	sess.OnEvent = func(e meter.Event) {
		switch e {
		case meter.EventCaptureUnavailable:
			logger.Warn().Str("device", cfg.Device).Msg("no audio from the capture device")
		case meter.EventCaptureRecovered:
			logger.Info().Str("device", cfg.Device).Msg("capture device recovered")
		}
	}

	var serveErr func() error

	switch cfg.Output {
	case config.OutputTerm:
		setupDisplay(&sess, cfg)
	case config.OutputText:
		sess.Output = NewWriter(os.Stdout, cfg.Bands, 0)
	case config.OutputWS:
		serveErr = setupStream(&sess, cfg, logger)
	}

	// Root Context
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	chk(decibel.Run(&sess, ctx), "failed to run decibel")

	if serveErr != nil {
		chk(serveErr(), "failed to serve levels")
	}
}

func setupDisplay(sess *decibel.Config, cfg config.Config) {
	display := graphic.NewDisplay()

	sess.SetupFunc = func() error {
		if err := display.Init(); err != nil {
			return err
		}

		display.SetSizes(cfg.Display.Bar, cfg.Display.Space)
		display.SetBase(cfg.Display.Base)

		return display.SetBands(cfg.Bands)
	}
	sess.StartFunc = func(ctx context.Context) (context.Context, error) {
		return display.Start(ctx), nil
	}
	sess.CleanupFunc = func() error {
		display.Stop()
		return display.Close()
	}
	sess.Output = display
}

// setupStream serves levels over a websocket. A server failure ends the
// session, and the returned func reports it once Run has returned.
func setupStream(sess *decibel.Config, cfg config.Config, logger zerolog.Logger) func() error {
	server := stream.NewServer(cfg.Meter.Ceiling)
	server.Log = logger.With().Str("component", "stream").Logger()

	done := make(chan struct{})
	started := false

	// written before done is closed
	var serveErr error

	sess.StartFunc = func(ctx context.Context) (context.Context, error) {
		ctx, cancel := context.WithCancel(ctx)
		started = true

		go func() {
			defer close(done)
			defer cancel()

			serveErr = server.ListenAndServe(ctx, cfg.Listen, cfg.Path)
		}()

		logger.Info().Str("addr", cfg.Listen).Str("path", cfg.Path).Msg("serving levels")

		return ctx, nil
	}
	sess.CleanupFunc = func() error {
		err := server.Close()
		if started {
			<-done
		}
		return err
	}
	sess.Output = server

	return func() error {
		if !started {
			return nil
		}
		<-done
		return serveErr
	}
}

func doFlags(f *flags) bool {

	parser := flaggy.NewParser(AppName)
	parser.Description = AppDesc
	parser.AdditionalHelpPrepend = AppSite
	parser.Version = version

	listBackendsCmd := flaggy.Subcommand{
		Name:                 "list-backends",
		ShortName:            "lb",
		Description:          "list all supported backends",
		AdditionalHelpAppend: "\nuse the full name after the '-'",
	}

	parser.AttachSubcommand(&listBackendsCmd, 1)

	listDevicesCmd := flaggy.Subcommand{
		Name:                 "list-devices",
		ShortName:            "ld",
		Description:          "list all devices for a backend",
		AdditionalHelpAppend: "\nuse the full name after the '-'",
	}

	parser.AttachSubcommand(&listDevicesCmd, 1)

	parser.String(&f.configPath, "c", "config", "path to a YAML config file")
	parser.String(&f.backend, "b", "backend", "backend name")
	parser.String(&f.device, "d", "device", "device name")
	parser.Float64(&f.sampleRate, "r", "rate", "sample rate")
	parser.Int(&f.sampleSize, "n", "samples", "sample size")
	parser.Int(&f.channels, "ch", "channels", "channel count [1, 8]")
	parser.Int(&f.channel, "m", "meter-channel", "channel to meter [0, channels)")
	parser.String(&f.period, "p", "period", "time between readings, such as 100ms")
	parser.Int(&f.capacity, "w", "window", "number of readings kept")
	parser.Float64(&f.floor, "fl", "floor", "dBFS treated as silence (< 0)")
	parser.Float64(&f.ceiling, "cl", "ceiling", "level at full scale (> 0)")
	parser.String(&f.output, "o", "output", "output: term, text or ws")
	parser.String(&f.listen, "l", "listen", "websocket listen address")
	parser.Int(&f.baseSize, "bt", "base", "base thickness [0, +Inf)")
	parser.Int(&f.barSize, "bw", "bar", "bar width [1, +Inf)")
	parser.Int(&f.spaceSize, "sw", "space", "space width [0, +Inf)")
	parser.String(&f.logLevel, "ll", "log-level", "log level: debug, info, warn or error")
	parser.String(&f.logFile, "lf", "log-file", "write logs to a file")

	chk(parser.Parse(), "failed to parse arguments")

	switch {
	case listBackendsCmd.Used:
		for _, backend := range input.Backends {
			fmt.Printf("- %s\n", backend.Name)
		}

		return true

	case listDevicesCmd.Used:
		name := f.backend
		if name == "" {
			name = input.DefaultBackend()
		}

		backend, err := input.InitBackend(name)
		chk(err, "failed to init backend")
		defer backend.Close()

		devices, err := backend.Devices()
		chk(err, "failed to get devices")

		// We don't really need the default device to be indicated.
		defaultDevice, _ := backend.DefaultDevice()

		fmt.Printf("all devices for %q backend. '*' marks default\n", name)

		for idx := range devices {
			star := ' '
			if defaultDevice != nil && devices[idx].String() == defaultDevice.String() {
				star = '*'
			}

			fmt.Printf("- %v %c\n", devices[idx], star)
		}

		return true
	}

	return false
}

func chk(err error, wrap string) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", wrap, err)
		os.Exit(1)
	}
}
