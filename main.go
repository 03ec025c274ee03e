// Command gpumon shows live GPU identity and sensor readings in the
// terminal, or prints a single JSON snapshot with --once.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/luki/gpumon/internal/clock"
	"github.com/luki/gpumon/internal/command"
	"github.com/luki/gpumon/internal/config"
	"github.com/luki/gpumon/internal/monitor"
	"github.com/luki/gpumon/internal/sensor"
	"github.com/luki/gpumon/internal/snapshot"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath     string
	interval       time.Duration
	renderInterval time.Duration
	once           bool
	logFile        string
	debug          bool
}

func parseFlags(args []string, stderr io.Writer) (options, *pflag.FlagSet, error) {
	var opts options
	flags := pflag.NewFlagSet("gpumon", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVar(&opts.configPath, "config", "", "path to a YAML config file (default $"+config.EnvConfig+")")
	flags.DurationVar(&opts.interval, "interval", 0, "sensor refresh interval (overrides config)")
	flags.DurationVar(&opts.renderInterval, "render-interval", 0, "display redraw interval (overrides config)")
	flags.BoolVar(&opts.once, "once", false, "print one JSON snapshot to stdout and exit")
	flags.StringVar(&opts.logFile, "log-file", "", "write JSON logs to this file")
	flags.BoolVar(&opts.debug, "debug", false, "log at debug level")
	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: gpumon [flags]\n\nFlags:\n")
		flags.PrintDefaults()
	}
	err := flags.Parse(args)
	return opts, flags, err
}

func run(args []string, stdout, stderr io.Writer) error {
	opts, flags, err := parseFlags(args, stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	if flags.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", flags.Args())
	}

	cfg, err := loadConfig(opts, flags)
	if err != nil {
		return err
	}

	logger, closeLog, err := newLogger(opts, stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := command.NewExecRunner(cfg.CommandTimeout)
	coordinator := sensor.NewCoordinator(runner, cfg.Tools, logger)
	scheduler := snapshot.New(coordinator, cfg, clock.Real(), logger)

	logger.Info("gpumon starting",
		"refresh_interval", cfg.RefreshInterval,
		"render_interval", cfg.RenderInterval,
		"once", opts.once,
	)

	if opts.once {
		return printSnapshot(ctx, scheduler, stdout)
	}
	return monitor.Run(ctx, scheduler)
}

// loadConfig loads the config file and applies flags the user set.
func loadConfig(opts options, flags *pflag.FlagSet) (config.AppConfig, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return config.AppConfig{}, err
	}
	if flags.Changed("interval") {
		cfg.RefreshInterval = opts.interval
	}
	if flags.Changed("render-interval") {
		cfg.RenderInterval = opts.renderInterval
	}
	if err := cfg.Validate(); err != nil {
		return config.AppConfig{}, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger. The TUI owns the terminal, so
// interactive runs only log when --log-file is given; --once logs
// warnings to stderr.
func newLogger(opts options, stderr io.Writer) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if opts.debug {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	if opts.logFile != "" {
		f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		return slog.New(slog.NewJSONHandler(f, handlerOpts)), func() { f.Close() }, nil
	}

	if opts.once {
		if !opts.debug {
			handlerOpts.Level = slog.LevelWarn
		}
		return slog.New(slog.NewTextHandler(stderr, handlerOpts)), func() {}, nil
	}

	return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
}

func printSnapshot(ctx context.Context, s *snapshot.Scheduler, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.Snapshot(ctx)); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return nil
}
