//go:build !tinygo

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"rtsense/app"
	"rtsense/hal"
	"rtsense/internal/buildinfo"
	"rtsense/internal/trace"
	"rtsense/kernel"
)

var (
	runOpts = struct {
		ticks         uint64
		hz            int
		failMode      bool
		failCalibrate bool
		trace         bool
		logLevel      string
		ledLog        bool
	}{}

	rootCmd = &cobra.Command{
		Use:          "rtsense",
		Short:        "Run the sensor task set on a simulated board",
		Long:         "Run the LED, pot and accelerometer tasks on a simulated board. Console output goes to stdout, diagnostics to stderr.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
		},
	}
)

func init() {
	f := rootCmd.Flags()
	f.Uint64VarP(&runOpts.ticks, "ticks", "n", 0, "Stop after N 1 ms ticks (0 = run until interrupted).")
	f.IntVar(&runOpts.hz, "hz", 1000, "Wall-clock sampling rate of the tick pump.")
	f.BoolVar(&runOpts.failMode, "fail-mode", false, "Make the accelerometer reject measurement mode.")
	f.BoolVar(&runOpts.failCalibrate, "fail-calibrate", false, "Make the accelerometer fail calibration.")
	f.BoolVar(&runOpts.trace, "trace", false, "Print per-task timing statistics on exit.")
	f.StringVar(&runOpts.logLevel, "log-level", "warn", "Kernel log level: debug, info, warn or error.")
	f.BoolVar(&runOpts.ledLog, "led-log", false, "Log LED transitions to stderr.")
	rootCmd.AddCommand(versionCmd)
}

func run(ctx context.Context) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(runOpts.logLevel)); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", runOpts.logLevel, err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	logger.Debug("starting", "version", buildinfo.Short())

	h := hal.NewHost(hal.HostConfig{
		QuietLEDs:     !runOpts.ledLog,
		FailMode:      runOpts.failMode,
		FailCalibrate: runOpts.failCalibrate,
	})

	opts := []app.Option{app.WithLogger(logger)}
	var rec *trace.Recorder
	var names func(kernel.TaskID) string
	if runOpts.trace {
		rec = trace.NewRecorder()
		opts = append(opts,
			app.WithObserver(rec.Observe),
			app.WithBooted(func(s *app.System) { names = s.Kernel().TaskName }),
		)
	}

	err := hal.RunHeadless(ctx, h, func(ctx context.Context) error {
		return app.Run(ctx, h, opts...)
	}, hal.HeadlessConfig{Hz: runOpts.hz, Ticks: runOpts.ticks})

	if rec != nil {
		if rerr := rec.Report(os.Stderr, names); rerr != nil && err == nil {
			err = rerr
		}
	}
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
