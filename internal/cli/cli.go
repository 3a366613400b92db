// Package cli wires the scheduler stack behind a cobra command tree:
//
//	preemptsched
//	├── run        replay a submission scenario and print one glyph per step
//	└── version
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"preemptq/internal/config"
	"preemptq/internal/job"
	"preemptq/internal/logging"
	"preemptq/internal/metrics"
	"preemptq/internal/sched"
	"preemptq/internal/slicer"
	"preemptq/internal/trace"
)

// Version is injected at build time.
var Version = "dev"

type runOptions struct {
	configFile  string
	csvPath     string
	metricsAddr string
	verbose     bool
}

// BuildCLI returns the root command.
func BuildCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "preemptsched",
		Short: "Priority-preemptive, time-sliced work scheduler",
		Long: `preemptsched runs work items in small time slices on a single goroutine.
More urgent work preempts less urgent work between slices, and interrupted
work resumes exactly where it stopped.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(buildRunCommand())
	rootCmd.AddCommand(buildVersionCommand())
	return rootCmd
}

func buildRunCommand() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Replay a submission scenario",
		Long: `Submit the work items listed under "scenario" in the config file (or the
built-in demo: normal work interrupted by immediate work) and print the
priority glyph of every executed step.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configFile, "config", "c", "", "config file path (defaults only when empty)")
	cmd.Flags().StringVar(&opts.csvPath, "csv", "", "write scheduler events to this CSV file")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "print scheduler events to stderr")

	return cmd
}

func buildVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
		},
	}
}

func runScenario(cmd *cobra.Command, opts runOptions) error {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLoggerWithWriter(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format, cmd.ErrOrStderr())
	out := cmd.OutOrStdout()

	var sinks []sched.EventSink
	if opts.verbose {
		sinks = append(sinks, trace.NewConsole(cmd.ErrOrStderr()))
	}
	if opts.csvPath != "" {
		csvSink, err := trace.CreateCSV(opts.csvPath)
		if err != nil {
			return err
		}
		defer func() {
			if err := csvSink.Close(); err != nil {
				logger.Warn("csv log", "error", err)
			}
		}()
		sinks = append(sinks, csvSink)
	}

	reg := prometheus.NewRegistry()
	sinks = append(sinks, metrics.NewCollector(reg))

	addr := opts.metricsAddr
	if addr == "" {
		addr = cfg.Metrics.Addr
	}
	if addr != "" {
		srv := startMetricsServer(addr, reg, logger)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	clock := slicer.SystemClock{}
	slicerOpts := []slicer.Option{
		slicer.WithBudget(cfg.Slice()),
		slicer.WithLogger(logger),
	}
	for _, p := range sched.Priorities {
		if d, ok := cfg.TimeoutFor(p); ok {
			slicerOpts = append(slicerOpts, slicer.WithTimeout(p, d))
		}
	}
	sl := slicer.New(clock, slicerOpts...)
	s := sched.New(sl, sched.WithLogger(logger), sched.WithSink(sched.MultiSink(sinks...)))
	host := slicer.NewHost(sl, logger)

	parent, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	subs := cfg.Submissions()
	effect := job.Chain(job.Print(out), job.Spin(clock, cfg.StepCost()))

	// submitted is only touched on the host goroutine
	submitted := 0
	host.OnIdle(func() {
		if submitted == len(subs) {
			cancel()
		}
	})

	timers := make([]*time.Timer, 0, len(subs))
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()
	for i, sub := range subs {
		i := i
		p, err := sched.ParsePriority(sub.Priority)
		if err != nil {
			return fmt.Errorf("scenario[%d]: %w", i, err)
		}
		steps := sub.Steps
		submit := func() {
			submitted++
			w, err := s.Submit(p, steps, effect)
			if err != nil {
				logger.Error("submit failed", "index", i, "error", err)
				return
			}
			logger.Debug("work submitted", "work", w.ID(), "priority", p, "steps", steps)
		}
		delay := time.Duration(sub.AfterMS) * time.Millisecond
		timers = append(timers, time.AfterFunc(delay, func() {
			if err := host.Post(submit); err != nil {
				logger.Warn("submission dropped", "index", i, "error", err)
			}
		}))
	}

	logger.Info("scenario started", "submissions", len(subs), "slice", cfg.Slice())
	err = host.Run(ctx)
	fmt.Fprintln(out)

	if parent.Err() != nil {
		logger.Info("interrupted", "pending", s.Pending())
		return nil
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("scenario finished", "submitted", submitted, "pending", s.Pending())
	return nil
}

func startMetricsServer(addr string, g prometheus.Gatherer, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(g))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("metrics server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()
	return srv
}
