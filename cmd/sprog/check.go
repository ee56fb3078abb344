package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sprogdev/sprog/internal/check"
	"github.com/sprogdev/sprog/internal/events"
	"github.com/sprogdev/sprog/internal/metrics"
	"github.com/sprogdev/sprog/internal/version"
)

var (
	checkConfigPath    string
	checkTimes         int
	checkParallel      int
	checkRunTimeout    time.Duration
	checkKillGrace     time.Duration
	checkFailureKeep   int
	checkMetricsListen string
	checkWebhookURL    string
	checkBinary        string
	checkInjectFailure bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the duplication sequence repeatedly and verify its output",
	Long: `Run the duplication sequence as a subprocess, many times and optionally
in parallel, and verify every run: the three announcement lines in
order, a zero exit, and the sentinel file proving the child finished
before the parent stopped waiting.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(checkConfigPath)
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		times := cfg.Check.Times
		if cmd.Flags().Changed("times") {
			times = checkTimes
		}
		parallel := cfg.Check.Parallel
		if cmd.Flags().Changed("parallel") {
			parallel = checkParallel
		}
		runTimeout := time.Duration(cfg.Check.RunTimeout) * time.Second
		if cmd.Flags().Changed("run-timeout") {
			runTimeout = checkRunTimeout
		}
		failureKeep := cfg.Check.FailureKeep
		if cmd.Flags().Changed("failure-keep") {
			failureKeep = checkFailureKeep
		}
		metricsListen := cfg.Check.MetricsListen
		if cmd.Flags().Changed("metrics-listen") {
			metricsListen = checkMetricsListen
		}
		webhookURL := cfg.Check.WebhookURL
		if cmd.Flags().Changed("webhook-url") {
			webhookURL = checkWebhookURL
		}

		bus := events.NewBus(logger)
		collector := metrics.New()
		collector.SetBuildInfo(version.Version, runtime.Version())

		runner, err := check.New(check.Config{
			Binary:             checkBinary,
			Times:              times,
			Parallel:           parallel,
			RunTimeout:         runTimeout,
			KillGrace:          checkKillGrace,
			FailureKeep:        failureKeep,
			InjectSpawnFailure: checkInjectFailure,
		}, logger, bus, collector)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		progress := check.NewProgress(out, times)
		bus.Subscribe(events.RunPassed, func(events.Event) { progress.Observe(true) })
		bus.Subscribe(events.RunFailed, func(events.Event) { progress.Observe(false) })

		var webhook *events.WebhookManager
		if webhookURL != "" {
			webhook = events.NewWebhookManager(bus, events.WebhookConfig{URL: webhookURL}, logger)
		}

		var srv *http.Server
		if metricsListen != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", collector.Handler())
			srv = &http.Server{Addr: metricsListen, Handler: mux}
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("metrics server failed", "error", err)
				}
			}()
			logger.Info("metrics server listening", "addr", metricsListen)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		summary, err := runner.Run(ctx)
		progress.Finish()
		if webhook != nil {
			webhook.Stop()
		}
		if srv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}
		if err != nil {
			return err
		}

		summary.WriteReport(out)
		if summary.Cancelled > 0 {
			return fmt.Errorf("check interrupted: %d runs cancelled", summary.Cancelled)
		}
		if !summary.Ok() {
			return fmt.Errorf("check failed: %d of %d runs", summary.Failed, summary.Passed+summary.Failed)
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVarP(&checkConfigPath, "config", "c", "", "config file path")
	checkCmd.Flags().IntVarP(&checkTimes, "times", "n", 1, "number of runs to execute")
	checkCmd.Flags().IntVarP(&checkParallel, "parallel", "p", 1, "runs in flight at once")
	checkCmd.Flags().DurationVar(&checkRunTimeout, "run-timeout", 30*time.Second, "per-run wall clock budget")
	checkCmd.Flags().DurationVar(&checkKillGrace, "kill-grace", 2*time.Second, "window between TERM and KILL for a run over budget")
	checkCmd.Flags().IntVar(&checkFailureKeep, "failure-keep", 5, "failing run outputs to keep in the report")
	checkCmd.Flags().StringVar(&checkMetricsListen, "metrics-listen", "", "serve Prometheus metrics on this address while checking")
	checkCmd.Flags().StringVar(&checkWebhookURL, "webhook-url", "", "POST run failures and check completion to this URL")
	checkCmd.Flags().StringVar(&checkBinary, "binary", "", "sprog binary to exercise (default: this one)")
	checkCmd.Flags().BoolVar(&checkInjectFailure, "inject-spawn-failure", false, "force every duplication to fail and expect the failure handling")
	rootCmd.AddCommand(checkCmd)
}
