// Package check implements the sprog self-check harness. It executes
// the run sequence as a subprocess, many times and optionally in
// parallel, and verifies the output contract of every run: the three
// announcement lines, the exit status, and the child-before-parent
// ordering proven by the sentinel file.
package check

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sprogdev/sprog/internal/events"
	"github.com/sprogdev/sprog/internal/metrics"
)

// Config holds harness settings.
type Config struct {
	Binary             string        // sprog binary to exercise ("" = self)
	Times              int           // runs to execute
	Parallel           int           // runs in flight at once
	RunTimeout         time.Duration // per-run wall clock budget
	KillGrace          time.Duration // TERM to KILL escalation window
	FailureKeep        int           // failing run outputs to retain
	InjectSpawnFailure bool          // force every duplication to fail
	WorkDir            string        // sentinel scratch dir ("" = fresh temp dir)
}

// Runner executes check runs and aggregates verdicts.
type Runner struct {
	cfg      Config
	logger   *slog.Logger
	bus      *events.Bus
	metrics  *metrics.Collector
	failures *sampleRing
}

// New creates a Runner. The bus receives run lifecycle events; the
// collector receives per-run observations.
func New(cfg Config, logger *slog.Logger, bus *events.Bus, collector *metrics.Collector) (*Runner, error) {
	if cfg.Binary == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("resolve executable: %w", err)
		}
		cfg.Binary = exe
	}
	if cfg.Times < 1 {
		cfg.Times = 1
	}
	if cfg.Parallel < 1 {
		cfg.Parallel = 1
	}
	if cfg.KillGrace <= 0 {
		cfg.KillGrace = 2 * time.Second
	}
	return &Runner{
		cfg:      cfg,
		logger:   logger,
		bus:      bus,
		metrics:  collector,
		failures: newSampleRing(cfg.FailureKeep),
	}, nil
}

// Run executes the configured number of runs and returns the summary.
// Cancelling ctx stops scheduling new runs and terminates the ones in
// flight; the summary still covers everything that ran.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	workDir := r.cfg.WorkDir
	if workDir == "" {
		dir, err := os.MkdirTemp("", "sprog-check-*")
		if err != nil {
			return nil, fmt.Errorf("create scratch dir: %w", err)
		}
		defer os.RemoveAll(dir)
		workDir = dir
	}

	r.bus.Publish(events.Event{
		Type: events.CheckStarted,
		Data: map[string]string{"times": strconv.Itoa(r.cfg.Times)},
	})
	r.logger.Info("check started",
		"binary", r.cfg.Binary,
		"times", r.cfg.Times,
		"parallel", r.cfg.Parallel,
		"inject_spawn_failure", r.cfg.InjectSpawnFailure,
	)

	summary := &Summary{Times: r.cfg.Times}
	start := time.Now()
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(r.cfg.Parallel)
	for range r.cfg.Times {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			verdict := r.runOne(ctx, workDir)
			mu.Lock()
			summary.observe(verdict)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	summary.Duration = time.Since(start)
	summary.Failures = r.failures.Samples()

	r.bus.Publish(events.Event{
		Type: events.CheckFinished,
		Data: map[string]string{
			"passed": strconv.Itoa(summary.Passed),
			"failed": strconv.Itoa(summary.Failed),
		},
	})
	r.logger.Info("check finished",
		"passed", summary.Passed,
		"failed", summary.Failed,
		"cancelled", summary.Cancelled,
		"duration", summary.Duration,
	)
	return summary, nil
}

// runOne executes a single run subprocess and verifies it.
func (r *Runner) runOne(ctx context.Context, workDir string) Verdict {
	runID := uuid.NewString()
	sentinel := filepath.Join(workDir, runID+".sentinel")

	r.metrics.RunStarted()
	defer r.metrics.RunFinished()
	r.bus.Publish(events.Event{
		Type: events.RunStarted,
		Data: map[string]string{"run_id": runID},
	})

	runCtx := ctx
	if r.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.cfg.RunTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, r.cfg.Binary, "run", "--sentinel", sentinel)
	if r.cfg.InjectSpawnFailure {
		// Point the run at a binary that cannot exist so the
		// duplication attempt fails.
		cmd.Env = append(os.Environ(), "SPROG_EXEC="+filepath.Join(workDir, "missing-binary"))
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// A run over budget gets TERM first, then KILL after the grace
	// window.
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = r.cfg.KillGrace

	start := time.Now()
	err := cmd.Run()
	verdict := Verdict{
		RunID:    runID,
		Duration: time.Since(start),
		Output:   stdout.String(),
		Stderr:   stderr.String(),
	}
	verdict.ExitCode, err = exitCode(err)

	switch {
	case ctx.Err() != nil:
		verdict.Cancelled = true
	case runCtx.Err() != nil:
		verdict.Violations = []Violation{{PropTimeout,
			fmt.Sprintf("run exceeded its %s budget", r.cfg.RunTimeout)}}
	case err != nil:
		verdict.Violations = []Violation{{PropExec, err.Error()}}
	case r.cfg.InjectSpawnFailure:
		verdict.Violations = VerifyInjected(verdict.Output, verdict.ExitCode)
	default:
		verdict.Violations = Verify(verdict.Output, verdict.ExitCode, fileExists(sentinel))
	}
	os.Remove(sentinel)

	r.report(verdict)
	return verdict
}

// report publishes the verdict to the bus, the metrics collector, and
// the failure ring.
func (r *Runner) report(v Verdict) {
	if v.Cancelled {
		r.metrics.ObserveRun("cancelled", v.Duration.Seconds())
		r.logger.Debug("run cancelled", "run_id", v.RunID)
		return
	}
	if v.Passed() {
		if r.cfg.InjectSpawnFailure {
			// A passing run under injection means the forced
			// duplication failure was observed.
			r.metrics.IncSpawnFailure()
			r.bus.Publish(events.Event{
				Type: events.SpawnFailed,
				Data: map[string]string{"run_id": v.RunID},
			})
		}
		r.metrics.ObserveRun("pass", v.Duration.Seconds())
		r.bus.Publish(events.Event{
			Type: events.RunPassed,
			Data: map[string]string{"run_id": v.RunID},
		})
		r.logger.Debug("run passed", "run_id", v.RunID, "duration", v.Duration)
		return
	}

	r.metrics.ObserveRun("fail", v.Duration.Seconds())
	for _, violation := range v.Violations {
		r.metrics.IncViolation(violation.Property)
	}
	r.failures.Add(v)
	r.bus.Publish(events.Event{
		Type: events.RunFailed,
		Data: map[string]string{
			"run_id":     v.RunID,
			"violations": violationList(v.Violations),
		},
	})
	r.logger.Warn("run failed",
		"run_id", v.RunID,
		"exit_code", v.ExitCode,
		"violations", violationList(v.Violations),
	)
}

// exitCode maps a cmd.Run error to an exit code, folding signal deaths
// into 128+signum. Errors that carry an exit status are consumed here;
// anything else comes back for the caller to judge.
func exitCode(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return -1, err
	}
	code := exitErr.ExitCode()
	if code < 0 {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			code = 128 + int(ws.Signal())
		}
	}
	return code, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
