// Package entry implements the sprog run sequence: announce, duplicate,
// rendezvous. The original process prints the startup line, duplicates
// itself, prints the parent line, and blocks until the duplicate exits.
// The duplicate prints the child line, optionally touches a sentinel
// file, and exits.
package entry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/sprogdev/sprog/internal/spawn"
)

// The three announcement lines. They go to stdout and nothing else
// does; diagnostics stay on stderr.
const (
	StartupLine = "I'm a user mode process!"
	ChildLine   = "I'm the child process!"
	ParentLine  = "I'm the parent process!"
)

// Options adjusts a run.
type Options struct {
	Stdout      io.Writer     // announcement destination (default: os.Stdout)
	Logger      *slog.Logger  // diagnostics (default: discard)
	WaitTimeout time.Duration // how long the parent waits for the child; 0 = indefinitely
	Sentinel    string        // file the child touches before exiting ("" = none)
	Executable  string        // override the binary to duplicate ("" = self)
	Spawner     spawn.Spawner // process creation override for tests
}

// Run executes the sequence and returns nil when this process, whether
// original or duplicate, completed its half of the rendezvous. A
// duplication failure comes back as an error; nothing beyond the
// startup line has been printed at that point.
func Run(opts Options) error {
	out := opts.Stdout
	if out == nil {
		out = os.Stdout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	// The startup line appears exactly once. The duplicate re-executes
	// this same sequence, so it skips the announcement.
	if !spawn.IsDuplicate() {
		fmt.Fprintln(out, StartupLine)
	}

	res, err := spawn.Duplicate(spawn.Options{
		Executable: opts.Executable,
		Stdout:     out,
		Sentinel:   opts.Sentinel,
		Spawner:    opts.Spawner,
	})
	if err != nil {
		return fmt.Errorf("duplication failed: %w", err)
	}

	switch res.Role {
	case spawn.RoleChild:
		return runChild(opts, out, logger)
	default:
		return runParent(opts, out, logger, res.Child)
	}
}

// runChild is the duplicate's half: announce, touch the sentinel, done.
func runChild(opts Options, out io.Writer, logger *slog.Logger) error {
	fmt.Fprintln(out, ChildLine)

	sentinel := spawn.SentinelPath()
	if sentinel == "" {
		sentinel = opts.Sentinel
	}
	if sentinel != "" {
		if err := writeSentinel(sentinel); err != nil {
			return fmt.Errorf("write sentinel: %w", err)
		}
		logger.Debug("sentinel written", "path", sentinel, "run_id", spawn.RunID())
	}
	return nil
}

// runParent is the original's half: announce, then block until the
// duplicate exits.
func runParent(opts Options, out io.Writer, logger *slog.Logger, child *spawn.Child) error {
	fmt.Fprintln(out, ParentLine)
	logger.Debug("waiting for child", "pid", child.Pid(), "run_id", child.RunID())

	ctx := context.Background()
	if opts.WaitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.WaitTimeout)
		defer cancel()
	}

	status, err := child.Await(ctx)
	if err != nil {
		return fmt.Errorf("wait for child %d: %w", child.Pid(), err)
	}

	// The status is collected and discarded: the rendezvous is about
	// completion, not the child's result.
	logger.Debug("child exited", "pid", child.Pid(), "status", status.String())
	return nil
}

// writeSentinel records that the child ran to completion. The parent is
// still waiting when this file appears.
func writeSentinel(path string) error {
	content := fmt.Sprintf("%s %d\n", spawn.RunID(), os.Getpid())
	return os.WriteFile(path, []byte(content), 0o644)
}
