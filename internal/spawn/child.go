package spawn

import (
	"context"
	"os"
)

// Child is the original's handle to a running duplicate.
type Child struct {
	proc  Process
	runID string

	done   chan struct{}
	status ExitStatus
	err    error
}

func newChild(proc Process, runID string) *Child {
	c := &Child{proc: proc, runID: runID, done: make(chan struct{})}
	go c.reap()
	return c
}

// reap collects the exit status exactly once. Await and TryWait observe
// it through the done channel.
func (c *Child) reap() {
	c.status, c.err = c.proc.Wait()
	close(c.done)
}

// Pid returns the duplicate's process id.
func (c *Child) Pid() int { return c.proc.Pid() }

// RunID returns the correlation id shared with the duplicate.
func (c *Child) RunID() string { return c.runID }

// Await blocks until the duplicate exits or ctx is done. When the wait
// is abandoned the error is ctx.Err() and the duplicate keeps running;
// calling Await again with a fresh context resumes the wait.
func (c *Child) Await(ctx context.Context) (ExitStatus, error) {
	select {
	case <-c.done:
		return c.status, c.err
	case <-ctx.Done():
		return ExitStatus{}, ctx.Err()
	}
}

// TryWait is the non-blocking probe: ok is false while the duplicate is
// still running.
func (c *Child) TryWait() (status ExitStatus, ok bool, err error) {
	select {
	case <-c.done:
		return c.status, true, c.err
	default:
		return ExitStatus{}, false, nil
	}
}

// Signal forwards sig to the duplicate.
func (c *Child) Signal(sig os.Signal) error { return c.proc.Signal(sig) }

// Kill terminates the duplicate immediately.
func (c *Child) Kill() error { return c.proc.Kill() }
