package spawn

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"
)

func TestChildAwaitMockExit(t *testing.T) {
	proc := NewMockProcess(4242)
	c := newChild(proc, "run-mock-01")

	proc.Exit(ExitStatus{Code: 7})

	status, err := c.Await(context.Background())
	if err != nil {
		t.Fatalf("Await() error = %v", err)
	}
	if status.Code != 7 {
		t.Errorf("status code = %d, want 7", status.Code)
	}
	if c.Pid() != 4242 {
		t.Errorf("pid = %d, want 4242", c.Pid())
	}
	if c.RunID() != "run-mock-01" {
		t.Errorf("run id = %q, want %q", c.RunID(), "run-mock-01")
	}
}

func TestChildAwaitContextCancel(t *testing.T) {
	proc := NewMockProcess(1)
	c := newChild(proc, "run-mock-02")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Await(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Await() error = %v, want context.Canceled", err)
	}

	// A later Await still picks up the exit.
	proc.Exit(ExitStatus{Code: 0})
	status, err := c.Await(context.Background())
	if err != nil {
		t.Fatalf("second Await() error = %v", err)
	}
	if !status.Success() {
		t.Errorf("status = %v, want exit 0", status)
	}
}

func TestChildAwaitWaitFailure(t *testing.T) {
	proc := NewMockProcess(1)
	c := newChild(proc, "run-mock-03")

	proc.FailWait(errors.New("wait4: no child processes"))

	_, err := c.Await(context.Background())
	if err == nil {
		t.Fatal("Await() error = nil, want wait failure")
	}
}

func TestChildTryWaitMock(t *testing.T) {
	proc := NewMockProcess(1)
	c := newChild(proc, "run-mock-04")

	if _, ok, _ := c.TryWait(); ok {
		t.Fatal("TryWait() ok = true before exit")
	}

	proc.Exit(ExitStatus{Code: 5})

	deadline := time.Now().Add(5 * time.Second)
	for {
		status, ok, err := c.TryWait()
		if err != nil {
			t.Fatalf("TryWait() error = %v", err)
		}
		if ok {
			if status.Code != 5 {
				t.Errorf("status code = %d, want 5", status.Code)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("TryWait() never observed the exit")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestChildSignalForwarding(t *testing.T) {
	proc := NewMockProcess(1)
	c := newChild(proc, "run-mock-05")

	if err := c.Signal(syscall.SIGTERM); err != nil {
		t.Fatalf("Signal() error = %v", err)
	}
	sigs := proc.Signals()
	if len(sigs) != 1 || sigs[0] != syscall.SIGTERM {
		t.Errorf("signals = %v, want [SIGTERM]", sigs)
	}

	if err := c.Kill(); err != nil {
		t.Fatalf("Kill() error = %v", err)
	}
	if !proc.Killed() {
		t.Error("Kill() not forwarded to process")
	}

	proc.Exit(ExitStatus{Code: 137, Signaled: true, Signal: "killed"})
}
