package spawn

import (
	"fmt"
	"os"
	"syscall"
)

// ExitStatus describes how a duplicate terminated.
type ExitStatus struct {
	Code     int    // exit code; 128+signum when killed by a signal
	Signaled bool   // terminated by a signal rather than exiting
	Signal   string // signal name when Signaled
}

// Success reports whether the duplicate exited cleanly.
func (s ExitStatus) Success() bool { return s.Code == 0 && !s.Signaled }

func (s ExitStatus) String() string {
	if s.Signaled {
		return fmt.Sprintf("killed by %s", s.Signal)
	}
	return fmt.Sprintf("exit %d", s.Code)
}

// statusFromState translates an os.ProcessState into an ExitStatus,
// mapping signal deaths to 128+signum.
func statusFromState(state *os.ProcessState) ExitStatus {
	if state == nil {
		return ExitStatus{}
	}
	code := state.ExitCode()
	if code < 0 {
		if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			sig := ws.Signal()
			return ExitStatus{Code: 128 + int(sig), Signaled: true, Signal: sig.String()}
		}
	}
	return ExitStatus{Code: code}
}
