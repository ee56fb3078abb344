package spawn

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"
)

// SpawnSpec holds the parameters needed to start a duplicate process.
type SpawnSpec struct {
	Executable string    // absolute path or $PATH-resolved binary
	Args       []string  // command arguments (not including argv[0])
	Dir        string    // working directory ("" = inherit)
	Env        []string  // environment variables (KEY=VALUE)
	Stdout     io.Writer // stdout destination (nil = discard)
	Stderr     io.Writer // stderr destination (nil = discard)
}

// Process is a started duplicate as observed by the original.
type Process interface {
	Pid() int
	Wait() (ExitStatus, error)
	Signal(sig os.Signal) error
	Kill() error
}

// Spawner creates duplicate processes. Implementations include
// ExecSpawner (real) and MockSpawner (testing).
type Spawner interface {
	Spawn(spec SpawnSpec) (Process, error)
}

// ExecSpawner starts real OS processes via os/exec.
type ExecSpawner struct{}

type execProcess struct {
	cmd *exec.Cmd
}

// Spawn starts a real duplicate with the given spec. Stdin stays
// closed: the duplicate reads nothing from the original. The duplicate
// keeps the original's process group so terminal signals reach both.
func (s *ExecSpawner) Spawn(spec SpawnSpec) (Process, error) {
	cmd := exec.Command(spec.Executable, spec.Args...)
	cmd.Dir = spec.Dir
	if spec.Env != nil {
		cmd.Env = spec.Env
	}
	cmd.Stdout = spec.Stdout
	cmd.Stderr = spec.Stderr

	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &execProcess{cmd: cmd}, nil
}

func (p *execProcess) Pid() int { return p.cmd.Process.Pid }

// Wait blocks until the process exits. A non-zero exit comes back as a
// status, not an error; the error is reserved for wait failures.
func (p *execProcess) Wait() (ExitStatus, error) {
	err := p.cmd.Wait()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return statusFromState(p.cmd.ProcessState), nil
	case errors.As(err, &exitErr):
		return statusFromState(exitErr.ProcessState), nil
	default:
		return ExitStatus{Code: -1}, err
	}
}

func (p *execProcess) Signal(sig os.Signal) error { return p.cmd.Process.Signal(sig) }
func (p *execProcess) Kill() error                { return p.cmd.Process.Kill() }

// MockSpawner is a test double for Spawner.
type MockSpawner struct {
	SpawnFn    func(spec SpawnSpec) (Process, error)
	SpawnCalls []SpawnSpec
}

// Spawn records the call and delegates to SpawnFn.
func (m *MockSpawner) Spawn(spec SpawnSpec) (Process, error) {
	m.SpawnCalls = append(m.SpawnCalls, spec)
	if m.SpawnFn != nil {
		return m.SpawnFn(spec)
	}
	return NewMockProcess(1000 + len(m.SpawnCalls)), nil
}

// MockProcess is a test double for Process. Wait blocks until Exit or
// FailWait is called.
type MockProcess struct {
	pid    int
	exitCh chan mockExit

	mu      sync.Mutex
	signals []os.Signal
	killed  bool
}

type mockExit struct {
	status ExitStatus
	err    error
}

// NewMockProcess creates a MockProcess with the given PID.
func NewMockProcess(pid int) *MockProcess {
	return &MockProcess{pid: pid, exitCh: make(chan mockExit, 1)}
}

// Exit makes Wait return the given status.
func (p *MockProcess) Exit(status ExitStatus) {
	p.exitCh <- mockExit{status: status}
}

// FailWait makes Wait fail with err.
func (p *MockProcess) FailWait(err error) {
	p.exitCh <- mockExit{status: ExitStatus{Code: -1}, err: err}
}

func (p *MockProcess) Pid() int { return p.pid }

func (p *MockProcess) Wait() (ExitStatus, error) {
	e := <-p.exitCh
	return e.status, e.err
}

func (p *MockProcess) Signal(sig os.Signal) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signals = append(p.signals, sig)
	return nil
}

func (p *MockProcess) Kill() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.killed = true
	return nil
}

// Signals returns the signals delivered so far.
func (p *MockProcess) Signals() []os.Signal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]os.Signal(nil), p.signals...)
}

// Killed reports whether Kill was called.
func (p *MockProcess) Killed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.killed
}
