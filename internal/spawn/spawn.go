// Package spawn implements process duplication for sprog. A program
// calls Duplicate and continues on both sides of the split: the
// original gets a handle to the duplicate, the duplicate gets told it
// is the duplicate. The split is carried over an environment handoff
// and a re-execution of the current binary.
package spawn

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Environment variables carrying the duplication handoff. The original
// sets them for the duplicate; role detection consumes them.
const (
	RoleEnv     = "SPROG_SPAWN_ROLE"
	RunIDEnv    = "SPROG_RUN_ID"
	SentinelEnv = "SPROG_SENTINEL"
)

const roleChildValue = "child"

// Role identifies which half of a duplication this process is.
type Role int

const (
	// RoleParent is the original process; it holds the child handle.
	RoleParent Role = iota
	// RoleChild is the duplicate.
	RoleChild
)

func (r Role) String() string {
	switch r {
	case RoleParent:
		return "parent"
	case RoleChild:
		return "child"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// Result is the outcome of a successful Duplicate call. In the original
// process Role is RoleParent and Child is the handle to the duplicate.
// In the duplicate Role is RoleChild and Child is nil.
type Result struct {
	Role  Role
	Child *Child
}

// Options adjusts how Duplicate creates the duplicate. The zero value
// re-executes the current binary with the current arguments.
type Options struct {
	Executable string    // binary to execute (default: os.Executable())
	Args       []string  // arguments (default: os.Args[1:])
	Dir        string    // working directory ("" = inherit)
	Stdout     io.Writer // duplicate stdout (default: os.Stdout)
	Stderr     io.Writer // duplicate stderr (default: os.Stderr)
	Sentinel   string    // sentinel file path handed to the duplicate
	RunID      string    // correlation id (default: random UUID)
	Spawner    Spawner   // process creation (default: ExecSpawner)
}

type handoff struct {
	runID    string
	sentinel string
}

// Role detection happens once per process. The marker variables are
// removed from the environment so a further Duplicate call by this
// process starts a fresh handoff instead of inheriting ours.
var detect = sync.OnceValues(func() (bool, handoff) {
	if os.Getenv(RoleEnv) != roleChildValue {
		return false, handoff{}
	}
	h := handoff{
		runID:    os.Getenv(RunIDEnv),
		sentinel: os.Getenv(SentinelEnv),
	}
	os.Unsetenv(RoleEnv)
	os.Unsetenv(RunIDEnv)
	os.Unsetenv(SentinelEnv)
	return true, h
})

// IsDuplicate reports whether this process was created by a Duplicate
// call in another process. The answer is fixed for the process
// lifetime.
func IsDuplicate() bool {
	dup, _ := detect()
	return dup
}

// RunID returns the correlation id handed down by the original, or ""
// when this process is not a duplicate.
func RunID() string {
	_, h := detect()
	return h.runID
}

// SentinelPath returns the sentinel file path handed down by the
// original, or "" when none was set.
func SentinelPath() string {
	_, h := detect()
	return h.sentinel
}

// Duplicate splits execution in two. In the original it starts a copy
// of the current program and returns RoleParent with the child handle.
// The copy detects the handoff, skips spawning, and gets RoleChild from
// its own Duplicate call. Each process sees exactly one of the three
// outcomes: parent, child, or error.
func Duplicate(opts Options) (Result, error) {
	if IsDuplicate() {
		return Result{Role: RoleChild}, nil
	}

	exe := opts.Executable
	if exe == "" {
		var err error
		exe, err = os.Executable()
		if err != nil {
			return Result{}, fmt.Errorf("resolve executable: %w", err)
		}
	}
	args := opts.Args
	if args == nil {
		args = os.Args[1:]
	}
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	spawner := opts.Spawner
	if spawner == nil {
		spawner = &ExecSpawner{}
	}

	env := append(scrubbedEnviron(), RoleEnv+"="+roleChildValue, RunIDEnv+"="+runID)
	if opts.Sentinel != "" {
		env = append(env, SentinelEnv+"="+opts.Sentinel)
	}

	proc, err := spawner.Spawn(SpawnSpec{
		Executable: exe,
		Args:       args,
		Dir:        opts.Dir,
		Env:        env,
		Stdout:     stdout,
		Stderr:     stderr,
	})
	if err != nil {
		return Result{}, fmt.Errorf("duplicate %s: %w", filepath.Base(exe), err)
	}
	return Result{Role: RoleParent, Child: newChild(proc, runID)}, nil
}

// scrubbedEnviron is the current environment minus any handoff
// variables.
func scrubbedEnviron() []string {
	env := os.Environ()
	out := env[:0]
	for _, kv := range env {
		if strings.HasPrefix(kv, RoleEnv+"=") ||
			strings.HasPrefix(kv, RunIDEnv+"=") ||
			strings.HasPrefix(kv, SentinelEnv+"=") {
			continue
		}
		out = append(out, kv)
	}
	return out
}
