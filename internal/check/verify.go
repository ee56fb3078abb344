package check

import (
	"fmt"
	"strings"
	"time"

	"github.com/sprogdev/sprog/internal/entry"
)

// Property names for violations. They double as the metrics label
// values on sprog_check_violations_total.
const (
	PropLineCount  = "line_count"
	PropStartup    = "startup"
	PropRoles      = "roles"
	PropExitCode   = "exit_code"
	PropSentinel   = "sentinel"
	PropTimeout    = "timeout"
	PropExec       = "exec"
	PropSpawnExit  = "spawn_exit"
	PropSpawnNoise = "spawn_output"
)

// Violation is one failed property of a run.
type Violation struct {
	Property string
	Detail   string
}

func (v Violation) String() string {
	return v.Property + ": " + v.Detail
}

// Verdict is the checked outcome of a single run.
type Verdict struct {
	RunID      string
	Duration   time.Duration
	ExitCode   int
	Output     string // captured stdout
	Stderr     string
	Violations []Violation
	Cancelled  bool
}

// Passed reports whether the run satisfied every property.
func (v Verdict) Passed() bool {
	return len(v.Violations) == 0 && !v.Cancelled
}

// Verify checks a normal run's observable behavior: exactly three
// stdout lines, startup first and exactly once, one child and one
// parent announcement in either order, exit 0, and the sentinel file
// present, proving the parent outlived the child.
func Verify(stdout string, exitCode int, sentinelExists bool) []Violation {
	var vs []Violation
	lines := splitLines(stdout)

	if len(lines) != 3 {
		vs = append(vs, Violation{PropLineCount,
			fmt.Sprintf("got %d stdout lines, want 3", len(lines))})
	}
	switch {
	case len(lines) == 0 || lines[0] != entry.StartupLine:
		vs = append(vs, Violation{PropStartup, "first line is not the startup announcement"})
	case countLine(lines, entry.StartupLine) != 1:
		vs = append(vs, Violation{PropStartup, "startup announcement repeated"})
	}
	if n := countLine(lines, entry.ChildLine); n != 1 {
		vs = append(vs, Violation{PropRoles,
			fmt.Sprintf("child announcement appeared %d times, want 1", n)})
	}
	if n := countLine(lines, entry.ParentLine); n != 1 {
		vs = append(vs, Violation{PropRoles,
			fmt.Sprintf("parent announcement appeared %d times, want 1", n)})
	}
	if exitCode != 0 {
		vs = append(vs, Violation{PropExitCode,
			fmt.Sprintf("exit code %d, want 0", exitCode)})
	}
	if !sentinelExists {
		vs = append(vs, Violation{PropSentinel, "child sentinel file missing"})
	}
	return vs
}

// VerifyInjected checks a run that was set up to fail duplication: the
// startup line still appears, no role announcements follow, and the
// exit code is non-zero.
func VerifyInjected(stdout string, exitCode int) []Violation {
	var vs []Violation
	lines := splitLines(stdout)

	if len(lines) == 0 || lines[0] != entry.StartupLine {
		vs = append(vs, Violation{PropStartup, "first line is not the startup announcement"})
	}
	if len(lines) > 1 {
		vs = append(vs, Violation{PropSpawnNoise,
			fmt.Sprintf("got %d stdout lines after forced spawn failure, want 1", len(lines))})
	}
	if exitCode == 0 {
		vs = append(vs, Violation{PropSpawnExit, "exit code 0 despite forced spawn failure"})
	}
	return vs
}

// splitLines splits captured stdout into lines, dropping the trailing
// newline's empty tail.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func countLine(lines []string, want string) int {
	n := 0
	for _, l := range lines {
		if l == want {
			n++
		}
	}
	return n
}

func violationList(vs []Violation) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.Property
	}
	return strings.Join(parts, ",")
}
