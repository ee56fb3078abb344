//go:build e2e

package e2e

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/sprogdev/sprog/internal/entry"
	"github.com/sprogdev/sprog/internal/testutil"
)

func TestRun_Contract(t *testing.T) {
	stdout, stderr, code := runSprog(t, nil, "run")
	if code != 0 {
		t.Fatalf("exit code = %d, want 0 (stderr: %s)", code, stderr)
	}

	lines := stdoutLines(stdout)
	if len(lines) != 3 {
		t.Fatalf("stdout has %d lines, want 3:\n%s", len(lines), stdout)
	}
	if lines[0] != entry.StartupLine {
		t.Errorf("first line = %q, want %q", lines[0], entry.StartupLine)
	}
	if n := countEqual(lines, entry.ChildLine); n != 1 {
		t.Errorf("child line appears %d times, want 1", n)
	}
	if n := countEqual(lines, entry.ParentLine); n != 1 {
		t.Errorf("parent line appears %d times, want 1", n)
	}
}

func TestRun_Sentinel(t *testing.T) {
	sentinel := filepath.Join(t.TempDir(), "run.sentinel")

	_, stderr, code := runSprog(t, nil, "run", "--sentinel", sentinel)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0 (stderr: %s)", code, stderr)
	}

	data, err := os.ReadFile(sentinel)
	if err != nil {
		t.Fatalf("sentinel not written: %v", err)
	}
	// The child records its run id and pid.
	fields := strings.Fields(string(data))
	if len(fields) != 2 {
		t.Fatalf("sentinel content = %q, want two fields", string(data))
	}
	if pid, err := strconv.Atoi(fields[1]); err != nil || pid <= 0 {
		t.Errorf("sentinel pid field = %q, want a positive number", fields[1])
	}
}

func TestRun_SpawnFailure(t *testing.T) {
	stdout, stderr, code := runSprog(t,
		[]string{"SPROG_EXEC=/nonexistent/sprog-missing"}, "run")
	if code == 0 {
		t.Fatal("exit code = 0, want non-zero on duplication failure")
	}

	lines := stdoutLines(stdout)
	if len(lines) != 1 || lines[0] != entry.StartupLine {
		t.Errorf("stdout = %q, want only the startup line", stdout)
	}
	if !strings.Contains(stderr, "duplication failed") {
		t.Errorf("stderr = %q, want a duplication failure message", stderr)
	}
}

func TestRun_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	configPath := testutil.WriteFile(t, dir, "sprog.toml", `
[run]
sentinel = "%(here)s/cfg.sentinel"
`)

	_, stderr, code := runSprog(t, nil, "run", "-c", configPath)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0 (stderr: %s)", code, stderr)
	}
	if _, err := os.Stat(filepath.Join(dir, "cfg.sentinel")); err != nil {
		t.Errorf("sentinel from config not written: %v", err)
	}
}
