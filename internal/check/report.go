package check

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// maxSampleOutput caps how much of a failing run's stdout the report
// reproduces.
const maxSampleOutput = 2048

// Summary aggregates the verdicts of a whole check.
type Summary struct {
	Times     int
	Passed    int
	Failed    int
	Cancelled int
	Duration  time.Duration
	Failures  []Verdict // retained failing runs, oldest first
}

// Ok reports whether every executed run passed and none were cut short.
func (s *Summary) Ok() bool {
	return s.Failed == 0 && s.Cancelled == 0
}

func (s *Summary) observe(v Verdict) {
	switch {
	case v.Cancelled:
		s.Cancelled++
	case v.Passed():
		s.Passed++
	default:
		s.Failed++
	}
}

// WriteReport renders the human-readable check report.
func (s *Summary) WriteReport(w io.Writer) {
	fmt.Fprintf(w, "checked %d runs in %s: %d passed, %d failed",
		s.Passed+s.Failed+s.Cancelled, s.Duration.Round(time.Millisecond), s.Passed, s.Failed)
	if s.Cancelled > 0 {
		fmt.Fprintf(w, ", %d cancelled", s.Cancelled)
	}
	fmt.Fprintln(w)

	for _, v := range s.Failures {
		fmt.Fprintf(w, "\nfailed run %s (exit %d, %s):\n",
			v.RunID, v.ExitCode, v.Duration.Round(time.Millisecond))
		for _, violation := range v.Violations {
			fmt.Fprintf(w, "  %s\n", violation)
		}
		writeSample(w, "stdout", v.Output)
		writeSample(w, "stderr", v.Stderr)
	}
}

func writeSample(w io.Writer, name, content string) {
	if content == "" {
		return
	}
	truncated := false
	if len(content) > maxSampleOutput {
		content = content[:maxSampleOutput]
		truncated = true
	}
	fmt.Fprintf(w, "  %s:\n", name)
	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		fmt.Fprintf(w, "    %s\n", line)
	}
	if truncated {
		fmt.Fprintln(w, "    ... (truncated)")
	}
}
