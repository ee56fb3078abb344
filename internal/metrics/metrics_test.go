package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewCollector(t *testing.T) {
	c := New()
	if c == nil {
		t.Fatal("expected non-nil collector")
	}
}

func TestMetricsHandler(t *testing.T) {
	c := New()
	handler := c.Handler()

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	body, _ := io.ReadAll(w.Body)
	content := string(body)

	// Should contain Go runtime metrics.
	if !strings.Contains(content, "go_goroutines") {
		t.Fatal("expected go_goroutines metric")
	}
}

func TestRunVerdictCounter(t *testing.T) {
	c := New()
	c.ObserveRun("pass", 0.1)
	c.ObserveRun("pass", 0.2)
	c.ObserveRun("fail", 0.3)

	body := scrape(t, c)
	if !strings.Contains(body, `sprog_check_runs_total{verdict="pass"} 2`) {
		t.Fatalf("expected pass=2, got:\n%s", body)
	}
	if !strings.Contains(body, `sprog_check_runs_total{verdict="fail"} 1`) {
		t.Fatalf("expected fail=1, got:\n%s", body)
	}
}

func TestRunDurationHistogram(t *testing.T) {
	c := New()
	c.ObserveRun("pass", 0.05)
	c.ObserveRun("pass", 0.15)

	body := scrape(t, c)
	if !strings.Contains(body, "sprog_check_run_duration_seconds_count 2") {
		t.Fatalf("expected duration count=2, got:\n%s", body)
	}
}

func TestViolationCounter(t *testing.T) {
	c := New()
	c.IncViolation("exit_code")
	c.IncViolation("exit_code")
	c.IncViolation("sentinel")

	body := scrape(t, c)
	if !strings.Contains(body, `sprog_check_violations_total{property="exit_code"} 2`) {
		t.Fatalf("expected exit_code=2, got:\n%s", body)
	}
	if !strings.Contains(body, `sprog_check_violations_total{property="sentinel"} 1`) {
		t.Fatalf("expected sentinel=1, got:\n%s", body)
	}
}

func TestSpawnFailureCounter(t *testing.T) {
	c := New()
	c.IncSpawnFailure()
	c.IncSpawnFailure()

	body := scrape(t, c)
	if !strings.Contains(body, "sprog_spawn_failures_total 2") {
		t.Fatalf("expected spawn_failures=2, got:\n%s", body)
	}
}

func TestRunsInFlightGauge(t *testing.T) {
	c := New()
	c.RunStarted()
	c.RunStarted()
	c.RunFinished()

	body := scrape(t, c)
	if !strings.Contains(body, "sprog_check_runs_in_flight 1") {
		t.Fatalf("expected in_flight=1, got:\n%s", body)
	}
}

func TestBuildInfo(t *testing.T) {
	c := New()
	c.SetBuildInfo("1.0.0", "go1.26.0")

	body := scrape(t, c)
	if !strings.Contains(body, `sprog_info{go_version="go1.26.0",version="1.0.0"} 1`) {
		t.Fatalf("expected build info metric, got:\n%s", body)
	}
}

func TestMetricNamingConventions(t *testing.T) {
	c := New()
	// Initialize all metrics so they appear in output.
	c.ObserveRun("pass", 0.1)
	c.IncViolation("exit_code")
	c.IncSpawnFailure()
	c.RunStarted()
	c.SetBuildInfo("dev", "go1.26")

	body := scrape(t, c)

	metricNames := []string{
		"sprog_check_runs_total",
		"sprog_check_violations_total",
		"sprog_check_run_duration_seconds",
		"sprog_spawn_failures_total",
		"sprog_check_runs_in_flight",
		"sprog_info",
	}
	for _, name := range metricNames {
		if !strings.Contains(body, name) {
			t.Errorf("expected metric %s in output", name)
		}
	}
}

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("metrics scrape failed: %d", w.Code)
	}
	body, _ := io.ReadAll(w.Body)
	return string(body)
}
