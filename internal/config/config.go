// Package config handles loading and validating sprog configuration.
package config

// Config is the top-level sprog configuration.
type Config struct {
	Logging LoggingConfig `toml:"logging"`
	Run     RunConfig     `toml:"run"`
	Check   CheckConfig   `toml:"check"`
}

// LoggingConfig controls the diagnostic log on stderr.
type LoggingConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // text, json
}

// RunConfig holds settings for a single run.
type RunConfig struct {
	WaitTimeout int    `toml:"wait_timeout"` // seconds to wait for the child; 0 = indefinitely
	Sentinel    string `toml:"sentinel"`     // file the child touches before exiting
}

// CheckConfig holds settings for the check harness.
type CheckConfig struct {
	Times         int    `toml:"times"`          // number of runs to execute
	Parallel      int    `toml:"parallel"`       // runs in flight at once
	RunTimeout    int    `toml:"run_timeout"`    // seconds per run before TERM
	FailureKeep   int    `toml:"failure_keep"`   // failing run outputs to retain
	MetricsListen string `toml:"metrics_listen"` // host:port for Prometheus metrics ("" = off)
	WebhookURL    string `toml:"webhook_url"`    // POST failures and completion here ("" = off)
}
