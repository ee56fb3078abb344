package config

import (
	"fmt"
	"net"
	"net/url"
)

// validLevels lists the supported log levels.
var validLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

// validFormats lists the supported log formats.
var validFormats = map[string]bool{
	"text": true, "json": true,
}

// Validate checks the config for semantic errors and returns all of them.
func Validate(cfg *Config) []error {
	var errs []error

	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, fmt.Errorf("logging: level must be debug, info, warn, or error, got %q", cfg.Logging.Level))
	}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, fmt.Errorf("logging: format must be text or json, got %q", cfg.Logging.Format))
	}

	if cfg.Run.WaitTimeout < 0 {
		errs = append(errs, fmt.Errorf("run: wait_timeout must be >= 0, got %d", cfg.Run.WaitTimeout))
	}

	if cfg.Check.Times < 1 {
		errs = append(errs, fmt.Errorf("check: times must be >= 1, got %d", cfg.Check.Times))
	}
	if cfg.Check.Parallel < 1 {
		errs = append(errs, fmt.Errorf("check: parallel must be >= 1, got %d", cfg.Check.Parallel))
	}
	if cfg.Check.RunTimeout < 1 {
		errs = append(errs, fmt.Errorf("check: run_timeout must be >= 1, got %d", cfg.Check.RunTimeout))
	}
	if cfg.Check.FailureKeep < 0 {
		errs = append(errs, fmt.Errorf("check: failure_keep must be >= 0, got %d", cfg.Check.FailureKeep))
	}
	if cfg.Check.MetricsListen != "" {
		if _, _, err := net.SplitHostPort(cfg.Check.MetricsListen); err != nil {
			errs = append(errs, fmt.Errorf("check: metrics_listen must be host:port, got %q", cfg.Check.MetricsListen))
		}
	}
	if cfg.Check.WebhookURL != "" {
		u, err := url.Parse(cfg.Check.WebhookURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("check: webhook_url must be an http(s) URL, got %q", cfg.Check.WebhookURL))
		}
	}

	return errs
}
