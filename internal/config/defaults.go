package config

// ApplyDefaults fills in zero-value fields with their default values.
func ApplyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}

	// Run defaults: wait_timeout 0 means wait indefinitely, which is
	// also the zero value, so nothing to fill in.

	if cfg.Check.Times == 0 {
		cfg.Check.Times = 1
	}
	if cfg.Check.Parallel == 0 {
		cfg.Check.Parallel = 1
	}
	if cfg.Check.RunTimeout == 0 {
		cfg.Check.RunTimeout = 30
	}
	if cfg.Check.FailureKeep == 0 {
		cfg.Check.FailureKeep = 5
	}
}
