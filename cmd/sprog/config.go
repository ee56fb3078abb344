package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/sprogdev/sprog/internal/config"
	"github.com/sprogdev/sprog/internal/logging"
)

// loadConfig resolves and loads the config file. No config file is not
// an error; the built-in defaults apply then. Warnings go to stderr.
func loadConfig(explicit string) (*config.Config, error) {
	path, err := config.Resolve(explicit)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return config.Default(), nil
	}

	cfg, warnings, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	return logging.New(logging.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
}
