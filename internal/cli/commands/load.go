package commands

import (
	"context"
	"fmt"

	"github.com/ccollicutt/pinglag/pkg/config"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// loadConfig reads path, or returns validated defaults (with environment
// overrides) when no config file was given.
func loadConfig(ctx context.Context, path string) (*config.Config, error) {
	if path != "" {
		cfg, err := config.Load(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		return cfg, nil
	}

	cfg := config.DefaultConfig()
	cfg.ApplyEnvironment()
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating defaults: %w", err)
	}
	return cfg, nil
}
