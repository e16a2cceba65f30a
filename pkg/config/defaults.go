package config

import (
	"os"
	"strings"
	"time"
)

// Default values for configuration.
const (
	DefaultChartFormat    = "png"
	DefaultChartWidth     = 1200
	DefaultChartHeight    = 400
	DefaultListenAddress  = ":9428"
	DefaultMetricsPath    = "/metrics"
	DefaultMaxUploadBytes = 10 * 1024 * 1024
	DefaultWebhookTimeout = 10 * time.Second
)

// Environment variable names.
const (
	EnvCaptures      = "PINGLAG_CAPTURES"
	EnvListenAddress = "PINGLAG_LISTEN_ADDRESS"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Captures: []string{},
		Chart: ChartConfig{
			Format: DefaultChartFormat,
			Width:  DefaultChartWidth,
			Height: DefaultChartHeight,
		},
		Server: ServerConfig{
			ListenAddress:  DefaultListenAddress,
			MetricsPath:    DefaultMetricsPath,
			MaxUploadBytes: DefaultMaxUploadBytes,
		},
	}
}

// ApplyEnvironment applies PINGLAG_* environment overrides to the config.
func (c *Config) ApplyEnvironment() {
	if captures := os.Getenv(EnvCaptures); captures != "" {
		c.Captures = nil
		for _, p := range strings.Split(captures, ",") {
			if p = strings.TrimSpace(p); p != "" {
				c.Captures = append(c.Captures, p)
			}
		}
	}
	if addr := os.Getenv(EnvListenAddress); addr != "" {
		c.Server.ListenAddress = addr
	}
}
