package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a configuration file.
func Load(_ context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.ApplyEnvironment()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks a configuration for errors and fills in defaults for
// zero-valued optional fields.
func Validate(cfg *Config) error {
	if err := validateThresholds(&cfg.Thresholds); err != nil {
		return fmt.Errorf("thresholds: %w", err)
	}
	if err := validateChart(&cfg.Chart); err != nil {
		return fmt.Errorf("chart: %w", err)
	}
	if err := validateServer(&cfg.Server); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	for i := range cfg.Webhooks {
		if err := validateWebhook(&cfg.Webhooks[i]); err != nil {
			name := cfg.Webhooks[i].Name
			if name == "" {
				name = cfg.Webhooks[i].URL
			}
			return fmt.Errorf("webhooks[%d] (%s): %w", i, name, err)
		}
	}

	return nil
}

func validateThresholds(t *ThresholdsConfig) error {
	if t.MaxLossPercent < 0 || t.MaxLossPercent > 100 {
		return fmt.Errorf("max_loss_percent must be between 0 and 100, got %v", t.MaxLossPercent)
	}
	if t.MaxAbove200ms < 0 {
		return errors.New("max_above_200ms must not be negative")
	}
	if t.MaxAbove500ms < 0 {
		return errors.New("max_above_500ms must not be negative")
	}
	if t.MaxP95Ms < 0 {
		return errors.New("max_p95_ms must not be negative")
	}
	return nil
}

func validateChart(c *ChartConfig) error {
	if c.Format == "" {
		c.Format = DefaultChartFormat
	}
	c.Format = strings.ToLower(c.Format)
	if c.Format != "png" && c.Format != "svg" {
		return fmt.Errorf("invalid format %q (must be png or svg)", c.Format)
	}

	if c.Width == 0 {
		c.Width = DefaultChartWidth
	}
	if c.Height == 0 {
		c.Height = DefaultChartHeight
	}
	if c.Width < 0 || c.Height < 0 {
		return fmt.Errorf("width and height must be positive, got %dx%d", c.Width, c.Height)
	}
	return nil
}

func validateServer(s *ServerConfig) error {
	if s.ListenAddress == "" {
		s.ListenAddress = DefaultListenAddress
	}
	if s.MetricsPath == "" {
		s.MetricsPath = DefaultMetricsPath
	}
	if !strings.HasPrefix(s.MetricsPath, "/") {
		s.MetricsPath = "/" + s.MetricsPath
	}
	if s.MetricsPath == "/" || strings.HasPrefix(s.MetricsPath, "/api/") {
		return fmt.Errorf("metrics_path %q collides with a built-in route", s.MetricsPath)
	}
	if s.MaxUploadBytes == 0 {
		s.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if s.MaxUploadBytes < 0 {
		return errors.New("max_upload_bytes must not be negative")
	}
	return nil
}

func validateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	u, err := url.Parse(wh.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("url must have a host")
	}

	wh.Token = expandEnvVar(wh.Token)

	switch wh.Trigger {
	case "":
		wh.Trigger = WebhookTriggerOnIssues
	case WebhookTriggerOnIssues, WebhookTriggerAlways, WebhookTriggerNever:
	default:
		return fmt.Errorf("invalid trigger %q (must be on_issues, always, or never)", wh.Trigger)
	}

	if wh.Timeout <= 0 {
		wh.Timeout = DefaultWebhookTimeout
	}

	return nil
}

// expandEnvVar expands a token given as ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}
	if strings.HasPrefix(s, "$") {
		return os.Getenv(s[1:])
	}
	return s
}
