// Package config provides configuration loading and validation for pinglag.
package config

import "time"

// Config is the root configuration structure loaded from YAML.
type Config struct {
	Captures   []string         `yaml:"captures,omitempty"`
	Thresholds ThresholdsConfig `yaml:"thresholds"`
	Chart      ChartConfig      `yaml:"chart"`
	Server     ServerConfig     `yaml:"server"`
	Webhooks   []WebhookConfig  `yaml:"webhooks,omitempty"`
}

// ThresholdsConfig sets the limits a capture is assessed against.
// A zero value disables that check.
type ThresholdsConfig struct {
	MaxLossPercent float64 `yaml:"max_loss_percent,omitempty"`
	MaxAbove200ms  int     `yaml:"max_above_200ms,omitempty"`
	MaxAbove500ms  int     `yaml:"max_above_500ms,omitempty"`
	MaxP95Ms       float64 `yaml:"max_p95_ms,omitempty"`
}

// ChartConfig controls round-trip chart rendering.
type ChartConfig struct {
	// Format is png or svg.
	Format string `yaml:"format"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// ServerConfig controls the HTTP surface of the serve command.
type ServerConfig struct {
	ListenAddress  string `yaml:"listen_address"`
	MetricsPath    string `yaml:"metrics_path"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnIssues fires only when a threshold is exceeded (default).
	WebhookTriggerOnIssues WebhookTrigger = "on_issues"
	// WebhookTriggerAlways fires after every analysis.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines an endpoint that receives analysis reports.
type WebhookConfig struct {
	Name    string         `yaml:"name,omitempty"`
	URL     string         `yaml:"url"`
	Token   string         `yaml:"token,omitempty"` // bearer token, ${VAR} expanded
	Trigger WebhookTrigger `yaml:"trigger,omitempty"`
	Timeout time.Duration  `yaml:"timeout,omitempty"`
}
