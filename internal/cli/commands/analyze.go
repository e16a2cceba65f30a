package commands

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/pinglag/pkg/analyzer"
	"github.com/ccollicutt/pinglag/pkg/capture"
	"github.com/ccollicutt/pinglag/pkg/config"
	"github.com/ccollicutt/pinglag/pkg/output"
	"github.com/ccollicutt/pinglag/pkg/webhook"
)

// AnalyzeOptions holds command-line options for the analyze command.
type AnalyzeOptions struct {
	ConfigFile  string
	Output      string
	Verbose     bool
	Quiet       bool
	Concurrency int

	// Webhook options
	WebhookURL     string
	WebhookToken   string
	WebhookTrigger string
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	opts := &AnalyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze [capture...]",
		Short: "Analyze ping captures for latency and packet loss",
		Long: `Analyze one or more ping captures and report round-trip statistics.

Each capture is the saved text output of a ping session. Use "-" to read
from standard input. Without arguments the captures listed in the config
file are used. Glob patterns are expanded.

Reports per capture:
  - Packets sent, received and lost (from the summary line)
  - Events above 200 ms and above 500 ms
  - Min, max, mean and percentile round-trip times

Exit codes:
  0 - No thresholds exceeded
  1 - At least one threshold exceeded
  2 - Configuration or runtime error`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", "", "Configuration file")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "List every round-trip sample")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "One line per capture")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", capture.DefaultConcurrency, "Captures parsed in parallel")

	// Webhook flags
	cmd.Flags().StringVar(&opts.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&opts.WebhookTrigger, "webhook-trigger", "on_issues", "When to fire webhook (on_issues|always|never)")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string, opts *AnalyzeOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(ctx, opts.ConfigFile)
	if err != nil {
		return err
	}

	// Fail on a bad format before doing any work.
	formatter, err := createFormatter(opts)
	if err != nil {
		return err
	}

	patterns := args
	if len(patterns) == 0 {
		patterns = cfg.Captures
	}
	if len(patterns) == 0 {
		return fmt.Errorf("%w: pass capture files or set captures in the config", capture.ErrNoCaptures)
	}

	files, err := capture.Expand(patterns)
	if err != nil {
		return fmt.Errorf("expanding captures: %w", err)
	}

	captures, err := capture.ParseAll(ctx, files, cmd.InOrStdin(), opts.Concurrency)
	if err != nil {
		return err
	}

	result, err := analyzer.NewAnalyzer(cfg.Thresholds).Analyze(ctx, captures)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	report := output.NewReport(result, opts.ConfigFile)
	log.WithFields(log.Fields{
		"run_id":   report.Metadata.RunID,
		"captures": report.Summary.CapturesAnalyzed,
		"issues":   report.Summary.TotalIssues,
	}).Info("analysis complete")

	if err := formatter.Format(ctx, report, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	// Webhook failures are logged and never change the exit code.
	sendWebhooks(ctx, cfg, opts, report)

	if report.HasIssues() {
		ExitCode = 1
	}

	return nil
}

func createFormatter(opts *AnalyzeOptions) (output.Formatter, error) {
	return output.NewFormatter(opts.Output, output.FormatOptions{
		Verbose: opts.Verbose,
		Quiet:   opts.Quiet,
	})
}

// sendWebhooks sends the report to all configured webhooks.
func sendWebhooks(ctx context.Context, cfg *config.Config, opts *AnalyzeOptions, report *output.Report) {
	webhooks := collectWebhooks(cfg, opts)
	if len(webhooks) == 0 {
		return
	}
	webhook.NewClient().Notify(ctx, webhooks, report)
}

// collectWebhooks merges config file webhooks with the CLI webhook.
func collectWebhooks(cfg *config.Config, opts *AnalyzeOptions) []config.WebhookConfig {
	webhooks := make([]config.WebhookConfig, 0, len(cfg.Webhooks)+1)
	webhooks = append(webhooks, cfg.Webhooks...)

	if opts.WebhookURL != "" {
		trigger := config.WebhookTrigger(opts.WebhookTrigger)
		if trigger == "" {
			trigger = config.WebhookTriggerOnIssues
		}

		webhooks = append(webhooks, config.WebhookConfig{
			Name:    "cli",
			URL:     opts.WebhookURL,
			Token:   opts.WebhookToken,
			Trigger: trigger,
			Timeout: config.DefaultWebhookTimeout,
		})
	}

	return webhooks
}
