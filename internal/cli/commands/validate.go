package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/pinglag/pkg/capture"
	"github.com/ccollicutt/pinglag/pkg/config"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a pinglag configuration file without analyzing anything.

Checks:
  - YAML syntax
  - Threshold ranges
  - Chart format and size
  - Server settings
  - Webhook URLs and triggers
  - Capture file existence (warning only)`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(out, "\nConfiguration valid!\n")
	fmt.Fprintf(out, "  Captures:    %d pattern(s)\n", len(cfg.Captures))
	fmt.Fprintf(out, "  Webhooks:    %d\n", len(cfg.Webhooks))

	fmt.Fprintf(out, "\nThresholds:\n")
	fmt.Fprintf(out, "  Max loss:         %s\n", limitText(cfg.Thresholds.MaxLossPercent, "%"))
	fmt.Fprintf(out, "  Max above 200 ms: %s\n", limitText(float64(cfg.Thresholds.MaxAbove200ms), ""))
	fmt.Fprintf(out, "  Max above 500 ms: %s\n", limitText(float64(cfg.Thresholds.MaxAbove500ms), ""))
	fmt.Fprintf(out, "  Max p95:          %s\n", limitText(cfg.Thresholds.MaxP95Ms, " ms"))

	fmt.Fprintf(out, "\nChart:  %s %dx%d\n", cfg.Chart.Format, cfg.Chart.Width, cfg.Chart.Height)
	fmt.Fprintf(out, "Server: %s (metrics at %s)\n", cfg.Server.ListenAddress, cfg.Server.MetricsPath)

	if len(cfg.Captures) == 0 {
		return nil
	}

	files, err := capture.Expand(cfg.Captures)
	if err != nil {
		fmt.Fprintf(out, "\nWarning: Error expanding capture patterns: %v\n", err)
		return nil
	}
	fmt.Fprintf(out, "\nCapture files: %d\n", len(files))
	for _, f := range files {
		fmt.Fprintf(out, "  - %s\n", f)
	}

	return nil
}

func limitText(v float64, unit string) string {
	if v == 0 {
		return "disabled"
	}
	return fmt.Sprintf("%g%s", v, unit)
}
