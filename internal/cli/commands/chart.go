package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/pinglag/pkg/capture"
	"github.com/ccollicutt/pinglag/pkg/chart"
)

// ChartOptions holds options for the chart command.
type ChartOptions struct {
	ConfigFile string
	Output     string
	Format     string
	Width      int
	Height     int
}

// NewChartCommand creates the chart command.
func NewChartCommand() *cobra.Command {
	opts := &ChartOptions{}

	cmd := &cobra.Command{
		Use:   "chart <capture>",
		Short: "Render the round-trip times of a capture as an image",
		Long: `Render the round-trip times of a capture as a line chart.

The x axis is the reply number, the y axis the round-trip time in ms.
Dashed guide lines mark 200 ms and 500 ms. The format is taken from
--format, then from the output file extension, then from the config.

Example:
  pinglag chart office.log -o office.png
  pinglag chart - -o office.svg < office.log`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChart(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", "", "Configuration file")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Output image file (required)")
	cmd.Flags().StringVar(&opts.Format, "format", "", "Image format (png|svg)")
	cmd.Flags().IntVar(&opts.Width, "width", 0, "Image width in pixels")
	cmd.Flags().IntVar(&opts.Height, "height", 0, "Image height in pixels")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runChart(cmd *cobra.Command, source string, opts *ChartOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(ctx, opts.ConfigFile)
	if err != nil {
		return err
	}

	format, err := chartFormat(opts, cfg.Chart.Format)
	if err != nil {
		return err
	}

	renderOpts := chart.Options{
		Title:  source,
		Format: format,
		Width:  cfg.Chart.Width,
		Height: cfg.Chart.Height,
	}
	if opts.Width > 0 {
		renderOpts.Width = opts.Width
	}
	if opts.Height > 0 {
		renderOpts.Height = opts.Height
	}

	var c *capture.Capture
	if source == capture.StdinName {
		c, err = capture.ReadFrom(ctx, source, cmd.InOrStdin())
	} else {
		c, err = capture.Read(ctx, source)
	}
	if err != nil {
		return err
	}

	f, err := os.Create(opts.Output)
	if err != nil {
		return fmt.Errorf("creating %s: %w", opts.Output, err)
	}

	if err := chart.Render(f, c.Metrics, renderOpts); err != nil {
		_ = f.Close()
		_ = os.Remove(opts.Output)
		return fmt.Errorf("charting %s: %w", source, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", opts.Output, err)
	}

	log.WithFields(log.Fields{
		"source":  source,
		"output":  opts.Output,
		"samples": c.Metrics.Len(),
	}).Info("chart written")
	fmt.Fprintf(cmd.OutOrStdout(), "Chart written to %s (%d samples)\n", opts.Output, c.Metrics.Len())

	return nil
}

// chartFormat picks the image format from the flag, the output extension or
// the configured default, in that order.
func chartFormat(opts *ChartOptions, fallback string) (chart.Format, error) {
	if opts.Format != "" {
		return chart.ParseFormat(strings.ToLower(opts.Format))
	}
	switch strings.ToLower(filepath.Ext(opts.Output)) {
	case ".svg":
		return chart.FormatSVG, nil
	case ".png":
		return chart.FormatPNG, nil
	}
	return chart.ParseFormat(fallback)
}
