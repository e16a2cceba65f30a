package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ccollicutt/pinglag/pkg/capture"
	"github.com/ccollicutt/pinglag/pkg/exporter"
	"github.com/ccollicutt/pinglag/pkg/server"
	"github.com/ccollicutt/pinglag/pkg/watch"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	ConfigFile string
	Listen     string
	Watch      []string
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve capture analysis and Prometheus metrics over HTTP",
		Long: `Start an HTTP server for uploading captures and scraping metrics.

Endpoints:
  GET  /                 upload form
  POST /api/parse        parse a capture (raw body or multipart field "file")
  GET  /api/metrics      latest metrics as JSON (?source= to pick one)
  GET  /api/chart.png    latest round-trip chart (also chart.svg)
  GET  /metrics          Prometheus metrics (server.metrics_path)

With --watch, capture files that are still being written are re-parsed on
every change and their latest numbers are served and exported.

Example:
  pinglag serve --listen :9428 --watch office.log`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", "", "Configuration file")
	cmd.Flags().StringVar(&opts.Listen, "listen", "", "Listen address (overrides server.listen_address)")
	cmd.Flags().StringSliceVar(&opts.Watch, "watch", nil, "Capture file to follow (can be repeated)")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(ctx, opts.ConfigFile)
	if err != nil {
		return err
	}
	if opts.Listen != "" {
		cfg.Server.ListenAddress = opts.Listen
	}

	holder := exporter.NewHolder()
	srv := server.New(cfg, holder)

	g, ctx := errgroup.WithContext(ctx)

	if len(opts.Watch) > 0 {
		files, err := capture.Expand(opts.Watch)
		if err != nil {
			return fmt.Errorf("expanding watch files: %w", err)
		}
		for _, f := range files {
			if f == capture.StdinName {
				return errors.New("cannot watch standard input")
			}
		}
		w, err := watch.New(files, func(c *capture.Capture) {
			holder.Set(c.Source, c.Metrics)
		})
		if err != nil {
			return err
		}
		g.Go(func() error { return w.Run(ctx) })
	}

	g.Go(func() error { return srv.ListenAndServe(ctx) })

	return g.Wait()
}
