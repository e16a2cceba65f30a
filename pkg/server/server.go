// Package server exposes capture parsing, charts and Prometheus metrics over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/ccollicutt/pinglag/pkg/analyzer"
	"github.com/ccollicutt/pinglag/pkg/config"
	"github.com/ccollicutt/pinglag/pkg/exporter"
)

const shutdownTimeout = 5 * time.Second

// Server serves the pinglag HTTP API. Parse results are kept in a Holder
// shared with the Prometheus collector and any file watchers.
type Server struct {
	cfg      config.ServerConfig
	chart    config.ChartConfig
	holder   *exporter.Holder
	analyzer *analyzer.Analyzer
	mux      *http.ServeMux
}

// New builds a server from a validated configuration.
func New(cfg *config.Config, holder *exporter.Holder) *Server {
	s := &Server{
		cfg:      cfg.Server,
		chart:    cfg.Chart,
		holder:   holder,
		analyzer: analyzer.NewAnalyzer(cfg.Thresholds),
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	reg := prometheus.NewRegistry()
	reg.MustRegister(exporter.NewCollector(s.holder))

	l := log.New()
	l.Level = log.ErrorLevel

	s.mux.Handle("GET "+s.cfg.MetricsPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		ErrorLog:      l,
		ErrorHandling: promhttp.ContinueOnError,
	}))
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /api/parse", s.handleParse)
	s.mux.HandleFunc("GET /api/metrics", s.handleMetrics)
	s.mux.HandleFunc("GET /api/chart.png", s.handleChart)
	s.mux.HandleFunc("GET /api/chart.svg", s.handleChart)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	log.WithFields(log.Fields{
		"method":   r.Method,
		"path":     r.URL.Path,
		"status":   rec.status,
		"duration": time.Since(start),
	}).Debug("request served")
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddress,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Infof("Listening for %s on %s", s.cfg.MetricsPath, s.cfg.ListenAddress)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
