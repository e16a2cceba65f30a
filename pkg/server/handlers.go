package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/ccollicutt/pinglag/pkg/analyzer"
	"github.com/ccollicutt/pinglag/pkg/capture"
	"github.com/ccollicutt/pinglag/pkg/chart"
	"github.com/ccollicutt/pinglag/pkg/exporter"
	"github.com/ccollicutt/pinglag/pkg/pinglog"
)

// uploadSource names captures posted as a raw body.
const uploadSource = "upload"

const indexHTML = `<!DOCTYPE html>
<html>
<head><title>pinglag</title></head>
<body>
<h1>pinglag</h1>
<p>Upload a ping capture to see its round-trip times.</p>
<form action="/api/parse" method="post" enctype="multipart/form-data">
<input type="file" name="file">
<input type="submit" value="Parse">
</form>
<ul>
<li><a href="/api/metrics">Latest metrics (JSON)</a></li>
<li><a href="/api/chart.png">Latest chart (PNG)</a></li>
<li><a href="/api/chart.svg">Latest chart (SVG)</a></li>
<li><a href="%s">Prometheus metrics</a></li>
</ul>
</body>
</html>
`

// ParseResponse is returned by POST /api/parse.
type ParseResponse struct {
	ID       string           `json:"id"`
	Source   string           `json:"source"`
	Metrics  pinglog.Metrics  `json:"metrics"`
	Stats    analyzer.Stats   `json:"stats"`
	Findings []analyzer.Issue `json:"findings"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, indexHTML, s.cfg.MetricsPath)
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	source, body, err := uploadBody(r)
	if err != nil {
		writeUploadError(w, err)
		return
	}
	defer body.Close()

	c, err := capture.ReadFrom(r.Context(), source, body)
	if err != nil {
		writeUploadError(w, err)
		return
	}

	snap := s.holder.Set(c.Source, c.Metrics)
	result := s.analyzer.AnalyzeMetrics(c.Source, c.Metrics)

	resp := ParseResponse{
		ID:       uuid.NewString(),
		Source:   c.Source,
		Metrics:  snap.Metrics,
		Stats:    snap.Stats,
		Findings: result.Findings,
	}
	if resp.Findings == nil {
		resp.Findings = []analyzer.Issue{}
	}

	log.WithFields(log.Fields{
		"id":      resp.ID,
		"source":  resp.Source,
		"samples": resp.Metrics.Len(),
	}).Info("capture uploaded")

	writeJSON(w, http.StatusOK, resp)
}

// uploadBody returns the capture text of a request: the "file" part of a
// multipart form, or the raw body otherwise.
func uploadBody(r *http.Request) (string, io.ReadCloser, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return uploadSource, r.Body, nil
	}

	f, hdr, err := r.FormFile("file")
	if err != nil {
		return "", nil, err
	}
	name := hdr.Filename
	if name == "" {
		name = uploadSource
	}
	return name, f, nil
}

func writeUploadError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("capture exceeds %d bytes", tooLarge.Limit))
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(r)
	if !ok {
		writeError(w, http.StatusNotFound, "no capture has been parsed yet")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	format := chart.FormatPNG
	if strings.HasSuffix(r.URL.Path, ".svg") {
		format = chart.FormatSVG
	}

	snap, ok := s.snapshot(r)
	if !ok {
		writeError(w, http.StatusNotFound, "no capture has been parsed yet")
		return
	}

	var buf bytes.Buffer
	err := chart.Render(&buf, snap.Metrics, chart.Options{
		Title:  snap.Source,
		Format: format,
		Width:  s.chart.Width,
		Height: s.chart.Height,
	})
	if errors.Is(err, chart.ErrNotEnoughSamples) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		log.WithError(err).Error("rendering chart")
		writeError(w, http.StatusInternalServerError, "rendering chart failed")
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	_, _ = w.Write(buf.Bytes())
}

// snapshot returns the snapshot named by the "source" query parameter, or
// the most recent one.
func (s *Server) snapshot(r *http.Request) (exporter.Snapshot, bool) {
	if src := r.URL.Query().Get("source"); src != "" {
		return s.holder.Get(src)
	}
	return s.holder.Latest()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Debug("writing response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
