package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ccollicutt/pinglag/pkg/config"
	"github.com/ccollicutt/pinglag/pkg/exporter"
	"github.com/ccollicutt/pinglag/pkg/pinglog"
)

const lossyCapture = `
Pinging 8.8.8.8 with 32 bytes of data:
Reply from 8.8.8.8: bytes=32 time=45ms TTL=54
Reply from 8.8.8.8: bytes=32 time=250ms TTL=54
Request timed out.
Reply from 8.8.8.8: bytes=32 time=650ms TTL=54

Ping statistics for 8.8.8.8:
    Packets: Sent = 4, Received = 3, Lost = 1 (25% loss),
`

func newTestServer(t *testing.T, mutate func(*config.Config)) (*Server, *exporter.Holder) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Thresholds.MaxLossPercent = 10
	if mutate != nil {
		mutate(cfg)
	}
	if err := config.Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	h := exporter.NewHolder()
	return New(cfg, h), h
}

func do(s *Server, method, target string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestIndex(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(s, http.MethodGet, "/", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `name="file"`) {
		t.Error("index missing upload form")
	}
	if !strings.Contains(rec.Body.String(), "/metrics") {
		t.Error("index missing metrics link")
	}
}

func TestParse_RawBody(t *testing.T) {
	s, h := newTestServer(t, nil)

	rec := do(s, http.MethodPost, "/api/parse", bytes.NewBufferString(lossyCapture), "text/plain")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp ParseResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}

	if resp.ID == "" {
		t.Error("ID is empty")
	}
	if resp.Source != uploadSource {
		t.Errorf("Source = %q, want %q", resp.Source, uploadSource)
	}
	if got := resp.Metrics.Values(); len(got) != 3 || got[0] != 45 || got[1] != 250 || got[2] != 650 {
		t.Errorf("Samples = %v, want [45 250 650]", got)
	}
	if resp.Metrics.Above200ms != 2 || resp.Metrics.Above500ms != 1 {
		t.Errorf("above counters = %d/%d, want 2/1", resp.Metrics.Above200ms, resp.Metrics.Above500ms)
	}
	if resp.Metrics.Summary.Lost != 1 || resp.Metrics.Summary.LostPercentage != 25 {
		t.Errorf("Summary = %+v", resp.Metrics.Summary)
	}
	if resp.Stats.Count != 3 || resp.Stats.Max != 650 {
		t.Errorf("Stats = %+v", resp.Stats)
	}
	if len(resp.Findings) != 1 {
		t.Errorf("Findings = %v, want one loss finding", resp.Findings)
	}

	if _, ok := h.Get(uploadSource); !ok {
		t.Error("holder not updated")
	}
}

func TestParse_Multipart(t *testing.T) {
	s, _ := newTestServer(t, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "office.log")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write([]byte(lossyCapture))
	_ = mw.Close()

	rec := do(s, http.MethodPost, "/api/parse", &body, mw.FormDataContentType())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp ParseResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Source != "office.log" {
		t.Errorf("Source = %q, want office.log", resp.Source)
	}
	if resp.Metrics.Len() != 3 {
		t.Errorf("Len() = %d, want 3", resp.Metrics.Len())
	}
}

func TestParse_MultipartMissingFile(t *testing.T) {
	s, _ := newTestServer(t, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("other", "x")
	_ = mw.Close()

	rec := do(s, http.MethodPost, "/api/parse", &body, mw.FormDataContentType())
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestParse_EmptyBody(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(s, http.MethodPost, "/api/parse", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"samples":[]`) {
		t.Errorf("expected empty samples array, got %s", rec.Body.String())
	}
}

func TestParse_TooLarge(t *testing.T) {
	s, _ := newTestServer(t, func(c *config.Config) { c.Server.MaxUploadBytes = 64 })

	rec := do(s, http.MethodPost, "/api/parse", bytes.NewBufferString(lossyCapture), "text/plain")
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestParse_WrongMethod(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(s, http.MethodGet, "/api/parse", nil, "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(s, http.MethodGet, "/api/metrics", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status before parse = %d, want 404", rec.Code)
	}

	do(s, http.MethodPost, "/api/parse", bytes.NewBufferString(lossyCapture), "")

	rec = do(s, http.MethodGet, "/api/metrics", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var snap exporter.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.Source != uploadSource || snap.Metrics.Len() != 3 {
		t.Errorf("snapshot = %+v", snap)
	}

	rec = do(s, http.MethodGet, "/api/metrics?source=missing.log", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status for unknown source = %d, want 404", rec.Code)
	}
}

func TestChart(t *testing.T) {
	s, h := newTestServer(t, func(c *config.Config) {
		c.Chart.Width = 400
		c.Chart.Height = 200
	})

	rec := do(s, http.MethodGet, "/api/chart.png", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status before parse = %d, want 404", rec.Code)
	}

	do(s, http.MethodPost, "/api/parse", bytes.NewBufferString(lossyCapture), "")

	rec = do(s, http.MethodGet, "/api/chart.png", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("png status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")) {
		t.Error("body is not a PNG")
	}

	rec = do(s, http.MethodGet, "/api/chart.svg", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("svg status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<svg") {
		t.Error("body is not an SVG")
	}

	h.Set("single.log", mustParseOne())
	rec = do(s, http.MethodGet, "/api/chart.png?source=single.log", nil, "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status for single sample = %d, want 422", rec.Code)
	}
}

func TestPrometheusEndpoint(t *testing.T) {
	s, _ := newTestServer(t, func(c *config.Config) { c.Server.MetricsPath = "/prom" })

	do(s, http.MethodPost, "/api/parse", bytes.NewBufferString(lossyCapture), "")

	rec := do(s, http.MethodGet, "/prom", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`pinglag_samples{source="upload"} 3`,
		`pinglag_events_above_ms{source="upload",threshold="200"} 2`,
		`pinglag_packets_lost{source="upload"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func mustParseOne() pinglog.Metrics {
	return pinglog.Parse("Reply from 8.8.8.8: bytes=32 time=45ms TTL=54\n")
}
