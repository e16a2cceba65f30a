package output

import (
	"context"
	"encoding/json"
	"io"

	"github.com/ccollicutt/pinglag/pkg/analyzer"
	"github.com/ccollicutt/pinglag/pkg/pinglog"
)

// JSONFormatter formats reports as JSON.
type JSONFormatter struct {
	opts FormatOptions
}

// NewJSONFormatter creates a new JSON formatter with the given options.
func NewJSONFormatter(opts FormatOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Name returns the format name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// captureDigest is the quiet form of a capture: counters only, no samples.
type captureDigest struct {
	Source string `json:"source"`
	Sent   int    `json:"sent"`
	Lost   int    `json:"lost"`
	// LossPercent is null when the capture had no summary line.
	LossPercent *float64 `json:"loss_percent"`
	Above200ms  int      `json:"above_200ms"`
	Above500ms  int      `json:"above_500ms"`
	Issues      int      `json:"issues"`
}

type quietReport struct {
	Summary  Summary         `json:"summary"`
	Captures []captureDigest `json:"captures"`
}

// Format renders the report as JSON. Sample arrays are always emitted as
// arrays, never null, so consumers can index them without a nil check.
func (f *JSONFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if f.opts.Quiet {
		return encoder.Encode(digest(report))
	}

	out := *report
	out.Captures = make([]*analyzer.CaptureResult, len(report.Captures))
	for i, c := range report.Captures {
		cp := *c
		if cp.Metrics.Samples == nil {
			cp.Metrics.Samples = []pinglog.Sample{}
		}
		if cp.Findings == nil {
			cp.Findings = []analyzer.Issue{}
		}
		out.Captures[i] = &cp
	}
	return encoder.Encode(&out)
}

func digest(report *Report) quietReport {
	q := quietReport{
		Summary:  report.Summary,
		Captures: make([]captureDigest, 0, len(report.Captures)),
	}
	for _, c := range report.Captures {
		m := c.Metrics
		d := captureDigest{
			Source:     c.Source,
			Sent:       m.Summary.Sent,
			Lost:       m.Summary.Lost,
			Above200ms: m.Above200ms,
			Above500ms: m.Above500ms,
			Issues:     len(c.Issues()),
		}
		if m.HasSummary() {
			loss := m.Summary.LostPercentage
			d.LossPercent = &loss
		}
		q.Captures = append(q.Captures, d)
	}
	return q
}
