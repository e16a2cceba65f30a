package output

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ccollicutt/pinglag/pkg/analyzer"
)

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		return f.formatQuiet(report, w)
	}
	return f.formatFull(report, w)
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	for _, c := range report.Captures {
		m := c.Metrics
		_, err := fmt.Fprintf(w, "%s: sent=%d lost=%d (%s) above200=%d above500=%d issues=%d\n",
			c.Source, m.Summary.Sent, m.Summary.Lost, lossText(c),
			m.Above200ms, m.Above500ms, len(c.Issues()))
		if err != nil {
			return err
		}
	}
	return nil
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer) error {
	fmt.Fprintln(w, "=== Network Lag Analysis ===")
	fmt.Fprintln(w)

	for _, c := range report.Captures {
		f.formatCapture(c, w)
	}

	fmt.Fprintln(w, "---")
	_, err := fmt.Fprintf(w, "Summary: %d captures analyzed, %d with issues, %d total issues\n",
		report.Summary.CapturesAnalyzed,
		report.Summary.CapturesWithIssues,
		report.Summary.TotalIssues)
	if err != nil {
		return err
	}

	if f.opts.Verbose {
		fmt.Fprintf(w, "Samples: %d\n", report.Summary.TotalSamples)
		fmt.Fprintf(w, "Run: %s\n", report.Metadata.RunID)
		fmt.Fprintf(w, "Duration: %s\n", report.Metadata.Duration.Round(1e6))
	}

	return nil
}

func (f *TextFormatter) formatCapture(c *analyzer.CaptureResult, w io.Writer) {
	m := c.Metrics
	s := c.Stats

	fmt.Fprintf(w, "[CAPTURE] %s\n", c.Source)
	fmt.Fprintf(w, "  Packets sent:        %d\n", m.Summary.Sent)
	fmt.Fprintf(w, "  Packets lost:        %d (%s)\n", m.Summary.Lost, lossText(c))
	fmt.Fprintf(w, "  Events above 200 ms: %d\n", m.Above200ms)
	fmt.Fprintf(w, "  Events above 500 ms: %d\n", m.Above500ms)

	if s.Count > 0 {
		fmt.Fprintf(w, "  Round trip (ms):     min %d / mean %.1f / max %d / p95 %.0f / p99 %.0f\n",
			s.Min, s.Mean, s.Max, s.P95, s.P99)
	} else {
		fmt.Fprintln(w, "  Round trip (ms):     no samples")
	}

	if f.opts.Verbose && m.Len() > 0 {
		fmt.Fprintf(w, "  Samples: %s\n", joinInts(m.Values()))
	}

	if len(c.Findings) == 0 {
		fmt.Fprintln(w, "  No issues detected")
	}
	for _, finding := range c.Findings {
		fmt.Fprintf(w, "  - [%s] %s\n", strings.ToUpper(string(finding.Severity)), finding.Description)
	}

	fmt.Fprintln(w)
}

// lossText renders the summary loss percentage, or "unknown" without a summary.
func lossText(c *analyzer.CaptureResult) string {
	if !c.Metrics.HasSummary() {
		return "unknown"
	}
	return fmt.Sprintf("%g %%", c.Metrics.Summary.LostPercentage)
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, " ")
}
