// Package analyzer derives latency statistics from parsed captures and
// checks them against configured thresholds.
package analyzer

import (
	"time"

	"github.com/ccollicutt/pinglag/pkg/pinglog"
)

// IssueType categorizes assessment findings.
type IssueType string

const (
	// IssueTypeLossExceeded means the summary loss percentage is over the limit.
	IssueTypeLossExceeded IssueType = "loss_exceeded"

	// IssueTypeAbove200Exceeded means too many samples were over 200 ms.
	IssueTypeAbove200Exceeded IssueType = "above_200ms_exceeded"

	// IssueTypeAbove500Exceeded means too many samples were over 500 ms.
	IssueTypeAbove500Exceeded IssueType = "above_500ms_exceeded"

	// IssueTypeP95Exceeded means the 95th percentile is over the limit.
	IssueTypeP95Exceeded IssueType = "p95_exceeded"

	// IssueTypeNoSummary is informational: the capture had no summary line.
	IssueTypeNoSummary IssueType = "no_summary"
)

// Severity tells whether a finding fails the analysis.
type Severity string

const (
	SeverityIssue Severity = "issue"
	SeverityInfo  Severity = "info"
)

// Issue is a single assessment finding.
type Issue struct {
	Type        IssueType `json:"type"`
	Severity    Severity  `json:"severity"`
	Description string    `json:"description"`

	// Observed and Limit are in the unit of the check (percent, count or ms).
	Observed float64 `json:"observed"`
	Limit    float64 `json:"limit"`
}

// Stats are descriptive statistics over a capture's samples, in milliseconds.
type Stats struct {
	Count  int     `json:"count"`
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	P50    float64 `json:"p50"`
	P95    float64 `json:"p95"`
	P99    float64 `json:"p99"`

	// ObservedLossPercent is lost/sent from the summary, or 0 when unknown.
	ObservedLossPercent float64 `json:"observed_loss_percent"`
}

// CaptureResult contains everything derived from one capture.
type CaptureResult struct {
	Source   string          `json:"source"`
	Metrics  pinglog.Metrics `json:"metrics"`
	Stats    Stats           `json:"stats"`
	Findings []Issue         `json:"findings"`
}

// Issues returns only the findings that fail the analysis.
func (r *CaptureResult) Issues() []Issue {
	var issues []Issue
	for _, f := range r.Findings {
		if f.Severity == SeverityIssue {
			issues = append(issues, f)
		}
	}
	return issues
}

// HasIssues returns true if any threshold was exceeded.
func (r *CaptureResult) HasIssues() bool {
	return len(r.Issues()) > 0
}

// AnalysisResult is the outcome of analyzing a set of captures.
type AnalysisResult struct {
	Results  []*CaptureResult
	Metadata AnalysisMetadata
}

// AnalysisMetadata describes an analysis run.
type AnalysisMetadata struct {
	Sources   []string
	StartTime time.Time
	EndTime   time.Time
}

// CapturesWithIssues counts captures that exceeded a threshold.
func (a *AnalysisResult) CapturesWithIssues() int {
	n := 0
	for _, r := range a.Results {
		if r.HasIssues() {
			n++
		}
	}
	return n
}

// TotalIssues counts threshold issues across all captures.
func (a *AnalysisResult) TotalIssues() int {
	n := 0
	for _, r := range a.Results {
		n += len(r.Issues())
	}
	return n
}

// TotalSamples counts samples across all captures.
func (a *AnalysisResult) TotalSamples() int {
	n := 0
	for _, r := range a.Results {
		n += r.Metrics.Len()
	}
	return n
}
