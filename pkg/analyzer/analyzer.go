package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/ccollicutt/pinglag/pkg/capture"
	"github.com/ccollicutt/pinglag/pkg/config"
	"github.com/ccollicutt/pinglag/pkg/pinglog"
)

// Analyzer computes stats and findings for parsed captures.
type Analyzer struct {
	thresholds config.ThresholdsConfig
}

// NewAnalyzer creates an analyzer that assesses against the given thresholds.
func NewAnalyzer(thresholds config.ThresholdsConfig) *Analyzer {
	return &Analyzer{thresholds: thresholds}
}

// Analyze processes each capture in order.
func (a *Analyzer) Analyze(ctx context.Context, captures []*capture.Capture) (*AnalysisResult, error) {
	result := &AnalysisResult{
		Results: make([]*CaptureResult, 0, len(captures)),
		Metadata: AnalysisMetadata{
			StartTime: time.Now(),
		},
	}

	for _, c := range captures {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("analysis interrupted: %w", ctx.Err())
		default:
		}

		result.Results = append(result.Results, a.AnalyzeMetrics(c.Source, c.Metrics))
		result.Metadata.Sources = append(result.Metadata.Sources, c.Source)
	}

	result.Metadata.EndTime = time.Now()
	return result, nil
}

// AnalyzeMetrics builds the result for a single parsed capture.
func (a *Analyzer) AnalyzeMetrics(source string, m pinglog.Metrics) *CaptureResult {
	stats := Compute(m)
	return &CaptureResult{
		Source:   source,
		Metrics:  m,
		Stats:    stats,
		Findings: Assess(m, stats, a.thresholds),
	}
}

// Assess checks m and its stats against t. A zero limit disables its check;
// limits are exceeded only when the observed value is strictly greater.
func Assess(m pinglog.Metrics, stats Stats, t config.ThresholdsConfig) []Issue {
	findings := []Issue{}

	if !m.HasSummary() {
		findings = append(findings, Issue{
			Type:        IssueTypeNoSummary,
			Severity:    SeverityInfo,
			Description: "no packet summary line found; loss is unknown",
		})
	} else if t.MaxLossPercent > 0 && m.Summary.LostPercentage > t.MaxLossPercent {
		findings = append(findings, Issue{
			Type:        IssueTypeLossExceeded,
			Severity:    SeverityIssue,
			Description: fmt.Sprintf("packet loss %.1f%% exceeds %.1f%%", m.Summary.LostPercentage, t.MaxLossPercent),
			Observed:    m.Summary.LostPercentage,
			Limit:       t.MaxLossPercent,
		})
	}

	if t.MaxAbove200ms > 0 && m.Above200ms > t.MaxAbove200ms {
		findings = append(findings, Issue{
			Type:        IssueTypeAbove200Exceeded,
			Severity:    SeverityIssue,
			Description: fmt.Sprintf("%d events above 200 ms (max %d)", m.Above200ms, t.MaxAbove200ms),
			Observed:    float64(m.Above200ms),
			Limit:       float64(t.MaxAbove200ms),
		})
	}

	if t.MaxAbove500ms > 0 && m.Above500ms > t.MaxAbove500ms {
		findings = append(findings, Issue{
			Type:        IssueTypeAbove500Exceeded,
			Severity:    SeverityIssue,
			Description: fmt.Sprintf("%d events above 500 ms (max %d)", m.Above500ms, t.MaxAbove500ms),
			Observed:    float64(m.Above500ms),
			Limit:       float64(t.MaxAbove500ms),
		})
	}

	if t.MaxP95Ms > 0 && stats.Count > 0 && stats.P95 > t.MaxP95Ms {
		findings = append(findings, Issue{
			Type:        IssueTypeP95Exceeded,
			Severity:    SeverityIssue,
			Description: fmt.Sprintf("p95 round trip %.0f ms exceeds %.0f ms", stats.P95, t.MaxP95Ms),
			Observed:    stats.P95,
			Limit:       t.MaxP95Ms,
		})
	}

	return findings
}
