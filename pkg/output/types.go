// Package output provides formatting and output generation for analysis results.
package output

import (
	"time"

	"github.com/google/uuid"

	"github.com/ccollicutt/pinglag/pkg/analyzer"
)

// Report is the complete analysis output.
type Report struct {
	Summary  Summary                   `json:"summary"`
	Captures []*analyzer.CaptureResult `json:"captures"`
	Metadata Metadata                  `json:"metadata"`
}

// Summary provides aggregate statistics across captures.
type Summary struct {
	CapturesAnalyzed   int `json:"captures_analyzed"`
	CapturesWithIssues int `json:"captures_with_issues"`
	TotalIssues        int `json:"total_issues"`
	TotalSamples       int `json:"total_samples"`
}

// Metadata provides context about the analysis run.
type Metadata struct {
	// RunID identifies this run in webhook payloads and logs.
	RunID      string        `json:"run_id"`
	ConfigFile string        `json:"config_file,omitempty"`
	Sources    []string      `json:"sources"`
	AnalyzedAt time.Time     `json:"analyzed_at"`
	Duration   time.Duration `json:"duration"`
}

// NewReport creates a Report from analysis results.
func NewReport(result *analyzer.AnalysisResult, configFile string) *Report {
	return &Report{
		Captures: result.Results,
		Metadata: Metadata{
			RunID:      uuid.NewString(),
			ConfigFile: configFile,
			Sources:    result.Metadata.Sources,
			AnalyzedAt: result.Metadata.EndTime,
			Duration:   result.Metadata.EndTime.Sub(result.Metadata.StartTime),
		},
		Summary: Summary{
			CapturesAnalyzed:   len(result.Results),
			CapturesWithIssues: result.CapturesWithIssues(),
			TotalIssues:        result.TotalIssues(),
			TotalSamples:       result.TotalSamples(),
		},
	}
}

// HasIssues returns true if any threshold was exceeded.
func (r *Report) HasIssues() bool {
	return r.Summary.TotalIssues > 0
}
