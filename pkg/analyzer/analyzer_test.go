package analyzer

import (
	"context"
	"testing"

	"github.com/ccollicutt/pinglag/pkg/capture"
	"github.com/ccollicutt/pinglag/pkg/config"
	"github.com/ccollicutt/pinglag/pkg/pinglog"
)

func metricsFor(values []int, summary *pinglog.PacketSummary) pinglog.Metrics {
	m := pinglog.Metrics{Samples: []pinglog.Sample{}}
	for _, v := range values {
		m.Samples = append(m.Samples, pinglog.Sample(v))
		if v > pinglog.Threshold200ms {
			m.Above200ms++
		}
		if v > pinglog.Threshold500ms {
			m.Above500ms++
		}
	}
	if summary != nil {
		m.Summary = *summary
		m.SummaryFound = true
	}
	return m
}

func findingTypes(issues []Issue) map[IssueType]bool {
	types := make(map[IssueType]bool)
	for _, i := range issues {
		types[i.Type] = true
	}
	return types
}

func TestAnalyzer_Analyze(t *testing.T) {
	captures := []*capture.Capture{
		{Source: "a.log", Metrics: pinglog.Parse("Reply from 8.8.8.8: bytes=32 time=650ms TTL=54\n")},
		{Source: "b.log", Metrics: pinglog.Parse("Reply from 8.8.8.8: bytes=32 time=20ms TTL=54\n")},
	}

	a := NewAnalyzer(config.ThresholdsConfig{MaxAbove500ms: 0, MaxAbove200ms: 0})
	result, err := a.Analyze(context.Background(), captures)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if len(result.Results) != 2 {
		t.Fatalf("len(Results) = %d, want 2", len(result.Results))
	}
	if result.Results[0].Source != "a.log" || result.Results[1].Source != "b.log" {
		t.Errorf("results out of order: %s, %s", result.Results[0].Source, result.Results[1].Source)
	}
	if len(result.Metadata.Sources) != 2 {
		t.Errorf("len(Sources) = %d, want 2", len(result.Metadata.Sources))
	}
	if result.TotalSamples() != 2 {
		t.Errorf("TotalSamples() = %d, want 2", result.TotalSamples())
	}
	if result.TotalIssues() != 0 {
		t.Errorf("TotalIssues() = %d, want 0 with thresholds disabled", result.TotalIssues())
	}
	if result.Metadata.EndTime.Before(result.Metadata.StartTime) {
		t.Error("EndTime before StartTime")
	}
}

func TestAnalyzer_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := NewAnalyzer(config.ThresholdsConfig{})
	_, err := a.Analyze(ctx, []*capture.Capture{{Source: "a.log"}})
	if err == nil {
		t.Error("Analyze() expected error for cancelled context")
	}
}

func TestAssess_NoSummaryIsInformational(t *testing.T) {
	m := metricsFor([]int{10, 20}, nil)

	findings := Assess(m, Compute(m), config.ThresholdsConfig{MaxLossPercent: 1})

	if !findingTypes(findings)[IssueTypeNoSummary] {
		t.Errorf("findings = %+v, want no_summary", findings)
	}
	r := &CaptureResult{Findings: findings}
	if r.HasIssues() {
		t.Error("HasIssues() = true for informational finding only")
	}
}

func TestAssess_LossExceeded(t *testing.T) {
	m := metricsFor(nil, &pinglog.PacketSummary{Sent: 10, Received: 8, Lost: 2, LostPercentage: 20})

	findings := Assess(m, Compute(m), config.ThresholdsConfig{MaxLossPercent: 5})

	if !findingTypes(findings)[IssueTypeLossExceeded] {
		t.Errorf("findings = %+v, want loss_exceeded", findings)
	}
}

func TestAssess_LossAtLimitIsFine(t *testing.T) {
	m := metricsFor(nil, &pinglog.PacketSummary{Sent: 20, Received: 19, Lost: 1, LostPercentage: 5})

	findings := Assess(m, Compute(m), config.ThresholdsConfig{MaxLossPercent: 5})

	if len(findings) != 0 {
		t.Errorf("findings = %+v, want none", findings)
	}
}

func TestAssess_ThresholdCounters(t *testing.T) {
	m := metricsFor([]int{100, 250, 300, 600, 700}, &pinglog.PacketSummary{Sent: 5, Received: 5})

	tests := []struct {
		name   string
		t      config.ThresholdsConfig
		want   []IssueType
		issues int
	}{
		{"disabled", config.ThresholdsConfig{}, nil, 0},
		{"200 exceeded", config.ThresholdsConfig{MaxAbove200ms: 3}, []IssueType{IssueTypeAbove200Exceeded}, 1},
		{"200 at limit", config.ThresholdsConfig{MaxAbove200ms: 4}, nil, 0},
		{"500 exceeded", config.ThresholdsConfig{MaxAbove500ms: 1}, []IssueType{IssueTypeAbove500Exceeded}, 1},
		{"both", config.ThresholdsConfig{MaxAbove200ms: 1, MaxAbove500ms: 1}, []IssueType{IssueTypeAbove200Exceeded, IssueTypeAbove500Exceeded}, 2},
		{"p95", config.ThresholdsConfig{MaxP95Ms: 50}, []IssueType{IssueTypeP95Exceeded}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &CaptureResult{Findings: Assess(m, Compute(m), tt.t)}
			types := findingTypes(r.Findings)
			for _, want := range tt.want {
				if !types[want] {
					t.Errorf("missing finding %s in %+v", want, r.Findings)
				}
			}
			if got := len(r.Issues()); got != tt.issues {
				t.Errorf("len(Issues()) = %d, want %d", got, tt.issues)
			}
		})
	}
}

func TestAnalysisResult_Methods(t *testing.T) {
	result := &AnalysisResult{
		Results: []*CaptureResult{
			{Findings: []Issue{{Type: IssueTypeLossExceeded, Severity: SeverityIssue}, {Type: IssueTypeAbove200Exceeded, Severity: SeverityIssue}}},
			{Findings: []Issue{{Type: IssueTypeNoSummary, Severity: SeverityInfo}}},
			{Findings: []Issue{}},
		},
	}

	if got := result.CapturesWithIssues(); got != 1 {
		t.Errorf("CapturesWithIssues() = %d, want 1", got)
	}
	if got := result.TotalIssues(); got != 2 {
		t.Errorf("TotalIssues() = %d, want 2", got)
	}
}
