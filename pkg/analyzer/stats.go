package analyzer

import (
	"math"

	"github.com/influxdata/tdigest"

	"github.com/ccollicutt/pinglag/pkg/pinglog"
)

// digestCompression keeps roughly a hundred centroids, plenty for a capture.
const digestCompression = 100

// Compute returns descriptive statistics for m. Empty captures yield zero Stats.
func Compute(m pinglog.Metrics) Stats {
	var s Stats

	if m.HasSummary() && m.Summary.Sent > 0 {
		s.ObservedLossPercent = float64(m.Summary.Lost) / float64(m.Summary.Sent) * 100
	}

	if len(m.Samples) == 0 {
		return s
	}

	td := tdigest.NewWithCompression(digestCompression)
	s.Count = len(m.Samples)
	s.Min = math.MaxInt
	sum := 0.0
	for _, v := range m.Samples {
		x := int(v)
		if x < s.Min {
			s.Min = x
		}
		if x > s.Max {
			s.Max = x
		}
		sum += float64(x)
		td.Add(float64(x), 1)
	}
	s.Mean = sum / float64(s.Count)

	variance := 0.0
	for _, v := range m.Samples {
		d := float64(v) - s.Mean
		variance += d * d
	}
	s.StdDev = math.Sqrt(variance / float64(s.Count))

	s.P50 = clamp(td.Quantile(0.50), s.Min, s.Max)
	s.P95 = clamp(td.Quantile(0.95), s.Min, s.Max)
	s.P99 = clamp(td.Quantile(0.99), s.Min, s.Max)

	return s
}

// clamp keeps digest interpolation inside the observed range.
func clamp(v float64, lo, hi int) float64 {
	return math.Max(float64(lo), math.Min(float64(hi), v))
}
