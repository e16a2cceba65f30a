// Package pinglog turns the text output of a ping capture session into
// round-trip samples, packet counters and latency threshold counts.
package pinglog

// Latency bounds for the threshold counters. Comparisons are strictly greater than.
const (
	Threshold200ms = 200
	Threshold500ms = 500
)

// Sample is one observed round-trip time in milliseconds.
type Sample int

// PacketSummary holds the counters from the terminal summary line.
// received + lost == sent is assumed but never checked.
type PacketSummary struct {
	Sent           int     `json:"sent"`
	Received       int     `json:"received"`
	Lost           int     `json:"lost"`
	LostPercentage float64 `json:"lost_percentage"`
}

// Metrics is the result of parsing one capture session. A value returned by
// Parse is never modified afterwards.
type Metrics struct {
	// Samples are in the order their reply lines appeared.
	Samples []Sample `json:"samples"`

	// Summary is the last summary line that parsed, zero if none did.
	Summary PacketSummary `json:"summary"`

	// Above200ms counts samples strictly greater than 200 ms.
	Above200ms int `json:"above_200ms"`

	// Above500ms counts samples strictly greater than 500 ms.
	Above500ms int `json:"above_500ms"`

	// SummaryFound distinguishes an absent summary from a zero-traffic one.
	SummaryFound bool `json:"has_summary"`
}

// Len returns the number of samples.
func (m *Metrics) Len() int {
	return len(m.Samples)
}

// HasSummary reports whether a summary line was parsed. An all-zero summary
// without this flag means "unknown", not "nothing was sent".
func (m *Metrics) HasSummary() bool {
	return m.SummaryFound
}

// Values returns the samples as plain integers, in order.
func (m *Metrics) Values() []int {
	values := make([]int, len(m.Samples))
	for i, s := range m.Samples {
		values[i] = int(s)
	}
	return values
}

// Clone returns a deep copy so the caller can hand it to another goroutine.
func (m Metrics) Clone() Metrics {
	out := m
	if m.Samples != nil {
		out.Samples = make([]Sample, len(m.Samples))
		copy(out.Samples, m.Samples)
	}
	return out
}

func (m *Metrics) add(s Sample) {
	m.Samples = append(m.Samples, s)
	if s > Threshold200ms {
		m.Above200ms++
	}
	if s > Threshold500ms {
		m.Above500ms++
	}
}
