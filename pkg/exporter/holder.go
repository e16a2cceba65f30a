// Package exporter keeps the most recent parse result per capture source and
// exposes it as Prometheus metrics.
package exporter

import (
	"sort"
	"sync"
	"time"

	"github.com/ccollicutt/pinglag/pkg/analyzer"
	"github.com/ccollicutt/pinglag/pkg/pinglog"
)

// Snapshot is an immutable copy of one source's latest result.
type Snapshot struct {
	Source    string          `json:"source"`
	Metrics   pinglog.Metrics `json:"metrics"`
	Stats     analyzer.Stats  `json:"stats"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Holder stores the latest Metrics per source. A Set fully replaces what
// was stored for that source. Safe for concurrent use.
type Holder struct {
	mu     sync.RWMutex
	latest map[string]Snapshot
	last   string
}

// NewHolder creates an empty holder.
func NewHolder() *Holder {
	return &Holder{latest: make(map[string]Snapshot)}
}

// Set replaces the stored result for source and returns the new snapshot.
func (h *Holder) Set(source string, m pinglog.Metrics) Snapshot {
	s := Snapshot{
		Source:    source,
		Metrics:   m.Clone(),
		Stats:     analyzer.Compute(m),
		UpdatedAt: time.Now(),
	}

	h.mu.Lock()
	h.latest[source] = s
	h.last = source
	h.mu.Unlock()

	return s
}

// Get returns the snapshot for source.
func (h *Holder) Get(source string) (Snapshot, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	s, ok := h.latest[source]
	if !ok {
		return Snapshot{}, false
	}
	s.Metrics = s.Metrics.Clone()
	return s, true
}

// Latest returns the most recently set snapshot of any source.
func (h *Holder) Latest() (Snapshot, bool) {
	h.mu.RLock()
	last := h.last
	h.mu.RUnlock()

	if last == "" {
		return Snapshot{}, false
	}
	return h.Get(last)
}

// All returns every snapshot sorted by source.
func (h *Holder) All() []Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()

	all := make([]Snapshot, 0, len(h.latest))
	for _, s := range h.latest {
		s.Metrics = s.Metrics.Clone()
		all = append(all, s)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Source < all[j].Source })
	return all
}
