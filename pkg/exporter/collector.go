package exporter

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ccollicutt/pinglag/pkg/pinglog"
)

const prefix = "pinglag_"

var (
	labelNames = []string{"source"}

	sentDesc      = prometheus.NewDesc(prefix+"packets_sent", "Packets sent according to the capture summary", labelNames, nil)
	receivedDesc  = prometheus.NewDesc(prefix+"packets_received", "Packets received according to the capture summary", labelNames, nil)
	lostDesc      = prometheus.NewDesc(prefix+"packets_lost", "Packets lost according to the capture summary", labelNames, nil)
	lossDesc      = prometheus.NewDesc(prefix+"loss_percent", "Packet loss in percent according to the capture summary", labelNames, nil)
	summaryDesc   = prometheus.NewDesc(prefix+"summary_present", "1 if the capture had a packet summary line", labelNames, nil)
	samplesDesc   = prometheus.NewDesc(prefix+"samples", "Round trip samples parsed from the capture", labelNames, nil)
	aboveDesc     = prometheus.NewDesc(prefix+"events_above_ms", "Samples strictly above the threshold", append(labelNames, "threshold"), nil)
	rttDesc       = prometheus.NewDesc(prefix+"rtt_ms", "Round trip time in millis", append(labelNames, "type"), nil)
	timestampDesc = prometheus.NewDesc(prefix+"last_parse_timestamp_seconds", "Unix time of the last parse", labelNames, nil)
)

// Collector exports the snapshots of a Holder.
type Collector struct {
	holder *Holder
}

// NewCollector creates a collector reading from h.
func NewCollector(h *Holder) *Collector {
	return &Collector{holder: h}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- sentDesc
	ch <- receivedDesc
	ch <- lostDesc
	ch <- lossDesc
	ch <- summaryDesc
	ch <- samplesDesc
	ch <- aboveDesc
	ch <- rttDesc
	ch <- timestampDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, s := range c.holder.All() {
		m := s.Metrics
		src := s.Source

		ch <- prometheus.MustNewConstMetric(samplesDesc, prometheus.GaugeValue, float64(m.Len()), src)
		ch <- prometheus.MustNewConstMetric(aboveDesc, prometheus.GaugeValue, float64(m.Above200ms), src, strconv.Itoa(pinglog.Threshold200ms))
		ch <- prometheus.MustNewConstMetric(aboveDesc, prometheus.GaugeValue, float64(m.Above500ms), src, strconv.Itoa(pinglog.Threshold500ms))
		ch <- prometheus.MustNewConstMetric(timestampDesc, prometheus.GaugeValue, float64(s.UpdatedAt.Unix()), src)

		present := 0.0
		if m.HasSummary() {
			present = 1
			ch <- prometheus.MustNewConstMetric(sentDesc, prometheus.GaugeValue, float64(m.Summary.Sent), src)
			ch <- prometheus.MustNewConstMetric(receivedDesc, prometheus.GaugeValue, float64(m.Summary.Received), src)
			ch <- prometheus.MustNewConstMetric(lostDesc, prometheus.GaugeValue, float64(m.Summary.Lost), src)
			ch <- prometheus.MustNewConstMetric(lossDesc, prometheus.GaugeValue, m.Summary.LostPercentage, src)
		}
		ch <- prometheus.MustNewConstMetric(summaryDesc, prometheus.GaugeValue, present, src)

		if s.Stats.Count > 0 {
			ch <- prometheus.MustNewConstMetric(rttDesc, prometheus.GaugeValue, float64(s.Stats.Min), src, "min")
			ch <- prometheus.MustNewConstMetric(rttDesc, prometheus.GaugeValue, float64(s.Stats.Max), src, "max")
			ch <- prometheus.MustNewConstMetric(rttDesc, prometheus.GaugeValue, s.Stats.Mean, src, "mean")
			ch <- prometheus.MustNewConstMetric(rttDesc, prometheus.GaugeValue, s.Stats.P95, src, "p95")
		}
	}
}
