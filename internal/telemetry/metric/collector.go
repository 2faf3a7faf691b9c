package metric

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/tokgate/internal/core/domain"
)

// StateSource provides the current session snapshot.
type StateSource interface {
	State() domain.SessionState
}

// SessionCollector reports session state at scrape time.
type SessionCollector struct {
	src           StateSource
	authenticated *prometheus.Desc
	watching      *prometheus.Desc
	expired       *prometheus.Desc
}

// NewSessionCollector creates a collector reading from src.
func NewSessionCollector(src StateSource) *SessionCollector {
	return &SessionCollector{
		src: src,
		authenticated: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "session", "authenticated"),
			"1 when a token is held.", nil, nil),
		watching: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "session", "watching"),
			"1 when the expiration watcher is scheduled.", nil, nil),
		expired: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "session", "expired"),
			"1 when the session has been observed as expired.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *SessionCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.authenticated
	ch <- c.watching
	ch <- c.expired
}

// Collect implements prometheus.Collector.
func (c *SessionCollector) Collect(ch chan<- prometheus.Metric) {
	st := c.src.State()
	ch <- prometheus.MustNewConstMetric(c.authenticated, prometheus.GaugeValue,
		boolToFloat(st.State == domain.StateAuthenticated))
	ch <- prometheus.MustNewConstMetric(c.watching, prometheus.GaugeValue, boolToFloat(st.Watching))
	ch <- prometheus.MustNewConstMetric(c.expired, prometheus.GaugeValue, boolToFloat(st.Expired))
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
