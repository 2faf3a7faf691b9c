package metric

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tokgate"

// Logout reasons.
const (
	ReasonExpired   = "expired"
	ReasonMalformed = "malformed"
	ReasonManual    = "manual"
)

// Registry holds all application metrics.
type Registry struct {
	reg *prometheus.Registry

	WatcherTicks  prometheus.Counter
	Logouts       *prometheus.CounterVec
	RequestsBuilt *prometheus.CounterVec
	AuthGaps      prometheus.Counter
	Validations   *prometheus.CounterVec
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
}

// NewRegistry creates a registry with every tokgate metric registered.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		WatcherTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "watcher_ticks_total",
			Help:      "Expiration checks run by the session watcher.",
		}),
		Logouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logouts_total",
			Help:      "Session logouts by reason.",
		}, []string{"reason"}),
		RequestsBuilt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_built_total",
			Help:      "Request configurations built, by entry point and whether auth was injected.",
		}, []string{"mode", "auth"}),
		AuthGaps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_auth_gap_total",
			Help:      "Requests that asked for auth while no token was held.",
		}),
		Validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validations_total",
			Help:      "Debounced field validations by result.",
		}, []string{"result"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Outgoing HTTP requests by method and status code.",
		}, []string{"method", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Outgoing HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}

	r.reg.MustRegister(
		r.WatcherTicks,
		r.Logouts,
		r.RequestsBuilt,
		r.AuthGaps,
		r.Validations,
		r.HTTPRequests,
		r.HTTPDuration,
	)
	return r
}

// Register adds an extra collector, e.g. a SessionCollector.
func (r *Registry) Register(c prometheus.Collector) error {
	if r == nil {
		return nil
	}
	return r.reg.Register(c)
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// ObserveTick counts one watcher tick.
func (r *Registry) ObserveTick() {
	if r == nil {
		return
	}
	r.WatcherTicks.Inc()
}

// ObserveLogout counts a logout.
func (r *Registry) ObserveLogout(reason string) {
	if r == nil {
		return
	}
	r.Logouts.WithLabelValues(reason).Inc()
}

// ObserveRequestBuilt counts a built request configuration.
func (r *Registry) ObserveRequestBuilt(mode string, auth bool) {
	if r == nil {
		return
	}
	r.RequestsBuilt.WithLabelValues(mode, strconv.FormatBool(auth)).Inc()
}

// ObserveAuthGap counts a request that asked for auth without a token.
func (r *Registry) ObserveAuthGap() {
	if r == nil {
		return
	}
	r.AuthGaps.Inc()
}

// ObserveValidation counts a field validation outcome.
func (r *Registry) ObserveValidation(result string) {
	if r == nil {
		return
	}
	r.Validations.WithLabelValues(result).Inc()
}

// ObserveHTTP records an outgoing HTTP request.
func (r *Registry) ObserveHTTP(method string, code int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.HTTPRequests.WithLabelValues(method, strconv.Itoa(code)).Inc()
	r.HTTPDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}
