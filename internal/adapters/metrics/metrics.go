// Package metrics records client request, query and fetch counters in a
// private Prometheus registry. A CLI process is short lived, so the registry
// is flushed to a node-exporter textfile instead of being scraped.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Sanskargoyal608/Eziii/internal/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ez"

// StatusTransportError labels requests that never produced an HTTP status.
const StatusTransportError = 0

type Registry struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	queriesTotal    *prometheus.CounterVec
	expiriesTotal   prometheus.Counter
	fetchesTotal    *prometheus.CounterVec
	malformedTotal  *prometheus.CounterVec
}

var _ ports.Metrics = (*Registry)(nil)

func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Registry{
		registry: reg,
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Backend requests sent, by origin, method and response status (0 = transport failure).",
			},
			[]string{"origin", "method", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Round trip time of backend requests.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"origin"},
		),
		queriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_total",
				Help:      "Chat queries submitted, by role and outcome (resolved, failed, stale).",
			},
			[]string{"role", "outcome"},
		),
		expiriesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "session_expiries_total",
				Help:      "Sessions ended by a 401 on a student request.",
			},
		),
		fetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resource_fetches_total",
				Help:      "List fetches, by resource kind and outcome.",
			},
			[]string{"kind", "outcome"},
		),
		malformedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "malformed_fields_total",
				Help:      "Record fields that could not be read and were shown as N/A.",
			},
			[]string{"kind"},
		),
	}
}

func (r *Registry) ObserveRequest(origin ports.Origin, method string, status int, elapsed time.Duration) {
	r.requestsTotal.WithLabelValues(string(origin), method, strconv.Itoa(status)).Inc()
	r.requestDuration.WithLabelValues(string(origin)).Observe(elapsed.Seconds())
}

func (r *Registry) CountQuery(role string, outcome string) {
	r.queriesTotal.WithLabelValues(role, outcome).Inc()
}

func (r *Registry) CountSessionExpiry() {
	r.expiriesTotal.Inc()
}

func (r *Registry) CountFetch(kind string, outcome string, malformedFields int) {
	r.fetchesTotal.WithLabelValues(kind, outcome).Inc()
	if malformedFields > 0 {
		r.malformedTotal.WithLabelValues(kind).Add(float64(malformedFields))
	}
}

func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes the current values in the Prometheus text format.
func (r *Registry) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
