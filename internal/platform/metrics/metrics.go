package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the gateway.
type Metrics struct {
	DirectoryRoundTrips prometheus.Counter
	Searches            *prometheus.CounterVec
	RequestErrors       *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		DirectoryRoundTrips: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dirgate_directory_round_trips_total",
			Help: "Total number of LDAP search round trips, including cursor pages",
		}),
		Searches: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dirgate_searches_total",
			Help: "Total number of logical directory queries by entity kind",
		}, []string{"entity"}),
		RequestErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dirgate_request_errors_total",
			Help: "Total number of requests answered with an error, by kind",
		}, []string{"kind"}),
	}
}

// IncDirectoryRoundTrips counts one LDAP round trip.
func (m *Metrics) IncDirectoryRoundTrips() {
	m.DirectoryRoundTrips.Inc()
}

// IncSearches counts one logical query against the named entity kind.
func (m *Metrics) IncSearches(entity string) {
	m.Searches.WithLabelValues(entity).Inc()
}

// IncRequestErrors counts one failed request by error kind.
func (m *Metrics) IncRequestErrors(kind string) {
	m.RequestErrors.WithLabelValues(kind).Inc()
}
