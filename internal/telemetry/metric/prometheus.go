// Package metric provides Prometheus metrics for RepoVault.
//
// It exposes issuance, revocation, listing, and HTTP request metrics
// on a dedicated registry served at /metrics.
package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "repovault"

// Registry holds all application metrics.
type Registry struct {
	// Credential metrics
	TokensIssued  prometheus.Counter
	TokensRevoked prometheus.Counter
	TokensListed  prometheus.Counter

	// ListRecords observes how many records a single listing returned.
	ListRecords prometheus.Histogram

	// StorePages observes backend pages fetched per range query.
	StorePages prometheus.Histogram

	// Errors counts failures by error code family (ARG, KMS, STOR, SYS).
	Errors *prometheus.CounterVec

	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewRegistry creates a metrics registry with all application metrics
// registered, plus the standard Go runtime and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Registry{
		TokensIssued: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_issued_total",
			Help:      "Credentials issued.",
		}),
		TokensRevoked: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_revoked_total",
			Help:      "Tokens revoked, including revokes of absent tokens.",
		}),
		TokensListed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_listed_total",
			Help:      "Listing operations served.",
		}),
		ListRecords: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "list_records",
			Help:      "Records returned per listing.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		StorePages: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_pages",
			Help:      "Backend pages fetched per range query.",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64},
		}),
		Errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Errors by code family.",
		}, []string{"family"}),
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		registry: reg,
	}
}

// Handler returns the HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry for tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}
