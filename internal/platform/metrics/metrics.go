package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Process-wide ballot counters. Registered on the default registry and
// served from /metrics.
var (
	ProposalsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "balloteer_proposals_created_total",
		Help: "Proposals opened across all communities.",
	})
	VotesCast = promauto.NewCounter(prometheus.CounterOpts{
		Name: "balloteer_votes_cast_total",
		Help: "Votes accepted, including weight moves.",
	})
	ProposalsClosed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "balloteer_proposals_closed_total",
		Help: "Proposals closed, by trigger.",
	}, []string{"mode"})
	ResultsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "balloteer_results_published_total",
		Help: "Result announcements handed to the notification gateway.",
	})
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "balloteer_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status class.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "status"})
)

const (
	CloseModeAdmin = "admin"
	CloseModeAuto  = "auto"
)

// Handler serves the Prometheus exposition endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
