package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RPCRequestsTotal tracks channel-level calls by final outcome
	RPCRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submitter_rpc_requests_total",
			Help: "Total number of RPC requests by outcome",
		},
		[]string{"method", "outcome"},
	)

	// RPCRetriesTotal tracks attempts retried after a timeout
	RPCRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submitter_rpc_retries_total",
			Help: "Total number of RPC attempts retried after a timeout",
		},
		[]string{"method"},
	)

	// RPCLatency tracks single-attempt latency
	RPCLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "submitter_rpc_latency_seconds",
			Help:    "RPC attempt latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// SubmissionsTotal tracks terminal submission results
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submitter_submissions_total",
			Help: "Total number of transaction submissions by terminal status",
		},
		[]string{"status", "kind"},
	)

	// SubmissionRetriesTotal tracks nonce and expiry retries
	SubmissionRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submitter_submission_retries_total",
			Help: "Total number of submission attempts retried, by rejection kind",
		},
		[]string{"kind"},
	)

	// AccessKeyInvalidations tracks cache entries dropped after InvalidNonce
	AccessKeyInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "submitter_access_key_invalidations_total",
			Help: "Total number of access key cache invalidations",
		},
	)

	// AccessKeyCacheSize tracks the number of cached access keys
	AccessKeyCacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "submitter_access_key_cache_size",
			Help: "Number of access keys held in the cache",
		},
	)
)
