// Package metrics holds the process-wide Prometheus instruments for the
// generation engine. Exposure (if any) is up to the embedding application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GenerationRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comment_engine_generation_requests_total",
			Help: "Total number of requests to the text-generation provider.",
		},
		[]string{"model", "status"}, // status: success, error, quota, cancelled
	)

	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "comment_engine_generation_duration_seconds",
			Help:    "Histogram of provider request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)

	PromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "comment_engine_prompt_tokens",
			Help:    "Histogram of prompt token counts.",
			Buckets: prometheus.LinearBuckets(100, 100, 20),
		},
		[]string{"model"},
	)

	CompletionTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "comment_engine_completion_tokens",
			Help:    "Histogram of completion token counts.",
			Buckets: prometheus.LinearBuckets(50, 50, 20),
		},
		[]string{"model"},
	)

	EstimatedCostUSD = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comment_engine_estimated_cost_usd_total",
			Help: "Estimated total cost of provider requests in USD.",
		},
		[]string{"model"},
	)

	BatchItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comment_engine_batch_items_total",
			Help: "Batch items by final outcome.",
		},
		[]string{"outcome"}, // success, failed, quota, aborted
	)

	RateLimitWaitSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "comment_engine_rate_limit_wait_seconds",
			Help:    "Histogram of time spent waiting on the rate limiter.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)
)
