package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scenegen_ai_requests_total",
			Help: "Total number of requests to the AI API.",
		},
		[]string{"model", "status"},
	)
	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scenegen_ai_request_duration_seconds",
			Help:    "Histogram of AI API request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)
	aiTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scenegen_ai_tokens",
			Help:    "Histogram of token counts per AI request.",
			Buckets: prometheus.LinearBuckets(100, 200, 20),
		},
		[]string{"model", "kind"},
	)
	contentFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scenegen_content_fallbacks_total",
			Help: "Scenes whose content came from the deterministic fallback generator.",
		},
		[]string{"layout", "reason"},
	)
	stockSearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scenegen_stock_searches_total",
			Help: "Stock media resolutions by media type and outcome.",
		},
		[]string{"media", "outcome"},
	)
	generationRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scenegen_generation_runs_total",
			Help: "Generation runs by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)
	generationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scenegen_generation_duration_seconds",
			Help:    "Wall time of a full generation run.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
		[]string{"kind"},
	)
)
