package metrics

import (
  "net/http"

  "github.com/prometheus/client_golang/prometheus"
  "github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
  // API metrics
  APIRequestDuration = prometheus.NewHistogramVec(
    prometheus.HistogramOpts{
      Name:    "api_request_duration_seconds",
      Help:    "API request duration",
      Buckets: prometheus.DefBuckets,
    },
    []string{"method", "endpoint", "status"},
  )
  APIRequestTotal = prometheus.NewCounterVec(
    prometheus.CounterOpts{
      Name: "api_requests_total",
      Help: "Total API requests",
    },
    []string{"method", "endpoint", "status"},
  )

  // Recommendation metrics
  RecommendationsTotal = prometheus.NewCounterVec(
    prometheus.CounterOpts{
      Name: "recommendations_total",
      Help: "Recommendations served, labeled by goal",
    },
    []string{"goal"},
  )
  UnknownGoalTotal = prometheus.NewCounter(
    prometheus.CounterOpts{
      Name: "recommendations_unknown_goal_total",
      Help: "Requests rejected because the goal is not in the universe",
    })

  // Quote fetch metrics
  QuoteFetchLatency = prometheus.NewHistogramVec(
    prometheus.HistogramOpts{
      Name:    "quote_fetch_latency_seconds",
      Help:    "Time to fetch one symbol quote from the provider",
      Buckets: prometheus.DefBuckets,
    },
    []string{"provider"},
  )
  QuoteFetchErrors = prometheus.NewCounterVec(
    prometheus.CounterOpts{
      Name: "quote_fetch_errors_total",
      Help: "Per-symbol quote fetch failures by error kind",
    },
    []string{"provider", "kind"},
  )
  QuoteCacheHits = prometheus.NewCounter(
    prometheus.CounterOpts{
      Name: "quote_cache_hits_total",
      Help: "Quote snapshots served from cache",
    })
  QuoteCacheMisses = prometheus.NewCounter(
    prometheus.CounterOpts{
      Name: "quote_cache_misses_total",
      Help: "Quote snapshots that required a provider call",
    })

  // Intent metrics
  IntentPredictions = prometheus.NewCounterVec(
    prometheus.CounterOpts{
      Name: "intent_predictions_total",
      Help: "Smart recommend predictions by predicted goal",
    },
    []string{"goal"},
  )
  IntentMisses = prometheus.NewCounter(
    prometheus.CounterOpts{
      Name: "intent_misses_total",
      Help: "Queries the intent index could not map to any goal",
    })

  // Redis metrics
  RedisOperationDuration = prometheus.NewHistogramVec(
    prometheus.HistogramOpts{
      Name:    "redis_operation_duration_seconds",
      Help:    "Redis operation duration",
      Buckets: prometheus.DefBuckets,
    },
    []string{"operation", "status"},
  )
  RedisErrors = prometheus.NewCounterVec(
    prometheus.CounterOpts{
      Name: "redis_errors_total",
      Help: "Total Redis errors",
    },
    []string{"operation"},
  )
)

func init() {
  // MustRegister panics if registration fails (e.g. duplicate)
  prometheus.MustRegister(
    APIRequestDuration, APIRequestTotal,
    RecommendationsTotal, UnknownGoalTotal,
    QuoteFetchLatency, QuoteFetchErrors,
    QuoteCacheHits, QuoteCacheMisses,
    IntentPredictions, IntentMisses,
    RedisOperationDuration, RedisErrors,
  )
}

// Handler exposes the registry for the /metrics endpoint.
func Handler() http.Handler {
  return promhttp.Handler()
}
