package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SearchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scout_search_requests_total",
			Help: "Total number of search API page requests, by HTTP status or \"error\"",
		},
		[]string{"status"},
	)

	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scout_search_duration_seconds",
			Help:    "Duration of search API page requests in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)

	VariantFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scout_variant_failures_total",
			Help: "Query variants that produced no results because every call failed",
		},
		[]string{"variant"},
	)

	JudgeOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scout_judge_outcomes_total",
			Help: "Judge results by strategy and whether the fallback path was taken",
		},
		[]string{"strategy", "result"},
	)

	TopicOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scout_topic_outcomes_total",
			Help: "Topic pipeline outcomes by status",
		},
		[]string{"status"},
	)
)

// RecordSearch records one search API page request. status is the HTTP
// status code, or 0 when no response was received.
func RecordSearch(status int, d time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	SearchRequestsTotal.WithLabelValues(label).Inc()
	SearchDuration.Observe(d.Seconds())
}

// RecordJudge records a judge outcome.
func RecordJudge(strategy string, fallback bool) {
	result := "selected"
	if fallback {
		result = "fallback"
	}
	JudgeOutcomes.WithLabelValues(strategy, result).Inc()
}

// Server encapsulates an HTTP server for Prometheus metrics.
type Server struct {
	srv *http.Server
}

// Start begins listening on the specified port and exposes /metrics.
func Start(port int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "port", port, "err", err)
		}
	}()

	return &Server{srv: srv}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
