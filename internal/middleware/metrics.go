package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	messagesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dialogue_bot_messages_received_total",
		Help: "Total number of messages received",
	}, []string{"kind"})

	commandsExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dialogue_bot_commands_executed_total",
		Help: "Total number of commands executed",
	}, []string{"command"})

	generations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dialogue_bot_generations_total",
		Help: "Total number of response generations by outcome",
	}, []string{"outcome"})

	completionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dialogue_bot_completion_duration_seconds",
		Help:    "Duration of remote completion calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"model"})

	confirmations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dialogue_bot_confirmations_total",
		Help: "Total number of confirmation resolutions",
	}, []string{"resolution"})

	historyOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dialogue_bot_history_operations_total",
		Help: "Total number of history store operations",
	}, []string{"operation", "status"})

	rateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dialogue_bot_rate_limited_total",
		Help: "Total number of rate-limited messages",
	})
)

// Metrics provides methods to record metrics
type Metrics struct{}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordMessageReceived records a received update
func (m *Metrics) RecordMessageReceived(kind string) {
	messagesReceived.WithLabelValues(kind).Inc()
}

// RecordCommandExecuted records an executed command
func (m *Metrics) RecordCommandExecuted(command string) {
	commandsExecuted.WithLabelValues(command).Inc()
}

// RecordGeneration records a generation attempt by outcome
func (m *Metrics) RecordGeneration(outcome string) {
	generations.WithLabelValues(outcome).Inc()
}

// RecordCompletion records a remote completion call
func (m *Metrics) RecordCompletion(model string, duration time.Duration) {
	completionDuration.WithLabelValues(model).Observe(duration.Seconds())
}

// RecordConfirmation records a confirmation resolution
func (m *Metrics) RecordConfirmation(resolution string) {
	confirmations.WithLabelValues(resolution).Inc()
}

// RecordHistoryOperation records a history store operation
func (m *Metrics) RecordHistoryOperation(operation, status string) {
	historyOperations.WithLabelValues(operation, status).Inc()
}

// RecordRateLimited records a rate-limited message
func (m *Metrics) RecordRateLimited() {
	rateLimited.Inc()
}

// StartMetricsServer starts the metrics HTTP server
func StartMetricsServer(port int, path string) error {
	router := mux.NewRouter()
	router.Handle(path, promhttp.Handler())

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return server.ListenAndServe()
}
