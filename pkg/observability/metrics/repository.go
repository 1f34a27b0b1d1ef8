package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "asyncrepo"

// Operation outcomes
const (
	OutcomeSuccess = "success"
	OutcomeEmpty   = "empty"
	OutcomeError   = "error"
)

// RepositoryMetrics records facade operations, streamed items, batch outcomes
// and open cursors. A nil *RepositoryMetrics records nothing.
type RepositoryMetrics struct {
	operationDuration *prometheus.HistogramVec
	streamItems       *prometheus.CounterVec
	batchOutcomes     *prometheus.CounterVec
	openCursors       prometheus.Gauge
}

// NewRepositoryMetrics creates the repository metrics and registers them with reg.
func NewRepositoryMetrics(reg prometheus.Registerer) *RepositoryMetrics {
	factory := promauto.With(reg)
	return &RepositoryMetrics{
		// Labels: operation, outcome
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of repository operations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation", "outcome"},
		),
		streamItems: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stream_items_total",
				Help:      "Total number of items emitted by repository streams",
			},
			[]string{"operation"},
		),
		// Labels: operation, success
		batchOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batch_outcomes_total",
				Help:      "Total number of batch write outcomes",
			},
			[]string{"operation", "success"},
		),
		openCursors: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "open_cursors",
				Help:      "Number of database cursors currently open",
			},
		),
	}
}

// ObserveOperation records the duration of one operation.
func (m *RepositoryMetrics) ObserveOperation(operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.operationDuration.WithLabelValues(operation, outcome).Observe(d.Seconds())
}

// StreamItem counts one emitted item.
func (m *RepositoryMetrics) StreamItem(operation string) {
	if m == nil {
		return
	}
	m.streamItems.WithLabelValues(operation).Inc()
}

// BatchOutcome counts one batch write outcome.
func (m *RepositoryMetrics) BatchOutcome(operation string, success bool) {
	if m == nil {
		return
	}
	m.batchOutcomes.WithLabelValues(operation, strconv.FormatBool(success)).Inc()
}

// CursorOpened increments the open cursor gauge.
func (m *RepositoryMetrics) CursorOpened() {
	if m == nil {
		return
	}
	m.openCursors.Inc()
}

// CursorClosed decrements the open cursor gauge.
func (m *RepositoryMetrics) CursorClosed() {
	if m == nil {
		return
	}
	m.openCursors.Dec()
}
