package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/model"
)

const namespace = "dispatch"

type Recorder struct {
	operations          *prometheus.CounterVec
	durations           *prometheus.HistogramVec
	stockLevel          *prometheus.GaugeVec
	invariantViolations prometheus.Counter
	compensations       *prometheus.CounterVec
	eventFailures       *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Service operations by name and outcome.",
		}, []string{"operation", "outcome"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Service operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		stockLevel: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stock_available_quantity",
			Help:      "Last observed available quantity per product spec.",
		}, []string{"product_type", "size", "thickness"}),
		invariantViolations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invariant_violations_total",
			Help:      "Fulfillment invariant violations detected.",
		}),
		compensations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_compensations_total",
			Help:      "Stock compensations after failed commits.",
		}, []string{"outcome"}),
		eventFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_publish_failures_total",
			Help:      "Events that could not be published.",
		}, []string{"event"}),
	}

	reg.MustRegister(
		r.operations,
		r.durations,
		r.stockLevel,
		r.invariantViolations,
		r.compensations,
		r.eventFailures,
	)

	return r
}

func (r *Recorder) Observe(operation string, err error, d time.Duration) {
	r.operations.WithLabelValues(operation, Outcome(err)).Inc()
	r.durations.WithLabelValues(operation).Observe(d.Seconds())
	if errors.Is(err, model.ErrInvariantViolation) {
		r.invariantViolations.Inc()
	}
}

func (r *Recorder) StockLevel(spec model.ProductSpec, qty decimal.Decimal) {
	r.stockLevel.WithLabelValues(spec.ProductType, spec.Size, spec.Thickness).Set(qty.InexactFloat64())
}

func (r *Recorder) Compensation(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	r.compensations.WithLabelValues(outcome).Inc()
}

func (r *Recorder) EventPublishFailed(event string) {
	r.eventFailures.WithLabelValues(event).Inc()
}

// Outcome maps an error to a low-cardinality label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, model.ErrValidation):
		return "validation"
	case errors.Is(err, model.ErrNotFound):
		return "not_found"
	case errors.Is(err, model.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, model.ErrConflict):
		return "conflict"
	case errors.Is(err, model.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, model.ErrInvariantViolation):
		return "invariant_violation"
	default:
		return "error"
	}
}
