package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics records checkout outcomes.
type OrderMetrics struct {
	placed   prometheus.Counter
	rejected *prometheus.CounterVec
	value    prometheus.Histogram
}

// NewOrderMetrics registers the checkout metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	placed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders committed successfully.",
	})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_rejected_total",
		Help: "Orders rejected before commit.",
	}, []string{"reason"})
	value := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_value",
		Help:    "Total amount of committed orders.",
		Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 5000},
	})
	reg.MustRegister(placed, rejected, value)
	return &OrderMetrics{
		placed:   placed,
		rejected: rejected,
		value:    value,
	}
}

// IncPlaced increments the committed-order counter.
func (o *OrderMetrics) IncPlaced() {
	if o == nil || o.placed == nil {
		return
	}
	o.placed.Inc()
}

// IncRejected increments the rejection counter for the given reason.
func (o *OrderMetrics) IncRejected(reason string) {
	if o == nil || o.rejected == nil {
		return
	}
	o.rejected.WithLabelValues(normalizeLabel(reason)).Inc()
}

// ObserveValue records the total amount of a committed order.
func (o *OrderMetrics) ObserveValue(amount float64) {
	if o == nil || o.value == nil {
		return
	}
	o.value.Observe(amount)
}

// IngestionMetrics records bulk CSV import outcomes per kind.
type IngestionMetrics struct {
	processed *prometheus.CounterVec
	rejected  *prometheus.CounterVec
}

// NewIngestionMetrics registers the ingestion metrics on the provided registerer.
func NewIngestionMetrics(reg prometheus.Registerer) *IngestionMetrics {
	if reg == nil {
		return &IngestionMetrics{}
	}
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingestion_rows_processed_total",
		Help: "CSV rows imported successfully.",
	}, []string{"kind"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingestion_rows_rejected_total",
		Help: "CSV rows skipped during import.",
	}, []string{"kind"})
	reg.MustRegister(processed, rejected)
	return &IngestionMetrics{
		processed: processed,
		rejected:  rejected,
	}
}

// AddProcessed adds to the processed-row counter for the given kind.
func (i *IngestionMetrics) AddProcessed(kind string, n int) {
	if i == nil || i.processed == nil || n <= 0 {
		return
	}
	i.processed.WithLabelValues(normalizeLabel(kind)).Add(float64(n))
}

// AddRejected adds to the rejected-row counter for the given kind.
func (i *IngestionMetrics) AddRejected(kind string, n int) {
	if i == nil || i.rejected == nil || n <= 0 {
		return
	}
	i.rejected.WithLabelValues(normalizeLabel(kind)).Add(float64(n))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
