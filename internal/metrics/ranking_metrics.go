// Package metrics defines rank recalculation metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recalculation metrics
var (
	RecalculationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rank_recalculations_total",
		Help:      "Rank recalculation passes by status",
	}, []string{"status"})
	RecalculationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "rank_recalculation_duration_seconds",
		Help:      "Duration of a full rank recalculation pass",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
	})
	RecalculationRecords = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rank_recalculation_records",
		Help:      "Rank records read by the last pass",
	})
	RecalculationChanged = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rank_recalculation_changed",
		Help:      "Rank records whose position moved in the last pass",
	})
)

// RecordRecalculation records a finished pass.
func RecordRecalculation(status string, durationSeconds float64, records, changed int) {
	RecalculationsTotal.WithLabelValues(status).Inc()
	RecalculationDuration.Observe(durationSeconds)
	if status == "success" {
		RecalculationRecords.Set(float64(records))
		RecalculationChanged.Set(float64(changed))
	}
}
