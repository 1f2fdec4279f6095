// Package metrics defines settlement and achievement metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Settlement metrics
var (
	SettlementsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "settlements_total",
		Help:      "Settlement runs by status",
	}, []string{"status"})
	PayoutsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payouts_total",
		Help:      "Winner payouts by status",
	}, []string{"status"})
	PayoutAmountTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payout_amount_total",
		Help:      "Sum of prize money credited to winners",
	})
	SettlementDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "settlement_duration_seconds",
		Help:      "Time taken to settle one competition",
		Buckets:   prometheus.DefBuckets,
	})
)

// Achievement metrics
var (
	AchievementsGrantedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "achievements_granted_total",
		Help:      "Achievements granted by name",
	}, []string{"name"})
	AchievementRuleErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "achievement_rule_errors_total",
		Help:      "Swallowed rule failures by achievement name",
	}, []string{"name"})
	AchievementRuleDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "achievement_rule_duration_seconds",
		Help:      "Rule evaluation time by achievement name",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"name"})
)

// RecordSettlement records a settlement run.
// status should be one of: "settled", "skipped", "failed"
func RecordSettlement(status string, durationSeconds float64) {
	SettlementsTotal.WithLabelValues(status).Inc()
	SettlementDuration.Observe(durationSeconds)
}

// RecordPayout records one winner payout.
func RecordPayout(status string, amount float64) {
	PayoutsTotal.WithLabelValues(status).Inc()
	if status == "credited" {
		PayoutAmountTotal.Add(amount)
	}
}

// RecordAchievementGranted records a new grant.
func RecordAchievementGranted(name string) {
	AchievementsGrantedTotal.WithLabelValues(name).Inc()
}

// RecordAchievementRule records a rule evaluation and whether it failed.
func RecordAchievementRule(name string, durationSeconds float64, failed bool) {
	AchievementRuleDuration.WithLabelValues(name).Observe(durationSeconds)
	if failed {
		AchievementRuleErrorsTotal.WithLabelValues(name).Inc()
	}
}
