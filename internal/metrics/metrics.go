// Package metrics provides the centralized Prometheus metrics registry for the engine.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stakeleague"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	JoinsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "joins_total",
		Help:      "Join attempts by outcome; rejected joins carry the rejection reason",
	}, []string{"result"})
	StakeEntriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stake_entries_total",
		Help:      "ManGoSet stake entries by outcome",
	}, []string{"result"})
	QueueJobsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "queue_jobs_total",
		Help:      "Queue jobs worked by kind and status",
	}, []string{"kind", "status"})
	OutboundRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outbound_requests_total",
		Help:      "Requests to external collaborators by client and status",
	}, []string{"client", "status"})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(JoinsTotal)
		registry.MustRegister(StakeEntriesTotal)
		registry.MustRegister(QueueJobsTotal)
		registry.MustRegister(OutboundRequestsTotal)

		registry.MustRegister(SettlementsTotal)
		registry.MustRegister(PayoutsTotal)
		registry.MustRegister(PayoutAmountTotal)
		registry.MustRegister(SettlementDuration)

		registry.MustRegister(AchievementsGrantedTotal)
		registry.MustRegister(AchievementRuleErrorsTotal)
		registry.MustRegister(AchievementRuleDuration)

		registry.MustRegister(RecalculationsTotal)
		registry.MustRegister(RecalculationDuration)
		registry.MustRegister(RecalculationRecords)
		registry.MustRegister(RecalculationChanged)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns an HTTP handler serving the registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordJoin records a join attempt. result is "accepted" or a rejection reason.
func RecordJoin(result string) {
	JoinsTotal.WithLabelValues(result).Inc()
}

// RecordStakeEntry records a stake entry attempt.
func RecordStakeEntry(result string) {
	StakeEntriesTotal.WithLabelValues(result).Inc()
}

// RecordQueueJob records a worked job.
func RecordQueueJob(kind, status string) {
	QueueJobsTotal.WithLabelValues(kind, status).Inc()
}

// RecordOutboundRequest records a call to an external collaborator.
func RecordOutboundRequest(client, status string) {
	OutboundRequestsTotal.WithLabelValues(client, status).Inc()
}
