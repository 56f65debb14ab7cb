// Package metrics содержит prometheus-счетчики решений охранников.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/publiccircle/access-gateway/internal/models"
)

// Metrics набор счетчиков шлюза.
type Metrics struct {
	decisions     *prometheus.CounterVec
	fetchFailures prometheus.Counter
	cacheResults  *prometheus.CounterVec
}

// New регистрирует счетчики в reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "access_decisions_total",
			Help: "Guard decisions by guard and outcome.",
		}, []string{"guard", "decision"}),
		fetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "subscription_fetch_failures_total",
			Help: "Subscription status fetches that failed and were treated as cancelled.",
		}),
		cacheResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "subscription_cache_results_total",
			Help: "Subscription status cache lookups by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.decisions, m.fetchFailures, m.cacheResults)
	return m
}

// ObserveDecision учитывает решение охранника.
func (m *Metrics) ObserveDecision(guard string, d models.Decision) {
	m.decisions.WithLabelValues(guard, string(d)).Inc()
}

// SubscriptionFetchFailed учитывает неудачный запрос статуса подписки.
func (m *Metrics) SubscriptionFetchFailed() {
	m.fetchFailures.Inc()
}

// CacheResult учитывает результат обращения к кешу.
func (m *Metrics) CacheResult(result string) {
	m.cacheResults.WithLabelValues(result).Inc()
}
