// Package metrics holds the Prometheus counters exposed on /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "entitlement"

// Outcome labels shared by every counter.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

type Metrics struct {
	Registrations *prometheus.CounterVec
	Logins        *prometheus.CounterVec
	Redemptions   *prometheus.CounterVec
	CardsIssued   prometheus.Counter
}

// New creates the counters and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "License registrations by outcome.",
		}, []string{"outcome"}),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login checks by result code.",
		}, []string{"code"}),
		Redemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redemptions_total",
			Help:      "Card redemptions by outcome.",
		}, []string{"outcome"}),
		CardsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cards_issued_total",
			Help:      "Prepaid cards issued.",
		}),
	}
	reg.MustRegister(m.Registrations, m.Logins, m.Redemptions, m.CardsIssued)
	return m
}

// NewNop returns counters attached to a throwaway registry.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
