package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DeliveryMetrics records counters for the fulfillment and payout flows.
type DeliveryMetrics struct {
	claims      *prometheus.CounterVec
	transitions *prometheus.CounterVec
	credits     prometheus.Counter
	settlements *prometheus.CounterVec
}

// NewDeliveryMetrics registers the delivery metrics on the provided registerer.
func NewDeliveryMetrics(reg prometheus.Registerer) *DeliveryMetrics {
	if reg == nil {
		return &DeliveryMetrics{}
	}
	claims := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assignment_claims_total",
		Help: "Assignment claim attempts by result.",
	}, []string{"result"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assignment_transitions_total",
		Help: "Assignment status transitions by target status and result.",
	}, []string{"status", "result"})
	credits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wallet_credits_total",
		Help: "Earnings credited to agent wallets.",
	})
	settlements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payout_settlements_total",
		Help: "Payout settlement attempts by result.",
	}, []string{"result"})
	reg.MustRegister(claims, transitions, credits, settlements)
	return &DeliveryMetrics{
		claims:      claims,
		transitions: transitions,
		credits:     credits,
		settlements: settlements,
	}
}

// ObserveClaim counts a claim attempt with the given result label.
func (m *DeliveryMetrics) ObserveClaim(result string) {
	if m == nil || m.claims == nil {
		return
	}
	m.claims.WithLabelValues(result).Inc()
}

// ObserveTransition counts a transition attempt.
func (m *DeliveryMetrics) ObserveTransition(status, result string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(status, result).Inc()
}

// IncCredit counts a successful wallet credit.
func (m *DeliveryMetrics) IncCredit() {
	if m == nil || m.credits == nil {
		return
	}
	m.credits.Inc()
}

// ObserveSettlement counts a payout settlement attempt.
func (m *DeliveryMetrics) ObserveSettlement(result string) {
	if m == nil || m.settlements == nil {
		return
	}
	m.settlements.WithLabelValues(result).Inc()
}
