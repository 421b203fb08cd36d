package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics counts reconciliation outcomes per gateway.
type PaymentMetrics struct {
	completions *prometheus.CounterVec
	webhooks    *prometheus.CounterVec
}

// NewPaymentMetrics registers the payment counters. A nil registerer yields
// a no-op recorder.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	completions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_completions_total",
		Help: "Payment completion attempts by gateway, entry path and outcome.",
	}, []string{"gateway", "path", "outcome"})
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhooks_total",
		Help: "Gateway webhook deliveries by outcome.",
	}, []string{"gateway", "outcome"})
	reg.MustRegister(completions, webhooks)
	return &PaymentMetrics{completions: completions, webhooks: webhooks}
}

// IncCompletion records one completion attempt. path is verify, webhook or
// record.
func (m *PaymentMetrics) IncCompletion(gateway, path, outcome string) {
	if m == nil || m.completions == nil {
		return
	}
	m.completions.WithLabelValues(normalizeLabel(gateway), normalizeLabel(path), normalizeLabel(outcome)).Inc()
}

func (m *PaymentMetrics) IncWebhook(gateway, outcome string) {
	if m == nil || m.webhooks == nil {
		return
	}
	m.webhooks.WithLabelValues(normalizeLabel(gateway), normalizeLabel(outcome)).Inc()
}

// PayoutMetrics counts transfer results per provider.
type PayoutMetrics struct {
	transfers *prometheus.CounterVec
}

func NewPayoutMetrics(reg prometheus.Registerer) *PayoutMetrics {
	if reg == nil {
		return &PayoutMetrics{}
	}
	transfers := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payout_transfers_total",
		Help: "Vendor payout transfers by provider and normalized status.",
	}, []string{"provider", "status"})
	reg.MustRegister(transfers)
	return &PayoutMetrics{transfers: transfers}
}

func (m *PayoutMetrics) IncTransfer(provider, status string) {
	if m == nil || m.transfers == nil {
		return
	}
	m.transfers.WithLabelValues(normalizeLabel(provider), normalizeLabel(status)).Inc()
}
