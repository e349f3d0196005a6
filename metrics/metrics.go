// Package metrics exposes Prometheus counters for the registry chaincode.
// Counters are recorded at endorsement time, so they count simulated
// transactions on this peer, not committed blocks.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

var (
	// transactionsTotal counts state-changing transactions by operation and outcome.
	transactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vehicleregistry_transactions_total",
			Help: "State-changing registry transactions simulated on this peer",
		},
		[]string{"operation", "outcome"},
	)

	// securitySignalsTotal counts advisory security signals.
	securitySignalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vehicleregistry_security_signals_total",
			Help: "Advisory security signals raised by permitted but anomalous updates",
		},
		[]string{"signal"},
	)

	// batchSize records the number of entries per batch mint.
	batchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vehicleregistry_batch_size",
			Help:    "Entries per batch mint request",
			Buckets: []float64{1, 5, 10, 25, 50, 75, 100},
		},
	)
)

// ObserveTransaction records the outcome of one operation.
func ObserveTransaction(operation, outcome string) {
	transactionsTotal.WithLabelValues(operation, outcome).Inc()
}

// ObserveSecuritySignal records one advisory signal.
func ObserveSecuritySignal(signal string) {
	securitySignalsTotal.WithLabelValues(signal).Inc()
}

// ObserveBatchSize records the size of a batch mint request.
func ObserveBatchSize(n int) {
	batchSize.Observe(float64(n))
}
