package metrics

import (
	"errors"
	"net/http"

	"github.com/hyperledger/sawtooth-sdk-go/processor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultApplied  = "applied"
	ResultRejected = "rejected"
	ResultInternal = "internal_error"
)

// Metrics counts the transactions applied by the processor.
type Metrics struct {
	registry     *prometheus.Registry
	transactions *prometheus.CounterVec
	tallied      prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voting",
			Name:      "transactions_total",
			Help:      "Voting family transactions by action and result.",
		}, []string{"action", "result"}),
		tallied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voting",
			Name:      "ballots_tallied_total",
			Help:      "Ballots that reached the VotesTallied status.",
		}),
	}
	m.registry.MustRegister(m.transactions, m.tallied)

	return m
}

func (m *Metrics) ObserveTransaction(action string, err error) {
	m.transactions.WithLabelValues(action, result(err)).Inc()
}

func (m *Metrics) ObserveTally() {
	m.tallied.Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func result(err error) string {
	if err == nil {
		return ResultApplied
	}

	var invalid *processor.InvalidTransactionError
	if errors.As(err, &invalid) {
		return ResultRejected
	}
	return ResultInternal
}
