package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tcfw/votechain/pkg/ledger"
)

// Registry holds every votechain collector; it is served by Handler.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		BlocksAppended, AppendConflicts, Validations, Tampered, ChainLength,
	)
}

var BlocksAppended = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "votechain_blocks_appended_total",
		Help: "Blocks sealed and published",
	},
)

var AppendConflicts = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "votechain_append_conflicts_total",
		Help: "Append attempts that lost the race for the head",
	},
)

var Validations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "votechain_validations_total",
		Help: "Chain validations by outcome",
	},
	[]string{"result"}, // valid | invalid
)

var Tampered = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "votechain_tampered_blocks_total",
		Help: "Blocks rewritten through the demo tamper path",
	},
)

var ChainLength = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "votechain_chain_length",
		Help: "Blocks in the ledger including genesis",
	},
)

// Observer feeds ledger events into the collectors.
type Observer struct{}

var _ ledger.Observer = Observer{}

func (Observer) Appended(b ledger.Block) {
	BlocksAppended.Inc()
	ChainLength.Set(float64(b.Index() + 1))
}

func (Observer) Conflict(int) {
	AppendConflicts.Inc()
}

func (Observer) Validated(r ledger.Report) {
	if r.Valid {
		Validations.WithLabelValues("valid").Inc()
	} else {
		Validations.WithLabelValues("invalid").Inc()
	}
	ChainLength.Set(float64(r.Length))
}

func (Observer) Tampered(ledger.Block) {
	Tampered.Inc()
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
