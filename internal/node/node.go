package node

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tcfw/votechain/internal/config"
	"github.com/tcfw/votechain/internal/metrics"
	"github.com/tcfw/votechain/internal/storage"
	"github.com/tcfw/votechain/internal/utils/logging"
	"github.com/tcfw/votechain/pkg/ledger"
	"github.com/tcfw/votechain/pkg/query"
	"github.com/tcfw/votechain/pkg/vote"
)

// Node wires the ledger, its store and the services built on top of it.
type Node struct {
	cfg    *config.Config
	store  ledger.Store
	ledger *ledger.Ledger
	votes  *vote.Service
	view   *query.View

	logger *logrus.Entry
}

func (n *Node) Config() *config.Config {
	return n.cfg
}

func (n *Node) Votes() *vote.Service {
	return n.votes
}

func (n *Node) View() *query.View {
	return n.view
}

// Tamperer returns the demo tamper capability, or ledger.ErrTamperDisabled
// unless ledger.demo.allowTamper is set.
func (n *Node) Tamperer() (*ledger.Tamperer, error) {
	return n.ledger.Tamperer()
}

// Append seals an arbitrary payload outside the ballot path.
func (n *Node) Append(ctx context.Context, p ledger.Payload) (ledger.Block, error) {
	return n.ledger.Append(ctx, p, time.Time{})
}

func NewNode(ctx context.Context, opts ...NodeOption) (*Node, error) {
	n := &Node{
		logger: logging.Entry().WithField("component", "node"),
	}

	for _, opt := range opts {
		if err := opt(n); err != nil {
			return nil, err
		}
	}

	if n.cfg == nil {
		cfg, err := config.GetConfig()
		if err != nil {
			return nil, err
		}
		n.cfg = cfg
	}

	lcfg := n.cfg.Ledger()

	if n.store == nil {
		s, err := openStore(lcfg.DataDir)
		if err != nil {
			return nil, err
		}
		n.store = s
	}

	l, err := ledger.Open(ctx,
		ledger.WithStore(n.store),
		ledger.WithAppendAttempts(lcfg.AppendAttempts),
		ledger.WithTampering(lcfg.AllowTamper),
		ledger.WithGenesis(lcfg.Genesis),
		ledger.WithObserver(metrics.Observer{}),
		ledger.WithLogger(n.logger.WithField("component", "ledger")),
	)
	if err != nil {
		n.store.Close()
		return nil, errors.Wrap(err, "opening ledger")
	}
	n.ledger = l

	vcfg := n.cfg.Votes()
	n.votes, err = vote.NewService(l, vote.WithFilterEstimates(vcfg.ExpectedVoters, vcfg.FalsePositive))
	if err != nil {
		l.Close()
		return nil, errors.Wrap(err, "starting vote service")
	}

	n.view = query.NewView(l)

	if lcfg.AllowTamper {
		n.logger.Warn("demo tampering is enabled; do not use this node for a real election")
	}

	return n, nil
}

func openStore(dir string) (ledger.Store, error) {
	if dir == "" {
		logging.Entry().Debug("no data dir, keeping ledger in memory")
		return ledger.NewMemStore(), nil
	}

	s, err := storage.NewPebbleStore(dir)
	if err != nil {
		return nil, errors.Wrap(err, "initing storage")
	}

	return s, nil
}

func (n *Node) Stop() error {
	n.logger.Warn("Shutting down")

	return n.ledger.Close()
}
