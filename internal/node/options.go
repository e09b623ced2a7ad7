package node

import (
	"github.com/sirupsen/logrus"

	"github.com/tcfw/votechain/internal/config"
	"github.com/tcfw/votechain/pkg/ledger"
)

type NodeOption func(*Node) error

// WithConfig skips loading configuration from file and environment.
func WithConfig(c *config.Config) NodeOption {
	return func(n *Node) error {
		n.cfg = c
		return nil
	}
}

func WithStore(s ledger.Store) NodeOption {
	return func(n *Node) error {
		n.store = s
		return nil
	}
}

func WithLogger(l *logrus.Entry) NodeOption {
	return func(n *Node) error {
		n.logger = l
		return nil
	}
}
