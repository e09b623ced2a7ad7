package ledger

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Tamperer rewrites sealed payloads without resealing them. It exists to
// demonstrate that Validate catches retroactive edits and is only handed out
// by ledgers opened WithTampering(true).
type Tamperer struct {
	l *Ledger
}

func (l *Ledger) Tamperer() (*Tamperer, error) {
	if !l.allowTamper {
		return nil, ErrTamperDisabled
	}

	return &Tamperer{l: l}, nil
}

// Corrupt replaces the payload of the block at index, leaving its digest and
// previous digest untouched, and persists the result.
func (t *Tamperer) Corrupt(ctx context.Context, index int, payload Payload) (Block, error) {
	l := t.l

	l.mu.Lock()
	defer l.mu.Unlock()

	if index < 0 || index >= len(l.blocks) {
		return Block{}, errors.Wrapf(ErrIndexOutOfRange, "index %d, length %d", index, len(l.blocks))
	}

	b := l.blocks[index]
	b.payload = payload.Clone()

	if err := l.store.PutBlock(ctx, b); err != nil {
		return Block{}, errors.Wrapf(err, "storing tampered block %d", index)
	}

	l.blocks[index] = b

	l.logger.WithFields(logrus.Fields{
		"index":  index,
		"digest": b.digest.String(),
	}).Warn("block payload tampered")
	l.observer.Tampered(b)

	return b, nil
}
