package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/jpillora/backoff"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/tcfw/votechain/internal/utils/logging"
)

// Observer receives ledger events, typically for metrics.
type Observer interface {
	Appended(Block)
	Conflict(attempt int)
	Validated(Report)
	Tampered(Block)
}

type nopObserver struct{}

func (nopObserver) Appended(Block)   {}
func (nopObserver) Conflict(int)     {}
func (nopObserver) Validated(Report) {}
func (nopObserver) Tampered(Block)   {}

// DefaultGenesis is the payload sealed into block 0 when none is configured.
func DefaultGenesis() Payload {
	return Payload{
		Version: PayloadVersion1,
		Meta: map[string]string{
			"message": "votechain genesis block",
			"system":  "votechain",
			"version": "1.0.0",
		},
	}
}

// Ledger is an append-only chain of sealed blocks. Reads may run concurrently;
// publishing a block or corrupting one holds the write lock.
type Ledger struct {
	mu     sync.RWMutex
	blocks []Block

	store    Store
	observer Observer
	logger   *logrus.Entry
	now      func() time.Time
	genesis  Payload

	attempts   int
	minBackoff time.Duration
	maxBackoff time.Duration

	allowTamper bool

	// beforePublish runs between reading the head and publishing; tests use
	// it to land a competing block.
	beforePublish func()
}

// Open recovers the chain held by the configured store, or seals and persists
// a genesis block when the store is empty.
func Open(ctx context.Context, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		store:      NewMemStore(),
		observer:   nopObserver{},
		logger:     logging.Entry().WithField("component", "ledger"),
		now:        time.Now,
		genesis:    DefaultGenesis(),
		attempts:   DefaultAppendAttempts,
		minBackoff: defaultMinBackoff,
		maxBackoff: defaultMaxBackoff,
	}

	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, errors.Wrap(err, "applying ledger option")
		}
	}

	blocks, err := l.store.Blocks(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "loading blocks")
	}

	if len(blocks) == 0 {
		g := Seal(0, l.now(), l.genesis, ZeroDigest)
		if err := l.store.PutBlock(ctx, g); err != nil {
			return nil, errors.Wrap(err, "storing genesis block")
		}

		l.blocks = []Block{g}
		l.logger.WithField("digest", g.Digest().String()).Info("sealed genesis block")

		return l, nil
	}

	for i, b := range blocks {
		if b.Index() != i {
			return nil, errors.Errorf("store is missing block %d", i)
		}
	}

	l.blocks = blocks
	l.logger.WithFields(logrus.Fields{
		"blocks": len(blocks),
		"head":   blocks[len(blocks)-1].Digest().String(),
	}).Info("recovered ledger")

	if r := Validate(blocks); !r.Valid {
		l.logger.WithFields(logrus.Fields{
			"index":     r.FirstInvalidIndex,
			"invariant": r.Invariant.String(),
		}).Warn("recovered chain fails validation")
	}

	return l, nil
}

// Head returns the newest block.
func (l *Ledger) Head() Block {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.blocks[len(l.blocks)-1]
}

// Length is the number of blocks including genesis.
func (l *Ledger) Length() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.blocks)
}

func (l *Ledger) Get(index int) (Block, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if index < 0 || index >= len(l.blocks) {
		return Block{}, errors.Wrapf(ErrIndexOutOfRange, "index %d, length %d", index, len(l.blocks))
	}

	return l.blocks[index], nil
}

// Snapshot returns a point in time copy of the chain.
func (l *Ledger) Snapshot() []Block {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s := make([]Block, len(l.blocks))
	copy(s, l.blocks)

	return s
}

// Validate checks a snapshot of the chain.
func (l *Ledger) Validate() Report {
	r := Validate(l.Snapshot())
	l.observer.Validated(r)

	if !r.Valid {
		l.logger.WithFields(logrus.Fields{
			"index":     r.FirstInvalidIndex,
			"invariant": r.Invariant.String(),
		}).Warn("chain integrity violation")
	}

	return r
}

// TryAppend seals payload against the current head and publishes it. If
// another append published first, ErrConcurrentAppendConflict is returned
// and nothing is stored.
func (l *Ledger) TryAppend(ctx context.Context, payload Payload, ts time.Time) (Block, error) {
	if ts.IsZero() {
		ts = l.now()
	}

	l.mu.RLock()
	next := len(l.blocks)
	prev := l.blocks[next-1].digest
	l.mu.RUnlock()

	b := Seal(next, ts, payload, prev)

	if l.beforePublish != nil {
		l.beforePublish()
	}

	return l.publish(ctx, b)
}

func (l *Ledger) publish(ctx context.Context, b Block) (Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.blocks)
	if b.index != n || b.previous != l.blocks[n-1].digest {
		return Block{}, ErrConcurrentAppendConflict
	}

	if err := l.store.PutBlock(ctx, b); err != nil {
		return Block{}, errors.Wrapf(err, "storing block %d", b.index)
	}

	l.blocks = append(l.blocks, b)

	l.logger.WithFields(logrus.Fields{
		"index":  b.index,
		"digest": b.digest.String(),
	}).Debug("appended block")
	l.observer.Appended(b)

	return b, nil
}

// Append seals payload as the next block, re-sealing against the new head
// when it loses a race. A zero ts uses the ledger clock.
func (l *Ledger) Append(ctx context.Context, payload Payload, ts time.Time) (Block, error) {
	bo := &backoff.Backoff{
		Min:    l.minBackoff,
		Max:    l.maxBackoff,
		Factor: 2,
		Jitter: true,
	}

	for attempt := 1; ; attempt++ {
		b, err := l.TryAppend(ctx, payload, ts)
		if err == nil {
			return b, nil
		}

		if !errors.Is(err, ErrConcurrentAppendConflict) {
			return Block{}, err
		}

		l.observer.Conflict(attempt)

		if attempt >= l.attempts {
			return Block{}, errors.Wrapf(err, "gave up after %d attempts", attempt)
		}

		d := bo.Duration()
		l.logger.WithFields(logrus.Fields{
			"attempt": attempt,
			"wait":    d,
		}).Debug("append lost race, retrying")

		select {
		case <-ctx.Done():
			return Block{}, ctx.Err()
		case <-time.After(d):
		}
	}
}

// Close releases the underlying store.
func (l *Ledger) Close() error {
	return l.store.Close()
}
