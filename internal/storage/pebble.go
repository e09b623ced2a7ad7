package storage

import (
	"context"
	"encoding/binary"

	"github.com/cockroachdb/pebble"
	"github.com/pkg/errors"

	"github.com/tcfw/votechain/internal/utils/logging"
	"github.com/tcfw/votechain/pkg/ledger"
)

var (
	_ ledger.Store = (*PebbleStore)(nil)
)

const (
	cacheSize = 1 << 20 * 32
)

type keyType byte

const (
	blockTPrefix keyType = iota + 1
	headTPrefix
)

// PebbleStore persists ledger blocks in a pebble database keyed by index.
type PebbleStore struct {
	db *pebble.DB
}

func NewPebbleStore(dir string) (*PebbleStore, error) {
	c := pebble.NewCache(cacheSize)
	defer c.Unref()

	db, err := pebble.Open(dir, &pebble.Options{Cache: c})
	if err != nil {
		return nil, errors.Wrap(err, "opening pebble store")
	}

	return &PebbleStore{db: db}, nil
}

func blockKey(index uint64) []byte {
	k := make([]byte, 9)
	k[0] = byte(blockTPrefix)
	binary.BigEndian.PutUint64(k[1:], index)
	return k
}

func headKey() []byte {
	return []byte{byte(headTPrefix)}
}

// head returns the highest stored index, or false for an empty store.
func (s *PebbleStore) head() (uint64, bool, error) {
	d, done, err := s.db.Get(headKey())
	if err != nil {
		if err == pebble.ErrNotFound {
			return 0, false, nil
		}
		return 0, false, errors.Wrap(err, "reading head index")
	}
	defer done.Close()

	if len(d) != 8 {
		return 0, false, errors.New("malformed head index")
	}

	return binary.BigEndian.Uint64(d), true, nil
}

func (s *PebbleStore) PutBlock(_ context.Context, b ledger.Block) error {
	d, err := b.Marshal()
	if err != nil {
		return err
	}

	idx := uint64(b.Index())

	batch := s.db.NewBatch()
	defer batch.Close()

	if err := batch.Set(blockKey(idx), d, nil); err != nil {
		return errors.Wrap(err, "staging block")
	}

	h, ok, err := s.head()
	if err != nil {
		return err
	}

	if !ok || idx > h {
		v := make([]byte, 8)
		binary.BigEndian.PutUint64(v, idx)
		if err := batch.Set(headKey(), v, nil); err != nil {
			return errors.Wrap(err, "staging head index")
		}
	}

	if err := batch.Commit(pebble.Sync); err != nil {
		return errors.Wrap(err, "committing block")
	}

	return nil
}

func (s *PebbleStore) Blocks(_ context.Context) ([]ledger.Block, error) {
	h, ok, err := s.head()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	iter := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte{byte(blockTPrefix)},
		UpperBound: []byte{byte(blockTPrefix) + 1},
	})
	defer iter.Close()

	blocks := make([]ledger.Block, 0, h+1)

	for iter.First(); iter.Valid(); iter.Next() {
		b, err := ledger.UnmarshalBlock(iter.Value())
		if err != nil {
			return nil, errors.Wrapf(err, "decoding block key %x", iter.Key())
		}
		blocks = append(blocks, b)
	}

	if err := iter.Error(); err != nil {
		return nil, errors.Wrap(err, "iterating blocks")
	}

	if uint64(len(blocks)) != h+1 {
		logging.Entry().WithField("head", h).WithField("found", len(blocks)).Error("block store truncated")
		return nil, errors.Errorf("expected %d blocks, found %d", h+1, len(blocks))
	}

	return blocks, nil
}

func (s *PebbleStore) Close() error {
	return s.db.Close()
}
