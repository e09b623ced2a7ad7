package ledger

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

var (
	_ Store = (*MemStore)(nil)
)

// MemStore keeps encoded blocks in memory.
type MemStore struct {
	mu sync.RWMutex

	objects map[int][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{
		objects: make(map[int][]byte),
	}
}

func (m *MemStore) PutBlock(_ context.Context, b Block) error {
	d, err := b.Marshal()
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[b.Index()] = d

	return nil
}

func (m *MemStore) Blocks(_ context.Context) ([]Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	idx := make([]int, 0, len(m.objects))
	for i := range m.objects {
		idx = append(idx, i)
	}
	sort.Ints(idx)

	blocks := make([]Block, 0, len(idx))
	for _, i := range idx {
		b, err := UnmarshalBlock(m.objects[i])
		if err != nil {
			return nil, errors.Wrapf(err, "decoding block %d", i)
		}
		blocks = append(blocks, b)
	}

	return blocks, nil
}

func (m *MemStore) Close() error {
	return nil
}
