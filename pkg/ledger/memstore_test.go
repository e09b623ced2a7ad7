package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()

	chain := buildChain(3)
	for i := len(chain) - 1; i >= 0; i-- {
		if err := m.PutBlock(ctx, chain[i]); err != nil {
			t.Fatal(err)
		}
	}

	blocks, err := m.Blocks(ctx)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, chain, blocks)
}

func TestBlockMarshalKeepsStoredDigest(t *testing.T) {
	b := Seal(4, time.Unix(1700000000, 5), TextPayload("x"), ZeroDigest)
	b.payload = TextPayload("y")

	d, err := b.Marshal()
	if err != nil {
		t.Fatal(err)
	}

	got, err := UnmarshalBlock(d)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, b, got)
	assert.NotEqual(t, got.Digest(), got.Recompute())
}
