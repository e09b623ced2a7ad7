package ledger

import (
	"time"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	BlockVersion1 uint8 = 1
)

// Block is one sealed unit of ledger history. Its integrity bearing fields
// are only settable through Seal.
type Block struct {
	index     int
	timestamp int64
	payload   Payload
	previous  Digest
	digest    Digest
}

// storedBlock is the persisted form of a Block. The digest is stored, not
// recomputed, so a corrupted payload stays detectable after a reload.
type storedBlock struct {
	Version   uint8   `msgpack:"v"`
	Index     uint64  `msgpack:"i"`
	Timestamp int64   `msgpack:"t"`
	Payload   Payload `msgpack:"d"`
	Previous  Digest  `msgpack:"p"`
	Digest    Digest  `msgpack:"h"`
}

// Seal builds a block and computes its digest once.
func Seal(index int, ts time.Time, payload Payload, previous Digest) Block {
	b := Block{
		index:     index,
		timestamp: ts.UnixNano(),
		payload:   payload.Clone(),
		previous:  previous,
	}
	b.digest = HashBlock(b.index, b.timestamp, b.payload, b.previous)

	return b
}

func (b Block) Index() int {
	return b.index
}

func (b Block) Timestamp() time.Time {
	return time.Unix(0, b.timestamp).UTC()
}

// UnixNano is the timestamp exactly as it was hashed.
func (b Block) UnixNano() int64 {
	return b.timestamp
}

func (b Block) Payload() Payload {
	return b.payload.Clone()
}

func (b Block) PreviousDigest() Digest {
	return b.previous
}

func (b Block) Digest() Digest {
	return b.digest
}

// Recompute hashes the block's current contents.
func (b Block) Recompute() Digest {
	return HashBlock(b.index, b.timestamp, b.payload, b.previous)
}

// IsGenesis reports whether b sits at index 0.
func (b Block) IsGenesis() bool {
	return b.index == 0
}

func (b Block) Marshal() ([]byte, error) {
	d, err := msgpack.Marshal(&storedBlock{
		Version:   BlockVersion1,
		Index:     uint64(b.index),
		Timestamp: b.timestamp,
		Payload:   b.payload,
		Previous:  b.previous,
		Digest:    b.digest,
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshalling block")
	}

	return d, nil
}

// UnmarshalBlock decodes a persisted block without resealing it.
func UnmarshalBlock(d []byte) (Block, error) {
	s := &storedBlock{}
	if err := msgpack.Unmarshal(d, s); err != nil {
		return Block{}, errors.Wrap(err, "unmarshalling block")
	}

	if s.Version != BlockVersion1 {
		return Block{}, errors.Errorf("unknown block version %d", s.Version)
	}

	return Block{
		index:     int(s.Index),
		timestamp: s.Timestamp,
		payload:   s.Payload,
		previous:  s.Previous,
		digest:    s.Digest,
	}, nil
}
