package ledger

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"
)

var blockDomainTag = []byte("votechain/block/v1")

// HashBlock computes the SHA3-256 digest of a block's sealed fields.
//
// The hash input is, in order:
//
//	"votechain/block/v1"
//	index                 uint64 big endian
//	timestamp             int64 unix nanoseconds, big endian
//	len(payload)          uint32 big endian
//	payload               Payload.Canonical()
//	previous digest       32 bytes
func HashBlock(index int, timestamp int64, payload Payload, previous Digest) Digest {
	enc, err := payload.Canonical()
	if err != nil {
		// payloads only carry strings and integers
		panic(errors.Wrap(err, "hashing block"))
	}

	h := sha3.New256()

	var n [8]byte

	h.Write(blockDomainTag)

	binary.BigEndian.PutUint64(n[:], uint64(index))
	h.Write(n[:])

	binary.BigEndian.PutUint64(n[:], uint64(timestamp))
	h.Write(n[:])

	binary.BigEndian.PutUint32(n[:4], uint32(len(enc)))
	h.Write(n[:4])
	h.Write(enc)

	h.Write(previous[:])

	var d Digest
	copy(d[:], h.Sum(nil))

	return d
}
