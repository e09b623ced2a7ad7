package ledger

import (
	"encoding/hex"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-multihash"
	"github.com/pkg/errors"
)

const (
	DigestSize = 32

	shortDigestLen = 12
)

// Digest is a SHA3-256 block digest.
type Digest [DigestSize]byte

// ZeroDigest is the previous digest of the genesis block.
var ZeroDigest Digest

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Short returns an abbreviated hex form for display.
func (d Digest) Short() string {
	return d.String()[:shortDigestLen]
}

func (d Digest) IsZero() bool {
	return d == ZeroDigest
}

// Multibase returns the base58btc multibase form of the digest.
func (d Digest) Multibase() string {
	s, err := multibase.Encode(multibase.Base58BTC, d[:])
	if err != nil {
		return ""
	}

	return s
}

// CID wraps the digest as a CIDv1 with the raw codec so blocks can be
// referenced the same way as other content addressed objects.
func (d Digest) CID() cid.Cid {
	mh, err := multihash.Encode(d[:], multihash.SHA3_256)
	if err != nil {
		return cid.Undef
	}

	return cid.NewCidV1(cid.Raw, mh)
}

func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Digest) UnmarshalText(b []byte) error {
	p, err := ParseDigest(string(b))
	if err != nil {
		return err
	}

	*d = p
	return nil
}

// ParseDigest decodes a hex digest.
func ParseDigest(s string) (Digest, error) {
	var d Digest

	raw, err := hex.DecodeString(s)
	if err != nil {
		return d, errors.Wrap(err, "decoding digest hex")
	}

	if len(raw) != DigestSize {
		return d, errors.Errorf("digest must be %d bytes, got %d", DigestSize, len(raw))
	}

	copy(d[:], raw)
	return d, nil
}
