package ledger

import "fmt"

// Invariant names the property a block failed.
type Invariant int

const (
	InvariantNone Invariant = iota

	// InvariantSelfConsistency: the stored digest matches the block contents.
	InvariantSelfConsistency

	// InvariantLinkage: the previous digest matches the predecessor's digest.
	InvariantLinkage

	// InvariantGenesis: block 0 exists and links to ZeroDigest.
	InvariantGenesis

	// InvariantSequence: indexes increase by one from genesis.
	InvariantSequence
)

func (i Invariant) String() string {
	switch i {
	case InvariantNone:
		return "none"
	case InvariantSelfConsistency:
		return "self-consistency"
	case InvariantLinkage:
		return "linkage"
	case InvariantGenesis:
		return "genesis"
	case InvariantSequence:
		return "sequence"
	default:
		return fmt.Sprintf("invariant(%d)", int(i))
	}
}

// Report is the outcome of a validation pass. An invalid chain is a normal
// result, not an error.
type Report struct {
	Valid bool

	// FirstInvalidIndex is -1 for a valid chain.
	FirstInvalidIndex int
	Invariant         Invariant

	// Expected and Actual hold the digests that disagreed.
	Expected Digest
	Actual   Digest

	Length int
}

// Suspect reports whether the block at index can no longer be trusted.
func (r Report) Suspect(index int) bool {
	return !r.Valid && index >= r.FirstInvalidIndex
}

func (r Report) String() string {
	if r.Valid {
		return fmt.Sprintf("valid (%d blocks)", r.Length)
	}

	return fmt.Sprintf("invalid at block %d: %s", r.FirstInvalidIndex, r.Invariant)
}

func invalid(chain []Block, i int, inv Invariant, expected, actual Digest) Report {
	return Report{
		FirstInvalidIndex: i,
		Invariant:         inv,
		Expected:          expected,
		Actual:            actual,
		Length:            len(chain),
	}
}

// Validate walks chain from genesis and stops at the first broken block. A
// block whose payload was altered is reported as a self-consistency failure
// at its own index, before the linkage of its successor is examined.
func Validate(chain []Block) Report {
	if len(chain) == 0 {
		return invalid(chain, 0, InvariantGenesis, ZeroDigest, ZeroDigest)
	}

	for i, b := range chain {
		if d := b.Recompute(); d != b.digest {
			return invalid(chain, i, InvariantSelfConsistency, d, b.digest)
		}

		if i == 0 {
			if b.index != 0 || b.previous != ZeroDigest {
				return invalid(chain, 0, InvariantGenesis, ZeroDigest, b.previous)
			}
			continue
		}

		prev := chain[i-1]

		if b.index != prev.index+1 {
			return invalid(chain, i, InvariantSequence, ZeroDigest, ZeroDigest)
		}

		if b.previous != prev.digest {
			return invalid(chain, i, InvariantLinkage, prev.digest, b.previous)
		}
	}

	return Report{
		Valid:             true,
		FirstInvalidIndex: -1,
		Length:            len(chain),
	}
}
