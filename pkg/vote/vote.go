package vote

import (
	"context"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"

	"github.com/tcfw/votechain/internal/utils/logging"
	"github.com/tcfw/votechain/pkg/ledger"
)

const (
	DefaultExpectedVoters = 100000
	DefaultFalsePositive  = 0.01
)

var (
	ErrInvalidBallot = errors.New("ballot requires poll, voter and choice")
	ErrAlreadyVoted  = errors.New("voter already cast a ballot in this poll")
)

// Chain is the part of the ledger the voting path may use. It deliberately
// has no access to the tamper capability.
type Chain interface {
	Append(context.Context, ledger.Payload, time.Time) (ledger.Block, error)
	Snapshot() []ledger.Block
}

type Ballot struct {
	PollID    string
	VoterHash string
	Choice    string
	CastAt    time.Time
}

func (b Ballot) record() ledger.Record {
	return ledger.Record{
		PollID:    b.PollID,
		VoterHash: b.VoterHash,
		Choice:    b.Choice,
		CastAt:    b.CastAt.UnixNano(),
	}
}

// HashVoterIdentity derives the anonymous voter id stored on the ledger.
func HashVoterIdentity(salt, nationalCode string) string {
	h := sha3.Sum256([]byte(salt + ":" + strings.TrimSpace(nationalCode)))
	return hex.EncodeToString(h[:])
}

// Service seals ballots into the ledger, one block per ballot, and refuses a
// second ballot from the same voter in the same poll.
type Service struct {
	chain Chain

	mu     sync.Mutex
	filter *bloom.BloomFilter
	voted  map[string]struct{}
}

type Option func(*Service) error

// WithFilterEstimates sizes the bloom filter used to skip the exact lookup
// for voters that have not voted yet.
func WithFilterEstimates(n uint, fp float64) Option {
	return func(s *Service) error {
		if n == 0 || fp <= 0 || fp >= 1 {
			return errors.New("invalid bloom filter estimates")
		}
		s.filter = bloom.NewWithEstimates(n, fp)
		return nil
	}
}

func NewService(chain Chain, opts ...Option) (*Service, error) {
	s := &Service{
		chain:  chain,
		filter: bloom.NewWithEstimates(DefaultExpectedVoters, DefaultFalsePositive),
		voted:  make(map[string]struct{}),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	s.rebuild(chain.Snapshot())

	return s, nil
}

func voteKey(poll, voter string) string {
	return poll + "\x00" + voter
}

func (s *Service) rebuild(blocks []ledger.Block) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, b := range blocks {
		for _, r := range b.Payload().Records {
			if !r.IsVote() {
				continue
			}
			s.mark(voteKey(r.PollID, r.VoterHash))
			n++
		}
	}

	logging.Entry().WithField("ballots", n).Debug("indexed ballots")
}

func (s *Service) mark(k string) {
	s.filter.AddString(k)
	s.voted[k] = struct{}{}
}

// hasVoted assumes s.mu is held.
func (s *Service) hasVoted(k string) bool {
	if !s.filter.TestString(k) {
		return false
	}

	_, ok := s.voted[k]
	return ok
}

func (s *Service) HasVoted(pollID, voterHash string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.hasVoted(voteKey(pollID, voterHash))
}

// Cast seals b into a new block.
func (s *Service) Cast(ctx context.Context, b Ballot) (ledger.Block, error) {
	if b.PollID == "" || b.VoterHash == "" || b.Choice == "" {
		return ledger.Block{}, ErrInvalidBallot
	}

	if b.CastAt.IsZero() {
		b.CastAt = time.Now()
	}

	k := voteKey(b.PollID, b.VoterHash)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasVoted(k) {
		return ledger.Block{}, ErrAlreadyVoted
	}

	blk, err := s.chain.Append(ctx, ledger.NewPayload(b.record()), b.CastAt)
	if err != nil {
		return ledger.Block{}, errors.Wrap(err, "sealing ballot")
	}

	s.mark(k)

	logging.Entry().WithField("poll", b.PollID).WithField("index", blk.Index()).Info("ballot sealed")

	return blk, nil
}
