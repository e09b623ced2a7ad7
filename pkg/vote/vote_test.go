package vote

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/tcfw/votechain/pkg/ledger"
)

type mockChain struct {
	mock.Mock
}

func (m *mockChain) Append(ctx context.Context, p ledger.Payload, ts time.Time) (ledger.Block, error) {
	args := m.Called(ctx, p, ts)
	return args.Get(0).(ledger.Block), args.Error(1)
}

func (m *mockChain) Snapshot() []ledger.Block {
	return m.Called().Get(0).([]ledger.Block)
}

func TestCastAppendsBallot(t *testing.T) {
	ctx := context.Background()

	l, err := ledger.Open(ctx)
	if err != nil {
		t.Fatal(err)
	}

	s, err := NewService(l)
	if err != nil {
		t.Fatal(err)
	}

	voter := HashVoterIdentity("salt", "0012345678")

	b, err := s.Cast(ctx, Ballot{PollID: "poll_001", VoterHash: voter, Choice: "option 1"})
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, 1, b.Index())
	rec := b.Payload().Records[0]
	assert.Equal(t, "poll_001", rec.PollID)
	assert.Equal(t, voter, rec.VoterHash)
	assert.True(t, s.HasVoted("poll_001", voter))
	assert.False(t, s.HasVoted("poll_002", voter))

	_, err = s.Cast(ctx, Ballot{PollID: "poll_001", VoterHash: voter, Choice: "option 2"})
	assert.True(t, errors.Is(err, ErrAlreadyVoted))

	_, err = s.Cast(ctx, Ballot{PollID: "poll_002", VoterHash: voter, Choice: "option 2"})
	assert.NoError(t, err)

	assert.Equal(t, 3, l.Length())
	assert.True(t, l.Validate().Valid)
}

func TestCastRejectsIncompleteBallot(t *testing.T) {
	m := &mockChain{}
	m.On("Snapshot").Return([]ledger.Block{})

	s, err := NewService(m)
	if err != nil {
		t.Fatal(err)
	}

	_, err = s.Cast(context.Background(), Ballot{PollID: "poll_001", Choice: "x"})
	assert.True(t, errors.Is(err, ErrInvalidBallot))

	m.AssertNotCalled(t, "Append", mock.Anything, mock.Anything, mock.Anything)
}

func TestCastAppendFailureDoesNotMarkVoter(t *testing.T) {
	m := &mockChain{}
	m.On("Snapshot").Return([]ledger.Block{})
	m.On("Append", mock.Anything, mock.Anything, mock.Anything).
		Return(ledger.Block{}, ledger.ErrConcurrentAppendConflict).Once()

	s, err := NewService(m)
	if err != nil {
		t.Fatal(err)
	}

	_, err = s.Cast(context.Background(), Ballot{PollID: "p", VoterHash: "v", Choice: "c"})
	assert.True(t, errors.Is(err, ledger.ErrConcurrentAppendConflict))
	assert.False(t, s.HasVoted("p", "v"))

	m.AssertExpectations(t)
}

func TestServiceRebuildsFromChain(t *testing.T) {
	ctx := context.Background()

	l, err := ledger.Open(ctx)
	if err != nil {
		t.Fatal(err)
	}

	first, err := NewService(l)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := first.Cast(ctx, Ballot{PollID: "p", VoterHash: "v", Choice: "c"}); err != nil {
		t.Fatal(err)
	}

	second, err := NewService(l, WithFilterEstimates(1000, 0.001))
	if err != nil {
		t.Fatal(err)
	}

	assert.True(t, second.HasVoted("p", "v"))

	_, err = second.Cast(ctx, Ballot{PollID: "p", VoterHash: "v", Choice: "c"})
	assert.True(t, errors.Is(err, ErrAlreadyVoted))
}

func TestHashVoterIdentity(t *testing.T) {
	a := HashVoterIdentity("salt", "0012345678")

	assert.Len(t, a, 64)
	assert.Equal(t, a, HashVoterIdentity("salt", " 0012345678 "))
	assert.NotEqual(t, a, HashVoterIdentity("pepper", "0012345678"))
}

func TestInvalidFilterEstimates(t *testing.T) {
	m := &mockChain{}
	m.On("Snapshot").Return([]ledger.Block{})

	_, err := NewService(m, WithFilterEstimates(0, 0.1))
	assert.Error(t, err)
}
