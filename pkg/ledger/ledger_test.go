package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	now := start

	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

func openTestLedger(t *testing.T, opts ...Option) *Ledger {
	t.Helper()

	opts = append([]Option{WithClock(fixedClock(time.Unix(1700000000, 0)))}, opts...)

	l, err := Open(context.Background(), opts...)
	if err != nil {
		t.Fatal(err)
	}

	return l
}

func TestOpenSealsGenesis(t *testing.T) {
	l := openTestLedger(t)

	assert.Equal(t, 1, l.Length())

	g, err := l.Get(0)
	if err != nil {
		t.Fatal(err)
	}

	assert.True(t, g.IsGenesis())
	assert.Equal(t, ZeroDigest, g.PreviousDigest())
	assert.Equal(t, g.Recompute(), g.Digest())
	assert.Equal(t, "votechain", g.Payload().Meta["system"])
}

func TestAppendSequence(t *testing.T) {
	ctx := context.Background()
	l := openTestLedger(t)

	const n = 20
	for i := 0; i < n; i++ {
		b, err := l.Append(ctx, TextPayload("vote"), time.Time{})
		if err != nil {
			t.Fatal(err)
		}
		assert.Equal(t, i+1, b.Index())
	}

	assert.Equal(t, n+1, l.Length())

	r := l.Validate()
	assert.True(t, r.Valid)
	assert.Equal(t, -1, r.FirstInvalidIndex)
	assert.Equal(t, n+1, r.Length)
}

func TestAppendUsesGivenTimestamp(t *testing.T) {
	l := openTestLedger(t)
	ts := time.Date(2024, 3, 1, 10, 0, 0, 123, time.UTC)

	b, err := l.Append(context.Background(), TextPayload("x"), ts)
	if err != nil {
		t.Fatal(err)
	}

	assert.True(t, ts.Equal(b.Timestamp()))
}

func TestScenarioTamperDetected(t *testing.T) {
	ctx := context.Background()
	l := openTestLedger(t, WithTampering(true))

	_, err := l.Append(ctx, TextPayload("A wins 10"), time.Time{})
	require.NoError(t, err)
	_, err = l.Append(ctx, TextPayload("A wins 10; B wins 5"), time.Time{})
	require.NoError(t, err)

	g, _ := l.Get(0)
	assert.True(t, g.PreviousDigest().IsZero())
	assert.True(t, l.Validate().Valid)

	tm, err := l.Tamperer()
	require.NoError(t, err)

	_, err = tm.Corrupt(ctx, 1, TextPayload("A wins 999"))
	require.NoError(t, err)

	r := l.Validate()
	assert.False(t, r.Valid)
	assert.Equal(t, 1, r.FirstInvalidIndex)
	assert.Equal(t, InvariantSelfConsistency, r.Invariant)
}

func TestGetOutOfRange(t *testing.T) {
	ctx := context.Background()
	l := openTestLedger(t)

	for i := 0; i < 2; i++ {
		if _, err := l.Append(ctx, TextPayload("x"), time.Time{}); err != nil {
			t.Fatal(err)
		}
	}

	_, err := l.Get(5)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))

	_, err = l.Get(-1)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))

	_, err = l.Get(2)
	assert.NoError(t, err)
}

func TestPublishStaleHeadConflicts(t *testing.T) {
	ctx := context.Background()
	l := openTestLedger(t)

	head := l.Head()
	stale := Seal(1, time.Now(), TextPayload("late"), head.Digest())

	_, err := l.Append(ctx, TextPayload("early"), time.Time{})
	require.NoError(t, err)

	_, err = l.publish(ctx, stale)
	assert.True(t, errors.Is(err, ErrConcurrentAppendConflict))
	assert.Equal(t, 2, l.Length())

	b, _ := l.Get(1)
	assert.Equal(t, "early", b.Payload().Records[0].Text)
}

func TestConcurrentAppends(t *testing.T) {
	ctx := context.Background()

	const n = 50
	l := openTestLedger(t,
		WithAppendAttempts(n),
		WithBackoff(time.Microsecond, time.Millisecond),
	)

	var wg sync.WaitGroup
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := l.Append(ctx, TextPayload("ballot"), time.Time{}); err != nil {
				errs <- err
			}
		}(i)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatal(err)
	}

	chain := l.Snapshot()
	assert.Len(t, chain, n+1)

	for i, b := range chain {
		assert.Equal(t, i, b.Index())
		if i > 0 {
			assert.Equal(t, chain[i-1].Digest(), b.PreviousDigest())
		}
	}

	assert.True(t, l.Validate().Valid)
}

func TestSnapshotIsolation(t *testing.T) {
	ctx := context.Background()
	l := openTestLedger(t, WithTampering(true))

	_, err := l.Append(ctx, TextPayload("original"), time.Time{})
	require.NoError(t, err)

	snap := l.Snapshot()

	tm, _ := l.Tamperer()
	_, err = tm.Corrupt(ctx, 1, TextPayload("forged"))
	require.NoError(t, err)

	_, err = l.Append(ctx, TextPayload("later"), time.Time{})
	require.NoError(t, err)

	assert.Len(t, snap, 2)
	assert.Equal(t, "original", snap[1].Payload().Records[0].Text)
	assert.True(t, Validate(snap).Valid)
}

type failingStore struct {
	*MemStore
	fail bool
}

func (f *failingStore) PutBlock(ctx context.Context, b Block) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.MemStore.PutBlock(ctx, b)
}

func TestAppendStoreFailure(t *testing.T) {
	s := &failingStore{MemStore: NewMemStore()}
	l := openTestLedger(t, WithStore(s))

	s.fail = true

	_, err := l.Append(context.Background(), TextPayload("x"), time.Time{})
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrConcurrentAppendConflict))
	assert.Equal(t, 1, l.Length())
}

func TestRecoverFromStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	l := openTestLedger(t, WithStore(s), WithTampering(true))
	for _, v := range []string{"a", "b", "c"} {
		if _, err := l.Append(ctx, TextPayload(v), time.Time{}); err != nil {
			t.Fatal(err)
		}
	}
	head := l.Head().Digest()

	tm, _ := l.Tamperer()
	if _, err := tm.Corrupt(ctx, 2, TextPayload("z")); err != nil {
		t.Fatal(err)
	}

	reopened := openTestLedger(t, WithStore(s))

	assert.Equal(t, 4, reopened.Length())
	assert.Equal(t, head, reopened.Head().Digest())

	r := reopened.Validate()
	assert.False(t, r.Valid)
	assert.Equal(t, 2, r.FirstInvalidIndex)
}

func TestInvalidOptions(t *testing.T) {
	_, err := Open(context.Background(), WithAppendAttempts(0))
	assert.Error(t, err)

	_, err = Open(context.Background(), WithBackoff(time.Second, time.Millisecond))
	assert.Error(t, err)
}

type recordingObserver struct {
	nopObserver

	mu        sync.Mutex
	conflicts []int
}

func (o *recordingObserver) Conflict(attempt int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.conflicts = append(o.conflicts, attempt)
}

// competeOnce publishes a rival block the first time an append is about to
// publish, so that append loses the race exactly once.
func competeOnce(t *testing.T, l *Ledger) *Block {
	rival := &Block{}
	fired := false

	l.beforePublish = func() {
		if fired {
			return
		}
		fired = true

		b, err := l.TryAppend(context.Background(), TextPayload("rival"), time.Time{})
		if err != nil {
			t.Fatal(err)
		}
		*rival = b
	}

	return rival
}

func TestAppendResealsAfterConflict(t *testing.T) {
	obs := &recordingObserver{}
	l := openTestLedger(t, WithAppendAttempts(2), WithObserver(obs))

	rival := competeOnce(t, l)

	b, err := l.Append(context.Background(), TextPayload("mine"), time.Time{})
	require.NoError(t, err)

	assert.Equal(t, 1, rival.Index())
	assert.Equal(t, 2, b.Index())
	assert.Equal(t, rival.Digest(), b.PreviousDigest())
	assert.Equal(t, 3, l.Length())
	assert.Equal(t, []int{1}, obs.conflicts)
	assert.True(t, l.Validate().Valid)

	got, _ := l.Get(2)
	assert.Equal(t, "mine", got.Payload().Records[0].Text)
}

func TestAppendGivesUpAfterAttempts(t *testing.T) {
	obs := &recordingObserver{}
	l := openTestLedger(t, WithAppendAttempts(1), WithObserver(obs))

	rival := competeOnce(t, l)

	_, err := l.Append(context.Background(), TextPayload("mine"), time.Time{})
	assert.True(t, errors.Is(err, ErrConcurrentAppendConflict))

	// only the rival block was published
	assert.Equal(t, 2, l.Length())
	assert.Equal(t, rival.Digest(), l.Head().Digest())
	assert.Equal(t, []int{1}, obs.conflicts)
	assert.True(t, l.Validate().Valid)
}
