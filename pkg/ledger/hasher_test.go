package ledger

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func randomRecord(r *rand.Rand) Record {
	return Record{
		PollID:    "poll_" + randString(r, 4),
		VoterHash: randString(r, 16),
		Choice:    randString(r, 6),
		Text:      randString(r, 10),
		CastAt:    r.Int63(),
	}
}

func randString(r *rand.Rand, n int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz0123456789"

	b := make([]byte, n)
	for i := range b {
		b[i] = letters[r.Intn(len(letters))]
	}

	return string(b)
}

func mutateRecord(r *rand.Rand, rec Record) Record {
	switch r.Intn(5) {
	case 0:
		rec.PollID += "x"
	case 1:
		rec.VoterHash += "x"
	case 2:
		rec.Choice += "x"
	case 3:
		rec.Text += "x"
	default:
		rec.CastAt++
	}

	return rec
}

func TestHashBlockDeterministic(t *testing.T) {
	p := TextPayload("A wins 10", "B wins 5")
	p.Meta = map[string]string{"b": "2", "a": "1", "c": "3"}
	ts := time.Unix(1700000000, 42).UnixNano()

	d1 := HashBlock(3, ts, p, ZeroDigest)
	d2 := HashBlock(3, ts, p.Clone(), ZeroDigest)

	assert.Equal(t, d1, d2)
	assert.False(t, d1.IsZero())
}

func TestHashBlockNilAndEmptyCollections(t *testing.T) {
	a := Payload{Version: PayloadVersion1}
	b := Payload{Version: PayloadVersion1, Records: []Record{}, Meta: map[string]string{}}

	assert.Equal(t, HashBlock(1, 1, a, ZeroDigest), HashBlock(1, 1, b, ZeroDigest))
}

func TestHashBlockRecordOrderMatters(t *testing.T) {
	a := TextPayload("one", "two")
	b := TextPayload("two", "one")

	assert.NotEqual(t, HashBlock(1, 1, a, ZeroDigest), HashBlock(1, 1, b, ZeroDigest))
}

func TestHashBlockFieldMutations(t *testing.T) {
	r := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		recs := make([]Record, 1+r.Intn(4))
		for j := range recs {
			recs[j] = randomRecord(r)
		}

		p := NewPayload(recs...)
		idx := r.Intn(1000)
		ts := r.Int63()
		var prev Digest
		r.Read(prev[:])

		base := HashBlock(idx, ts, p, prev)

		mutated := p.Clone()
		k := r.Intn(len(mutated.Records))
		mutated.Records[k] = mutateRecord(r, mutated.Records[k])
		assert.NotEqual(t, base, HashBlock(idx, ts, mutated, prev), "record mutation %d", i)

		assert.NotEqual(t, base, HashBlock(idx+1, ts, p, prev), "index mutation %d", i)
		assert.NotEqual(t, base, HashBlock(idx, ts+1, p, prev), "timestamp mutation %d", i)

		prev2 := prev
		prev2[r.Intn(DigestSize)] ^= 0x01
		assert.NotEqual(t, base, HashBlock(idx, ts, p, prev2), "previous digest mutation %d", i)
	}
}

func TestHashBlockMetaMutation(t *testing.T) {
	p := DefaultGenesis()
	q := p.Clone()
	q.Meta["version"] = "1.0.1"

	assert.NotEqual(t, HashBlock(0, 1, p, ZeroDigest), HashBlock(0, 1, q, ZeroDigest))
}

func TestDigestEncodings(t *testing.T) {
	d := HashBlock(0, 1, TextPayload("x"), ZeroDigest)

	parsed, err := ParseDigest(d.String())
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, d, parsed)
	assert.Len(t, d.Short(), shortDigestLen)
	assert.Equal(t, "z", d.Multibase()[:1])
	assert.True(t, d.CID().Defined())

	_, err = ParseDigest("abcd")
	assert.Error(t, err)
}
