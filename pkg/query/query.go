// Package query provides read-only projections of the ledger for the
// presentation layer.
package query

import (
	"time"

	"github.com/pkg/errors"

	"github.com/tcfw/votechain/pkg/ledger"
)

// Source is the read side of a ledger.
type Source interface {
	Snapshot() []ledger.Block
	Validate() ledger.Report
}

type BlockSummary struct {
	Index          int             `json:"index" yaml:"index"`
	Timestamp      time.Time       `json:"timestamp" yaml:"timestamp"`
	Digest         string          `json:"digest" yaml:"digest"`
	ShortDigest    string          `json:"short_digest" yaml:"short_digest"`
	Multibase      string          `json:"digest_multibase" yaml:"digest_multibase"`
	PreviousDigest string          `json:"previous_digest" yaml:"previous_digest"`
	CID            string          `json:"cid" yaml:"cid"`
	PayloadSummary string          `json:"payload_summary" yaml:"payload_summary"`
	Records        []ledger.Record `json:"records,omitempty" yaml:"records,omitempty"`
	Valid          bool            `json:"valid" yaml:"valid"`
}

type ValidityReport struct {
	IsValid           bool   `json:"is_valid" yaml:"is_valid"`
	FirstInvalidIndex *int   `json:"first_invalid_index,omitempty" yaml:"first_invalid_index,omitempty"`
	Invariant         string `json:"invariant,omitempty" yaml:"invariant,omitempty"`
	Length            int    `json:"length" yaml:"length"`
	Message           string `json:"message" yaml:"message"`
}

type ChainInfo struct {
	TotalBlocks      int       `json:"total_blocks" yaml:"total_blocks"`
	TotalVotes       int       `json:"total_votes" yaml:"total_votes"`
	IsValid          bool      `json:"is_valid" yaml:"is_valid"`
	LatestDigest     string    `json:"latest_block_hash" yaml:"latest_block_hash"`
	GenesisTimestamp time.Time `json:"genesis_timestamp" yaml:"genesis_timestamp"`
}

// PollResult counts choices from trusted blocks only; ballots in blocks at or
// after the first invalid index are counted in Excluded.
type PollResult struct {
	PollID   string         `json:"poll_id" yaml:"poll_id"`
	Counts   map[string]int `json:"counts" yaml:"counts"`
	Total    int            `json:"total" yaml:"total"`
	Excluded int            `json:"excluded" yaml:"excluded"`
}

type View struct {
	src Source
}

func NewView(src Source) *View {
	return &View{src: src}
}

func Summarize(b ledger.Block, valid bool) BlockSummary {
	p := b.Payload()

	return BlockSummary{
		Index:          b.Index(),
		Timestamp:      b.Timestamp(),
		Digest:         b.Digest().String(),
		ShortDigest:    b.Digest().Short(),
		Multibase:      b.Digest().Multibase(),
		PreviousDigest: b.PreviousDigest().String(),
		CID:            b.Digest().CID().String(),
		PayloadSummary: p.Summary(),
		Records:        p.Records,
		Valid:          valid,
	}
}

func NewValidityReport(r ledger.Report) ValidityReport {
	v := ValidityReport{
		IsValid: r.Valid,
		Length:  r.Length,
		Message: "chain is intact",
	}

	if !r.Valid {
		i := r.FirstInvalidIndex
		v.FirstInvalidIndex = &i
		v.Invariant = r.Invariant.String()
		v.Message = "chain has been tampered with"
	}

	return v
}

// Report runs a fresh validation.
func (v *View) Report() ValidityReport {
	return NewValidityReport(v.src.Validate())
}

// Block summarises a single block, judged against the snapshot it was read
// from.
func (v *View) Block(index int) (BlockSummary, error) {
	snap := v.src.Snapshot()

	if index < 0 || index >= len(snap) {
		return BlockSummary{}, errors.Wrapf(ledger.ErrIndexOutOfRange, "index %d, length %d", index, len(snap))
	}

	r := ledger.Validate(snap)

	return Summarize(snap[index], !r.Suspect(index)), nil
}

// Blocks lists the chain. Every block from the first invalid index onward
// is marked invalid.
func (v *View) Blocks() ([]BlockSummary, ValidityReport) {
	snap := v.src.Snapshot()
	r := ledger.Validate(snap)

	out := make([]BlockSummary, 0, len(snap))
	for _, b := range snap {
		out = append(out, Summarize(b, !r.Suspect(b.Index())))
	}

	return out, NewValidityReport(r)
}

func (v *View) PollBlocks(pollID string) []BlockSummary {
	snap := v.src.Snapshot()
	r := ledger.Validate(snap)

	out := []BlockSummary{}
	for _, b := range snap {
		for _, rec := range b.Payload().Records {
			if rec.PollID == pollID {
				out = append(out, Summarize(b, !r.Suspect(b.Index())))
				break
			}
		}
	}

	return out
}

func (v *View) Tally(pollID string) PollResult {
	snap := v.src.Snapshot()
	r := ledger.Validate(snap)

	res := PollResult{PollID: pollID, Counts: map[string]int{}}

	for _, b := range snap {
		for _, rec := range b.Payload().Records {
			if !rec.IsVote() || rec.PollID != pollID {
				continue
			}

			if r.Suspect(b.Index()) {
				res.Excluded++
				continue
			}

			res.Counts[rec.Choice]++
			res.Total++
		}
	}

	return res
}

func (v *View) Info() ChainInfo {
	snap := v.src.Snapshot()
	r := ledger.Validate(snap)

	info := ChainInfo{
		TotalBlocks: len(snap),
		IsValid:     r.Valid,
	}

	if len(snap) == 0 {
		return info
	}

	for _, b := range snap[1:] {
		for _, rec := range b.Payload().Records {
			if rec.IsVote() {
				info.TotalVotes++
			}
		}
	}

	info.LatestDigest = snap[len(snap)-1].Digest().String()
	info.GenesisTimestamp = snap[0].Timestamp()

	return info
}
