package ledger

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	PayloadVersion1 uint8 = 1
)

// Record is a single entry sealed into a block, usually one ballot.
type Record struct {
	PollID    string `msgpack:"p,omitempty" json:"poll_id,omitempty" yaml:"poll_id,omitempty"`
	VoterHash string `msgpack:"v,omitempty" json:"voter_hash,omitempty" yaml:"voter_hash,omitempty"`
	Choice    string `msgpack:"c,omitempty" json:"choice,omitempty" yaml:"choice,omitempty"`
	Text      string `msgpack:"x,omitempty" json:"text,omitempty" yaml:"text,omitempty"`
	CastAt    int64  `msgpack:"t,omitempty" json:"cast_at,omitempty" yaml:"cast_at,omitempty"`
}

func (r Record) IsVote() bool {
	return r.PollID != "" && r.VoterHash != ""
}

func (r Record) String() string {
	if r.IsVote() {
		return fmt.Sprintf("%s: %s", r.PollID, r.Choice)
	}

	return r.Text
}

// Payload is the ordered, versioned content of a block. The ledger treats it
// as opaque apart from its canonical encoding.
type Payload struct {
	Version uint8             `msgpack:"ver" json:"version" yaml:"version"`
	Records []Record          `msgpack:"r,omitempty" json:"records,omitempty" yaml:"records,omitempty"`
	Meta    map[string]string `msgpack:"m,omitempty" json:"meta,omitempty" yaml:"meta,omitempty"`
}

// NewPayload builds a version 1 payload holding recs in order.
func NewPayload(recs ...Record) Payload {
	return Payload{
		Version: PayloadVersion1,
		Records: recs,
	}
}

// TextPayload builds a payload of free text records.
func TextPayload(lines ...string) Payload {
	recs := make([]Record, 0, len(lines))
	for _, l := range lines {
		recs = append(recs, Record{Text: l})
	}

	return NewPayload(recs...)
}

// Canonical returns the encoding the hasher consumes. Struct fields are
// encoded in declaration order and map keys are sorted, so equal payloads
// always produce the same bytes. Empty and nil collections encode the same.
func (p Payload) Canonical() ([]byte, error) {
	var buf bytes.Buffer

	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)

	if err := enc.Encode(&p); err != nil {
		return nil, errors.Wrap(err, "encoding payload")
	}

	return buf.Bytes(), nil
}

// Clone returns a deep copy so callers cannot alias ledger held state.
func (p Payload) Clone() Payload {
	c := Payload{Version: p.Version}

	if p.Records != nil {
		c.Records = make([]Record, len(p.Records))
		copy(c.Records, p.Records)
	}

	if p.Meta != nil {
		c.Meta = make(map[string]string, len(p.Meta))
		for k, v := range p.Meta {
			c.Meta[k] = v
		}
	}

	return c
}

// Summary is a single line description for listings.
func (p Payload) Summary() string {
	parts := make([]string, 0, len(p.Records)+len(p.Meta))

	for _, r := range p.Records {
		parts = append(parts, r.String())
	}

	if len(p.Meta) > 0 {
		keys := make([]string, 0, len(p.Meta))
		for k := range p.Meta {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			parts = append(parts, k+"="+p.Meta[k])
		}
	}

	return strings.Join(parts, "; ")
}
