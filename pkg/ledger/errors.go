package ledger

import "github.com/pkg/errors"

var (
	// ErrIndexOutOfRange is returned for lookups outside 0..Length()-1.
	ErrIndexOutOfRange = errors.New("block index out of range")

	// ErrConcurrentAppendConflict is returned when another append published a block
	// between reading the head and publishing. The caller should re-read the head
	// and seal again.
	ErrConcurrentAppendConflict = errors.New("concurrent append conflict")

	ErrTamperDisabled = errors.New("tampering is not enabled on this ledger")
)
