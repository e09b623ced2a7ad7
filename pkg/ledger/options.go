package ledger

import (
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	DefaultAppendAttempts = 5

	defaultMinBackoff = time.Millisecond
	defaultMaxBackoff = 50 * time.Millisecond
)

type Option func(*Ledger) error

func WithStore(s Store) Option {
	return func(l *Ledger) error {
		if s == nil {
			return errors.New("nil store")
		}
		l.store = s
		return nil
	}
}

// WithAppendAttempts bounds how many times Append seals against a fresh head
// after losing a race.
func WithAppendAttempts(n int) Option {
	return func(l *Ledger) error {
		if n < 1 {
			return errors.Errorf("append attempts must be at least 1, got %d", n)
		}
		l.attempts = n
		return nil
	}
}

func WithBackoff(min, max time.Duration) Option {
	return func(l *Ledger) error {
		if min > max {
			return errors.New("min backoff larger than max")
		}
		l.minBackoff = min
		l.maxBackoff = max
		return nil
	}
}

// WithTampering enables the demonstration-only Tamperer capability.
func WithTampering(allow bool) Option {
	return func(l *Ledger) error {
		l.allowTamper = allow
		return nil
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) error {
		l.now = now
		return nil
	}
}

// WithGenesis sets the payload sealed into block 0 of a new ledger. It is
// ignored when the store already holds a chain.
func WithGenesis(p Payload) Option {
	return func(l *Ledger) error {
		l.genesis = p
		return nil
	}
}

func WithObserver(o Observer) Option {
	return func(l *Ledger) error {
		l.observer = o
		return nil
	}
}

func WithLogger(e *logrus.Entry) Option {
	return func(l *Ledger) error {
		l.logger = e
		return nil
	}
}
