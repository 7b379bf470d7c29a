package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNetwork marks a backend that could not be reached. Operations
	// failing with it are retried by [Backoff] and degrade the CLI to no
	// caching.
	ErrNetwork = errors.New("cache backend unreachable")

	// ErrUnknownBackend is returned by Open for an unrecognised backend name.
	ErrUnknownBackend = errors.New("unknown cache backend")
)

// IsUnavailable reports whether err came from an unreachable backend rather
// than from the caller's data.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// Backoff is the retry policy of remote caches. Only errors matching
// ErrNetwork are retried; the wait starts at Delay and doubles.
type Backoff struct {
	Attempts int
	Delay    time.Duration
}

// DefaultBackoff tries an operation three times, waiting 100ms and then 200ms.
var DefaultBackoff = Backoff{Attempts: 3, Delay: 100 * time.Millisecond}

// Do runs op until it succeeds, fails with a non-network error, ctx ends or
// the attempts are used up. The last error is returned.
func (b Backoff) Do(ctx context.Context, op func() error) error {
	attempts := max(b.Attempts, 1)
	delay := b.Delay
	var err error
	for i := 1; ; i++ {
		if err = op(); err == nil || !IsUnavailable(err) || i == attempts {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
}
