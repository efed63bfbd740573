// Package memory provides the in-memory stores backing the storefront API.
// They stand in for the real backend: static data served after an
// artificial delay, honouring context cancellation.
package memory

import (
	"context"
	"time"
)

// wait blocks for the configured artificial delay, returning early with the
// context error if the caller gives up first.
func wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
