package memory

import (
	"context"
	"sync"

	"github.com/distrokart/storefront/internal/domain/checkout"
)

var _ checkout.Recorder = (*CheckoutLog)(nil)

// CheckoutLog records checkout confirmations in memory, newest last. It is
// the session-scoped stand-in for the external checkout-initiation
// collaborator.
type CheckoutLog struct {
	mu      sync.Mutex
	records []checkout.Confirmation
}

// NewCheckoutLog creates an empty log.
func NewCheckoutLog() *CheckoutLog {
	return &CheckoutLog{}
}

// Record appends a confirmation.
func (l *CheckoutLog) Record(_ context.Context, conf *checkout.Confirmation) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, *conf)
	return nil
}

// All returns a copy of every recorded confirmation.
func (l *CheckoutLog) All() []checkout.Confirmation {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]checkout.Confirmation, len(l.records))
	copy(out, l.records)
	return out
}
