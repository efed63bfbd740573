package memory

import (
	"context"
	"time"

	"github.com/distrokart/storefront/internal/domain/fees"
)

// SettingsStore serves the merchant fee settings document. The raw document
// is exposed for the settings endpoint; the decoded form backs server-side
// fee computation.
type SettingsStore struct {
	raw   []byte
	delay time.Duration
}

// NewSettingsStore builds a store over a raw settings document.
func NewSettingsStore(raw []byte, delay time.Duration) *SettingsStore {
	return &SettingsStore{raw: raw, delay: delay}
}

// Document returns the raw settings JSON as stored.
func (s *SettingsStore) Document(ctx context.Context) ([]byte, error) {
	if err := wait(ctx, s.delay); err != nil {
		return nil, err
	}
	out := make([]byte, len(s.raw))
	copy(out, s.raw)
	return out, nil
}

// Settings returns the tolerantly decoded settings. Malformed documents
// degrade to zero-valued settings rather than failing.
func (s *SettingsStore) Settings(ctx context.Context) (fees.Settings, error) {
	if err := wait(ctx, s.delay); err != nil {
		return fees.Settings{}, err
	}
	return fees.DecodeSettings(s.raw), nil
}
