// Package session holds the eKYC session id of a wizard in a persisted slot.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"simreg/internal/domain"
	"simreg/internal/port"
	"simreg/internal/secure"
)

// Store is the session context of a single wizard. The id is created when
// mobile validation succeeds and cleared on dismiss, expiry or restart.
type Store struct {
	slot   port.SessionSlot
	key    string
	sealer *secure.Sealer
	ttl    time.Duration
}

// NewStore binds a slot key to a wizard. sealer may be nil.
func NewStore(slot port.SessionSlot, key string, sealer *secure.Sealer, ttl time.Duration) *Store {
	return &Store{slot: slot, key: key, sealer: sealer, ttl: ttl}
}

// Key returns the slot key.
func (s *Store) Key() string { return s.key }

// Get returns the current session id, or "" when none is held. A value that
// cannot be unsealed is dropped and treated as absent.
func (s *Store) Get(ctx context.Context) (string, error) {
	sealed, err := s.slot.Load(ctx, s.key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("session.Get: %w", err)
	}
	id, err := s.sealer.Open(sealed)
	if err != nil {
		log.Printf("session.Get: discarding unreadable slot %s: %v", s.key, err)
		_ = s.slot.Delete(ctx, s.key)
		return "", nil
	}
	return id, nil
}

// Set stores a new session id, replacing any previous one.
func (s *Store) Set(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return domain.ErrMissingSessionID
	}
	sealed, err := s.sealer.Seal(sessionID)
	if err != nil {
		return fmt.Errorf("session.Set: %w", err)
	}
	if err := s.slot.Save(ctx, s.key, sealed, s.ttl); err != nil {
		return fmt.Errorf("session.Set: %w", err)
	}
	return nil
}

// Clear removes the session id.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.slot.Delete(ctx, s.key); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("session.Clear: %w", err)
	}
	return nil
}
