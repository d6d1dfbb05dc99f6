package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"simreg/internal/domain"
	"simreg/internal/port"
	"simreg/internal/secure"
)

// CheckpointStore keeps the progress of one wizard in the same slot backend
// as its session id, sealed the same way.
type CheckpointStore struct {
	slot   port.SessionSlot
	key    string
	sealer *secure.Sealer
	ttl    time.Duration
}

// NewCheckpointStore binds a slot key to a wizard's checkpoint. sealer may be nil.
func NewCheckpointStore(slot port.SessionSlot, key string, sealer *secure.Sealer, ttl time.Duration) *CheckpointStore {
	return &CheckpointStore{slot: slot, key: key, sealer: sealer, ttl: ttl}
}

// Load returns the saved checkpoint. A value that cannot be unsealed or
// decoded is dropped and reported as domain.ErrNotFound.
func (s *CheckpointStore) Load(ctx context.Context) (*domain.Checkpoint, error) {
	sealed, err := s.slot.Load(ctx, s.key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("session.CheckpointStore.Load: %w", err)
	}

	raw, err := s.sealer.Open(sealed)
	if err == nil {
		var cp domain.Checkpoint
		if err = json.Unmarshal([]byte(raw), &cp); err == nil {
			return &cp, nil
		}
	}
	log.Printf("session.CheckpointStore.Load: discarding unreadable checkpoint %s: %v", s.key, err)
	_ = s.slot.Delete(ctx, s.key)
	return nil, domain.ErrNotFound
}

// Save replaces the checkpoint.
func (s *CheckpointStore) Save(ctx context.Context, cp *domain.Checkpoint) error {
	raw, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("session.CheckpointStore.Save: %w", err)
	}
	sealed, err := s.sealer.Seal(string(raw))
	if err != nil {
		return fmt.Errorf("session.CheckpointStore.Save: %w", err)
	}
	if err := s.slot.Save(ctx, s.key, sealed, s.ttl); err != nil {
		return fmt.Errorf("session.CheckpointStore.Save: %w", err)
	}
	return nil
}

// Clear removes the checkpoint.
func (s *CheckpointStore) Clear(ctx context.Context) error {
	if err := s.slot.Delete(ctx, s.key); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("session.CheckpointStore.Clear: %w", err)
	}
	return nil
}
