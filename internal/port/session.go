package port

import (
	"context"
	"time"

	"simreg/internal/domain"
)

// SessionSlot is a persisted key-value slot. Load returns domain.ErrNotFound
// when the key is absent or expired.
type SessionSlot interface {
	Load(ctx context.Context, key string) (string, error)
	Save(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// SessionStore holds the eKYC session id of one wizard.
type SessionStore interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, sessionID string) error
	Clear(ctx context.Context) error
}

// CheckpointStore persists the progress of one wizard. Load returns
// domain.ErrNotFound when nothing is saved.
type CheckpointStore interface {
	Load(ctx context.Context) (*domain.Checkpoint, error)
	Save(ctx context.Context, cp *domain.Checkpoint) error
	Clear(ctx context.Context) error
}
