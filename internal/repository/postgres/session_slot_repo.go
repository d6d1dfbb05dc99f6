package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"simreg/internal/domain"
)

// SessionSlotRepo persists sealed session ids in the session_slots table.
type SessionSlotRepo struct {
	db *sqlx.DB
}

// NewSessionSlotRepo creates a new PostgreSQL-backed session slot.
func NewSessionSlotRepo(db *sqlx.DB) *SessionSlotRepo {
	return &SessionSlotRepo{db: db}
}

func (r *SessionSlotRepo) Load(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.GetContext(ctx, &value,
		`SELECT sealed_value FROM session_slots
		WHERE slot_key = $1 AND (expires_at IS NULL OR expires_at > now())`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("sessionSlotRepo.Load: %w", err)
	}
	return value, nil
}

func (r *SessionSlotRepo) Save(ctx context.Context, key, value string, ttl time.Duration) error {
	var expiresAt *time.Time
	if ttl > 0 {
		t := time.Now().UTC().Add(ttl)
		expiresAt = &t
	}

	query := `INSERT INTO session_slots (slot_key, sealed_value, expires_at, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (slot_key) DO UPDATE
		SET sealed_value = EXCLUDED.sealed_value, expires_at = EXCLUDED.expires_at, updated_at = now()`

	if _, err := r.db.ExecContext(ctx, query, key, value, expiresAt); err != nil {
		return fmt.Errorf("sessionSlotRepo.Save: %w", err)
	}
	return nil
}

func (r *SessionSlotRepo) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM session_slots WHERE slot_key = $1", key); err != nil {
		return fmt.Errorf("sessionSlotRepo.Delete: %w", err)
	}
	return nil
}

// PurgeExpired deletes expired slots and returns how many were removed.
func (r *SessionSlotRepo) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM session_slots WHERE expires_at IS NOT NULL AND expires_at <= now()")
	if err != nil {
		return 0, fmt.Errorf("sessionSlotRepo.PurgeExpired: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
