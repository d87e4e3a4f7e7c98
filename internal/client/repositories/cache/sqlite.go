package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/canvasser/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Get returns Empty() when the user has no snapshot yet. A malformed payload
// yields Empty() and an error matching common.ErrMalformedCache.
func (r *SQLiteRepository) Get(ctx context.Context, userID string) (Envelope, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM cache WHERE user_id = ?`, userID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Empty(), nil
	}
	if err != nil {
		return Empty(), fmt.Errorf("failed to read cache: %w", err)
	}
	return Decode(payload)
}

func (r *SQLiteRepository) Put(ctx context.Context, userID string, e Envelope) error {
	payload, err := Encode(e)
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}
	updated := e.LastUpdated
	if updated.IsZero() {
		updated = time.Now()
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO cache (user_id, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`, userID, payload, updated.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cache WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete cache: %w", err)
	}
	return nil
}
