package queue

import (
	"context"
	"encoding/json"
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

func (r *SQLiteRepository) Append(ctx context.Context, userID string, e Entry) error {
	payload, err := json.Marshal(e.Patches)
	if err != nil {
		return fmt.Errorf("failed to encode queue entry: %w", err)
	}

	query := `INSERT INTO queue (id, user_id, ts, payload) VALUES (?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query, e.ID, userID, e.Timestamp.UTC().Format(time.RFC3339Nano), payload)
	if err != nil {
		return fmt.Errorf("failed to append queue entry: %w", err)
	}
	return nil
}

// List skips rows whose payload or timestamp cannot be decoded.
func (r *SQLiteRepository) List(ctx context.Context, userID string) ([]Entry, error) {
	entries, _, err := r.load(ctx, userID)
	return entries, err
}

// load returns the decodable entries in append order and the ids of the rows
// that are not.
func (r *SQLiteRepository) load(ctx context.Context, userID string) ([]Entry, []string, error) {
	query := `SELECT id, ts, payload FROM queue WHERE user_id = ? ORDER BY seq`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to select queue: %w", err)
	}
	defer rows.Close()

	result := make([]Entry, 0)
	var bad []string
	for rows.Next() {
		var (
			e       Entry
			ts      string
			payload []byte
		)
		if err := rows.Scan(&e.ID, &ts, &payload); err != nil {
			return nil, nil, fmt.Errorf("failed to scan queue row: %w", err)
		}
		if e.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			bad = append(bad, e.ID)
			continue
		}
		if err := json.Unmarshal(payload, &e.Patches); err != nil {
			bad = append(bad, e.ID)
			continue
		}
		result = append(result, e)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to iterate queue rows: %w", err)
	}

	return result, bad, nil
}

// Count counts the entries List would return.
func (r *SQLiteRepository) Count(ctx context.Context, userID string) (int, error) {
	entries, _, err := r.load(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count queue: %w", err)
	}
	return len(entries), nil
}

func (r *SQLiteRepository) Update(ctx context.Context, userID string, e Entry) error {
	payload, err := json.Marshal(e.Patches)
	if err != nil {
		return fmt.Errorf("failed to encode queue entry: %w", err)
	}

	query := `UPDATE queue SET payload = ? WHERE user_id = ? AND id = ?`
	if _, err := r.db.ExecContext(ctx, query, payload, userID, e.ID); err != nil {
		return fmt.Errorf("failed to update queue entry %s: %w", e.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) Prune(ctx context.Context, userID string) (int, error) {
	_, bad, err := r.load(ctx, userID)
	if err != nil {
		return 0, err
	}
	if err := r.Delete(ctx, userID, bad); err != nil {
		return 0, err
	}
	return len(bad), nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, userID string, ids []string) error {
	for _, id := range ids {
		if _, err := r.db.ExecContext(ctx, `DELETE FROM queue WHERE user_id = ? AND id = ?`, userID, id); err != nil {
			return fmt.Errorf("failed to delete queue entry %s: %w", id, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM queue WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to clear queue: %w", err)
	}
	return nil
}
