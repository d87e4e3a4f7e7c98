// Package queue persists the offline sync log: an append-only, per-user list
// of annotation batches waiting for delivery to the remote store.
package queue

import (
	"context"
	"time"

	"github.com/dmitrijs2005/canvasser/internal/models"
)

// Entry is one queued batch.
type Entry struct {
	ID        string                   `json:"id"`
	Timestamp time.Time                `json:"timestamp"`
	Patches   []models.AnnotationPatch `json:"addresses"`
}

type Repository interface {
	// Append adds e at the end of the user's queue.
	Append(ctx context.Context, userID string, e Entry) error
	// List returns the user's entries in append order.
	List(ctx context.Context, userID string) ([]Entry, error)
	// Count counts the entries List would return.
	Count(ctx context.Context, userID string) (int, error)
	// Update replaces the patches of an existing entry, keeping its place.
	Update(ctx context.Context, userID string, e Entry) error
	// Prune deletes the user's undecodable rows and reports how many.
	Prune(ctx context.Context, userID string) (int, error)
	// Delete removes the listed entries of the user.
	Delete(ctx context.Context, userID string, ids []string) error
	// Clear removes every entry of the user.
	Clear(ctx context.Context, userID string) error
}
