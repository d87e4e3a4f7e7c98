package cache

import "context"

// Repository reads and writes one envelope per user.
type Repository interface {
	Get(ctx context.Context, userID string) (Envelope, error)
	Put(ctx context.Context, userID string, e Envelope) error
	Delete(ctx context.Context, userID string) error
}
