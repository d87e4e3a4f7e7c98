package metadata

import (
	"context"
)

// Well-known keys.
const (
	KeyLastSync    = "last_sync"
	KeyActiveUser  = "active_user"
	KeyAccessToken = "access_token"
)

// GlobalScope is the user id under which settings shared by all users live.
const GlobalScope = ""

// Repository is a small per-user key/value store.
type Repository interface {
	Get(ctx context.Context, userID, key string) ([]byte, error)
	Set(ctx context.Context, userID, key string, value []byte) error
	Delete(ctx context.Context, userID, key string) error
	List(ctx context.Context, userID string) (map[string][]byte, error)
	Clear(ctx context.Context, userID string) error
}
