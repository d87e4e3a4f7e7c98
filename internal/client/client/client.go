package client

import (
	"context"

	"github.com/dmitrijs2005/canvasser/internal/models"
)

// RemoteStore persists annotations per user. The conflict key of Upsert is
// the (house_number, street, city) triple. Every call names the user
// explicitly; the server checks it against the access token.
type RemoteStore interface {
	Close() error
	Ping(ctx context.Context) error
	Upsert(ctx context.Context, userID string, records []models.AnnotationPatch) ([]models.AnnotationPatch, error)
	UpdateOne(ctx context.Context, userID, id string, a models.Annotation) (models.AnnotationPatch, error)
	QueryByCity(ctx context.Context, userID, city string) ([]models.AnnotationPatch, error)
	DeleteAll(ctx context.Context, userID string) error
}
