// Package annotations persists per-user address annotations in PostgreSQL.
package annotations

import (
	"context"

	"github.com/dmitrijs2005/canvasser/internal/models"
)

type Repository interface {
	Upsert(ctx context.Context, userID string, p *models.AnnotationPatch) error
	Insert(ctx context.Context, userID string, p *models.AnnotationPatch) error
	UpdateOne(ctx context.Context, userID, id string, a models.Annotation) (*models.AnnotationPatch, error)
	QueryByCity(ctx context.Context, userID, city string) ([]models.AnnotationPatch, error)
	ListAll(ctx context.Context, userID string) ([]models.AnnotationPatch, error)
	DeleteAll(ctx context.Context, userID string) (int64, error)
}
