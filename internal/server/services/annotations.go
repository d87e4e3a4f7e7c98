// Package services holds the server-side use cases behind the gRPC handlers.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/canvasser/internal/common"
	"github.com/dmitrijs2005/canvasser/internal/dbx"
	"github.com/dmitrijs2005/canvasser/internal/logging"
	"github.com/dmitrijs2005/canvasser/internal/models"
	"github.com/dmitrijs2005/canvasser/internal/server/archive"
	"github.com/dmitrijs2005/canvasser/internal/server/repositories/annotations"
	"github.com/dmitrijs2005/canvasser/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

type AnnotationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	archiver    archive.Archiver
	logger      logging.Logger
}

func NewAnnotationService(db *sql.DB, repomanager repomanager.RepositoryManager, archiver archive.Archiver, logger logging.Logger) *AnnotationService {
	if archiver == nil {
		archiver = archive.Nop{}
	}
	return &AnnotationService{
		db:          db,
		repomanager: repomanager,
		archiver:    archiver,
		logger:      logger.With("module", "annotation_service"),
	}
}

// Upsert stores every record, overwriting the annotation of rows that already
// exist for the same address. The batch is atomic.
func (s *AnnotationService) Upsert(ctx context.Context, userID string, records []models.AnnotationPatch) ([]models.AnnotationPatch, error) {
	return s.write(ctx, userID, records, annotations.Repository.Upsert)
}

// Insert stores every record as a new row. Any existing address fails the
// whole batch with common.ErrConflict.
func (s *AnnotationService) Insert(ctx context.Context, userID string, records []models.AnnotationPatch) ([]models.AnnotationPatch, error) {
	return s.write(ctx, userID, records, annotations.Repository.Insert)
}

type writeFunc func(r annotations.Repository, ctx context.Context, userID string, p *models.AnnotationPatch) error

func (s *AnnotationService) write(ctx context.Context, userID string, records []models.AnnotationPatch, fn writeFunc) ([]models.AnnotationPatch, error) {
	out := make([]models.AnnotationPatch, len(records))
	for i, r := range records {
		if err := validateRecord(r); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		a, err := canonicalAnnotation(r.Annotation)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		r.Annotation = a
		if r.RemoteID == "" {
			r.RemoteID = uuid.NewString()
		}
		out[i] = r
	}
	if len(out) == 0 {
		return out, nil
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Annotations(tx)
		for i := range out {
			if err := fn(repo, ctx, userID, &out[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug(ctx, "records stored", "user", userID, "count", len(out))
	return out, nil
}

// UpdateOne replaces the annotation of the row with the given id. Unknown ids
// yield common.ErrNotFound.
func (s *AnnotationService) UpdateOne(ctx context.Context, userID, id string, a models.Annotation) (*models.AnnotationPatch, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrNotFound
	}
	a, err := canonicalAnnotation(a)
	if err != nil {
		return nil, err
	}
	return s.repomanager.Annotations(s.db).UpdateOne(ctx, userID, id, a)
}

// QueryByCity returns the user's stored rows for city, matched on the
// normalized name.
func (s *AnnotationService) QueryByCity(ctx context.Context, userID, city string) ([]models.AnnotationPatch, error) {
	if strings.TrimSpace(city) == "" {
		return []models.AnnotationPatch{}, nil
	}
	return s.repomanager.Annotations(s.db).QueryByCity(ctx, userID, city)
}

// DeleteAll archives the user's rows and then removes them. Nothing is
// deleted when the archive upload fails.
func (s *AnnotationService) DeleteAll(ctx context.Context, userID string) (int64, string, error) {
	repo := s.repomanager.Annotations(s.db)

	records, err := repo.ListAll(ctx, userID)
	if err != nil {
		return 0, "", err
	}

	key, err := s.archiver.Archive(ctx, userID, records)
	if err != nil {
		return 0, "", err
	}

	n, err := repo.DeleteAll(ctx, userID)
	if err != nil {
		return 0, key, err
	}

	s.logger.Info(ctx, "annotations deleted", "user", userID, "count", n, "archive", key)
	return n, key, nil
}

func validateRecord(r models.AnnotationPatch) error {
	if strings.TrimSpace(r.HouseNumber) == "" || strings.TrimSpace(r.Street) == "" || strings.TrimSpace(r.City) == "" {
		return fmt.Errorf("%w: house number, street and city are required", models.ErrInvalidValue)
	}
	if r.RemoteID != "" {
		if _, err := uuid.Parse(r.RemoteID); err != nil {
			return fmt.Errorf("%w: id %q", models.ErrInvalidValue, r.RemoteID)
		}
	}
	return nil
}

// canonicalAnnotation rewrites enum aliases ("venta", "sí") to their stored
// form and fills empty enums with the defaults.
func canonicalAnnotation(a models.Annotation) (models.Annotation, error) {
	out := models.DefaultAnnotation()
	out.ContactInfo = a.ContactInfo
	out.Notes = a.Notes

	set := []struct {
		field models.Field
		value string
	}{
		{models.FieldVisited, string(a.Visited)},
		{models.FieldVisitDate, a.VisitDate},
		{models.FieldStatus, string(a.Status)},
		{models.FieldInterestLevel, string(a.InterestLevel)},
		{models.FieldFollowUpDate, a.FollowUpDate},
	}
	for _, f := range set {
		if f.value == "" {
			continue
		}
		var err error
		if out, err = out.Set(f.field, f.value); err != nil {
			return models.Annotation{}, err
		}
	}
	return out, nil
}
