package annotations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/canvasser/internal/common"
	"github.com/dmitrijs2005/canvasser/internal/dbx"
	"github.com/dmitrijs2005/canvasser/internal/models"
	"github.com/dmitrijs2005/canvasser/internal/normalize"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

const selectColumns = `id, house_number, street, city, province, full_address,
	visited, visit_date, status, interest_level, contact_info, notes, follow_up_date`

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
// Rows are matched on the normalized street and city, so "C/ Major" and
// "Carrer Major" in "Málaga" and "malaga" are the same door.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func insertArgs(userID string, p *models.AnnotationPatch) []any {
	return []any{
		p.RemoteID, userID, p.HouseNumber, p.Street, p.City,
		normalize.City(p.City), normalize.Street(p.Street),
		p.Province, p.FullAddress,
		string(p.Visited), p.VisitDate, string(p.Status), string(p.InterestLevel),
		p.ContactInfo, p.Notes, p.FollowUpDate,
	}
}

// Upsert inserts p or overwrites the annotation of the existing row with the
// same address. p.RemoteID must be set by the caller; on conflict it is
// replaced by the id of the stored row.
func (r *PostgresRepository) Upsert(ctx context.Context, userID string, p *models.AnnotationPatch) error {
	query := `
		INSERT INTO annotations (id, user_id, house_number, street, city, city_key, street_key,
			province, full_address, visited, visit_date, status, interest_level,
			contact_info, notes, follow_up_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT ON CONSTRAINT annotations_address_uq
		DO UPDATE SET
			province = EXCLUDED.province,
			full_address = EXCLUDED.full_address,
			visited = EXCLUDED.visited,
			visit_date = EXCLUDED.visit_date,
			status = EXCLUDED.status,
			interest_level = EXCLUDED.interest_level,
			contact_info = EXCLUDED.contact_info,
			notes = EXCLUDED.notes,
			follow_up_date = EXCLUDED.follow_up_date,
			updated_at = now()
		RETURNING id
	`
	if err := r.db.QueryRowContext(ctx, query, insertArgs(userID, p)...).Scan(&p.RemoteID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Insert stores p as a new row. An existing row for the same address yields
// common.ErrConflict.
func (r *PostgresRepository) Insert(ctx context.Context, userID string, p *models.AnnotationPatch) error {
	query := `
		INSERT INTO annotations (id, user_id, house_number, street, city, city_key, street_key,
			province, full_address, visited, visit_date, status, interest_level,
			contact_info, notes, follow_up_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id
	`
	if err := r.db.QueryRowContext(ctx, query, insertArgs(userID, p)...).Scan(&p.RemoteID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.ErrConflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// UpdateOne replaces the annotation of the row with the given id.
func (r *PostgresRepository) UpdateOne(ctx context.Context, userID, id string, a models.Annotation) (*models.AnnotationPatch, error) {
	query := `
		UPDATE annotations SET
			visited = $3, visit_date = $4, status = $5, interest_level = $6,
			contact_info = $7, notes = $8, follow_up_date = $9, updated_at = now()
		WHERE user_id = $1 AND id = $2
		RETURNING ` + selectColumns

	row := r.db.QueryRowContext(ctx, query, userID, id,
		string(a.Visited), a.VisitDate, string(a.Status), string(a.InterestLevel),
		a.ContactInfo, a.Notes, a.FollowUpDate)

	p, err := scanPatch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

// QueryByCity returns the user's rows whose normalized city equals
// normalize.City(city).
func (r *PostgresRepository) QueryByCity(ctx context.Context, userID, city string) ([]models.AnnotationPatch, error) {
	query := `SELECT ` + selectColumns + ` FROM annotations
		WHERE user_id = $1 AND city_key = $2
		ORDER BY street, house_number`
	return r.list(ctx, query, userID, normalize.City(city))
}

// ListAll returns every row of the user.
func (r *PostgresRepository) ListAll(ctx context.Context, userID string) ([]models.AnnotationPatch, error) {
	query := `SELECT ` + selectColumns + ` FROM annotations
		WHERE user_id = $1
		ORDER BY city_key, street, house_number`
	return r.list(ctx, query, userID)
}

// DeleteAll removes every row of the user and returns how many were deleted.
func (r *PostgresRepository) DeleteAll(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM annotations WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]models.AnnotationPatch, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select annotations: %w", err)
	}
	defer rows.Close()

	result := make([]models.AnnotationPatch, 0)
	for rows.Next() {
		p, err := scanPatch(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPatch(s scanner) (*models.AnnotationPatch, error) {
	var (
		p                              models.AnnotationPatch
		visited, status, interestLevel string
	)
	if err := s.Scan(
		&p.RemoteID, &p.HouseNumber, &p.Street, &p.City, &p.Province, &p.FullAddress,
		&visited, &p.VisitDate, &status, &interestLevel, &p.ContactInfo, &p.Notes, &p.FollowUpDate,
	); err != nil {
		return nil, err
	}
	p.Visited = models.Visited(visited)
	p.Status = models.Status(status)
	p.InterestLevel = models.InterestLevel(interestLevel)
	return &p, nil
}
