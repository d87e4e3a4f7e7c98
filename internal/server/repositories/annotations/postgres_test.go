package annotations

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/canvasser/internal/common"
	"github.com/dmitrijs2005/canvasser/internal/models"
	"github.com/dmitrijs2005/canvasser/internal/normalize"
	"github.com/jackc/pgx/v5/pgconn"
)

var columns = []string{
	"id", "house_number", "street", "city", "province", "full_address",
	"visited", "visit_date", "status", "interest_level", "contact_info", "notes", "follow_up_date",
}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func samplePatch() *models.AnnotationPatch {
	return &models.AnnotationPatch{
		RemoteID:    "new-id",
		HouseNumber: "3",
		Street:      "C/ Mayor",
		City:        "Málaga",
		Province:    "Málaga",
		FullAddress: "3 C/ Mayor",
		Annotation: models.Annotation{
			Visited: models.VisitedYes,
			Status:  models.StatusInterested,
			Notes:   "ring twice",
		},
	}
}

func patchArgs(userID string, p *models.AnnotationPatch) []driver.Value {
	return []driver.Value{
		p.RemoteID, userID, p.HouseNumber, p.Street, p.City,
		normalize.City(p.City), normalize.Street(p.Street),
		p.Province, p.FullAddress,
		string(p.Visited), p.VisitDate, string(p.Status), string(p.InterestLevel),
		p.ContactInfo, p.Notes, p.FollowUpDate,
	}
}

func TestUpsert_ReturnsStoredID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	p := samplePatch()
	q := regexp.MustCompile(`INSERT INTO annotations .* ON CONFLICT ON CONSTRAINT annotations_address_uq\s+DO UPDATE SET .* RETURNING id`)

	mock.ExpectQuery(q.String()).
		WithArgs(patchArgs("u1", p)...).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("existing-id"))

	if err := repo.Upsert(context.Background(), "u1", p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.RemoteID != "existing-id" {
		t.Fatalf("RemoteID = %q, want existing-id", p.RemoteID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpsert_KeysAreNormalized(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	p := samplePatch()
	mock.ExpectQuery(`INSERT INTO annotations`).
		WithArgs(sqlmock.AnyArg(), "u1", "3", "C/ Mayor", "Málaga", "malaga", normalize.Street("Carrer Mayor"),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("x"))

	if err := repo.Upsert(context.Background(), "u1", p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpsert_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO annotations`).WillReturnError(errors.New("db is down"))

	err := repo.Upsert(context.Background(), "u1", samplePatch())
	if err == nil || !regexp.MustCompile(`db error: .*db is down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestInsert_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	p := samplePatch()
	q := regexp.MustCompile(`INSERT INTO annotations .* VALUES .*\s+RETURNING id`)
	mock.ExpectQuery(q.String()).
		WithArgs(patchArgs("u1", p)...).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("new-id"))

	if err := repo.Insert(context.Background(), "u1", p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.RemoteID != "new-id" {
		t.Fatalf("RemoteID = %q", p.RemoteID)
	}
}

func TestInsert_UniqueViolationIsConflict(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO annotations`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "annotations_address_uq"})

	err := repo.Insert(context.Background(), "u1", samplePatch())
	if !errors.Is(err, common.ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
}

func TestInsert_OtherPgError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO annotations`).
		WillReturnError(&pgconn.PgError{Code: "23502"})

	err := repo.Insert(context.Background(), "u1", samplePatch())
	if err == nil || errors.Is(err, common.ErrConflict) {
		t.Fatalf("want plain db error, got %v", err)
	}
}

func TestUpdateOne_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	a := models.Annotation{Visited: models.VisitedYes, Status: models.StatusSale, InterestLevel: models.InterestHigh}
	q := regexp.MustCompile(`UPDATE annotations SET .* WHERE user_id = \$1 AND id = \$2\s+RETURNING id, house_number`)

	mock.ExpectQuery(q.String()).
		WithArgs("u1", "id1", "Yes", "", "Sale", "High", "", "", "").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			"id1", "3", "Calle Mayor", "Madrid", "Madrid", "3 Calle Mayor",
			"Yes", "", "Sale", "High", "", "", ""))

	got, err := repo.UpdateOne(context.Background(), "u1", "id1", a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.RemoteID != "id1" || got.Status != models.StatusSale || got.InterestLevel != models.InterestHigh || got.Street != "Calle Mayor" {
		t.Fatalf("unexpected row: %+v", got)
	}
}

func TestUpdateOne_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`UPDATE annotations SET`).
		WillReturnRows(sqlmock.NewRows(columns))

	_, err := repo.UpdateOne(context.Background(), "u1", "missing", models.DefaultAnnotation())
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestQueryByCity_UsesCityKey(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(`SELECT id, .* FROM annotations\s+WHERE user_id = \$1 AND city_key = \$2`)
	mock.ExpectQuery(q.String()).
		WithArgs("u1", "malaga").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("a", "1", "Calle Larios", "Málaga", "", "1 Calle Larios", "Yes", "2024-05-01", "Contacted", "", "", "", "").
			AddRow("b", "2", "Calle Larios", "malaga", "", "2 Calle Larios", "No", "", "Absent", "", "", "", ""))

	got, err := repo.QueryByCity(context.Background(), "u1", "  MÁLAGA ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 rows, got %d", len(got))
	}
	if got[0].VisitDate != "2024-05-01" || got[1].Status != models.StatusAbsent {
		t.Fatalf("unexpected rows: %+v", got)
	}
}

func TestQueryByCity_EmptyIsNotNil(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, .* FROM annotations`).WillReturnRows(sqlmock.NewRows(columns))

	got, err := repo.QueryByCity(context.Background(), "u1", "Nowhere")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("want empty non-nil slice, got %#v", got)
	}
}

func TestQueryByCity_QueryError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, .* FROM annotations`).WillReturnError(errors.New("db err"))

	_, err := repo.QueryByCity(context.Background(), "u1", "Madrid")
	if err == nil || !regexp.MustCompile(`failed to select annotations: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped select error, got %v", err)
	}
}

func TestListAll_RowsErr(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(columns).
		AddRow("a", "1", "Calle Larios", "Málaga", "", "", "No", "", "Contacted", "", "", "", "").
		AddRow("b", "2", "Calle Larios", "Málaga", "", "", "No", "", "Contacted", "", "", "", "").
		RowError(1, errors.New("row-err"))
	mock.ExpectQuery(`SELECT id, .* FROM annotations\s+WHERE user_id = \$1\s+ORDER BY city_key`).
		WithArgs("u1").
		WillReturnRows(rows)

	_, err := repo.ListAll(context.Background(), "u1")
	if err == nil || err.Error() != "row-err" {
		t.Fatalf("expected rows.Err 'row-err', got %v", err)
	}
}

func TestDeleteAll(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM annotations WHERE user_id = \$1`).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 7))

	n, err := repo.DeleteAll(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 7 {
		t.Fatalf("deleted = %d, want 7", n)
	}
}

func TestDeleteAll_RowsAffectedError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM annotations`).
		WillReturnResult(sqlmock.NewErrorResult(errors.New("rows-err")))

	_, err := repo.DeleteAll(context.Background(), "u1")
	if err == nil || !regexp.MustCompile(`rows affected error: .*rows-err`).MatchString(err.Error()) {
		t.Fatalf("expected rows affected error, got %v", err)
	}
}
