package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/canvasser/internal/dbx"
	"github.com/dmitrijs2005/canvasser/internal/server/repositories/annotations"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Annotations(db dbx.DBTX) annotations.Repository
}
