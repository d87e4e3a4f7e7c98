// Package server wires the annotations server: PostgreSQL storage, the
// optional S3 archive and the gRPC endpoint.
package server

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/canvasser/internal/logging"
	"github.com/dmitrijs2005/canvasser/internal/server/archive"
	"github.com/dmitrijs2005/canvasser/internal/server/config"
	"github.com/dmitrijs2005/canvasser/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/canvasser/internal/server/services"

	gs "github.com/dmitrijs2005/canvasser/internal/server/grpc"
)

var (
	openDB = func(dsn string) (*sql.DB, error) {
		return sql.Open("pgx", dsn)
	}
	newRepoManager = repomanager.NewPostgresRepositoryManager
	newArchiver    = func(ctx context.Context, c *config.Config) (archive.Archiver, error) {
		return archive.NewS3Archiver(ctx, archive.Options{
			Region:       c.S3Region,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			Bucket:       c.S3Bucket,
			BaseEndpoint: c.S3BaseEndpoint,
		})
	}
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *gs.GRPCServer
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := newRepoManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	var arch archive.Archiver = archive.Nop{}
	if c.S3Bucket != "" {
		if arch, err = newArchiver(ctx, c); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("archive init error: %w", err)
		}
		logger.Info(ctx, "archiving enabled", "bucket", c.S3Bucket)
	}

	as := services.NewAnnotationService(db, rm, arch, logger)
	s := gs.NewGRPCServer(c.EndpointAddrGRPC, logger, as, c.SecretKey)

	return &App{config: c, logger: logger, db: db, server: s}, nil
}

// Run serves until ctx is cancelled, then closes the database.
func (app *App) Run(ctx context.Context) error {
	app.logger.Info(ctx, "Starting app...")

	defer func() {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "closing database", "error", err)
		}
	}()

	if err := app.server.Run(ctx); err != nil {
		return err
	}
	app.logger.Info(ctx, "Stopped")
	return nil
}
