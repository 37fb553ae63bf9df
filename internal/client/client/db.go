package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/codifyr/internal/client/migrations"
	"github.com/dmitrijs2005/codifyr/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/codifyr/internal/filex"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// Repositories bundles the local stores opened by InitDatabase.
type Repositories struct {
	DB       *sql.DB
	Metadata metadata.Repository
}

func (r *Repositories) Close() error {
	return r.DB.Close()
}

// RunMigrations applies the embedded SQLite schema.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens (creating if needed) the local database at path and
// migrates it.
func InitDatabase(ctx context.Context, path string) (*Repositories, error) {
	if path != ":memory:" {
		if err := filex.EnsureParentDir(path); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one writer keeps SQLite from reporting SQLITE_BUSY under concurrent use
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate local db: %w", err)
	}

	return &Repositories{DB: db, Metadata: metadata.NewSQLiteRepository(db)}, nil
}
