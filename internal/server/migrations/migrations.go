// Package migrations embeds the goose migrations for the pin journal. The
// SQL is kept portable across PostgreSQL and SQLite.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var Migrations embed.FS

// goose keeps its settings in package globals.
var mu sync.Mutex

// Up applies all pending migrations using the given goose dialect.
func Up(ctx context.Context, db *sql.DB, dialect string) error {
	mu.Lock()
	defer mu.Unlock()

	goose.SetBaseFS(Migrations)
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}
