package pinlog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/memoire/internal/dbx"
	"github.com/dmitrijs2005/memoire/internal/server/migrations"
)

// SQLitePrefix selects the embedded SQLite driver, e.g. "sqlite:pins.db".
// Any other DSN is handed to pgx.
const SQLitePrefix = "sqlite:"

// SQL is a Journal over PostgreSQL or SQLite.
type SQL struct {
	db      *sql.DB
	dialect string
}

// Open connects to dsn and applies pending migrations.
func Open(ctx context.Context, dsn string) (*SQL, error) {
	driver, dialect := "pgx", dbx.DialectPostgres
	if rest, ok := strings.CutPrefix(dsn, SQLitePrefix); ok {
		driver, dialect, dsn = "sqlite", dbx.DialectSQLite, rest
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	if err := migrations.Up(ctx, db, dialect); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return NewSQL(db, dialect), nil
}

// NewSQL wraps an already migrated database.
func NewSQL(db *sql.DB, dialect string) *SQL {
	return &SQL{db: db, dialect: dialect}
}

func (s *SQL) q(query string) string {
	return dbx.Rebind(s.dialect, query)
}

func (s *SQL) RecordPinned(ctx context.Context, p Pin) error {
	query := s.q(`
		INSERT INTO pins (creation_id, request_id, position, cid, size, orphaned, pinned_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if _, err := s.db.ExecContext(ctx, query, p.CreationID, p.RequestID, p.Position, p.CID, p.Size, p.Orphaned, p.PinnedAt.Unix()); err != nil {
		return fmt.Errorf("record pin: %w", err)
	}
	return nil
}

func (s *SQL) MarkOrphaned(ctx context.Context, creationID string) ([]Pin, error) {
	var marked []Pin

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		update := s.q(`UPDATE pins SET orphaned = ? WHERE creation_id = ?`)
		if _, err := tx.ExecContext(ctx, update, true, creationID); err != nil {
			return err
		}

		query := s.q(`
			SELECT creation_id, request_id, position, cid, size, orphaned, pinned_at
			FROM pins
			WHERE creation_id = ?
			ORDER BY position
		`)
		var err error
		marked, err = scanPins(tx.QueryContext(ctx, query, creationID))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("mark orphaned: %w", err)
	}
	return marked, nil
}

func (s *SQL) Orphaned(ctx context.Context) ([]Pin, error) {
	query := s.q(`
		SELECT p.creation_id, p.request_id, p.position, p.cid, p.size, p.orphaned, p.pinned_at
		FROM pins p
		WHERE p.orphaned = ?
		  AND NOT EXISTS (
			SELECT 1 FROM pins live WHERE live.cid = p.cid AND live.orphaned = ?
		  )
		ORDER BY p.pinned_at, p.creation_id, p.position
	`)
	pins, err := scanPins(s.db.QueryContext(ctx, query, true, false))
	if err != nil {
		return nil, fmt.Errorf("list orphaned: %w", err)
	}
	return pins, nil
}

func (s *SQL) Close() error {
	return s.db.Close()
}

func scanPins(rows *sql.Rows, err error) ([]Pin, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Pin
	for rows.Next() {
		var p Pin
		var pinnedAt int64
		if err := rows.Scan(&p.CreationID, &p.RequestID, &p.Position, &p.CID, &p.Size, &p.Orphaned, &pinnedAt); err != nil {
			return nil, err
		}
		p.PinnedAt = time.Unix(pinnedAt, 0).UTC()
		res = append(res, p)
	}
	return res, rows.Err()
}
