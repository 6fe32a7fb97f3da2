package layouts

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps layouts in a SQLite file.
type SQLiteStore struct {
	conn *sql.DB
}

// OpenSQLite opens (or creates) the database at path. ":memory:" gives a
// private in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer; also keeps a :memory: database on a single connection.
	conn.SetMaxOpenConns(1)

	s := &SQLiteStore{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS layouts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		craft_json TEXT NOT NULL,
		thumbnail TEXT NOT NULL DEFAULT '',
		seq INTEGER NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_layouts_type ON layouts(type)`,
}

func (s *SQLiteStore) migrate() error {
	for i, m := range migrations {
		if _, err := s.conn.Exec(m); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

func (s *SQLiteStore) Save(ctx context.Context, l *Layout) error {
	if err := l.Validate(); err != nil {
		return err
	}
	l.UpdatedAt = time.Now().UTC()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = l.UpdatedAt
	}

	// seq preserves first-save order; an update keeps the original seq
	// and created_at.
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO layouts (id, name, type, craft_json, thumbnail, seq, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM layouts), ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			craft_json = excluded.craft_json,
			thumbnail = excluded.thumbnail,
			updated_at = excluded.updated_at`,
		l.ID, l.Name, string(l.Type), string(l.CraftJSON), l.Thumbnail, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save layout: %w", err)
	}

	// Report the stored creation time back to the caller.
	if err := s.conn.QueryRowContext(ctx, `SELECT created_at FROM layouts WHERE id = ?`, l.ID).Scan(&l.CreatedAt); err != nil {
		return fmt.Errorf("save layout: %w", err)
	}
	return nil
}

const selectColumns = `SELECT id, name, type, craft_json, thumbnail, created_at, updated_at FROM layouts`

type scanner interface {
	Scan(dest ...any) error
}

func scanLayout(row scanner) (Layout, error) {
	var (
		l        Layout
		kind     string
		craftRaw string
	)
	if err := row.Scan(&l.ID, &l.Name, &kind, &craftRaw, &l.Thumbnail, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return Layout{}, err
	}
	l.Type = Kind(kind)
	l.CraftJSON = []byte(craftRaw)
	return l, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Layout, error) {
	l, err := scanLayout(s.conn.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get layout: %w", err)
	}
	return &l, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM layouts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete layout: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound(id)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Layout, error) {
	return s.query(ctx, selectColumns+` ORDER BY seq ASC`)
}

// ListByType filters by kind; an empty kind matches everything.
func (s *SQLiteStore) ListByType(ctx context.Context, kind Kind) ([]Layout, error) {
	if kind == "" {
		return s.List(ctx)
	}
	return s.query(ctx, selectColumns+` WHERE type = ? ORDER BY seq ASC`, string(kind))
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]Layout, error) {
	rows, err := s.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list layouts: %w", err)
	}
	defer rows.Close()

	out := []Layout{}
	for rows.Next() {
		l, err := scanLayout(rows)
		if err != nil {
			return nil, fmt.Errorf("list layouts: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
