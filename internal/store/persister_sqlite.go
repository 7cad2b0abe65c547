package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"whitecarrot/internal/config"

	_ "modernc.org/sqlite"
)

var sqliteTableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLitePersister stores the document as one row of a local SQLite file
type SQLitePersister struct {
	db    *sql.DB
	table string
	key   string
}

// NewSQLitePersister opens the database file and creates the table if needed
func NewSQLitePersister(ctx context.Context, cfg config.SQLiteStoreConfig, key string) (*SQLitePersister, error) {
	if !sqliteTableName.MatchString(cfg.Table) {
		return nil, fmt.Errorf("invalid sqlite table name %q", cfg.Table)
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.Path, err)
	}
	// modernc sqlite serializes writers; more connections only yield SQLITE_BUSY
	db.SetMaxOpenConns(1)

	p := &SQLitePersister{db: db, table: cfg.Table, key: key}
	q := `CREATE TABLE IF NOT EXISTS ` + p.table + ` (
	key        TEXT PRIMARY KEY,
	document   TEXT NOT NULL,
	updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
)`
	if _, err := db.ExecContext(ctx, q); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create table %s: %w", p.table, err)
	}
	return p, nil
}

func (p *SQLitePersister) Load(ctx context.Context) ([]byte, error) {
	var doc string
	err := p.db.QueryRowContext(ctx, `SELECT document FROM `+p.table+` WHERE key = ?`, p.key).Scan(&doc)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoData
		}
		return nil, fmt.Errorf("select document: %w", err)
	}
	return []byte(doc), nil
}

func (p *SQLitePersister) Save(ctx context.Context, doc []byte) error {
	q := `INSERT INTO ` + p.table + ` (key, document, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET document = excluded.document, updated_at = CURRENT_TIMESTAMP`
	if _, err := p.db.ExecContext(ctx, q, p.key, string(doc)); err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return nil
}

func (p *SQLitePersister) Close() error {
	return p.db.Close()
}
