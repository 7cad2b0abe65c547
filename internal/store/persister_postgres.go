package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"whitecarrot/internal/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresPersister stores the document as one JSONB row keyed by the
// store key
type PostgresPersister struct {
	db    *pgxpool.Pool
	table string
	key   string
}

// NewPostgresPersister opens a pool and creates the document table if needed
func NewPostgresPersister(ctx context.Context, cfg config.PostgresStoreConfig, key string) (*PostgresPersister, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.MaxConnLifetime = time.Hour

	db, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	p := &PostgresPersister{
		db:    db,
		table: pgx.Identifier{cfg.Table}.Sanitize(),
		key:   key,
	}
	if err := p.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

func (p *PostgresPersister) migrate(ctx context.Context) error {
	q := `
CREATE TABLE IF NOT EXISTS ` + p.table + ` (
	key        TEXT PRIMARY KEY,
	document   JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	if _, err := p.db.Exec(ctx, q); err != nil {
		return fmt.Errorf("create table %s: %w", p.table, err)
	}
	return nil
}

func (p *PostgresPersister) Load(ctx context.Context) ([]byte, error) {
	q := `SELECT document FROM ` + p.table + ` WHERE key = $1`
	var doc []byte
	if err := p.db.QueryRow(ctx, q, p.key).Scan(&doc); err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoData
		}
		return nil, fmt.Errorf("select document: %w", err)
	}
	return doc, nil
}

func (p *PostgresPersister) Save(ctx context.Context, doc []byte) error {
	q := `
INSERT INTO ` + p.table + ` (key, document, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET document = EXCLUDED.document, updated_at = now()
`
	if _, err := p.db.Exec(ctx, q, p.key, string(doc)); err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return nil
}

func (p *PostgresPersister) Close() error {
	p.db.Close()
	return nil
}
