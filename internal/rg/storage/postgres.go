package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/radieske/responsible-gambling/internal/rg"
)

// Schema cria a tabela usada pelo backend Postgres.
const Schema = `
	CREATE TABLE IF NOT EXISTS rg_session_state (
	  key        TEXT PRIMARY KEY,
	  state      JSONB NOT NULL,
	  version    BIGINT NOT NULL DEFAULT 1,
	  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// Postgres persiste o agregado na tabela rg_session_state.
// version é incrementado a cada escrita para auditoria.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// Migrate aplica o Schema.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate rg_session_state: %w", err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	var raw []byte
	err := p.db.QueryRowContext(ctx, `SELECT state FROM rg_session_state WHERE key=$1`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, rg.ErrNoState
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (p *Postgres) Set(ctx context.Context, key string, value []byte) error {
	const q = `
		INSERT INTO rg_session_state (key, state, version, updated_at)
		VALUES ($1, $2, 1, NOW())
		ON CONFLICT (key) DO UPDATE SET
		  state      = EXCLUDED.state,
		  version    = rg_session_state.version + 1,
		  updated_at = NOW()
	`
	_, err := p.db.ExecContext(ctx, q, key, string(value))
	return err
}
