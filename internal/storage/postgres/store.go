package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"araswap/internal/model"
)

// Schema creates the tables used by Store.
const Schema = `
CREATE TABLE IF NOT EXISTS pool_operations (
	pool_name     TEXT    NOT NULL,
	seq           BIGINT  NOT NULL,
	op            TEXT    NOT NULL,
	caller        TEXT    NOT NULL,
	base_in       NUMERIC(78, 0) NOT NULL,
	token_in      NUMERIC(78, 0) NOT NULL,
	base_out      NUMERIC(78, 0) NOT NULL,
	token_out     NUMERIC(78, 0) NOT NULL,
	base_reserve  NUMERIC(78, 0) NOT NULL,
	token_reserve NUMERIC(78, 0) NOT NULL,
	initialized   BOOLEAN NOT NULL,
	error_kind    TEXT,
	error         TEXT,
	applied_at    TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (pool_name, seq)
);
CREATE TABLE IF NOT EXISTS pool_state (
	pool_name     TEXT PRIMARY KEY,
	base_reserve  NUMERIC(78, 0) NOT NULL,
	token_reserve NUMERIC(78, 0) NOT NULL,
	initialized   BOOLEAN NOT NULL,
	seq           BIGINT  NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);
`

// Store persists the operation journal and pool snapshots for one named pool.
type Store struct {
	pool *pgxpool.Pool
	name string
}

func NewStore(ctx context.Context, dsn, name string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	if name == "" {
		return nil, fmt.Errorf("pool name is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool, name: name}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates missing tables.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, Schema)
	return err
}

// Append inserts operation records. Replayed sequence numbers are ignored.
func (s *Store) Append(ctx context.Context, records []model.OperationRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(`
			INSERT INTO pool_operations (
				pool_name, seq, op, caller, base_in, token_in, base_out, token_out,
				base_reserve, token_reserve, initialized, error_kind, error, applied_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			ON CONFLICT (pool_name, seq) DO NOTHING
		`,
			s.name,
			int64(rec.Seq),
			rec.Op,
			rec.Caller,
			numeric(rec.BaseIn),
			numeric(rec.TokenIn),
			numeric(rec.BaseOut),
			numeric(rec.TokenOut),
			numeric(rec.BaseReserve),
			numeric(rec.TokenReserve),
			rec.Initialized,
			nullable(rec.ErrorKind),
			nullable(rec.Error),
			rec.AppliedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// Load returns the stored pool state.
func (s *Store) Load(ctx context.Context) (model.StateRecord, bool, error) {
	var rec model.StateRecord
	row := s.pool.QueryRow(ctx, `
		SELECT base_reserve::text, token_reserve::text, initialized, seq
		FROM pool_state WHERE pool_name=$1
	`, s.name)
	var seq int64
	if err := row.Scan(&rec.BaseReserve, &rec.TokenReserve, &rec.Initialized, &seq); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.StateRecord{}, false, nil
		}
		return model.StateRecord{}, false, err
	}
	rec.Seq = uint64(seq)
	return rec, true, nil
}

// Save upserts the pool state.
func (s *Store) Save(ctx context.Context, rec model.StateRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO pool_state (pool_name, base_reserve, token_reserve, initialized, seq, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (pool_name) DO UPDATE
		SET base_reserve = EXCLUDED.base_reserve,
			token_reserve = EXCLUDED.token_reserve,
			initialized = EXCLUDED.initialized,
			seq = EXCLUDED.seq,
			updated_at = now()
	`, s.name, numeric(rec.BaseReserve), numeric(rec.TokenReserve), rec.Initialized, int64(rec.Seq))
	return err
}

// numeric passes decimal strings through as NUMERIC text.
func numeric(value string) string {
	if value == "" {
		return "0"
	}
	return value
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
