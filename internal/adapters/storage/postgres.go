package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alejandrodnm/gamblersruin/internal/domain"
	"github.com/alejandrodnm/gamblersruin/internal/ports"
)

// ErrDuplicateRun se devuelve al insertar un id de run ya existente.
var ErrDuplicateRun = errors.New("run already stored")

const postgresSchema = `
CREATE TABLE IF NOT EXISTS runs (
    id                    TEXT PRIMARY KEY,
    created_at            BIGINT           NOT NULL,
    mode                  TEXT             NOT NULL,
    start_capital         INTEGER          NOT NULL,
    goal                  INTEGER          NOT NULL,
    win_prob              DOUBLE PRECISION NOT NULL,
    payout                DOUBLE PRECISION NOT NULL,
    bet                   INTEGER          NOT NULL,
    credit                INTEGER          NOT NULL DEFAULT 0,
    max_bet               INTEGER          NOT NULL DEFAULT 0,
    use_credit            BOOLEAN          NOT NULL DEFAULT FALSE,
    use_dynamic           BOOLEAN          NOT NULL DEFAULT FALSE,
    use_max_bet           BOOLEAN          NOT NULL DEFAULT FALSE,
    trials                INTEGER          NOT NULL,
    max_steps             INTEGER          NOT NULL DEFAULT 0,
    seed                  BIGINT           NOT NULL DEFAULT 0,
    wins                  INTEGER          NOT NULL,
    brokes                INTEGER          NOT NULL,
    inconclusive          INTEGER          NOT NULL,
    win_probability       DOUBLE PRECISION NOT NULL,
    broke_probability     DOUBLE PRECISION NOT NULL,
    inconclusive_fraction DOUBLE PRECISION NOT NULL,
    win_std_error         DOUBLE PRECISION NOT NULL,
    low_confidence        BOOLEAN          NOT NULL DEFAULT FALSE,
    elapsed_ns            BIGINT           NOT NULL,
    policy                TEXT             NOT NULL DEFAULT '',
    step_limit            INTEGER          NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_runs_mode    ON runs(mode);
`

// PostgreSQL error codes
const pgErrUniqueViolation = "23505"

// Pool wraps pgxpool.Pool for dependency injection.
type Pool struct {
	*pgxpool.Pool
}

// NewPool creates a new Postgres connection pool and verifies it with a ping.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// PostgresStore implements ports.RunStore on a shared PostgreSQL server.
type PostgresStore struct {
	pool *Pool
}

var _ ports.RunStore = (*PostgresStore)(nil)

// NewPostgresStore connects, applies the schema and prunes runs older than retention.
func NewPostgresStore(ctx context.Context, dsn string, retention time.Duration) (*PostgresStore, error) {
	pool, err := NewPool(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("storage.NewPostgresStore: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage.NewPostgresStore: apply schema: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if retention > 0 {
		if _, err := s.Prune(ctx, time.Now().Add(-retention)); err != nil {
			pool.Close()
			return nil, fmt.Errorf("storage.NewPostgresStore: %w", err)
		}
	}
	return s, nil
}

// SaveRun inserts a finished run. Returns ErrDuplicateRun if the id exists.
func (s *PostgresStore) SaveRun(ctx context.Context, run domain.RunRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO runs (`+runColumns+`) VALUES (
			$1, $2, $3,
			$4, $5, $6, $7, $8,
			$9, $10,
			$11, $12, $13,
			$14, $15, $16,
			$17, $18, $19,
			$20, $21, $22,
			$23, $24, $25,
			$26, $27
		)`, runArgs(run)...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
			return fmt.Errorf("storage.SaveRun: %s: %w", run.ID, ErrDuplicateRun)
		}
		return fmt.Errorf("storage.SaveRun: insert %s: %w", run.ID, err)
	}
	return nil
}

// ListRuns returns the latest runs, newest first.
func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.ListRuns: query: %w", err)
	}
	return collectPgRows(rows, "storage.ListRuns")
}

// RunsBetween returns runs created in [from, to], oldest first.
func (s *PostgresStore) RunsBetween(ctx context.Context, from, to time.Time) ([]domain.RunRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+runColumns+` FROM runs WHERE created_at BETWEEN $1 AND $2 ORDER BY created_at ASC`,
		from.UTC().UnixNano(), to.UTC().UnixNano())
	if err != nil {
		return nil, fmt.Errorf("storage.RunsBetween: query: %w", err)
	}
	return collectPgRows(rows, "storage.RunsBetween")
}

// Prune deletes runs created before cutoff.
func (s *PostgresStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM runs WHERE created_at < $1`, cutoff.UTC().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("storage.Prune: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func collectPgRows(rows pgx.Rows, op string) ([]domain.RunRecord, error) {
	defer rows.Close()

	var runs []domain.RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
