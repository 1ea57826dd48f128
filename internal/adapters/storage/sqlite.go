package storage

// sqlite.go: historial de runs en un archivo local.
//
// Estrategia:
//   - `runs`: UNA fila por simulación completada, parámetros + resultado.
//     Los runs cancelados o fallidos nunca llegan aquí.
//   - Prune automático al arrancar: runs más antiguos que la retención.
//   - Una sola conexión: SQLite es single-writer y ":memory:" es por conexión.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alejandrodnm/gamblersruin/internal/domain"
	"github.com/alejandrodnm/gamblersruin/internal/ports"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS runs (
    id                    TEXT PRIMARY KEY,
    created_at            INTEGER NOT NULL,
    mode                  TEXT    NOT NULL,
    start_capital         INTEGER NOT NULL,
    goal                  INTEGER NOT NULL,
    win_prob              REAL    NOT NULL,
    payout                REAL    NOT NULL,
    bet                   INTEGER NOT NULL,
    credit                INTEGER NOT NULL DEFAULT 0,
    max_bet               INTEGER NOT NULL DEFAULT 0,
    use_credit            INTEGER NOT NULL DEFAULT 0,
    use_dynamic           INTEGER NOT NULL DEFAULT 0,
    use_max_bet           INTEGER NOT NULL DEFAULT 0,
    trials                INTEGER NOT NULL,
    max_steps             INTEGER NOT NULL DEFAULT 0,
    seed                  INTEGER NOT NULL DEFAULT 0,
    wins                  INTEGER NOT NULL,
    brokes                INTEGER NOT NULL,
    inconclusive          INTEGER NOT NULL,
    win_probability       REAL    NOT NULL,
    broke_probability     REAL    NOT NULL,
    inconclusive_fraction REAL    NOT NULL,
    win_std_error         REAL    NOT NULL,
    low_confidence        INTEGER NOT NULL DEFAULT 0,
    elapsed_ns            INTEGER NOT NULL,
    policy                TEXT    NOT NULL DEFAULT '',
    step_limit            INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_runs_mode    ON runs(mode);
`

// SQLiteStore implementa ports.RunStore usando SQLite (pure Go, sin CGo).
type SQLiteStore struct {
	db *sql.DB
}

var _ ports.RunStore = (*SQLiteStore)(nil)

// NewSQLiteStore abre (o crea) la base de datos en la ruta dada.
// Aplica el schema y limpia los runs fuera de la retención.
func NewSQLiteStore(ctx context.Context, path string, retention time.Duration) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStore: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStore: apply schema: %w", err)
	}

	s := &SQLiteStore{db: db}
	if retention > 0 {
		if _, err := s.Prune(ctx, time.Now().Add(-retention)); err != nil {
			db.Close()
			return nil, fmt.Errorf("storage.NewSQLiteStore: %w", err)
		}
	}
	return s, nil
}

// SaveRun inserta un run terminado.
func (s *SQLiteStore) SaveRun(ctx context.Context, run domain.RunRecord) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (`+runColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runArgs(run)...,
	); err != nil {
		return fmt.Errorf("storage.SaveRun: insert %s: %w", run.ID, err)
	}
	return nil
}

// ListRuns devuelve los últimos runs, más recientes primero.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.ListRuns: query: %w", err)
	}
	return collectSQLRows(rows, "storage.ListRuns")
}

// RunsBetween devuelve los runs creados en [from, to], en orden cronológico.
func (s *SQLiteStore) RunsBetween(ctx context.Context, from, to time.Time) ([]domain.RunRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE created_at BETWEEN ? AND ? ORDER BY created_at ASC`,
		from.UTC().UnixNano(), to.UTC().UnixNano())
	if err != nil {
		return nil, fmt.Errorf("storage.RunsBetween: query: %w", err)
	}
	return collectSQLRows(rows, "storage.RunsBetween")
}

// Prune elimina runs creados antes de cutoff y devuelve cuántos borró.
func (s *SQLiteStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE created_at < ?`, cutoff.UTC().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("storage.Prune: %w", err)
	}
	return res.RowsAffected()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func collectSQLRows(rows *sql.Rows, op string) ([]domain.RunRecord, error) {
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
