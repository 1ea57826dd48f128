package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/gamblersruin/internal/domain"
)

// RunStore persiste las simulaciones completadas.
type RunStore interface {
	// SaveRun persiste un run terminado. Los runs cancelados nunca llegan aquí.
	SaveRun(ctx context.Context, run domain.RunRecord) error

	// ListRuns devuelve los últimos runs, más recientes primero.
	ListRuns(ctx context.Context, limit int) ([]domain.RunRecord, error)

	// RunsBetween devuelve los runs creados en el rango dado.
	RunsBetween(ctx context.Context, from, to time.Time) ([]domain.RunRecord, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
