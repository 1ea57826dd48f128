package ports

import (
	"context"

	"github.com/alejandrodnm/gamblersruin/internal/domain"
)

// Reporter presenta los resultados al usuario.
type Reporter interface {
	// Report muestra un run recién completado.
	// En la implementación de consola, imprime una tabla formateada.
	Report(ctx context.Context, run domain.RunRecord) error
}

// Simulator es el núcleo tal como lo ven los adaptadores.
type Simulator interface {
	Simulate(ctx context.Context, p domain.SimulationParameters) (domain.SimulationResult, error)
}
