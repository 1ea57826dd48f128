package simulation

import (
	"math"

	"github.com/alejandrodnm/gamblersruin/internal/domain"
)

// Límites del guard de pasos por trial.
const (
	StepGuardFactor = 100
	MinStepGuard    = 10_000
	MaxStepGuard    = 50_000_000
)

// Boundaries son las dos fronteras absorbentes de un run.
type Boundaries struct {
	Lower float64
	Upper float64
}

// ResolveBoundaries: inferior 0 (o -k con crédito), superior n.
func ResolveBoundaries(p domain.SimulationParameters) Boundaries {
	return Boundaries{
		Lower: float64(p.LowerBound()),
		Upper: float64(p.UpperBound()),
	}
}

// Classify devuelve el resultado si el capital tocó una frontera.
// ok=false mientras el paseo sigue vivo.
func (b Boundaries) Classify(capital float64) (outcome domain.TrialOutcome, ok bool) {
	switch {
	case capital >= b.Upper:
		return domain.OutcomeWin, true
	case capital <= b.Lower:
		return domain.OutcomeBroke, true
	default:
		return 0, false
	}
}

// Span es la distancia entre fronteras.
func (b Boundaries) Span() float64 {
	return b.Upper - b.Lower
}

// DefaultMaxSteps deriva el guard del rango entre fronteras medido en apuestas
// base: la duración esperada de un paseo justo crece con el cuadrado de ese rango.
//
//	clamp(StepGuardFactor · ceil(span/j)², MinStepGuard, MaxStepGuard)
func DefaultMaxSteps(p domain.SimulationParameters) int {
	span := ResolveBoundaries(p).Span()
	bet := float64(max(p.Bet, 1))
	units := math.Ceil(span / bet)
	guard := StepGuardFactor * units * units
	switch {
	case guard < MinStepGuard:
		return MinStepGuard
	case guard > MaxStepGuard:
		return MaxStepGuard
	default:
		return int(guard)
	}
}

// StepLimit devuelve el guard efectivo: el explícito del run o el derivado.
func StepLimit(p domain.SimulationParameters) int {
	if p.MaxSteps > 0 {
		return p.MaxSteps
	}
	return DefaultMaxSteps(p)
}
