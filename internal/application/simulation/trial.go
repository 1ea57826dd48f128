package simulation

import (
	"github.com/alejandrodnm/gamblersruin/internal/domain"
	"github.com/alejandrodnm/gamblersruin/internal/domain/betting"
)

// stopCheckSteps: cada cuántos pasos un trial consulta Done.
const stopCheckSteps = 4096

// StepObserver recibe cada apuesta resuelta y el cambio de capital que produjo.
// El runner lo invoca desde varias goroutines a la vez.
type StepObserver func(bet int, delta float64)

// Executor ejecuta trials independientes con una configuración fija.
// Un Executor no guarda estado entre trials: cada Run parte de Start.
type Executor struct {
	Params   domain.SimulationParameters
	Policy   betting.Policy
	Bounds   Boundaries
	MaxSteps int
	Observe  StepObserver
	Done     <-chan struct{} // opcional; al cerrarse el trial en curso se abandona
}

// NewExecutor arma el executor de un run a partir de sus parámetros.
func NewExecutor(p domain.SimulationParameters, policy betting.Policy) *Executor {
	return &Executor{
		Params:   p,
		Policy:   policy,
		Bounds:   ResolveBoundaries(p),
		MaxSteps: StepLimit(p),
	}
}

// Run simula un paseo hasta una frontera o hasta agotar MaxSteps.
// Devuelve ok=false si Done se cerró antes de terminar; el resultado no vale.
func (e *Executor) Run(src Source) (domain.TrialOutcome, bool) {
	p := e.Params
	gain := p.Payout - 1
	state := betting.State{Capital: float64(p.Start)}

	for state.Step < e.MaxSteps {
		if e.Done != nil && state.Step%stopCheckSteps == 0 {
			select {
			case <-e.Done:
				return domain.OutcomeInconclusive, false
			default:
			}
		}
		bet := e.Policy.NextBet(state, p)

		var delta float64
		if src.Float64() < p.WinProb {
			delta = float64(bet) * gain
			state.LossStreak = 0
		} else {
			delta = -float64(bet)
			state.LossStreak++
		}
		state.Capital += delta
		state.Step++

		if e.Observe != nil {
			e.Observe(bet, delta)
		}
		if outcome, done := e.Bounds.Classify(state.Capital); done {
			return outcome, true
		}
	}
	return domain.OutcomeInconclusive, true
}
