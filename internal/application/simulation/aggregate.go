package simulation

import (
	"math"
	"time"

	"github.com/alejandrodnm/gamblersruin/internal/domain"
)

// LowConfidenceThreshold: fracción de trials inconclusos a partir de la cual
// el resultado se marca como poco fiable.
const LowConfidenceThreshold = 0.01

// Aggregate convierte el conteo en probabilidades. Función pura del tally.
func Aggregate(t domain.Tally, elapsed time.Duration) domain.SimulationResult {
	trials := t.Total()
	if trials == 0 {
		return domain.SimulationResult{Elapsed: elapsed}
	}
	n := float64(trials)
	win := float64(t.Wins) / n
	inconclusive := float64(t.Inconclusive) / n

	return domain.SimulationResult{
		WinProbability:       win,
		BrokeProbability:     float64(t.Brokes) / n,
		InconclusiveFraction: inconclusive,
		Trials:               trials,
		Tally:                t,
		WinStdError:          math.Sqrt(win * (1 - win) / n),
		LowConfidence:        inconclusive > LowConfidenceThreshold,
		Elapsed:              elapsed,
	}
}
