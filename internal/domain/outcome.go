package domain

import (
	"math"
	"time"
)

// TrialOutcome is the absorbing state a single walk ended in.
type TrialOutcome int

const (
	OutcomeWin TrialOutcome = iota
	OutcomeBroke
	OutcomeInconclusive
)

func (o TrialOutcome) String() string {
	switch o {
	case OutcomeWin:
		return "WIN"
	case OutcomeBroke:
		return "BROKE"
	case OutcomeInconclusive:
		return "INCONCLUSIVE"
	default:
		return "UNKNOWN"
	}
}

// Tally counts outcomes. Merging tallies is plain addition, so per-worker
// tallies can be combined in any order.
type Tally struct {
	Wins         int
	Brokes       int
	Inconclusive int
}

// Record adds one outcome.
func (t *Tally) Record(o TrialOutcome) {
	switch o {
	case OutcomeWin:
		t.Wins++
	case OutcomeBroke:
		t.Brokes++
	default:
		t.Inconclusive++
	}
}

// Add returns the sum of both tallies.
func (t Tally) Add(other Tally) Tally {
	return Tally{
		Wins:         t.Wins + other.Wins,
		Brokes:       t.Brokes + other.Brokes,
		Inconclusive: t.Inconclusive + other.Inconclusive,
	}
}

// Total is the number of trials recorded.
func (t Tally) Total() int {
	return t.Wins + t.Brokes + t.Inconclusive
}

// SimulationResult is what callers of the engine get back.
type SimulationResult struct {
	WinProbability       float64
	BrokeProbability     float64
	InconclusiveFraction float64
	Trials               int
	Tally                Tally
	WinStdError          float64 // binomial standard error of WinProbability
	LowConfidence        bool    // too many walks hit the step guard
	Elapsed              time.Duration
	Policy               string // betting policy actually used, e.g. "proportional+cap"
	StepLimit            int    // effective per-trial step guard
}

// ConfidenceInterval returns the ~95% normal-approximation interval for the
// win probability, clamped to [0,1].
func (r SimulationResult) ConfidenceInterval() (lo, hi float64) {
	half := 1.96 * r.WinStdError
	return math.Max(0, r.WinProbability-half), math.Min(1, r.WinProbability+half)
}

// RunRecord is a persisted simulation: the parameters that produced it and its result.
type RunRecord struct {
	ID        string
	CreatedAt time.Time
	Params    SimulationParameters
	Result    SimulationResult
}
