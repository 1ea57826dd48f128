package httpapi

import (
	"strconv"
	"time"

	"github.com/alejandrodnm/gamblersruin/internal/domain"
)

// Los campos numéricos son punteros para distinguir "ausente" de cero.
type basicRequest struct {
	I      *int `json:"i"`      // capital inicial
	N      *int `json:"n"`      // objetivo
	Trials *int `json:"trials"` // opcional, default de config
}

type generalRequest struct {
	I      *int     `json:"i"`
	N      *int     `json:"n"`
	P      *float64 `json:"p"` // probabilidad de ganar
	Q      *float64 `json:"q"` // multiplicador de pago
	J      *int     `json:"j"` // apuesta
	Trials *int     `json:"trials"`
}

type extendedRequest struct {
	generalRequest
	UseCredit         bool `json:"use_credit"`
	UseDynamicBetting bool `json:"use_dynamic_betting"`
	UseMaxBet         bool `json:"use_max_bet"`
	K                 *int `json:"k"` // línea de crédito
	M                 *int `json:"m"` // apuesta máxima
}

type runResponse struct {
	RunID                string   `json:"run_id"`
	Mode                 string   `json:"mode"`
	WinProbability       float64  `json:"win_probability"`
	BrokeProbability     float64  `json:"broke_probability"`
	InconclusiveFraction float64  `json:"inconclusive_fraction"`
	Trials               int      `json:"trials"`
	Wins                 int      `json:"wins"`
	Brokes               int      `json:"brokes"`
	Inconclusive         int      `json:"inconclusive"`
	WinStdError          float64  `json:"win_std_error"`
	LowConfidence        bool     `json:"low_confidence"`
	Policy               string   `json:"policy,omitempty"`
	StepLimit            int      `json:"step_limit,omitempty"`
	TheoreticalWinProb   *float64 `json:"theoretical_win_probability,omitempty"`
	ExecutionTime        float64  `json:"execution_time"` // segundos
	CreatedAt            string   `json:"created_at"`
}

type historyResponse struct {
	Runs []runResponse `json:"runs"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toRunResponse(run domain.RunRecord) runResponse {
	res := run.Result
	out := runResponse{
		RunID:                run.ID,
		Mode:                 string(run.Params.Mode),
		WinProbability:       res.WinProbability,
		BrokeProbability:     res.BrokeProbability,
		InconclusiveFraction: res.InconclusiveFraction,
		Trials:               res.Trials,
		Wins:                 res.Tally.Wins,
		Brokes:               res.Tally.Brokes,
		Inconclusive:         res.Tally.Inconclusive,
		WinStdError:          res.WinStdError,
		LowConfidence:        res.LowConfidence,
		Policy:               res.Policy,
		StepLimit:            res.StepLimit,
		ExecutionTime:        res.Elapsed.Seconds(),
		CreatedAt:            run.CreatedAt.UTC().Format(time.RFC3339),
	}
	if want, ok := domain.AnalyticWinProbability(run.Params); ok {
		out.TheoreticalWinProb = &want
	}
	return out
}

// endpointDoc describe un endpoint en GET /api/docs.
type endpointDoc struct {
	Path        string            `json:"path"`
	Method      string            `json:"method"`
	Description string            `json:"description"`
	Parameters  map[string]string `json:"parameters,omitempty"`
	Example     *exampleDoc       `json:"example,omitempty"`
}

type exampleDoc struct {
	Request  map[string]any `json:"request"`
	Response map[string]any `json:"response"`
}

func apiDocs(defaultTrials, maxTrials int) map[string][]endpointDoc {
	trials := "Number of simulations to run (default: " + strconv.Itoa(defaultTrials) + ", max: " + strconv.Itoa(maxTrials) + ")"
	return map[string][]endpointDoc{
		"endpoints": {
			{
				Path:        "/api/basic-simulation",
				Method:      "POST",
				Description: "Basic Gambler's Ruin simulation: fair coin, double or nothing, $1 bets",
				Parameters: map[string]string{
					"i":      "Starting amount (dollars)",
					"n":      "Goal amount (dollars)",
					"trials": trials,
				},
				Example: &exampleDoc{
					Request:  map[string]any{"i": 10, "n": 20, "trials": 5000},
					Response: map[string]any{"win_probability": 0.5, "broke_probability": 0.5},
				},
			},
			{
				Path:        "/api/general-simulation",
				Method:      "POST",
				Description: "Generalized Gambler's Ruin simulation with fixed bets",
				Parameters: map[string]string{
					"i":      "Starting amount (dollars)",
					"n":      "Goal amount (dollars)",
					"p":      "Probability of winning each bet, 0 < p < 1",
					"q":      "Payout multiplier, q > 1",
					"j":      "Bet size",
					"trials": trials,
				},
				Example: &exampleDoc{
					Request:  map[string]any{"i": 10, "n": 20, "p": 0.4, "q": 1.5, "j": 2, "trials": 5000},
					Response: map[string]any{"win_probability": 0.3, "broke_probability": 0.7},
				},
			},
			{
				Path:        "/api/extended-simulation",
				Method:      "POST",
				Description: "Extended Gambler's Ruin simulation: credit line, dynamic betting and/or maximum bet",
				Parameters: map[string]string{
					"i":                   "Starting amount (dollars)",
					"n":                   "Goal amount (dollars)",
					"p":                   "Probability of winning each bet, 0 < p < 1",
					"q":                   "Payout multiplier, q > 1",
					"j":                   "Bet size",
					"k":                   "Credit line amount (required if use_credit=true)",
					"m":                   "Maximum bet (required if use_max_bet=true)",
					"use_credit":          "Enable line of credit (boolean)",
					"use_dynamic_betting": "Enable dynamic betting (boolean)",
					"use_max_bet":         "Enable maximum bet limit (boolean)",
					"trials":              trials,
				},
			},
			{
				Path:        "/api/history",
				Method:      "GET",
				Description: "Most recent stored runs, newest first; with from/to, runs in that range oldest first",
				Parameters: map[string]string{
					"limit": "Number of runs (default: 20, max: 500)",
					"from":  "RFC3339 start of the range (required with to)",
					"to":    "RFC3339 end of the range (default: now)",
				},
			},
		},
	}
}
