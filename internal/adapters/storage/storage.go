package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alejandrodnm/gamblersruin/internal/domain"
	"github.com/alejandrodnm/gamblersruin/internal/ports"
)

// ErrUnknownDriver se devuelve cuando storage.driver no es sqlite, postgres ni none.
var ErrUnknownDriver = errors.New("unknown storage driver")

// Config selecciona el backend del historial de runs.
type Config struct {
	Driver    string        // sqlite | postgres | none
	DSN       string        // ruta SQLite / ":memory:" o URL postgres
	Retention time.Duration // runs más antiguos se eliminan al abrir; 0 = no purgar
}

// Open abre el RunStore configurado. Con driver "none" devuelve (nil, nil):
// el servicio sigue funcionando sin historial.
func Open(ctx context.Context, cfg Config) (ports.RunStore, error) {
	switch cfg.Driver {
	case "none":
		return nil, nil
	case "", "sqlite":
		s, err := NewSQLiteStore(ctx, cfg.DSN, cfg.Retention)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := NewPostgresStore(ctx, cfg.DSN, cfg.Retention)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("storage.Open: %w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

// rowScanner lo cumplen *sql.Row, *sql.Rows, pgx.Row y pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// runArgs aplana un RunRecord en el orden de las columnas de `runs`.
// created_at y elapsed van en nanosegundos; seed como int64 (mismo patrón de bits).
func runArgs(r domain.RunRecord) []any {
	p, res := r.Params, r.Result
	return []any{
		r.ID,
		r.CreatedAt.UTC().UnixNano(),
		string(p.Mode),
		p.Start, p.Goal, p.WinProb, p.Payout, p.Bet,
		p.Credit, p.MaxBet,
		p.UseCredit, p.UseDynamicBetting, p.UseMaxBet,
		p.Trials, p.MaxSteps, int64(p.Seed),
		res.Tally.Wins, res.Tally.Brokes, res.Tally.Inconclusive,
		res.WinProbability, res.BrokeProbability, res.InconclusiveFraction,
		res.WinStdError, res.LowConfidence, res.Elapsed.Nanoseconds(),
		res.Policy, res.StepLimit,
	}
}

const runColumns = `id, created_at, mode,
	start_capital, goal, win_prob, payout, bet,
	credit, max_bet,
	use_credit, use_dynamic, use_max_bet,
	trials, max_steps, seed,
	wins, brokes, inconclusive,
	win_probability, broke_probability, inconclusive_fraction,
	win_std_error, low_confidence, elapsed_ns,
	policy, step_limit`

func scanRun(row rowScanner) (domain.RunRecord, error) {
	var (
		r                  domain.RunRecord
		mode               string
		createdNs, elapsed int64
		seed               int64
	)
	p, res := &r.Params, &r.Result
	if err := row.Scan(
		&r.ID, &createdNs, &mode,
		&p.Start, &p.Goal, &p.WinProb, &p.Payout, &p.Bet,
		&p.Credit, &p.MaxBet,
		&p.UseCredit, &p.UseDynamicBetting, &p.UseMaxBet,
		&p.Trials, &p.MaxSteps, &seed,
		&res.Tally.Wins, &res.Tally.Brokes, &res.Tally.Inconclusive,
		&res.WinProbability, &res.BrokeProbability, &res.InconclusiveFraction,
		&res.WinStdError, &res.LowConfidence, &elapsed,
		&res.Policy, &res.StepLimit,
	); err != nil {
		return domain.RunRecord{}, err
	}
	r.CreatedAt = time.Unix(0, createdNs).UTC()
	p.Mode = domain.Mode(mode)
	p.Seed = uint64(seed)
	res.Trials = res.Tally.Total()
	res.Elapsed = time.Duration(elapsed)
	return r, nil
}
