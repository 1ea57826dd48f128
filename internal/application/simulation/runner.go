package simulation

// runner.go: worker pool para repartir los trials entre cores.
//
// Cada worker recibe una cuota disjunta de trials, su propio generador y su
// propio Tally. No hay estado compartido durante la ejecución: la única
// sincronización es la suma final de tallies.

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alejandrodnm/gamblersruin/internal/domain"
	"github.com/alejandrodnm/gamblersruin/internal/domain/betting"
)

const defaultCheckEvery = 1024

// Config controla el runner.
type Config struct {
	Workers    int // goroutines (0 = NumCPU)
	CheckEvery int // cada cuántos trials se consulta el contexto (0 = 1024)
	Betting    betting.Options
	Observe    StepObserver // opcional; se llama concurrentemente desde los workers
}

// Runner orquesta los trials de un run.
type Runner struct {
	cfg Config
}

// NewRunner crea un Runner aplicando defaults.
func NewRunner(cfg Config) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.CheckEvery <= 0 {
		cfg.CheckEvery = defaultCheckEvery
	}
	return &Runner{cfg: cfg}
}

// Workers devuelve el tamaño efectivo del pool.
func (r *Runner) Workers() int {
	return r.cfg.Workers
}

// Simulate valida, ejecuta y agrega un run completo.
func (r *Runner) Simulate(ctx context.Context, p domain.SimulationParameters) (domain.SimulationResult, error) {
	start := time.Now()
	tally, err := r.Run(ctx, p)
	if err != nil {
		return domain.SimulationResult{}, err
	}
	res := Aggregate(tally, time.Since(start))
	res.Policy = betting.ForParams(p, r.cfg.Betting).Name()
	res.StepLimit = StepLimit(p)
	return res, nil
}

// Run ejecuta p.Trials trials y devuelve el conteo. Si el contexto se cancela
// devuelve el error y ningún conteo parcial.
func (r *Runner) Run(ctx context.Context, p domain.SimulationParameters) (domain.Tally, error) {
	if err := p.Validate(); err != nil {
		return domain.Tally{}, fmt.Errorf("simulation.Run: %w", err)
	}

	seed := p.Seed
	if seed == 0 {
		seed = RandomSeed()
	}
	workers := min(r.cfg.Workers, p.Trials)
	policy := betting.ForParams(p, r.cfg.Betting)

	slog.Debug("simulation starting",
		"mode", p.Mode,
		"trials", p.Trials,
		"workers", workers,
		"policy", policy.Name(),
		"max_steps", StepLimit(p),
	)

	tallies := make([]domain.Tally, workers)
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		share := p.Trials / workers
		if w < p.Trials%workers {
			share++
		}
		g.Go(func() error {
			exec := NewExecutor(p, policy)
			exec.Observe = r.cfg.Observe
			exec.Done = gctx.Done()
			src := NewSource(seed, w)

			var local domain.Tally
			for n := 0; n < share; n++ {
				if n%r.cfg.CheckEvery == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				outcome, ok := exec.Run(src)
				if !ok {
					return gctx.Err()
				}
				local.Record(outcome)
			}
			tallies[w] = local
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return domain.Tally{}, fmt.Errorf("simulation.Run: %w", err)
	}
	// un deadline vencido durante el último trial no cuenta como run completo
	if err := ctx.Err(); err != nil {
		return domain.Tally{}, fmt.Errorf("simulation.Run: %w", err)
	}

	var total domain.Tally
	for _, t := range tallies {
		total = total.Add(t)
	}

	slog.Debug("simulation complete",
		"wins", total.Wins,
		"brokes", total.Brokes,
		"inconclusive", total.Inconclusive,
	)
	return total, nil
}
