package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/gamblersruin/internal/domain"
	"github.com/alejandrodnm/gamblersruin/internal/ports"
)

// saveTimeout acota la escritura del run, independiente del timeout de simulación.
const saveTimeout = 5 * time.Second

// ErrNoHistory se devuelve cuando no hay RunStore configurado.
var ErrNoHistory = errors.New("run history is not enabled")

// Config contiene los valores por defecto que el servicio aplica a cada run.
type Config struct {
	Timeout  time.Duration // 0 = sin límite
	MaxSteps int           // guard por trial si la petición no trae uno (0 = derivado)
	Seed     uint64        // semilla fija para todos los runs (0 = aleatoria)
}

// BasicRequest: moneda justa, doble o nada, apuesta 1.
type BasicRequest struct {
	Start  int
	Goal   int
	Trials int
}

// GeneralRequest: apuesta fija con p, q y j libres.
type GeneralRequest struct {
	Start   int
	Goal    int
	WinProb float64
	Payout  float64
	Bet     int
	Trials  int
}

// ExtendedRequest añade las tres extensiones. Credit es obligatorio si
// UseCredit; MaxBet si UseMaxBet.
type ExtendedRequest struct {
	GeneralRequest
	UseCredit         bool
	UseDynamicBetting bool
	UseMaxBet         bool
	Credit            *int
	MaxBet            *int
}

// Service expone las tres variantes sobre un único núcleo.
type Service struct {
	sim   ports.Simulator
	store ports.RunStore
	cfg   Config
	now   func() time.Time
}

// New crea el servicio. store puede ser nil: los runs no se persisten.
func New(sim ports.Simulator, store ports.RunStore, cfg Config) *Service {
	return &Service{
		sim:   sim,
		store: store,
		cfg:   cfg,
		now:   time.Now,
	}
}

// Basic ejecuta el problema clásico.
func (s *Service) Basic(ctx context.Context, req BasicRequest) (domain.RunRecord, error) {
	return s.run(ctx, domain.BasicParams(req.Start, req.Goal, req.Trials))
}

// General ejecuta el problema con apuesta fija y parámetros arbitrarios.
func (s *Service) General(ctx context.Context, req GeneralRequest) (domain.RunRecord, error) {
	return s.run(ctx, req.params())
}

// Extended ejecuta cualquier combinación de extensiones. Rechaza la petición
// si no hay ninguna activa.
func (s *Service) Extended(ctx context.Context, req ExtendedRequest) (domain.RunRecord, error) {
	p := req.GeneralRequest.params()
	p.Mode = domain.ModeExtended
	p.UseCredit = req.UseCredit
	p.UseDynamicBetting = req.UseDynamicBetting
	p.UseMaxBet = req.UseMaxBet

	if req.UseCredit {
		if req.Credit == nil {
			return domain.RunRecord{}, &domain.ValidationError{Field: "k", Reason: "missing required parameter: k (credit line amount)"}
		}
		p.Credit = *req.Credit
	}
	if req.UseMaxBet {
		if req.MaxBet == nil {
			return domain.RunRecord{}, &domain.ValidationError{Field: "m", Reason: "missing required parameter: m (maximum bet)"}
		}
		p.MaxBet = *req.MaxBet
	}
	return s.run(ctx, p)
}

// History lista los últimos runs persistidos.
func (s *Service) History(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if s.store == nil {
		return nil, ErrNoHistory
	}
	runs, err := s.store.ListRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("service.History: %w", err)
	}
	return runs, nil
}

// HistoryBetween lista los runs creados en [from, to], en orden cronológico.
func (s *Service) HistoryBetween(ctx context.Context, from, to time.Time) ([]domain.RunRecord, error) {
	if s.store == nil {
		return nil, ErrNoHistory
	}
	runs, err := s.store.RunsBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("service.HistoryBetween: %w", err)
	}
	return runs, nil
}

// Analytic devuelve la probabilidad cerrada cuando el run es un paseo ±1 simple.
func (s *Service) Analytic(p domain.SimulationParameters) (float64, bool) {
	return domain.AnalyticWinProbability(p)
}

func (s *Service) run(ctx context.Context, p domain.SimulationParameters) (domain.RunRecord, error) {
	if err := p.Validate(); err != nil {
		return domain.RunRecord{}, err
	}
	if p.MaxSteps == 0 {
		p.MaxSteps = s.cfg.MaxSteps
	}
	if p.Seed == 0 {
		p.Seed = s.cfg.Seed
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	res, err := s.sim.Simulate(ctx, p)
	if err != nil {
		return domain.RunRecord{}, fmt.Errorf("service.run: %w", err)
	}

	rec := domain.RunRecord{
		ID:        uuid.NewString(),
		CreatedAt: s.now().UTC(),
		Params:    p,
		Result:    res,
	}

	slog.Info("simulation complete",
		"run_id", rec.ID,
		"mode", p.Mode,
		"trials", res.Trials,
		"win_probability", res.WinProbability,
		"inconclusive", res.Tally.Inconclusive,
		"elapsed", res.Elapsed,
	)
	if res.LowConfidence {
		slog.Warn("many trials hit the step guard",
			"run_id", rec.ID,
			"inconclusive_fraction", res.InconclusiveFraction,
		)
	}

	s.save(ctx, rec)
	return rec, nil
}

// save persiste el run aunque el contexto del run ya haya vencido.
func (s *Service) save(ctx context.Context, rec domain.RunRecord) {
	if s.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()
	if err := s.store.SaveRun(ctx, rec); err != nil {
		slog.Warn("storage error", "err", err, "run_id", rec.ID)
	}
}

func (r GeneralRequest) params() domain.SimulationParameters {
	return domain.GeneralParams(r.Start, r.Goal, r.WinProb, r.Payout, r.Bet, r.Trials)
}
