package httpapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alejandrodnm/gamblersruin/internal/adapters/httpapi"
	"github.com/alejandrodnm/gamblersruin/internal/application/service"
	"github.com/alejandrodnm/gamblersruin/internal/application/simulation"
	"github.com/alejandrodnm/gamblersruin/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSims registra la última petición y devuelve un run fijo.
type stubSims struct {
	basic    *service.BasicRequest
	general  *service.GeneralRequest
	extended *service.ExtendedRequest
	err      error
	history  []domain.RunRecord
	histErr  error
	from, to time.Time
}

func (s *stubSims) run(p domain.SimulationParameters) (domain.RunRecord, error) {
	if s.err != nil {
		return domain.RunRecord{}, s.err
	}
	return domain.RunRecord{
		ID:        "run-1",
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Params:    p,
		Result: domain.SimulationResult{
			WinProbability:   0.25,
			BrokeProbability: 0.75,
			Trials:           p.Trials,
			Tally:            domain.Tally{Wins: p.Trials / 4, Brokes: p.Trials - p.Trials/4},
			Elapsed:          1500 * time.Millisecond,
		},
	}, nil
}

func (s *stubSims) Basic(_ context.Context, req service.BasicRequest) (domain.RunRecord, error) {
	s.basic = &req
	return s.run(domain.BasicParams(req.Start, req.Goal, req.Trials))
}

func (s *stubSims) General(_ context.Context, req service.GeneralRequest) (domain.RunRecord, error) {
	s.general = &req
	return s.run(domain.GeneralParams(req.Start, req.Goal, req.WinProb, req.Payout, req.Bet, req.Trials))
}

func (s *stubSims) Extended(_ context.Context, req service.ExtendedRequest) (domain.RunRecord, error) {
	s.extended = &req
	p := domain.GeneralParams(req.Start, req.Goal, req.WinProb, req.Payout, req.Bet, req.Trials)
	p.Mode = domain.ModeExtended
	return s.run(p)
}

func (s *stubSims) History(context.Context, int) ([]domain.RunRecord, error) {
	return s.history, s.histErr
}

func (s *stubSims) HistoryBetween(_ context.Context, from, to time.Time) ([]domain.RunRecord, error) {
	s.from, s.to = from, to
	return s.history, s.histErr
}

func newServer(sims httpapi.Simulations, cfg httpapi.RouterConfig) http.Handler {
	return httpapi.NewRouter(httpapi.NewHandler(sims, httpapi.Limits{DefaultTrials: 10_000, MaxTrials: 1_000_000}), cfg)
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func TestBasicSimulation_DefaultsTrials(t *testing.T) {
	sims := &stubSims{}
	rec, out := do(t, newServer(sims, httpapi.RouterConfig{}), http.MethodPost, "/api/basic-simulation", `{"i": 10, "n": 20}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, sims.basic)
	assert.Equal(t, service.BasicRequest{Start: 10, Goal: 20, Trials: 10_000}, *sims.basic)

	assert.Equal(t, "run-1", out["run_id"])
	assert.Equal(t, 0.25, out["win_probability"])
	assert.Equal(t, 0.75, out["broke_probability"])
	assert.Equal(t, 1.5, out["execution_time"])
	assert.Equal(t, 0.5, out["theoretical_win_probability"])
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestBasicSimulation_MissingParameters(t *testing.T) {
	h := newServer(&stubSims{}, httpapi.RouterConfig{})

	rec, out := do(t, h, http.MethodPost, "/api/basic-simulation", `{"n": 20}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing required parameter: i (starting amount)", out["error"])

	rec, out = do(t, h, http.MethodPost, "/api/basic-simulation", `{"i": 2}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing required parameter: n (goal amount)", out["error"])
}

func TestBasicSimulation_BadBodies(t *testing.T) {
	h := newServer(&stubSims{}, httpapi.RouterConfig{})

	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty", ``, "Request body must be a JSON object"},
		{"array", `[1, 2]`, "Request body must be a JSON object"},
		{"string field", `{"i": "ten", "n": 20}`, "Invalid parameter types"},
		{"broken json", `{"i": 1,`, "Invalid JSON"},
		{"too many trials", `{"i": 1, "n": 2, "trials": 1000001}`, "Number of trials cannot exceed 1000000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, out := do(t, h, http.MethodPost, "/api/basic-simulation", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, out["error"], tt.want)
		})
	}
}

func TestGeneralSimulation_RequiresAllFields(t *testing.T) {
	h := newServer(&stubSims{}, httpapi.RouterConfig{})

	rec, out := do(t, h, http.MethodPost, "/api/general-simulation", `{"i": 10, "n": 20, "p": 0.4, "j": 2}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing required parameter: q", out["error"])
}

func TestGeneralSimulation_PassesParameters(t *testing.T) {
	sims := &stubSims{}
	rec, out := do(t, newServer(sims, httpapi.RouterConfig{}), http.MethodPost, "/api/general-simulation",
		`{"i": 10, "n": 20, "p": 0.4, "q": 1.5, "j": 2, "trials": 5000}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.GeneralRequest{Start: 10, Goal: 20, WinProb: 0.4, Payout: 1.5, Bet: 2, Trials: 5000}, *sims.general)
	assert.NotContains(t, out, "theoretical_win_probability", "q=1.5 has no closed form")
}

func TestExtendedSimulation_PassesFlags(t *testing.T) {
	sims := &stubSims{}
	rec, _ := do(t, newServer(sims, httpapi.RouterConfig{}), http.MethodPost, "/api/extended-simulation",
		`{"i": 10, "n": 20, "p": 0.4, "q": 1.5, "j": 2, "use_credit": true, "k": 5, "use_max_bet": true, "m": 4}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, sims.extended)
	assert.True(t, sims.extended.UseCredit)
	assert.True(t, sims.extended.UseMaxBet)
	assert.False(t, sims.extended.UseDynamicBetting)
	require.NotNil(t, sims.extended.Credit)
	assert.Equal(t, 5, *sims.extended.Credit)
	require.NotNil(t, sims.extended.MaxBet)
	assert.Equal(t, 4, *sims.extended.MaxBet)
	assert.Equal(t, 10_000, sims.extended.Trials)
}

func TestSimulation_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		want   string
	}{
		{"no extension", domain.ErrNoExtension, http.StatusBadRequest, "no extensions selected"},
		{"validation", &domain.ValidationError{Field: "p", Reason: "win probability (p) must be between 0 and 1 (exclusive)"}, http.StatusBadRequest, "win probability (p)"},
		{"engine", errors.New("service.run: context deadline exceeded"), http.StatusInternalServerError, "Simulation error: service.run: context deadline exceeded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newServer(&stubSims{err: tt.err}, httpapi.RouterConfig{})
			rec, out := do(t, h, http.MethodPost, "/api/extended-simulation", `{"i": 1, "n": 2, "p": 0.5, "q": 2, "j": 1}`)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, out["error"], tt.want)
		})
	}
}

func TestHistory(t *testing.T) {
	sims := &stubSims{}
	first, err := sims.run(domain.BasicParams(1, 2, 100))
	require.NoError(t, err)
	sims.history = []domain.RunRecord{first}

	h := newServer(sims, httpapi.RouterConfig{})
	rec, out := do(t, h, http.MethodGet, "/api/history?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	runs, ok := out["runs"].([]any)
	require.True(t, ok)
	assert.Len(t, runs, 1)

	rec, _ = do(t, h, http.MethodGet, "/api/history?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistory_Range(t *testing.T) {
	sims := &stubSims{}
	for i := 0; i < 3; i++ {
		run, err := sims.run(domain.BasicParams(1, 2, 100))
		require.NoError(t, err)
		sims.history = append(sims.history, run)
	}
	h := newServer(sims, httpapi.RouterConfig{})

	rec, out := do(t, h, http.MethodGet, "/api/history?from=2026-01-01T00:00:00Z&to=2026-01-03T00:00:00Z&limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code, out["error"])
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), sims.from.UTC())
	assert.Equal(t, time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC), sims.to.UTC())
	runs, ok := out["runs"].([]any)
	require.True(t, ok)
	assert.Len(t, runs, 2)

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"to without from", "to=2026-01-03T00:00:00Z", "from is required"},
		{"bad from", "from=yesterday", "from must be RFC3339"},
		{"bad to", "from=2026-01-01T00:00:00Z&to=soon", "to must be RFC3339"},
		{"reversed", "from=2026-01-03T00:00:00Z&to=2026-01-01T00:00:00Z", "to must not be before from"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, out := do(t, h, http.MethodGet, "/api/history?"+tt.query, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, out["error"], tt.want)
		})
	}
}

func TestHistory_Disabled(t *testing.T) {
	h := newServer(&stubSims{histErr: service.ErrNoHistory}, httpapi.RouterConfig{})
	rec, out := do(t, h, http.MethodGet, "/api/history", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, service.ErrNoHistory.Error(), out["error"])
}

func TestDocsHealthAndNotFound(t *testing.T) {
	h := newServer(&stubSims{}, httpapi.RouterConfig{})

	rec, out := do(t, h, http.MethodGet, "/api/docs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	endpoints, ok := out["endpoints"].([]any)
	require.True(t, ok)
	assert.Len(t, endpoints, 4)

	rec, out = do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", out["status"])

	rec, out = do(t, h, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not found", out["error"])
}

func TestCORSHeaders(t *testing.T) {
	h := newServer(&stubSims{}, httpapi.RouterConfig{})

	req := httptest.NewRequest(http.MethodGet, "/api/docs", nil)
	req.Header.Set("Origin", "http://example.test")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	h := newServer(&stubSims{}, httpapi.RouterConfig{RatePerSec: 0.001, Burst: 1})

	rec, _ := do(t, h, http.MethodGet, "/api/docs", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, out := do(t, h, http.MethodGet, "/api/docs", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Too many requests", out["error"])

	// /healthz queda fuera del límite
	rec, _ = do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEndToEnd_RealEngine(t *testing.T) {
	runner := simulation.NewRunner(simulation.Config{Workers: 2})
	svc := service.New(runner, nil, service.Config{Seed: 3})
	h := newServer(svc, httpapi.RouterConfig{})

	rec, out := do(t, h, http.MethodPost, "/api/basic-simulation", `{"i": 5, "n": 10, "trials": 4000}`)
	require.Equal(t, http.StatusOK, rec.Code, out["error"])
	assert.InDelta(t, 0.5, out["win_probability"], 0.05)
	assert.EqualValues(t, 4000, out["trials"])

	rec, out = do(t, h, http.MethodPost, "/api/extended-simulation", `{"i": 5, "n": 10, "p": 0.5, "q": 2, "j": 1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, out["error"], "no extensions selected")

	rec, out = do(t, h, http.MethodPost, "/api/basic-simulation", `{"i": 10, "n": 10}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, out["error"])

	rec, _ = do(t, h, http.MethodGet, "/api/history", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
