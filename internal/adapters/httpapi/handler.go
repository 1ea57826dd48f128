package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/alejandrodnm/gamblersruin/internal/application/service"
	"github.com/alejandrodnm/gamblersruin/internal/domain"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
	maxBodyBytes        = 1 << 16
)

// Simulations es lo que el adaptador HTTP necesita del servicio.
type Simulations interface {
	Basic(ctx context.Context, req service.BasicRequest) (domain.RunRecord, error)
	General(ctx context.Context, req service.GeneralRequest) (domain.RunRecord, error)
	Extended(ctx context.Context, req service.ExtendedRequest) (domain.RunRecord, error)
	History(ctx context.Context, limit int) ([]domain.RunRecord, error)
	HistoryBetween(ctx context.Context, from, to time.Time) ([]domain.RunRecord, error)
}

// Limits acota lo que un cliente puede pedir.
type Limits struct {
	DefaultTrials int
	MaxTrials     int
}

// Handler traduce JSON ↔ service.
type Handler struct {
	svc    Simulations
	limits Limits
}

// NewHandler crea el handler. Limits vacíos usan 10000 / 1000000.
func NewHandler(svc Simulations, limits Limits) *Handler {
	if limits.DefaultTrials <= 0 {
		limits.DefaultTrials = 10_000
	}
	if limits.MaxTrials <= 0 {
		limits.MaxTrials = 1_000_000
	}
	return &Handler{svc: svc, limits: limits}
}

// BasicSimulation: POST /api/basic-simulation
func (h *Handler) BasicSimulation(w http.ResponseWriter, r *http.Request) {
	var req basicRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.I == nil {
		writeError(w, http.StatusBadRequest, "Missing required parameter: i (starting amount)")
		return
	}
	if req.N == nil {
		writeError(w, http.StatusBadRequest, "Missing required parameter: n (goal amount)")
		return
	}
	trials, err := h.trials(req.Trials)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	run, err := h.svc.Basic(r.Context(), service.BasicRequest{Start: *req.I, Goal: *req.N, Trials: trials})
	h.respond(w, r, run, err)
}

// GeneralSimulation: POST /api/general-simulation
func (h *Handler) GeneralSimulation(w http.ResponseWriter, r *http.Request) {
	var req generalRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	general, err := h.general(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	run, err := h.svc.General(r.Context(), general)
	h.respond(w, r, run, err)
}

// ExtendedSimulation: POST /api/extended-simulation
func (h *Handler) ExtendedSimulation(w http.ResponseWriter, r *http.Request) {
	var req extendedRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	general, err := h.general(req.generalRequest)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	run, err := h.svc.Extended(r.Context(), service.ExtendedRequest{
		GeneralRequest:    general,
		UseCredit:         req.UseCredit,
		UseDynamicBetting: req.UseDynamicBetting,
		UseMaxBet:         req.UseMaxBet,
		Credit:            req.K,
		MaxBet:            req.M,
	})
	h.respond(w, r, run, err)
}

// History: GET /api/history?limit=&from=&to=
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := defaultHistoryLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	var (
		runs []domain.RunRecord
		err  error
	)
	if q.Has("from") || q.Has("to") {
		from, to, perr := parseRange(q.Get("from"), q.Get("to"))
		if perr != nil {
			writeError(w, http.StatusBadRequest, perr.Error())
			return
		}
		runs, err = h.svc.HistoryBetween(r.Context(), from, to)
		if len(runs) > limit {
			runs = runs[:limit]
		}
	} else {
		runs, err = h.svc.History(r.Context(), limit)
	}
	switch {
	case errors.Is(err, service.ErrNoHistory):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		slog.Error("history query failed", "err", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	out := historyResponse{Runs: make([]runResponse, 0, len(runs))}
	for _, run := range runs {
		out.Runs = append(out.Runs, toRunResponse(run))
	}
	writeJSON(w, http.StatusOK, out)
}

// parseRange lee from/to en RFC3339. from es obligatorio; to por defecto es ahora.
func parseRange(fromStr, toStr string) (time.Time, time.Time, error) {
	if fromStr == "" {
		return time.Time{}, time.Time{}, errors.New("from is required when to is set")
	}
	from, err := time.Parse(time.RFC3339, fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("from must be RFC3339: %q", fromStr)
	}
	to := time.Now()
	if toStr != "" {
		if to, err = time.Parse(time.RFC3339, toStr); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("to must be RFC3339: %q", toStr)
		}
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, errors.New("to must not be before from")
	}
	return from, to, nil
}

// Docs: GET /api/docs
func (h *Handler) Docs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, apiDocs(h.limits.DefaultTrials, h.limits.MaxTrials))
}

// Health: GET /healthz
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- helpers ---

func (h *Handler) general(req generalRequest) (service.GeneralRequest, error) {
	for _, f := range []struct {
		name    string
		missing bool
	}{
		{"i", req.I == nil},
		{"n", req.N == nil},
		{"p", req.P == nil},
		{"q", req.Q == nil},
		{"j", req.J == nil},
	} {
		if f.missing {
			return service.GeneralRequest{}, fmt.Errorf("Missing required parameter: %s", f.name)
		}
	}
	trials, err := h.trials(req.Trials)
	if err != nil {
		return service.GeneralRequest{}, err
	}
	return service.GeneralRequest{
		Start:   *req.I,
		Goal:    *req.N,
		WinProb: *req.P,
		Payout:  *req.Q,
		Bet:     *req.J,
		Trials:  trials,
	}, nil
}

// trials aplica el default y el tope. trials <= 0 lo rechaza el dominio.
func (h *Handler) trials(v *int) (int, error) {
	if v == nil {
		return h.limits.DefaultTrials, nil
	}
	if *v > h.limits.MaxTrials {
		return 0, fmt.Errorf("Number of trials cannot exceed %d", h.limits.MaxTrials)
	}
	return *v, nil
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, run domain.RunRecord, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, toRunResponse(run))
	case errors.Is(err, domain.ErrInvalidParameters):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("simulation failed", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, "Simulation error: "+err.Error())
	}
}

// decode lee un objeto JSON. Cualquier fallo se reporta como 400.
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return errors.New("Request body must be a JSON object")
		case errors.As(err, &typeErr) && typeErr.Field == "":
			return errors.New("Request body must be a JSON object")
		case errors.As(err, &typeErr):
			return fmt.Errorf("Invalid parameter types: %s must be a %s", typeErr.Field, typeErr.Type)
		default:
			return fmt.Errorf("Invalid JSON: %v", err)
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
