package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/alejandrodnm/gamblersruin/internal/adapters/notify"
	"github.com/alejandrodnm/gamblersruin/internal/application/service"
	"github.com/alejandrodnm/gamblersruin/internal/domain"
)

// runRequest agrupa los flags de un run de una sola vez.
type runRequest struct {
	mode       string
	general    service.GeneralRequest
	useCredit  bool
	useDynamic bool
	useMaxBet  bool
	credit     *int
	maxBet     *int
}

// flags que cada modo no usa
var (
	generalOnlyFlags  = []string{"p", "q", "j"}
	extendedOnlyFlags = []string{"k", "m", "credit", "dynamic", "max-bet"}
)

// ignoredFlags devuelve los flags pasados explícitamente que el modo descarta,
// en orden estable.
func ignoredFlags(mode string, set map[string]bool) []string {
	var unused []string
	switch mode {
	case "basic":
		unused = append(unused, generalOnlyFlags...)
		unused = append(unused, extendedOnlyFlags...)
	case "general":
		unused = extendedOnlyFlags
	}

	var out []string
	for _, name := range unused {
		if set[name] {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

// runOnce ejecuta una simulación e imprime el resultado.
func runOnce(ctx context.Context, svc *service.Service, console *notify.Console, req runRequest) error {
	mode, err := domain.ParseMode(req.mode)
	if err != nil {
		return err
	}

	var run domain.RunRecord
	switch mode {
	case domain.ModeBasic:
		run, err = svc.Basic(ctx, service.BasicRequest{
			Start:  req.general.Start,
			Goal:   req.general.Goal,
			Trials: req.general.Trials,
		})
	case domain.ModeGeneral:
		run, err = svc.General(ctx, req.general)
	case domain.ModeExtended:
		run, err = svc.Extended(ctx, service.ExtendedRequest{
			GeneralRequest:    req.general,
			UseCredit:         req.useCredit,
			UseDynamicBetting: req.useDynamic,
			UseMaxBet:         req.useMaxBet,
			Credit:            req.credit,
			MaxBet:            req.maxBet,
		})
	}
	if err != nil {
		return fmt.Errorf("runOnce: %w", err)
	}
	return console.Report(ctx, run)
}

// runHistory imprime los últimos runs persistidos.
func runHistory(ctx context.Context, svc *service.Service, console *notify.Console, limit int) error {
	runs, err := svc.History(ctx, limit)
	if err != nil {
		return fmt.Errorf("runHistory: %w", err)
	}
	console.PrintHistory(runs)
	return nil
}
