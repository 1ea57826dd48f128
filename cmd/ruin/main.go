package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/gamblersruin/config"
	"github.com/alejandrodnm/gamblersruin/internal/adapters/notify"
	"github.com/alejandrodnm/gamblersruin/internal/adapters/storage"
	"github.com/alejandrodnm/gamblersruin/internal/application/service"
	"github.com/alejandrodnm/gamblersruin/internal/application/simulation"
	"github.com/alejandrodnm/gamblersruin/internal/domain/betting"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	mode := flag.String("mode", "basic", "simulation mode: basic|general|extended")
	start := flag.Int("i", 10, "starting capital")
	goal := flag.Int("n", 20, "goal capital")
	winProb := flag.Float64("p", 0.5, "probability of winning each bet (general/extended)")
	payout := flag.Float64("q", 2, "payout multiplier (general/extended)")
	bet := flag.Int("j", 1, "bet size (general/extended)")
	credit := flag.Int("k", 0, "credit line amount (requires -credit)")
	maxBet := flag.Int("m", 0, "maximum bet (requires -max-bet)")
	useCredit := flag.Bool("credit", false, "extended: enable line of credit")
	useDynamic := flag.Bool("dynamic", false, "extended: enable dynamic betting")
	useMaxBet := flag.Bool("max-bet", false, "extended: enable maximum bet")
	trials := flag.Int("trials", 0, "number of trials (0 = config default)")
	seed := flag.Uint64("seed", 0, "root seed for reproducible runs (0 = config/random)")
	workers := flag.Int("workers", -1, "worker goroutines (-1 = config, 0 = NumCPU)")
	serve := flag.Bool("serve", false, "start the HTTP API instead of a one-shot run")
	history := flag.Int("history", 0, "print the last N stored runs and exit")
	table := flag.Bool("table", true, "print full tables (false: one line per run)")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *workers >= 0 {
		cfg.Simulation.Workers = *workers
	}
	if *seed != 0 {
		cfg.Simulation.Seed = *seed
	}
	setupLogger(cfg.Log)

	kind, err := betting.ParseKind(cfg.Simulation.DynamicPolicy)
	if err != nil {
		slog.Error("invalid dynamic policy", "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := storage.Open(ctx, storage.Config{
		Driver:    cfg.Storage.Driver,
		DSN:       cfg.Storage.DSN,
		Retention: cfg.Retention(),
	})
	if err != nil {
		slog.Error("failed to open storage", "err", err, "driver", cfg.Storage.Driver)
		os.Exit(1)
	}
	if store != nil {
		defer store.Close()
	}

	runner := simulation.NewRunner(simulation.Config{
		Workers: cfg.Simulation.Workers,
		Betting: betting.Options{Kind: kind, Fraction: cfg.Simulation.DynamicFraction},
	})
	svc := service.New(runner, store, service.Config{
		Timeout:  cfg.Timeout(),
		MaxSteps: cfg.Simulation.MaxSteps,
		Seed:     cfg.Simulation.Seed,
	})

	slog.Info("gamblersruin starting",
		"config", *configPath,
		"workers", runner.Workers(),
		"dynamic_policy", kind,
		"storage", cfg.Storage.Driver,
		"serve", *serve,
	)

	console := notify.NewConsole(*table)

	switch {
	case *serve:
		if err := runServer(ctx, cfg, svc); err != nil {
			slog.Error("server exited with error", "err", err)
			os.Exit(1)
		}
		slog.Info("gamblersruin stopped cleanly")
	case *history > 0:
		if err := runHistory(ctx, svc, console, *history); err != nil {
			slog.Error("history failed", "err", err)
			os.Exit(1)
		}
	default:
		if *trials == 0 {
			*trials = cfg.Simulation.DefaultTrials
		}
		req := runRequest{
			mode:       *mode,
			general:    service.GeneralRequest{Start: *start, Goal: *goal, WinProb: *winProb, Payout: *payout, Bet: *bet, Trials: *trials},
			useCredit:  *useCredit,
			useDynamic: *useDynamic,
			useMaxBet:  *useMaxBet,
		}
		// -k/-m solo cuentan si se pasaron explícitamente
		set := make(map[string]bool)
		flag.Visit(func(f *flag.Flag) {
			set[f.Name] = true
			switch f.Name {
			case "k":
				req.credit = credit
			case "m":
				req.maxBet = maxBet
			}
		})
		if ignored := ignoredFlags(*mode, set); len(ignored) > 0 {
			slog.Warn("flags ignored in this mode", "mode", *mode, "flags", ignored)
		}
		if err := runOnce(ctx, svc, console, req); err != nil {
			slog.Error("simulation failed", "err", err)
			os.Exit(1)
		}
	}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
