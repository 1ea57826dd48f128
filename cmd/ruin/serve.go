package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alejandrodnm/gamblersruin/config"
	"github.com/alejandrodnm/gamblersruin/internal/adapters/httpapi"
	"github.com/alejandrodnm/gamblersruin/internal/application/service"
)

const shutdownTimeout = 10 * time.Second

// runServer sirve la API hasta que ctx se cancela (SIGINT/SIGTERM).
// Las simulaciones en curso reciben la cancelación a través del contexto del request.
func runServer(ctx context.Context, cfg *config.Config, svc *service.Service) error {
	h := httpapi.NewHandler(svc, httpapi.Limits{
		DefaultTrials: cfg.Simulation.DefaultTrials,
		MaxTrials:     cfg.API.MaxTrials,
	})
	srv := &http.Server{
		Addr: cfg.API.ListenAddr,
		Handler: httpapi.NewRouter(h, httpapi.RouterConfig{
			AllowedOrigins: cfg.API.AllowedOrigins,
			RatePerSec:     cfg.API.RatePerSec,
			Burst:          cfg.API.Burst,
		}),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("http api listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("runServer: listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down http api")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
