package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alxvallejo/promptd/internal/pkg/middleware"
	"github.com/alxvallejo/promptd/internal/pkg/router"
	"github.com/alxvallejo/promptd/internal/services/gateway/internal/config"
	"github.com/alxvallejo/promptd/internal/services/gateway/internal/proxy"
)

func run(ctx context.Context) error {
	slog.Info("starting api gateway")

	cfg := config.FromEnv()

	r := router.New()
	r.Use(middleware.Recover(), middleware.Log(), middleware.CORS(cfg.CORSOrigins))
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/", proxy.New(
		proxy.Route{Prefix: "/api/v1/objects/", Upstream: cfg.ImageURL},
		proxy.Route{Prefix: "/images/", Upstream: cfg.ImageURL},
		proxy.Route{Prefix: "/api/", Upstream: cfg.PicksURL},
	))

	httpSrv := &http.Server{
		Addr:         cfg.Http.ListenAddr,
		IdleTimeout:  cfg.Http.IdleTimeout,
		ReadTimeout:  cfg.Http.ReadTimeout,
		WriteTimeout: cfg.Http.WriteTimeout,
		Handler:      r,
	}

	errCh := make(chan error, 1)

	go func() {
		slog.Info("HTTP server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Http.ShutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		slog.Error("api gateway exited with error", "error", err)
		os.Exit(1)
	}
}
