package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alxvallejo/promptd/internal/pkg/middleware"
	"github.com/alxvallejo/promptd/internal/pkg/router"
	"github.com/alxvallejo/promptd/internal/services/image/internal/config"
	"github.com/alxvallejo/promptd/internal/services/image/internal/rest"
	"github.com/alxvallejo/promptd/internal/services/image/internal/service"
)

func run(ctx context.Context) error {
	slog.Info("starting image service")

	cfg := config.FromEnv()
	if err := os.MkdirAll(cfg.ImageStore.Root, 0o755); err != nil {
		return fmt.Errorf("failed to create image root: %w", err)
	}

	srv := service.NewObjectStore(service.ObjectStoreConfig{
		ServeRoot: cfg.ImageStore.ServeRoot,
		Root:      cfg.ImageStore.Root,
		MaxWidth:  cfg.ImageStore.MaxWidth,
		MaxHeight: cfg.ImageStore.MaxHeight,
	})

	r := router.New()
	r.Use(middleware.Recover(), middleware.Log(), middleware.CORS(cfg.CORSOrigins))
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := os.Stat(cfg.ImageStore.Root); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("GET /images/", http.StripPrefix("/images/", rest.Files(cfg.ImageStore.Root)))

	auth := r.SubRouter("/api/v1")
	auth.Use(middleware.Auth([]byte(cfg.AuthSecret)))
	auth.Handle("/", rest.NewAPI(
		rest.WithObjectStore(srv),
		rest.WithMaxImageSize(cfg.ImageStore.MaxSize),
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
		slog.Error("image service exited with error", "error", err)
		os.Exit(1)
	}
}
