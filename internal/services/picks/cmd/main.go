package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alxvallejo/promptd/internal/pkg/middleware"
	"github.com/alxvallejo/promptd/internal/pkg/router"
	"github.com/alxvallejo/promptd/internal/services/picks/db"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/category"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/composer"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/config"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/ingest"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/preview"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/rest"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/service"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/store"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/week"
)

func run(ctx context.Context) error {
	slog.Info("starting picks service")

	cfg := config.FromEnv()
	categories, err := category.Load(cfg.CategoriesFile)
	if err != nil {
		return fmt.Errorf("failed to load categories: %w", err)
	}

	pg, err := store.NewPostgresDB(store.PostgresConfig{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		DB:       cfg.DB.Name,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to db: %w", err)
	}
	defer pg.Close()

	if err := db.Migrate(pg); err != nil {
		return fmt.Errorf("failed to migrate db: %w", err)
	}
	pgs := store.NewPostgresStore(pg)

	cache, memCache, redisCache, err := newPreviewCache(cfg)
	if err != nil {
		return fmt.Errorf("failed to create preview cache: %w", err)
	}
	defer memCache.Close()
	if redisCache != nil {
		defer redisCache.Close()
	}

	movies, dispatcher := newDispatcher(cfg, cache)

	objects := ingest.NewRemoteStore(cfg.Image.Endpoint, []byte(cfg.AuthSecret))
	pipeline := ingest.NewPipeline(objects,
		ingest.WithGeocoder(ingest.NewNominatimGeocoder(cfg.Image.GeocodeURL, cfg.Image.UserAgent)))

	cal := week.NewCalendar(cfg.Picks.WeekZone, nil)
	sessions := composer.NewManager(composer.Deps{
		Resolver:   dispatcher,
		Ingester:   pipeline,
		Store:      pgs,
		Categories: categories,
		Calendar:   cal,
	}, composer.Config{
		WeeklyLimit:    cfg.Picks.WeeklyLimit,
		ResolveTimeout: cfg.Picks.ResolveTimeout,
		UploadTimeout:  cfg.Picks.UploadTimeout,
	}, composer.WithIdleTTL(cfg.Picks.IdleTTL))

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	go sessions.Run(runCtx)

	journal := service.NewJournal(pgs)
	picks := service.NewPicks(pgs, pipeline, categories, cal, service.WithRefresh(cfg.Picks.GalleryRefresh))

	r := router.New()
	r.Use(middleware.Recover(), middleware.Log(), middleware.CORS(cfg.CORSOrigins))
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.HandleFunc("/readyz", readiness(pg, redisCache))

	api := r.SubRouter("/api/v1")
	api.Use(middleware.Auth([]byte(cfg.AuthSecret)))
	api.Handle("/", rest.NewAPI(journal, picks, sessions, movies))

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
		err := httpSrv.Shutdown(shutdownCtx)
		stop()
		sessions.Wait()
		return err
	case err := <-errCh:
		return err
	}
}

// newPreviewCache keeps previews in process memory, backed by redis when
// it is enabled so instances share what they resolved.
func newPreviewCache(cfg config.Config) (preview.Cache, *preview.MemoryCache, *preview.RedisCache, error) {
	mem, err := preview.NewMemoryCache(cfg.Preview.CacheKeys)
	if err != nil {
		return nil, nil, nil, err
	}
	if !cfg.Redis.Enabled {
		return mem, mem, nil, nil
	}

	rc := preview.NewRedisCache(preview.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return preview.NewTieredCache(mem, rc, cfg.Preview.LocalCacheTTL), mem, rc, nil
}

type movieLookup interface {
	ResolveTitle(ctx context.Context, title string, kind preview.Kind) preview.Result
}

// newDispatcher wires the resolvers in routing order. The movie resolver is
// left out when no api key is configured; IMDb links then get a site
// preview, and the returned lookup is nil.
func newDispatcher(cfg config.Config, cache preview.Cache) (movieLookup, *preview.Dispatcher) {
	opts := []preview.Option{
		preview.WithHTTPClient(&http.Client{Timeout: cfg.Preview.Timeout}),
		preview.WithUserAgent(cfg.Preview.UserAgent),
	}

	var (
		resolvers []preview.Resolver
		movies    movieLookup
	)
	mr, err := preview.NewMovieResolver(cfg.Preview.MovieAPIKey, cfg.Preview.MovieBaseURL, opts...)
	if err != nil {
		slog.Warn("movie previews disabled", "error", err)
	} else {
		resolvers = append(resolvers, mr)
		movies = mr
	}

	resolvers = append(resolvers,
		preview.NewVideoResolver(cfg.Preview.OEmbedURL, opts...),
		preview.NewStorefrontResolver(cfg.Preview.StoreAPIURL, preview.ParseProxy(cfg.Preview.StoreProxy), opts...),
		preview.NewSiteResolver(preview.ParseProxies(cfg.Preview.Proxies), opts...),
	)

	return movies, preview.NewDispatcher(resolvers, preview.WithCache(cache, cfg.Preview.CacheTTL))
}

func readiness(pg *sql.DB, rc *preview.RedisCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := pg.PingContext(ctx); err != nil {
			slog.Warn("db not ready", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if rc != nil {
			if err := rc.Ping(ctx); err != nil {
				slog.Warn("redis not ready", "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	}
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		slog.Error("picks service exited with error", "error", err)
		os.Exit(1)
	}
}
