package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"example.com/arena-mvp/internal/arena"
	"example.com/arena-mvp/internal/config"
	"example.com/arena-mvp/internal/feed"
	"example.com/arena-mvp/internal/httpapi"
	"example.com/arena-mvp/internal/metrics"
	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg config.Config
	log *slog.Logger

	registry *arena.Registry
	rdb      *redis.Client // nil when REDIS_ADDR is empty

	srv *http.Server
}

type Options struct {
	Static http.Handler // optional; if nil, no frontend is served
}

func New(ctx context.Context, cfg config.Config, log *slog.Logger, opts Options) (*App, error) {
	if log == nil {
		log = slog.Default()
	}

	// --- Arena ---
	registry := arena.NewRegistry()
	if cfg.Arena.SeedSample {
		ids := arena.Seed(registry, arena.SampleFighters())
		log.Info("seeded sample fighters", "count", len(ids))
	}

	// --- Events ---
	hub := feed.NewHub(cfg.Feed.Buffer, log)
	sinks := arena.MultiSink{hub}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr: cfg.Redis.Addr,
			DB:   cfg.Redis.DB,
		})
		if err := pingRedis(ctx, rdb, cfg.Redis.ConnectRetries, log); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis ping (%s db=%d): %w", cfg.Redis.Addr, cfg.Redis.DB, err)
		}
		sinks = append(sinks, arena.NewRedisEventSink(rdb, cfg.Redis.Channel))
		log.Info("publishing arena events to redis", "addr", cfg.Redis.Addr, "channel", cfg.Redis.Channel)
	}

	// --- Metrics ---
	promReg := metrics.NewRegistry()
	m := metrics.New(promReg, registry.Len)

	fighters := &httpapi.FighterHandler{
		Registry:     registry,
		Events:       sinks,
		Metrics:      m,
		Log:          log,
		MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", metrics.Handler(promReg))
	mux.Handle("/ws/feed", hub)

	fighters.RegisterRoutes(mux)

	if opts.Static != nil {
		mux.Handle("/", opts.Static)
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           httpapi.RequestLogger(log)(mux),
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	return &App{cfg: cfg, log: log, registry: registry, rdb: rdb, srv: srv}, nil
}

// pingRedis retries with exponential backoff; retries == 0 means one attempt.
func pingRedis(ctx context.Context, rdb *redis.Client, retries int, log *slog.Logger) error {
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(retries)),
		ctx,
	)
	return backoff.Retry(func() error {
		err := rdb.Ping(ctx).Err()
		if err != nil {
			log.Warn("redis ping failed, retrying", "err", err)
		}
		return err
	}, b)
}

// Handler exposes the routed handler, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.srv.Handler
}

func (a *App) Registry() *arena.Registry {
	return a.registry
}

func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	a.log.Info("http server starting", "addr", a.cfg.HTTP.Addr)

	g.Go(func() error {
		err := a.srv.ListenAndServe()
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		a.log.Info("http server shutting down")
		_ = a.srv.Shutdown(shutdownCtx)
		return nil
	})

	err := g.Wait()
	_ = a.Close(context.Background())
	return err
}

func (a *App) Close(ctx context.Context) error {
	// best-effort
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.log.Warn("redis close", "err", err)
		}
	}
	return nil
}
