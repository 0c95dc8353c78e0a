// Package main is the entrypoint for the autodesign web front-end.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kiranshivaraju/autodesign/internal/api"
	"github.com/kiranshivaraju/autodesign/internal/api/handler"
	mw "github.com/kiranshivaraju/autodesign/internal/api/middleware"
	"github.com/kiranshivaraju/autodesign/internal/api/response"
	"github.com/kiranshivaraju/autodesign/internal/cache"
	"github.com/kiranshivaraju/autodesign/internal/config"
	"github.com/kiranshivaraju/autodesign/internal/designapi"
	"github.com/kiranshivaraju/autodesign/internal/session"
	"github.com/kiranshivaraju/autodesign/internal/tracker"
	"github.com/kiranshivaraju/autodesign/internal/web"
)

const shutdownTimeout = 30 * time.Second

// logLevel is raised to debug in development once config is loaded.
var logLevel = new(slog.LevelVar)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config, failing fast on invalid values
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.IsDevelopment() {
		logLevel.Set(slog.LevelDebug)
	}
	slog.Info("config loaded",
		"env", cfg.Server.Env,
		"api_base_url", cfg.API.BaseURL,
		"poll_interval", cfg.Polling.Interval.String(),
		"poll_max_attempts", cfg.Polling.MaxAttempts,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Session backend: Redis when configured, process memory otherwise
	backend, closeBackend, err := newCache(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer closeBackend()

	// 3. Design API client and job tracker
	client, err := designapi.NewHTTPClient(cfg.API.BaseURL, cfg.API.Token, cfg.API.Timeout)
	if err != nil {
		return fmt.Errorf("create design api client: %w", err)
	}
	jobs := tracker.New(client,
		tracker.WithInterval(cfg.Polling.Interval),
		tracker.WithMaxPolls(cfg.Polling.MaxAttempts),
	)

	renderer, err := web.NewRenderer()
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}

	// 4. Build router with dependencies
	sessions := session.NewStore(backend, cfg.Session.TTL, cfg.Polling.Interval)
	views := handler.NewViews(sessions, jobs, renderer)

	deps := api.Dependencies{
		Sessions:  mw.NewSessions(cfg.Session.CookieName, cfg.Session.TTL, !cfg.IsDevelopment()),
		RateLimit: mw.NewRateLimit(backend, cfg.Session.SubmitLimitPerMin),

		HealthHandler:    healthHandler(sessions),
		JobStatusHandler: handler.NewJobStatusHandler(client),

		IndexHandler:     views.Index,
		SubmitHandler:    views.Submit,
		NewDesignHandler: views.NewDesign,
		CancelHandler:    views.Cancel,
	}

	router := api.NewRouter(deps)

	// 5. Start HTTP server. A progress render may hold one status check, so
	// the write timeout leaves room for a full API timeout.
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.API.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// newCache returns the session backend and a function releasing it.
func newCache(ctx context.Context, cfg config.RedisConfig) (cache.Cache, func(), error) {
	if cfg.URL == "" {
		slog.Info("using in-memory session store")
		return cache.NewMemoryCache(), func() {}, nil
	}

	redisCache, err := cache.NewRedisCache(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("create redis cache: %w", err)
	}
	if err := redisCache.Ping(ctx); err != nil {
		redisCache.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")
	return redisCache, func() { redisCache.Close() }, nil
}

type pinger interface {
	Ping(ctx context.Context) error
}

// healthHandler checks session storage connectivity. The design API is not
// called; it is only reached on behalf of a user.
func healthHandler(sessions pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"sessions": "ok",
		}

		if err := sessions.Ping(r.Context()); err != nil {
			checks["sessions"] = "degraded"
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
