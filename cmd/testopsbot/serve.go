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

	"github.com/kiranshivaraju/testopsbot/internal/api"
	"github.com/kiranshivaraju/testopsbot/internal/api/handler"
	mw "github.com/kiranshivaraju/testopsbot/internal/api/middleware"
	"github.com/kiranshivaraju/testopsbot/internal/bot"
	"github.com/kiranshivaraju/testopsbot/internal/cache"
	"github.com/kiranshivaraju/testopsbot/internal/config"
	"github.com/kiranshivaraju/testopsbot/internal/conversation"
	"github.com/kiranshivaraju/testopsbot/internal/launch"
	"github.com/kiranshivaraju/testopsbot/internal/metrics"
	"github.com/kiranshivaraju/testopsbot/internal/monitor"
	"github.com/kiranshivaraju/testopsbot/internal/store"
	"github.com/kiranshivaraju/testopsbot/internal/telegram"
	"github.com/kiranshivaraju/testopsbot/internal/testops"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout        = 30 * time.Second
	adminRequestsPerMinute = 60
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot and its operational HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(parent context.Context, opts *rootOptions) error {
	// 1. Load config, fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	level, _ := config.ParseLevel(cfg.Log.Level)
	slog.SetDefault(newLogger(os.Stdout, level))
	slog.Info("config loaded",
		"env", cfg.Server.Env,
		"state_backend", cfg.Dialogue.StateBackend,
		"admin_api", cfg.Server.AdminAPIKeyHash != "",
	)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Database and migrations
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	if err := store.RunMigrations(cfg.Database.URL, opts.migrationsDir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 3. Redis
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 4. Domain services
	pgStore := store.NewPostgresStore(pool)
	sessions := newSessionStore(cfg.Dialogue, redisCache)

	remote := testops.NewCachingClient(testops.NewHTTPClient(cfg.TestOps), redisCache, cfg.TestOps.SchemaCacheTTL)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	// 5. Chat transport and the dialogue
	tg, err := telegram.New(cfg.Telegram.Token)
	if err != nil {
		return fmt.Errorf("create telegram adapter: %w", err)
	}

	mon := monitor.New(remote, bot.NewReporter(tg, cfg.TestOps.UIBase),
		cfg.Monitor.Interval, cfg.Monitor.Timeout, monitor.WithMetrics(collector))

	dispatcher := bot.NewDispatcher(bot.Dependencies{
		Transport:    tg,
		Store:        pgStore,
		Sessions:     sessions,
		Remote:       remote,
		Collector:    launch.NewCollector(remote),
		Orchestrator: launch.NewOrchestrator(remote, mon, collector),
		Counter:      redisCache,
		Metrics:      collector,
	}, bot.Options{
		OwnerUsername: cfg.Telegram.OwnerUsername,
		UIBase:        cfg.TestOps.UIBase,
		RateLimit:     cfg.Dialogue.UserRateLimit,
	})

	// 6. Operational HTTP API
	router := api.NewRouter(api.Dependencies{
		AdminAuth: mw.NewAdminAuth(cfg.Server.AdminAPIKeyHash),
		RateLimit: mw.NewRateLimit(redisCache, adminRequestsPerMinute),

		HealthHandler: handler.NewHealthHandler([]handler.Check{
			{Name: "database", Probe: pgStore.Ping},
			{Name: "cache", Probe: redisCache.Ping},
			{Name: "testops", Probe: remote.Ready},
		}, func() int { return len(mon.Active()) }),
		MetricsHandler: metrics.Handler(registry),

		ListAllowedUsers: handler.NewListAllowedUsersHandler(pgStore),
		AllowUser:        handler.NewAllowUserHandler(pgStore),
		DisallowUser:     handler.NewDisallowUserHandler(pgStore),
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
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

	pollCtx, stopPolling := context.WithCancel(ctx)
	defer stopPolling()
	botDone := make(chan error, 1)
	go func() {
		slog.Info("polling for chat updates", "bot", tg.Username())
		botDone <- tg.Run(pollCtx, dispatcher)
	}()

	var runErr error
	select {
	case err := <-errCh:
		runErr = fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining...")
	}

	// 7. Graceful shutdown: stop intake, finish in-flight events, then stop watches
	stopPolling()
	if err := <-botDone; err != nil {
		slog.Error("chat polling stopped with error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("server shutdown: %w", err)
	}
	if err := mon.Shutdown(shutdownCtx); err != nil {
		slog.Warn("monitor shutdown incomplete", "active", len(mon.Active()), "error", err)
	}

	if runErr != nil {
		return runErr
	}
	slog.Info("stopped gracefully")
	return nil
}

// newSessionStore picks where dialogue state lives. Redis keeps sessions
// across restarts; memory is meant for local runs.
func newSessionStore(cfg config.DialogueConfig, c cache.Cache) conversation.Store {
	if cfg.StateBackend == "memory" {
		return conversation.NewMemoryStore()
	}
	return conversation.NewCacheStore(c, cfg.StateTTL)
}
