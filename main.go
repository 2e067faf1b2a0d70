package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/danielhkuo/ranked-elections/cliparse"
	"github.com/danielhkuo/ranked-elections/contrived"
	"github.com/danielhkuo/ranked-elections/db"
	"github.com/danielhkuo/ranked-elections/endpoint"
	"github.com/danielhkuo/ranked-elections/ratelimit"
	"github.com/danielhkuo/ranked-elections/router"
	"github.com/danielhkuo/ranked-elections/store"
)

func main() {
	var err error

	if err := cliparse.LoadEnvFiles(); err != nil {
		slog.Error("Error loading env files", "error", err)
		os.Exit(1)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to the database
	dbConn, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database unavailable", "type", cfg.DatabaseType, "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(ctx, dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	st := store.New(dbConn)

	// The limited view lives in Redis when configured, otherwise in the database
	var view ratelimit.View = st
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid redis URL", "error", err)
			os.Exit(1)
		}
		client := redis.NewClient(opts)
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			slog.Error("redis ping failed", "error", err)
			os.Exit(1)
		}
		view = ratelimit.NewRedisView(client)
		slog.Info("Rate-limit view in redis", "addr", opts.Addr)
	}

	// Admission
	checker := ratelimit.NewChecker(view)
	injector := contrived.New(cfg.RequestsPerContrivedError)
	dispatcher := endpoint.NewDispatcher(cfg, st, st, checker, injector)

	// Abuse aggregation
	aggregator := ratelimit.NewAggregator(st, view, ratelimit.NewPolicy(cfg))
	scheduler := ratelimit.NewScheduler(aggregator, st, cfg.AbuseInterval, cfg.RequestLogMaxRows)
	go func() {
		if err := scheduler.Start(ctx); err != nil {
			slog.Error("abuse scheduler stopped", "error", err)
		}
	}()

	// Create router
	mux := router.NewRouter(st, cfg, dispatcher)

	// Create server
	server := http.Server{
		Handler:           mux,
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		// Wait for Ctrl-C signal
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("graceful shutdown failed", "error", err)
			server.Close()
		}
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port,
		"contrived_every", cfg.RequestsPerContrivedError,
		"rate_limits", !cfg.IgnoreRateLimits,
		"lockout", cfg.LockoutAllKeys,
	)
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}
