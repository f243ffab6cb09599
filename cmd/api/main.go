// Package main is the entry point for the ELD logbook API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/moenga-git/ELD-VO/internal/cache"
	"github.com/moenga-git/ELD-VO/internal/config"
	"github.com/moenga-git/ELD-VO/internal/handler"
	"github.com/moenga-git/ELD-VO/internal/metrics"
	"github.com/moenga-git/ELD-VO/internal/middleware"
	"github.com/moenga-git/ELD-VO/internal/repo"
	"github.com/moenga-git/ELD-VO/internal/route"
	"github.com/moenga-git/ELD-VO/internal/service"
	"github.com/moenga-git/ELD-VO/migrations"
)

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx := context.Background()

	// --- Database ---------------------------------------------------------
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	sqlDB := stdlib.OpenDBFromPool(pool)
	applied, err := migrations.Up(ctx, sqlDB)
	_ = sqlDB.Close()
	if err != nil {
		slog.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("migrations applied", "count", applied)

	// --- Metrics ----------------------------------------------------------
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// --- Log cache --------------------------------------------------------
	var logCache service.LogCache = cache.Nop{}
	if cfg.RedisURL != "" {
		client, err := cache.Open(ctx, cfg.RedisURL)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		logCache = cache.NewRedis(client, cfg.LogCacheTTL)
		slog.Info("daily log cache enabled", "ttl", cfg.LogCacheTTL)
	}

	// --- Routing ----------------------------------------------------------
	var primary route.Provider
	if cfg.MapboxToken != "" {
		mapbox, err := route.NewMapboxClient(route.MapboxConfig{
			Token:             cfg.MapboxToken,
			BaseURL:           cfg.MapboxBaseURL,
			RequestsPerSecond: cfg.RouteRPS,
			Logger:            logger,
			Metrics:           m,
		})
		if err != nil {
			slog.Error("failed to configure routing", "error", err)
			os.Exit(1)
		}
		primary = mapbox
	} else {
		slog.Warn("MAPBOX_TOKEN not set, routing with straight-line estimates")
	}
	router := route.WithFallback(primary, logger, m)

	// --- Services ---------------------------------------------------------
	trips := repo.NewTripRepo(pool)
	plans := repo.NewPlanRepo(pool)
	server := handler.NewServer(
		service.NewTripService(trips, plans, router, logCache, cfg.Location, logger),
		service.NewLogService(trips, plans, logCache, service.LogOptions{
			Location:          cfg.Location,
			DefaultResolution: cfg.GridResolutionMinutes,
			Logger:            logger,
			Metrics:           m,
		}),
		service.NewExportService(trips, plans),
		logger,
	)

	// --- HTTP Server ------------------------------------------------------
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      newRouter(cfg, logger, m, reg, server),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// newLogger returns a JSON slog logger at level; unknown levels mean info.
func newLogger(level string) *slog.Logger {
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(level)); err != nil {
		logLevel = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

// newRouter applies the middleware stack and mounts the API.
// Order: RequestID → RealIP → Logger → Recoverer → CORS → body limit →
// metrics → auth. /metrics is served outside auth.
func newRouter(cfg config.Config, logger *slog.Logger, m *metrics.Metrics, gatherer prometheus.Gatherer, server *handler.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))
	r.Use(middleware.NewMetricsHandler(m))

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthHandler([]byte(cfg.JWTSecret)))
		server.Register(r)
	})
	return r
}
