package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/gtourv/PLprediction/internal/cache"
	"github.com/gtourv/PLprediction/internal/config"
	"github.com/gtourv/PLprediction/internal/metrics"
	"github.com/gtourv/PLprediction/internal/refresh"
	"github.com/gtourv/PLprediction/internal/service"
	"github.com/gtourv/PLprediction/internal/store"
)

// app holds everything a command needs, built from one Config.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    store.Store
	cache    *cache.Redis
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	service  *service.Service
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	if cfg.Postgres.DSN == "" {
		return store.NewMemory(logger), nil
	}
	return store.NewPostgres(ctx, cfg.Postgres.DSN, logger)
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger := newLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	a := &app{cfg: cfg, logger: logger, store: st}

	var lb cache.Leaderboard
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedis(ctx, cache.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		})
		if err != nil {
			logger.WarnContext(ctx, "Redis unavailable, leaderboard cache disabled", "addr", cfg.Redis.Addr, "error", err)
		} else {
			a.cache = rc
			lb = rc
		}
	}

	var src refresh.Source
	if cfg.Gemini.APIKey != "" {
		gs, err := refresh.NewGeminiSource(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.Timeout)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create standings source: %w", err)
		}
		src = gs
	} else {
		logger.WarnContext(ctx, "GEMINI_API_KEY not set, standings refresh disabled")
	}

	if cfg.Metrics.Enabled {
		a.registry = prometheus.NewRegistry()
		a.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		a.metrics = metrics.New(a.registry)
	}

	a.service = service.New(st, refresh.New(src, st, logger), lb, a.metrics, logger, nil)
	return a, nil
}

func (a *app) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("Failed to close Redis client", "error", err)
		}
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("Failed to close store", "error", err)
	}
}
