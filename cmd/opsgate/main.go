// Package main provides the entry point for the opsgate API server.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/opsgate/opsgate/internal/config"
	"github.com/opsgate/opsgate/internal/database"
	"github.com/opsgate/opsgate/internal/httpapi"
	"github.com/opsgate/opsgate/internal/kv"
	"github.com/opsgate/opsgate/internal/metrics"
	"github.com/opsgate/opsgate/internal/model"
)

const version = "1.0.0"

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logLevel := new(slog.LevelVar)
	switch cfg.LogLevel {
	case "debug":
		logLevel.Set(slog.LevelDebug)
	case "warn":
		logLevel.Set(slog.LevelWarn)
	case "error":
		logLevel.Set(slog.LevelError)
	default:
		logLevel.Set(slog.LevelInfo)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	kvc := kv.New(rdb)

	if err := kvc.Ping(context.Background()); err != nil {
		logger.Warn("session store not reachable at startup", "addr", cfg.RedisAddr, "error", err)
	}

	if err := metrics.Init(prometheus.DefaultRegisterer); err != nil {
		return err
	}

	admin := model.NewAdmin(db, kvc)
	permission := model.NewPermission(db)
	service := model.NewService(db)

	handlers := httpapi.NewHandlers(logger, admin, permission, service)
	router := httpapi.NewRouter(cfg.BasePath, logger, handlers, db, kvc)

	// Metrics are served on a separate listener so the public surface never
	// exposes them.
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		logger.Info("metrics listening", "addr", cfg.MetricsListenAddr)
		if err := http.ListenAndServe(cfg.MetricsListenAddr, mux); err != nil {
			logger.Error("metrics listener failed", "error", err)
		}
	}()

	logger.Info("opsgate starting",
		"version", version,
		"addr", cfg.ListenAddr,
		"base_path", cfg.BasePath,
		"database", cfg.DatabasePath)

	return http.ListenAndServe(cfg.ListenAddr, router)
}
