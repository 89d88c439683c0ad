package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"certflow/internal/platform/config"
	"certflow/internal/platform/database"
	redisclient "certflow/internal/platform/redis"
	"certflow/migrations"
)

// infra holds the shared connections. Either may be nil when not configured.
type infra struct {
	db    *database.Pool
	redis *redisclient.Client
	log   *slog.Logger
}

func openInfra(ctx context.Context, cfg config.Server, reg prometheus.Registerer, log *slog.Logger) (*infra, error) {
	inf := &infra{log: log}

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	inf.db = db
	if db != nil {
		log.Info("database connected")
		if cfg.Database.AutoMigrate {
			applied, err := database.Migrate(ctx, db.DB(), migrations.FS)
			if err != nil {
				inf.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
			if len(applied) > 0 {
				log.Info("migrations applied", "versions", applied)
			}
		}
	}

	rc, err := redisclient.New(ctx, cfg.Redis, reg)
	if err != nil {
		inf.Close()
		return nil, err
	}
	inf.redis = rc
	if rc != nil {
		log.Info("redis connected")
	}
	return inf, nil
}

func (i *infra) Close() {
	if i.redis != nil {
		if err := i.redis.Close(); err != nil {
			i.log.Warn("redis close failed", "error", err)
		}
	}
	if err := i.db.Close(); err != nil {
		i.log.Warn("database close failed", "error", err)
	}
}
