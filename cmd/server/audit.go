package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"certflow/internal/platform/config"
	"certflow/internal/platform/kafka/producer"
	"certflow/pkg/platform/audit"
	"certflow/pkg/platform/audit/outbox"
	outboxmetrics "certflow/pkg/platform/audit/outbox/metrics"
	outboxmemory "certflow/pkg/platform/audit/outbox/store/memory"
	outboxpostgres "certflow/pkg/platform/audit/outbox/store/postgres"
	"certflow/pkg/platform/audit/outbox/worker"
	"certflow/pkg/platform/audit/publisher"
)

const auditBuffer = 256

// auditPipeline is the emitter services publish to, plus the outbox relay
// when Kafka is configured.
type auditPipeline struct {
	publisher *publisher.Publisher
	worker    *worker.Worker
	producer  *producer.Producer
}

func openAudit(cfg config.Server, inf *infra, reg prometheus.Registerer, log *slog.Logger) (*auditPipeline, error) {
	if cfg.Kafka.Brokers == "" {
		log.Info("kafka not configured, audit events kept in memory")
		return &auditPipeline{
			publisher: publisher.New(audit.NewInMemoryStore(),
				publisher.WithAsyncBuffer(auditBuffer),
				publisher.WithLogger(log),
			),
		}, nil
	}

	var store outbox.Store
	if inf.db != nil {
		store = outboxpostgres.New(inf.db.DB())
	} else {
		log.Warn("kafka configured without database, outbox is not durable")
		store = outboxmemory.New()
	}

	prod, err := producer.New(producer.ConfigFrom(cfg.Kafka), log)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	w := worker.New(store, prod,
		worker.WithTopic(cfg.Kafka.Topic),
		worker.WithPollInterval(cfg.Kafka.PollInterval),
		worker.WithRetention(cfg.Kafka.Retention),
		worker.WithMetrics(outboxmetrics.NewWithRegisterer(reg)),
		worker.WithLogger(log),
	)
	w.Start()
	log.Info("audit outbox relay started", "topic", cfg.Kafka.Topic)

	return &auditPipeline{
		publisher: publisher.New(outbox.NewAuditStore(store),
			publisher.WithAsyncBuffer(auditBuffer),
			publisher.WithLogger(log),
		),
		worker:   w,
		producer: prod,
	}, nil
}

// Close drains the publisher before stopping the relay so buffered events
// reach the outbox.
func (a *auditPipeline) Close(ctx context.Context, log *slog.Logger) {
	a.publisher.Close()
	if a.worker != nil {
		if err := a.worker.Stop(ctx); err != nil {
			log.Warn("outbox worker stop failed", "error", err)
		}
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			log.Warn("kafka producer close failed", "error", err)
		}
	}
}
