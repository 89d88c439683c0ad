package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	authzhandler "certflow/internal/authz/handler"
	authzmetrics "certflow/internal/authz/metrics"
	authzservice "certflow/internal/authz/service"
	cataloghandler "certflow/internal/catalog/handler"
	catalogmetrics "certflow/internal/catalog/metrics"
	catalogservice "certflow/internal/catalog/service"
	"certflow/internal/content"
	issuancehandler "certflow/internal/issuance/handler"
	issuancemetrics "certflow/internal/issuance/metrics"
	issuanceservice "certflow/internal/issuance/service"
	issuancestore "certflow/internal/issuance/store"
	"certflow/internal/ledger"
	"certflow/internal/platform/config"
	rolehandler "certflow/internal/role/handler"
	rolemetrics "certflow/internal/role/metrics"
	roleservice "certflow/internal/role/service"
	rolestore "certflow/internal/role/store"
	"certflow/internal/session"
	sessionhandler "certflow/internal/session/handler"
	sessionstore "certflow/internal/session/store"
)

const gaugeInterval = 15 * time.Second

// app is the wired object graph served by the router.
type app struct {
	infra   *infra
	ledger  *ledger.Gateway
	content *content.Resolver
	audit   *auditPipeline

	tokens   *session.TokenService
	sessions *session.Service
	gate     *authzservice.Gate

	sessionHandler  *sessionhandler.Handler
	roleHandler     *rolehandler.Handler
	authzHandler    *authzhandler.Handler
	issuanceHandler *issuancehandler.Handler
	catalogHandler  *cataloghandler.Handler

	shutdownTimeout time.Duration
}

func buildApp(ctx context.Context, cfg config.Server, inf *infra, reg prometheus.Registerer, log *slog.Logger) (*app, error) {
	l, err := openLedger(ctx, cfg, inf, reg, log)
	if err != nil {
		return nil, err
	}
	c, err := openContent(cfg, inf, reg, log)
	if err != nil {
		return nil, err
	}
	pipeline, err := openAudit(cfg, inf, reg, log)
	if err != nil {
		return nil, err
	}
	emitter := pipeline.publisher
	signers := signerSource(cfg)

	var roleCache roleservice.Cache
	if inf.redis != nil {
		roleCache = rolestore.NewRedis(inf.redis.Client, cfg.Roles.CacheTTL)
	} else {
		roleCache = rolestore.NewMemory(cfg.Roles.CacheTTL)
	}
	roleMetrics := rolemetrics.NewWithRegisterer(reg)
	resolver := roleservice.NewResolver(l,
		roleservice.WithCache(roleCache),
		roleservice.WithResolverMetrics(roleMetrics),
		roleservice.WithResolverLogger(log),
	)
	registrar := roleservice.NewRegistrar(l, c, resolver,
		roleservice.WithAuditor(emitter),
		roleservice.WithRegistrarMetrics(roleMetrics),
		roleservice.WithRegistrarLogger(log),
	)

	gate := authzservice.New(l,
		authzservice.WithProfiles(c),
		authzservice.WithInvalidator(resolver),
		authzservice.WithAuditor(emitter),
		authzservice.WithMetrics(authzmetrics.NewWithRegisterer(reg)),
		authzservice.WithLogger(log),
		authzservice.WithConcurrency(cfg.Catalog.Concurrency),
	)

	var (
		checkpoints   issuanceservice.CheckpointStore
		cancellations issuanceservice.CancellationStore
	)
	if inf.redis != nil {
		checkpoints = issuancestore.NewRedisCheckpoints(inf.redis.Client, cfg.Issuance.CheckpointTTL)
	} else {
		checkpoints = issuancestore.NewMemoryCheckpoints(cfg.Issuance.CheckpointTTL)
	}
	if inf.db != nil {
		cancellations = issuancestore.NewPostgresCancellations(inf.db.DB())
	} else {
		cancellations = issuancestore.NewMemoryCancellations()
	}
	manager := issuanceservice.New(l, c, gate, checkpoints, cancellations,
		issuanceservice.WithAuditor(emitter),
		issuanceservice.WithMetrics(issuancemetrics.NewWithRegisterer(reg)),
		issuanceservice.WithLogger(log),
		issuanceservice.WithConcurrency(cfg.Catalog.Concurrency),
		issuanceservice.WithMaxImageBytes(cfg.Issuance.MaxImageBytes),
	)

	catalog := catalogservice.New(l, c, gate,
		catalogservice.WithMetrics(catalogmetrics.NewWithRegisterer(reg)),
		catalogservice.WithLogger(log),
		catalogservice.WithConcurrency(cfg.Catalog.Concurrency),
	)

	var (
		challenges  session.ChallengeStore
		revocations session.RevocationStore
	)
	if inf.redis != nil {
		challenges = sessionstore.NewRedis(inf.redis.Client)
		revocations = sessionstore.NewRedisRevocations(inf.redis.Client)
	} else {
		challenges = sessionstore.NewMemory()
		revocations = sessionstore.NewMemoryRevocations()
	}
	tokens := session.NewTokenService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	sessions := session.New(challenges, revocations, tokens,
		session.WithChallengeTTL(cfg.Auth.ChallengeTTL),
		session.WithAuditor(emitter),
		session.WithLogger(log),
	)

	return &app{
		infra:           inf,
		ledger:          l,
		content:         c,
		audit:           pipeline,
		tokens:          tokens,
		sessions:        sessions,
		gate:            gate,
		sessionHandler:  sessionhandler.New(sessions, log),
		roleHandler:     rolehandler.New(resolver, registrar, signers, c, log),
		authzHandler:    authzhandler.New(gate, signers, log),
		issuanceHandler: issuancehandler.New(manager, signers, cfg.Issuance.MaxImageBytes, log),
		catalogHandler:  cataloghandler.New(catalog, c, log),
		shutdownTimeout: cfg.HTTP.ShutdownTimeout,
	}, nil
}

// collectGauges refreshes pool and outbox gauges until ctx ends.
func (a *app) collectGauges(ctx context.Context, log *slog.Logger) {
	ticker := time.NewTicker(gaugeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if a.infra.redis != nil {
				a.infra.redis.RecordPoolStats()
			}
			if a.audit.worker != nil {
				if err := a.audit.worker.UpdateMetrics(ctx); err != nil {
					log.Debug("outbox metrics refresh failed", "error", err)
				}
			}
		}
	}
}

func (a *app) Close(log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()
	a.audit.Close(ctx, log)
}
