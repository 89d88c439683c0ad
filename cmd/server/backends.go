package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"certflow/internal/content"
	contentcache "certflow/internal/content/cache"
	"certflow/internal/content/ipfs"
	contentmemory "certflow/internal/content/memory"
	contentmetrics "certflow/internal/content/metrics"
	contentredis "certflow/internal/content/redis"
	"certflow/internal/identity"
	"certflow/internal/ledger"
	"certflow/internal/ledger/evm"
	ledgermemory "certflow/internal/ledger/memory"
	ledgermetrics "certflow/internal/ledger/metrics"
	ledgerpostgres "certflow/internal/ledger/postgres"
	"certflow/internal/ledger/tracer"
	"certflow/internal/platform/config"
	"certflow/pkg/domain"
)

func openLedger(ctx context.Context, cfg config.Server, inf *infra, reg prometheus.Registerer, log *slog.Logger) (*ledger.Gateway, error) {
	var backend ledger.Backend
	switch cfg.Ledger.Backend {
	case config.LedgerMemory:
		owner, err := domain.ParseIdentity(cfg.Ledger.Owner)
		if err != nil {
			return nil, fmt.Errorf("ledger.owner: %w", err)
		}
		backend = ledgermemory.New(owner)
	case config.LedgerPostgres:
		if inf.db == nil {
			return nil, fmt.Errorf("postgres ledger requires database.url")
		}
		owner, err := domain.ParseIdentity(cfg.Ledger.Owner)
		if err != nil {
			return nil, fmt.Errorf("ledger.owner: %w", err)
		}
		pg, err := ledgerpostgres.New(ctx, inf.db.DB(), owner)
		if err != nil {
			return nil, fmt.Errorf("postgres ledger: %w", err)
		}
		backend = pg
	case config.LedgerEVM:
		chain, err := evm.Dial(ctx, cfg.Ledger.RPCURL, evm.ConfigFrom(cfg.Ledger))
		if err != nil {
			return nil, fmt.Errorf("evm ledger: %w", err)
		}
		backend = chain
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Ledger.Backend)
	}

	return ledger.NewGateway(backend, cfg.Ledger.Backend,
		ledger.WithTracer(tracer.NewOTel()),
		ledger.WithMetrics(ledgermetrics.NewWithRegisterer(reg)),
		ledger.WithLogger(log),
	), nil
}

func openContent(cfg config.Server, inf *infra, reg prometheus.Registerer, log *slog.Logger) (*content.Resolver, error) {
	m := contentmetrics.NewWithRegisterer(reg)

	var backend content.Backend
	switch cfg.Content.Backend {
	case config.ContentMemory:
		backend = contentmemory.New()
	case config.ContentRedis:
		if inf.redis == nil {
			return nil, fmt.Errorf("redis content backend requires redis.url")
		}
		backend = contentredis.New(inf.redis.Client)
	case config.ContentIPFS:
		backend = ipfs.New(cfg.Content.APIURL, cfg.Content.GatewayTemplate, cfg.Content.Timeout, cfg.Content.MaxBlobBytes,
			ipfs.WithMetrics(m),
			ipfs.WithLogger(log),
		)
	default:
		return nil, fmt.Errorf("unknown content backend %q", cfg.Content.Backend)
	}

	if cfg.Content.CacheEnabled {
		if inf.redis == nil {
			return nil, fmt.Errorf("content cache requires redis.url")
		}
		backend = contentcache.New(backend, inf.redis.Client, cfg.Content.CacheTTL,
			contentcache.WithMetrics(m),
			contentcache.WithLogger(log),
		)
	}

	return content.NewResolver(backend,
		content.WithGatewayTemplate(cfg.Content.GatewayTemplate),
		content.WithMaxBlobBytes(cfg.Content.MaxBlobBytes),
		content.WithMetrics(m),
		content.WithLogger(log),
	), nil
}

// signerSource picks how ledger writes are signed for an authenticated
// caller. The evm ledger verifies signatures, so it needs the caller's sealed
// key; the memory and postgres ledgers trust the session identity.
func signerSource(cfg config.Server) identity.SignerSource {
	if cfg.Ledger.Backend == config.LedgerEVM {
		return identity.NewKeyringSource(identity.NewKeyring(cfg.Keyring.Dir, cfg.Keyring.Passphrase))
	}
	return identity.AssertedSource{}
}
