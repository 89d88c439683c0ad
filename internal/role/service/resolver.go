// Package service resolves identities to roles and registers new users.
package service

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"certflow/internal/ledger"
	"certflow/internal/role/metrics"
	"certflow/internal/role/models"
	"certflow/pkg/domain"
	dErrors "certflow/pkg/domain-errors"
	"certflow/pkg/platform/sentinel"
	"certflow/pkg/requestcontext"
)

// Ledger is the read surface the resolver needs.
type Ledger interface {
	GetUser(ctx context.Context, id domain.Identity) (ledger.UserRecord, error)
	Owner(ctx context.Context) (domain.Identity, error)
	IsAuthorizedInstitute(ctx context.Context, institute domain.Identity) (bool, error)
}

// Cache holds resolutions until invalidated or expired.
// Get returns sentinel.ErrNotFound on a miss.
type Cache interface {
	Get(ctx context.Context, id domain.Identity) (models.Resolution, error)
	Put(ctx context.Context, r models.Resolution) error
	Invalidate(ctx context.Context, id domain.Identity) error
}

// Resolver determines which role an identity holds.
type Resolver struct {
	ledger  Ledger
	cache   Cache
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type ResolverOption func(*Resolver)

// WithCache enables caching. Without a cache every call reads the ledger.
func WithCache(c Cache) ResolverOption {
	return func(r *Resolver) {
		r.cache = c
	}
}

func WithResolverMetrics(m *metrics.Metrics) ResolverOption {
	return func(r *Resolver) {
		r.metrics = m
	}
}

func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func NewResolver(l Ledger, opts ...ResolverOption) *Resolver {
	r := &Resolver{ledger: l}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the role of id. A ledger failure is reported as
// gateway_unavailable and must be treated as unknown, never as unregistered.
func (r *Resolver) Resolve(ctx context.Context, id domain.Identity) (models.Resolution, error) {
	if id.IsNil() {
		return models.Resolution{}, dErrors.New(dErrors.CodeInvalidInput, "identity is required")
	}
	if r.cache != nil {
		cached, err := r.cache.Get(ctx, id)
		switch {
		case err == nil:
			r.observe(cached.Kind, "cache")
			return cached, nil
		case !errors.Is(err, sentinel.ErrNotFound):
			r.warn(ctx, "role_cache_read_failed", "identity", id, "error", err)
		}
	}

	res, err := r.fromLedger(ctx, id)
	if err != nil {
		return models.Resolution{}, err
	}
	r.observe(res.Kind, "ledger")
	if r.cache != nil {
		if err := r.cache.Put(ctx, res); err != nil {
			r.warn(ctx, "role_cache_write_failed", "identity", id, "error", err)
		}
	}
	return res, nil
}

// Refresh drops any cached resolution for id and reads the ledger again.
func (r *Resolver) Refresh(ctx context.Context, id domain.Identity) (models.Resolution, error) {
	if err := r.Invalidate(ctx, id); err != nil {
		return models.Resolution{}, err
	}
	return r.Resolve(ctx, id)
}

// Invalidate drops the cached resolution for id.
func (r *Resolver) Invalidate(ctx context.Context, id domain.Identity) error {
	if r.cache == nil {
		return nil
	}
	if err := r.cache.Invalidate(ctx, id); err != nil {
		return dErrors.Wrap(err, dErrors.CodeGatewayUnavailable, "invalidate role cache")
	}
	return nil
}

func (r *Resolver) fromLedger(ctx context.Context, id domain.Identity) (models.Resolution, error) {
	var (
		rec   ledger.UserRecord
		owner domain.Identity
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rec, err = r.ledger.GetUser(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		owner, err = r.ledger.Owner(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.Resolution{}, dErrors.LedgerUnavailable(err, "resolve role")
	}

	res := models.Resolution{
		Identity:        id,
		Kind:            models.KindUnregistered,
		Registered:      rec.Registered && rec.Role.IsSet(),
		IsAdministrator: !owner.IsZeroAddress() && owner.Equal(id),
		ResolvedAt:      requestcontext.Now(ctx).UTC(),
	}
	if res.Registered {
		res.Role = rec.Role
		res.MetadataRef = rec.MetadataRef
		res.Kind = models.Kind(rec.Role)
	}
	if res.Role == domain.RoleProvider {
		authorized, err := r.ledger.IsAuthorizedInstitute(ctx, id)
		if err != nil {
			return models.Resolution{}, dErrors.LedgerUnavailable(err, "resolve institute authorization")
		}
		res.Authorized = authorized
	}
	if res.IsAdministrator {
		res.Kind = models.KindAdministrator
	}
	return res, nil
}

func (r *Resolver) observe(kind models.Kind, source string) {
	if r.metrics != nil {
		r.metrics.ObserveResolution(kind.String(), source)
	}
}

func (r *Resolver) warn(ctx context.Context, msg string, args ...any) {
	if r.logger != nil {
		r.logger.WarnContext(ctx, msg, args...)
	}
}
