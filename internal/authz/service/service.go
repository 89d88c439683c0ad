// Package service maintains the administrator-controlled set of authorized
// institutes.
package service

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"certflow/internal/authz/metrics"
	"certflow/internal/authz/models"
	"certflow/internal/content"
	"certflow/internal/identity"
	"certflow/internal/ledger"
	"certflow/pkg/domain"
	dErrors "certflow/pkg/domain-errors"
	"certflow/pkg/platform/audit"
	"certflow/pkg/requestcontext"
)

// Ledger is the registry surface used by the gate.
type Ledger interface {
	Owner(ctx context.Context) (domain.Identity, error)
	IsAuthorizedInstitute(ctx context.Context, institute domain.Identity) (bool, error)
	AuthorizeInstitute(ctx context.Context, signer identity.Signer, institute domain.Identity) (ledger.Receipt, error)
	RevokeInstitute(ctx context.Context, signer identity.Signer, institute domain.Identity) (ledger.Receipt, error)
	GetAllUsers(ctx context.Context) ([]domain.Identity, error)
	GetUser(ctx context.Context, id domain.Identity) (ledger.UserRecord, error)
}

// ProfileReader dereferences provider profiles for the directory.
type ProfileReader interface {
	GetJSON(ctx context.Context, ref string, v any) error
}

// Invalidator drops cached role resolutions of an institute whose
// authorization changed.
type Invalidator interface {
	Invalidate(ctx context.Context, id domain.Identity) error
}

const defaultConcurrency = 8

// Gate answers and mutates institute authorization. Every decision reads the
// ledger; nothing here is cached.
type Gate struct {
	ledger      Ledger
	profiles    ProfileReader
	invalidator Invalidator
	auditor     audit.Emitter
	metrics     *metrics.Metrics
	logger      *slog.Logger
	concurrency int
}

type Option func(*Gate)

func WithProfiles(p ProfileReader) Option {
	return func(g *Gate) {
		g.profiles = p
	}
}

func WithInvalidator(inv Invalidator) Option {
	return func(g *Gate) {
		g.invalidator = inv
	}
}

func WithAuditor(a audit.Emitter) Option {
	return func(g *Gate) {
		g.auditor = a
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gate) {
		g.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		g.logger = logger
	}
}

// WithConcurrency bounds directory fan-out.
func WithConcurrency(n int) Option {
	return func(g *Gate) {
		if n > 0 {
			g.concurrency = n
		}
	}
}

func New(l Ledger, opts ...Option) *Gate {
	g := &Gate{ledger: l, concurrency: defaultConcurrency}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// IsAuthorized reads the authorization set directly.
func (g *Gate) IsAuthorized(ctx context.Context, institute domain.Identity) (bool, error) {
	authorized, err := g.ledger.IsAuthorizedInstitute(ctx, institute)
	if err != nil {
		return false, dErrors.LedgerUnavailable(err, "read institute authorization")
	}
	return authorized, nil
}

// RequireAuthorized fails with not_authorized unless institute is in the
// authorization set right now.
func (g *Gate) RequireAuthorized(ctx context.Context, institute domain.Identity) error {
	authorized, err := g.IsAuthorized(ctx, institute)
	if err != nil {
		return err
	}
	if !authorized {
		return dErrors.New(dErrors.CodeNotAuthorized, "institute is not authorized")
	}
	return nil
}

// RequireAdministrator checks caller against the ledger owner.
func (g *Gate) RequireAdministrator(ctx context.Context, caller domain.Identity) error {
	owner, err := g.ledger.Owner(ctx)
	if err != nil {
		return dErrors.LedgerUnavailable(err, "read ledger owner")
	}
	if caller.IsNil() || !owner.Equal(caller) {
		return dErrors.New(dErrors.CodeNotAdministrator, "caller is not the administrator")
	}
	return nil
}

// Authorize adds institute to the authorization set. Administrator identity
// is re-read from the ledger before the write.
func (g *Gate) Authorize(ctx context.Context, signer identity.Signer, institute domain.Identity) (ledger.Receipt, error) {
	return g.mutate(ctx, "authorize", signer, institute)
}

// Revoke removes institute from the authorization set.
func (g *Gate) Revoke(ctx context.Context, signer identity.Signer, institute domain.Identity) (ledger.Receipt, error) {
	return g.mutate(ctx, "revoke", signer, institute)
}

func (g *Gate) mutate(ctx context.Context, op string, signer identity.Signer, institute domain.Identity) (ledger.Receipt, error) {
	receipt, err := g.doMutate(ctx, op, signer, institute)
	if g.metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = string(dErrors.CodeOf(err))
		}
		g.metrics.ObserveDecision(op, outcome)
	}
	return receipt, err
}

func (g *Gate) doMutate(ctx context.Context, op string, signer identity.Signer, institute domain.Identity) (ledger.Receipt, error) {
	if signer == nil {
		return ledger.Receipt{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if institute.IsZeroAddress() {
		return ledger.Receipt{}, dErrors.New(dErrors.CodeInvalidInput, "institute identity is required")
	}
	caller := signer.Identity()

	if err := g.RequireAdministrator(ctx, caller); err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotAdministrator) {
			g.emit(ctx, audit.Event{
				Actor:      caller,
				Action:     audit.ActionAuthorizationDenied,
				Aggregate:  audit.AggregateInstitute,
				Subject:    institute.String(),
				Decision:   audit.DecisionDenied,
				Reason:     "caller is not the administrator",
				Attributes: map[string]string{"operation": op},
			})
			g.warn(ctx, "institute_"+op+"_denied", "caller", caller, "institute", institute)
		}
		return ledger.Receipt{}, err
	}

	authorized, err := g.IsAuthorized(ctx, institute)
	if err != nil {
		return ledger.Receipt{}, err
	}

	var (
		receipt ledger.Receipt
		action  audit.Action
	)
	switch op {
	case "authorize":
		if authorized {
			return ledger.Receipt{}, dErrors.New(dErrors.CodeAlreadyAuthorized, "institute is already authorized")
		}
		receipt, err = g.ledger.AuthorizeInstitute(ctx, signer, institute)
		action = audit.ActionInstituteAuthorized
	default:
		if !authorized {
			return ledger.Receipt{}, dErrors.New(dErrors.CodeNotAuthorized, "institute is not authorized")
		}
		receipt, err = g.ledger.RevokeInstitute(ctx, signer, institute)
		action = audit.ActionInstituteRevoked
	}
	if g.invalidator != nil {
		if invErr := g.invalidator.Invalidate(ctx, institute); invErr != nil {
			g.warn(ctx, "role_cache_invalidate_failed", "identity", institute, "error", invErr)
		}
	}
	if err != nil {
		return receipt, err
	}

	g.emit(ctx, audit.Event{
		Actor:     caller,
		Action:    action,
		Aggregate: audit.AggregateInstitute,
		Subject:   institute.String(),
		Decision:  audit.DecisionGranted,
		TxHash:    receipt.TxHash,
	})
	if g.logger != nil {
		g.logger.InfoContext(ctx, string(action),
			"institute", institute,
			"administrator", caller,
			"tx_hash", receipt.TxHash,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return receipt, nil
}

// ListInstitutes returns every registered provider with its live
// authorization. A profile or authorization that cannot be read degrades
// its entry. Only a failed enumeration or a done context fails the listing.
func (g *Gate) ListInstitutes(ctx context.Context) ([]models.Institute, error) {
	users, err := g.listUsers(ctx)
	if err != nil {
		return nil, err
	}
	var providers []models.Institute
	for _, u := range users {
		if u.LoadError != "" {
			g.warn(ctx, "directory_user_unreadable", "identity", u.Identity, "error", u.LoadError)
			continue
		}
		if u.Role == domain.RoleProvider {
			providers = append(providers, models.Institute{Identity: u.Identity, MetadataRef: u.MetadataRef})
		}
	}

	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(g.concurrency)
	for i := range providers {
		entry := &providers[i]
		grp.Go(func() error {
			authorized, err := g.IsAuthorized(gctx, entry.Identity)
			switch {
			case err == nil:
				entry.Authorized = authorized
			case dErrors.HasCode(err, dErrors.CodeTimeout):
				return err
			default:
				entry.AuthorizationError = string(dErrors.CodeOf(err))
				g.warn(gctx, "institute_authorization_unreadable", "institute", entry.Identity, "error", err)
			}
			g.resolveProfile(gctx, entry)
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	if g.metrics != nil {
		n := 0
		for _, p := range providers {
			if p.Authorized {
				n++
			}
		}
		g.metrics.SetAuthorizedInstitutes(n)
	}
	return providers, nil
}

// ListUsers returns the registered-identity directory. Administrator only.
func (g *Gate) ListUsers(ctx context.Context, caller domain.Identity) ([]models.User, error) {
	if err := g.RequireAdministrator(ctx, caller); err != nil {
		return nil, err
	}
	return g.listUsers(ctx)
}

func (g *Gate) listUsers(ctx context.Context) ([]models.User, error) {
	ids, err := g.ledger.GetAllUsers(ctx)
	if err != nil {
		return nil, dErrors.LedgerUnavailable(err, "list users")
	}
	users := make([]models.User, len(ids))
	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(g.concurrency)
	for i, id := range ids {
		grp.Go(func() error {
			rec, err := g.ledger.GetUser(gctx, id)
			if err != nil {
				err = dErrors.LedgerUnavailable(err, "load user")
				if dErrors.HasCode(err, dErrors.CodeTimeout) {
					return err
				}
				users[i] = models.User{Identity: id, LoadError: string(dErrors.CodeOf(err))}
				return nil
			}
			users[i] = models.User{Identity: id, Role: rec.Role, MetadataRef: rec.MetadataRef}
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return users, nil
}

func (g *Gate) resolveProfile(ctx context.Context, entry *models.Institute) {
	if g.profiles == nil {
		return
	}
	var p content.ProviderProfile
	if err := g.profiles.GetJSON(ctx, entry.MetadataRef, &p); err != nil {
		entry.ProfileError = string(dErrors.CodeOf(err))
		g.warn(ctx, "institute_profile_unresolvable", "institute", entry.Identity, "error", err)
		return
	}
	entry.Profile = &p
}

func (g *Gate) emit(ctx context.Context, event audit.Event) {
	if g.auditor == nil {
		return
	}
	if err := g.auditor.Emit(ctx, event); err != nil {
		g.warn(ctx, "audit_emit_failed", "action", event.Action, "error", err)
	}
}

func (g *Gate) warn(ctx context.Context, msg string, args ...any) {
	if g.logger != nil {
		g.logger.WarnContext(ctx, msg, args...)
	}
}
