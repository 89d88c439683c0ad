// Package ledger is the typed façade over the user and certificate
// registries. It is the only component that issues ledger calls.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"certflow/internal/identity"
	"certflow/internal/ledger/metrics"
	"certflow/internal/ledger/tracer"
	"certflow/pkg/domain"
	dErrors "certflow/pkg/domain-errors"
	"certflow/pkg/platform/sentinel"
)

// Gateway wraps a Backend with tracing, metrics and the translation of
// backend sentinels into domain error codes.
type Gateway struct {
	backend Backend
	name    string
	tracer  tracer.Tracer
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type Option func(*Gateway)

func WithTracer(t tracer.Tracer) Option {
	return func(g *Gateway) {
		g.tracer = t
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gateway) {
		g.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// NewGateway wraps backend. name labels spans and logs (memory, postgres, evm).
func NewGateway(backend Backend, name string, opts ...Option) *Gateway {
	g := &Gateway{
		backend: backend,
		name:    name,
		tracer:  tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gateway) GetUser(ctx context.Context, id domain.Identity) (UserRecord, error) {
	return observe(ctx, g, "getUser", []tracer.Attribute{tracer.String(tracer.AttrSubject, id.String())},
		func(ctx context.Context) (UserRecord, error) {
			return g.backend.GetUser(ctx, id)
		})
}

func (g *Gateway) IsUserRegistered(ctx context.Context, id domain.Identity) (bool, error) {
	return observe(ctx, g, "isUserRegistered", []tracer.Attribute{tracer.String(tracer.AttrSubject, id.String())},
		func(ctx context.Context) (bool, error) {
			return g.backend.IsUserRegistered(ctx, id)
		})
}

func (g *Gateway) GetAllUsers(ctx context.Context) ([]domain.Identity, error) {
	return observe(ctx, g, "getAllUsers", nil, g.backend.GetAllUsers)
}

func (g *Gateway) RegisterUser(ctx context.Context, signer identity.Signer, role domain.Role, metadataRef string) (Receipt, error) {
	if !role.IsSet() {
		return Receipt{}, dErrors.New(dErrors.CodeInvalidInput, "role must be student or provider")
	}
	return g.write(ctx, "registerUser", signer, []tracer.Attribute{tracer.String("ledger.role", role.String())},
		func(ctx context.Context) (Receipt, error) {
			return g.backend.RegisterUser(ctx, signer, role, metadataRef)
		})
}

func (g *Gateway) Owner(ctx context.Context) (domain.Identity, error) {
	return observe(ctx, g, "owner", nil, g.backend.Owner)
}

func (g *Gateway) IsAuthorizedInstitute(ctx context.Context, institute domain.Identity) (bool, error) {
	return observe(ctx, g, "authorizedInstitutes", []tracer.Attribute{tracer.String(tracer.AttrSubject, institute.String())},
		func(ctx context.Context) (bool, error) {
			return g.backend.IsAuthorizedInstitute(ctx, institute)
		})
}

func (g *Gateway) AuthorizeInstitute(ctx context.Context, signer identity.Signer, institute domain.Identity) (Receipt, error) {
	return g.write(ctx, "authorizeInstitute", signer, []tracer.Attribute{tracer.String(tracer.AttrSubject, institute.String())},
		func(ctx context.Context) (Receipt, error) {
			return g.backend.AuthorizeInstitute(ctx, signer, institute)
		})
}

func (g *Gateway) RevokeInstitute(ctx context.Context, signer identity.Signer, institute domain.Identity) (Receipt, error) {
	return g.write(ctx, "revokeInstitute", signer, []tracer.Attribute{tracer.String(tracer.AttrSubject, institute.String())},
		func(ctx context.Context) (Receipt, error) {
			return g.backend.RevokeInstitute(ctx, signer, institute)
		})
}

func (g *Gateway) RequestCounter(ctx context.Context) (uint64, error) {
	return observe(ctx, g, "requestCounter", nil, g.backend.RequestCounter)
}

func (g *Gateway) CertificateRequest(ctx context.Context, id domain.RequestID) (CertificateRequest, error) {
	return observe(ctx, g, "certificateRequests", []tracer.Attribute{tracer.Int64(tracer.AttrRequestID, int64(id))},
		func(ctx context.Context) (CertificateRequest, error) {
			return g.backend.CertificateRequest(ctx, id)
		})
}

func (g *Gateway) RequestCertificate(ctx context.Context, signer identity.Signer, in RequestInput) (Receipt, error) {
	return g.write(ctx, "requestCertificate", signer, []tracer.Attribute{tracer.String(tracer.AttrSubject, in.Institute.String())},
		func(ctx context.Context) (Receipt, error) {
			return g.backend.RequestCertificate(ctx, signer, in)
		})
}

func (g *Gateway) ApproveCertificateRequest(ctx context.Context, signer identity.Signer, in ApprovalInput) (Receipt, error) {
	return g.write(ctx, "approveCertificateRequest", signer, []tracer.Attribute{tracer.Int64(tracer.AttrRequestID, int64(in.RequestID))},
		func(ctx context.Context) (Receipt, error) {
			return g.backend.ApproveCertificateRequest(ctx, signer, in)
		})
}

func (g *Gateway) CancelCertificateRequest(ctx context.Context, signer identity.Signer, id domain.RequestID) (Receipt, error) {
	return g.write(ctx, "cancelCertificateRequest", signer, []tracer.Attribute{tracer.Int64(tracer.AttrRequestID, int64(id))},
		func(ctx context.Context) (Receipt, error) {
			return g.backend.CancelCertificateRequest(ctx, signer, id)
		})
}

func (g *Gateway) StudentCertificates(ctx context.Context, holder domain.Identity) ([]domain.CertificateID, error) {
	return observe(ctx, g, "getStudentCertificates", []tracer.Attribute{tracer.String(tracer.AttrSubject, holder.String())},
		func(ctx context.Context) ([]domain.CertificateID, error) {
			return g.backend.StudentCertificates(ctx, holder)
		})
}

func (g *Gateway) CertificateDetails(ctx context.Context, id domain.CertificateID) (CertificateDetails, error) {
	return observe(ctx, g, "getCertificateDetails", []tracer.Attribute{tracer.Int64("ledger.certificate_id", int64(id))},
		func(ctx context.Context) (CertificateDetails, error) {
			return g.backend.CertificateDetails(ctx, id)
		})
}

func (g *Gateway) TokenURI(ctx context.Context, id domain.CertificateID) (string, error) {
	return observe(ctx, g, "tokenURI", []tracer.Attribute{tracer.Int64("ledger.certificate_id", int64(id))},
		func(ctx context.Context) (string, error) {
			return g.backend.TokenURI(ctx, id)
		})
}

// Health reports whether the backend is reachable.
func (g *Gateway) Health(ctx context.Context) error {
	if err := g.backend.Health(ctx); err != nil {
		return translate("health", err)
	}
	return nil
}

func (g *Gateway) write(ctx context.Context, op string, signer identity.Signer, attrs []tracer.Attribute, fn func(context.Context) (Receipt, error)) (Receipt, error) {
	if signer == nil {
		return Receipt{}, dErrors.New(dErrors.CodeUnauthorized, "a signer is required for ledger writes")
	}
	attrs = append(attrs, tracer.String(tracer.AttrCaller, signer.Identity().String()))
	receipt, err := observe(ctx, g, op, attrs, fn)
	switch {
	case err == nil:
		if g.metrics != nil {
			g.metrics.IncWrite(op)
		}
		g.log(ctx, slog.LevelInfo, "ledger_write_confirmed",
			"operation", op,
			"caller", signer.Identity(),
			"tx_hash", receipt.TxHash,
			"block", receipt.BlockNumber,
		)
	case dErrors.HasCode(err, dErrors.CodeUnconfirmed):
		g.log(ctx, slog.LevelWarn, "ledger_write_unconfirmed",
			"operation", op,
			"caller", signer.Identity(),
			"tx_hash", receipt.TxHash,
		)
	}
	return receipt, err
}

func observe[T any](ctx context.Context, g *Gateway, op string, attrs []tracer.Attribute, fn func(context.Context) (T, error)) (T, error) {
	start := time.Now()
	attrs = append(attrs,
		tracer.String(tracer.AttrOperation, op),
		tracer.String(tracer.AttrBackend, g.name),
	)
	ctx, span := g.tracer.Start(ctx, "ledger."+op, attrs...)

	result, err := fn(ctx)
	err = translate(op, err)

	outcome := "ok"
	if err != nil {
		outcome = string(dErrors.CodeOf(err))
	}
	span.SetAttributes(tracer.String(tracer.AttrOutcome, outcome))
	if r, ok := any(result).(Receipt); ok && r.TxHash != "" {
		span.AddEvent(tracer.EventReceipt, tracer.String(tracer.AttrTxHash, r.TxHash))
	}
	span.End(err)

	if g.metrics != nil {
		g.metrics.ObserveCall(op, outcome, time.Since(start).Seconds())
	}
	if err != nil && !dErrors.HasCode(err, dErrors.CodeNotFound) {
		g.log(ctx, slog.LevelWarn, "ledger_call_failed", "operation", op, "outcome", outcome, "error", err)
	}
	return result, err
}

// translate maps backend sentinels to domain codes. Unconfirmed is checked
// before deadline errors because a receipt wait that times out is reported
// as unconfirmed by the backend.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrUnconfirmed):
		return dErrors.Wrap(err, dErrors.CodeUnconfirmed, op+": transaction submitted but not confirmed")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, op+": not found")
	case errors.Is(err, sentinel.ErrRejected):
		return dErrors.Wrap(err, dErrors.CodeLedgerRejected, op+": "+err.Error())
	case errors.Is(err, sentinel.ErrInvalidInput):
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, op+": "+err.Error())
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeGatewayUnavailable, op+": ledger unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, op+": timed out")
	case errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeTimeout, op+": cancelled")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, op+": "+err.Error())
	}
}

func (g *Gateway) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	if g.logger == nil {
		return
	}
	g.logger.Log(ctx, level, msg, append(args, "backend", g.name)...)
}
