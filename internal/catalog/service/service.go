// Package service enumerates a holder's certificates and verifies issuers.
// Issuer validity is always read live: revoking an institute flips every
// certificate it issued to unverified without touching the certificate.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"certflow/internal/catalog/metrics"
	"certflow/internal/catalog/models"
	"certflow/internal/content"
	"certflow/internal/ledger"
	"certflow/pkg/domain"
	dErrors "certflow/pkg/domain-errors"
	"certflow/pkg/requestcontext"
)

// Ledger is the certificate registry surface used by the catalog.
type Ledger interface {
	StudentCertificates(ctx context.Context, holder domain.Identity) ([]domain.CertificateID, error)
	CertificateDetails(ctx context.Context, id domain.CertificateID) (ledger.CertificateDetails, error)
	TokenURI(ctx context.Context, id domain.CertificateID) (string, error)
}

// MetadataReader dereferences certificate metadata.
type MetadataReader interface {
	GetJSON(ctx context.Context, ref string, v any) error
}

// IssuerChecker answers the live institute authorization check.
type IssuerChecker interface {
	IsAuthorized(ctx context.Context, institute domain.Identity) (bool, error)
}

const defaultConcurrency = 8

type Catalog struct {
	ledger      Ledger
	metadata    MetadataReader
	issuers     IssuerChecker
	metrics     *metrics.Metrics
	logger      *slog.Logger
	concurrency int
}

type Option func(*Catalog)

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Catalog) {
		c.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Catalog) {
		c.logger = logger
	}
}

// WithConcurrency bounds per-certificate fan-out.
func WithConcurrency(n int) Option {
	return func(c *Catalog) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

func New(l Ledger, metadata MetadataReader, issuers IssuerChecker, opts ...Option) *Catalog {
	c := &Catalog{
		ledger:      l,
		metadata:    metadata,
		issuers:     issuers,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListFor returns the holder's certificates in ledger order. A certificate
// whose metadata cannot be dereferenced stays in the list with
// MetadataError set. One whose ledger record is gone is skipped, and one
// whose record cannot be read is reported with DetailsError. Only a failed
// enumeration or a done context fails the listing.
func (c *Catalog) ListFor(ctx context.Context, holder domain.Identity) ([]models.Certificate, error) {
	ids, err := c.ledger.StudentCertificates(ctx, holder)
	if err != nil {
		return nil, dErrors.LedgerUnavailable(err, "list holder certificates")
	}

	certs := make([]*models.Certificate, len(ids))
	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(c.concurrency)
	for i, id := range ids {
		grp.Go(func() error {
			cert, err := c.load(gctx, id)
			switch {
			case err == nil:
			case dErrors.HasCode(err, dErrors.CodeNotFound):
				c.warn(gctx, "holder_certificate_missing", "holder", holder, "certificate", id)
				return nil
			case gctx.Err() != nil || dErrors.HasCode(err, dErrors.CodeTimeout):
				return err
			default:
				c.warn(gctx, "holder_certificate_unreadable", "holder", holder, "certificate", id, "error", err)
				c.observeMetadata("details_unavailable")
				cert = models.Certificate{ID: id, Holder: holder, DetailsError: string(dErrors.CodeOf(err))}
			}
			certs[i] = &cert
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	out := make([]models.Certificate, 0, len(certs))
	for _, cert := range certs {
		if cert != nil {
			out = append(out, *cert)
		}
	}
	if c.metrics != nil {
		c.metrics.ObserveList(len(out))
	}
	return out, nil
}

// Get returns one certificate with its metadata dereferenced when possible.
func (c *Catalog) Get(ctx context.Context, id domain.CertificateID) (models.Certificate, error) {
	return c.load(ctx, id)
}

// VerifyIssuer checks the certificate's recorded issuer against the current
// authorization set.
func (c *Catalog) VerifyIssuer(ctx context.Context, id domain.CertificateID) (models.Verification, error) {
	details, err := c.details(ctx, id)
	if err != nil {
		return models.Verification{}, err
	}
	authorized, err := c.issuers.IsAuthorized(ctx, details.Institute)
	if err != nil {
		return models.Verification{}, err
	}
	if c.metrics != nil {
		c.metrics.ObserveVerification(authorized)
	}
	if !authorized {
		c.info(ctx, "certificate_issuer_unverified",
			"certificate", id,
			"issuer", details.Institute,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return models.Verification{
		CertificateID:    id,
		Issuer:           details.Institute,
		IssuerAuthorized: authorized,
		CheckedAt:        requestcontext.Now(ctx),
	}, nil
}

func (c *Catalog) load(ctx context.Context, id domain.CertificateID) (models.Certificate, error) {
	details, err := c.details(ctx, id)
	if err != nil {
		return models.Certificate{}, err
	}
	uri, err := c.ledger.TokenURI(ctx, id)
	if err != nil {
		return models.Certificate{}, c.readErr(err, fmt.Sprintf("read token uri of certificate %d", id))
	}
	cert := models.FromDetails(details, uri)

	var meta content.CertificateMetadata
	if err := c.metadata.GetJSON(ctx, uri, &meta); err != nil {
		cert.MetadataError = string(dErrors.CodeOf(err))
		c.observeMetadata("unresolvable")
		c.warn(ctx, "certificate_metadata_unresolvable", "certificate", id, "ref", uri, "error", err)
		return cert, nil
	}
	cert.Metadata = &meta
	if cert.InstitutionName == "" {
		cert.InstitutionName = meta.Institute.InstitutionName
	}
	c.observeMetadata("ok")
	return cert, nil
}

func (c *Catalog) details(ctx context.Context, id domain.CertificateID) (ledger.CertificateDetails, error) {
	details, err := c.ledger.CertificateDetails(ctx, id)
	if err != nil {
		return ledger.CertificateDetails{}, c.readErr(err, fmt.Sprintf("read certificate %d", id))
	}
	return details, nil
}

func (c *Catalog) readErr(err error, msg string) error {
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		return dErrors.Wrap(err, dErrors.CodeNotFound, msg+": not found")
	}
	return dErrors.LedgerUnavailable(err, msg)
}

func (c *Catalog) observeMetadata(outcome string) {
	if c.metrics != nil {
		c.metrics.ObserveMetadata(outcome)
	}
}

func (c *Catalog) info(ctx context.Context, msg string, args ...any) {
	if c.logger != nil {
		c.logger.InfoContext(ctx, msg, args...)
	}
}

func (c *Catalog) warn(ctx context.Context, msg string, args ...any) {
	if c.logger != nil {
		c.logger.WarnContext(ctx, msg, args...)
	}
}
