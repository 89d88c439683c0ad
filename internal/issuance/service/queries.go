package service

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"certflow/internal/issuance/models"
	"certflow/internal/ledger"
	"certflow/pkg/domain"
	dErrors "certflow/pkg/domain-errors"
)

// Get returns one request. Cancelled requests are stale_request with the
// cancellation kind in the message.
func (m *Manager) Get(ctx context.Context, id domain.RequestID) (models.Request, error) {
	req, err := m.load(ctx, id)
	if err != nil {
		return models.Request{}, err
	}
	return models.FromLedger(req), nil
}

// ListPendingFor returns the unapproved requests addressed to institute in
// id order. The ledger has no index by institute, so every id up to the
// counter is read.
func (m *Manager) ListPendingFor(ctx context.Context, institute domain.Identity) ([]models.Request, error) {
	return m.scan(ctx, func(r ledger.CertificateRequest) bool {
		return !r.Approved && r.Institute.Equal(institute)
	})
}

// ListPendingBy returns the unapproved requests a student submitted.
func (m *Manager) ListPendingBy(ctx context.Context, student domain.Identity) ([]models.Request, error) {
	return m.scan(ctx, func(r ledger.CertificateRequest) bool {
		return !r.Approved && r.Student.Equal(student)
	})
}

// scan reads [1, counter]. Deleted ids are skipped; any other read failure
// fails the scan so an outage is never reported as an empty list.
func (m *Manager) scan(ctx context.Context, keep func(ledger.CertificateRequest) bool) ([]models.Request, error) {
	start := time.Now()
	counter, err := m.ledger.RequestCounter(ctx)
	if err != nil {
		return nil, dErrors.LedgerUnavailable(err, "read request counter")
	}

	var (
		mu    sync.Mutex
		found []ledger.CertificateRequest
	)
	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(m.concurrency)
	for i := uint64(1); i <= counter; i++ {
		grp.Go(func() error {
			req, err := m.ledger.CertificateRequest(gctx, domain.RequestID(i))
			if dErrors.HasCode(err, dErrors.CodeNotFound) {
				return nil
			}
			if err != nil {
				return dErrors.LedgerUnavailable(err, "read certificate request")
			}
			if keep(req) {
				mu.Lock()
				found = append(found, req)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	slices.SortFunc(found, func(a, b ledger.CertificateRequest) int {
		return cmp.Compare(a.ID, b.ID)
	})
	out := make([]models.Request, 0, len(found))
	for _, req := range found {
		out = append(out, models.FromLedger(req))
	}
	if m.metrics != nil {
		m.metrics.ObserveScan(time.Since(start).Seconds(), int(counter))
	}
	return out, nil
}
