package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"certflow/internal/issuance/models"
	"certflow/pkg/domain"
	"certflow/pkg/platform/sentinel"
)

// MemoryCancellations keeps the cancellation history in process. The first
// record for an id wins.
type MemoryCancellations struct {
	mu      sync.RWMutex
	records map[domain.RequestID]models.Cancellation
	now     func() time.Time
}

func NewMemoryCancellations(opts ...Option) *MemoryCancellations {
	o := buildOptions(opts)
	return &MemoryCancellations{
		records: make(map[domain.RequestID]models.Cancellation),
		now:     o.now,
	}
}

func (m *MemoryCancellations) Record(_ context.Context, c models.Cancellation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[c.RequestID]; ok {
		return nil
	}
	if c.CancelledAt.IsZero() {
		c.CancelledAt = m.now()
	}
	m.records[c.RequestID] = c
	return nil
}

func (m *MemoryCancellations) Get(_ context.Context, id domain.RequestID) (models.Cancellation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.records[id]
	if !ok {
		return models.Cancellation{}, fmt.Errorf("cancellation of request %d: %w", id, sentinel.ErrNotFound)
	}
	return c, nil
}
