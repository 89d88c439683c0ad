// Package store holds approval checkpoints and the cancellation history.
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

type checkpointEntry struct {
	checkpoint models.Checkpoint
	expiresAt  time.Time
}

// MemoryCheckpoints keeps approval checkpoints in process for ttl.
type MemoryCheckpoints struct {
	mu      sync.RWMutex
	entries map[domain.RequestID]checkpointEntry
	ttl     time.Duration
	now     func() time.Time
}

type Option func(*options)

type options struct {
	now func() time.Time
}

func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func NewMemoryCheckpoints(ttl time.Duration, opts ...Option) *MemoryCheckpoints {
	o := buildOptions(opts)
	return &MemoryCheckpoints{
		entries: make(map[domain.RequestID]checkpointEntry),
		ttl:     ttl,
		now:     o.now,
	}
}

func (m *MemoryCheckpoints) Get(_ context.Context, id domain.RequestID) (models.Checkpoint, error) {
	m.mu.RLock()
	e, ok := m.entries[id]
	m.mu.RUnlock()
	if !ok || !m.now().Before(e.expiresAt) {
		return models.Checkpoint{}, fmt.Errorf("checkpoint for request %d: %w", id, sentinel.ErrNotFound)
	}
	return e.checkpoint, nil
}

func (m *MemoryCheckpoints) Save(_ context.Context, cp models.Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	cp.UpdatedAt = now
	m.entries[cp.RequestID] = checkpointEntry{checkpoint: cp, expiresAt: now.Add(m.ttl)}
	return nil
}

func (m *MemoryCheckpoints) Delete(_ context.Context, id domain.RequestID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}
