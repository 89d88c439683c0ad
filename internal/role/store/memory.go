// Package store holds role resolution caches.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"certflow/internal/role/models"
	"certflow/pkg/domain"
	"certflow/pkg/platform/sentinel"
)

type entry struct {
	resolution models.Resolution
	expiresAt  time.Time
}

// Memory caches resolutions in process for ttl.
type Memory struct {
	mu      sync.RWMutex
	entries map[domain.Identity]entry
	ttl     time.Duration
	now     func() time.Time
}

type MemoryOption func(*Memory)

func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		m.now = now
	}
}

func NewMemory(ttl time.Duration, opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[domain.Identity]entry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Get(_ context.Context, id domain.Identity) (models.Resolution, error) {
	m.mu.RLock()
	e, ok := m.entries[id]
	m.mu.RUnlock()
	if !ok || !m.now().Before(e.expiresAt) {
		return models.Resolution{}, fmt.Errorf("resolution for %s: %w", id, sentinel.ErrNotFound)
	}
	return e.resolution, nil
}

func (m *Memory) Put(_ context.Context, r models.Resolution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[r.Identity] = entry{resolution: r, expiresAt: m.now().Add(m.ttl)}
	return nil
}

func (m *Memory) Invalidate(_ context.Context, id domain.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}
