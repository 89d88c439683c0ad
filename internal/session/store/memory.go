// Package store holds login challenge stores.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"certflow/internal/session"
	"certflow/pkg/domain"
	"certflow/pkg/platform/sentinel"
)

// Memory keeps challenges in process. Expiry is checked by the service.
type Memory struct {
	mu         sync.Mutex
	challenges map[domain.Identity]session.Challenge
}

func NewMemory() *Memory {
	return &Memory{
		challenges: make(map[domain.Identity]session.Challenge),
	}
}

func (m *Memory) Save(_ context.Context, c session.Challenge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.challenges[c.Identity] = c
	return nil
}

func (m *Memory) Consume(_ context.Context, id domain.Identity) (session.Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.challenges[id]
	if !ok {
		return session.Challenge{}, fmt.Errorf("challenge for %s: %w", id, sentinel.ErrNotFound)
	}
	delete(m.challenges, id)
	return c, nil
}

// MemoryRevocations keeps revoked token ids in process until their TTL lapses.
type MemoryRevocations struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewMemoryRevocations() *MemoryRevocations {
	return &MemoryRevocations{
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (m *MemoryRevocations) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[jti] = m.now().Add(ttl)
	return nil
}

func (m *MemoryRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	until, ok := m.revoked[jti]
	if !ok {
		return false, nil
	}
	if !m.now().Before(until) {
		delete(m.revoked, jti)
		return false, nil
	}
	return true, nil
}
