// Package memory keeps content blobs in process.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/ipfs/go-cid"

	"certflow/internal/content"
	"certflow/pkg/platform/sentinel"
)

type Store struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func New() *Store {
	return &Store{blobs: make(map[string][]byte)}
}

func (s *Store) Put(_ context.Context, data []byte) (cid.Cid, error) {
	id, err := content.ComputeCID(data)
	if err != nil {
		return cid.Undef, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[id.KeyString()]; !ok {
		s.blobs[id.KeyString()] = append([]byte(nil), data...)
	}
	return id, nil
}

func (s *Store) Get(_ context.Context, id cid.Cid) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[id.KeyString()]
	if !ok {
		return nil, fmt.Errorf("content %s: %w", id, sentinel.ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

func (s *Store) Health(context.Context) error { return nil }

// Corrupt replaces the bytes stored under id. Used by tests.
func (s *Store) Corrupt(id cid.Cid, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[id.KeyString()] = data
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

var _ content.Backend = (*Store)(nil)
