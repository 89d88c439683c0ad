//go:build integration

// Package containers starts the Postgres, Redis and Redpanda fixtures used by
// integration suites. Each container is started once per test binary and
// shared by every suite that asks for it.
package containers

import (
	"sync"
	"testing"
)

type Manager struct {
	postgres lazy[*PostgresContainer]
	redis    lazy[*RedisContainer]
	kafka    lazy[*KafkaContainer]
}

// lazy starts its value on first use. A failed start fails the asking test
// and is retried by the next one.
type lazy[T any] struct {
	mu  sync.Mutex
	val T
	set bool
}

func (l *lazy[T]) get(t *testing.T, start func(*testing.T) T) T {
	t.Helper()
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.set {
		l.val = start(t)
		l.set = true
	}
	return l.val
}

var manager = &Manager{}

func GetManager() *Manager {
	return manager
}

// GetPostgres returns the shared Postgres with all migrations applied.
func (m *Manager) GetPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	return m.postgres.get(t, NewPostgresContainer)
}

func (m *Manager) GetRedis(t *testing.T) *RedisContainer {
	t.Helper()
	return m.redis.get(t, NewRedisContainer)
}

// GetKafka returns the shared Redpanda broker.
func (m *Manager) GetKafka(t *testing.T) *KafkaContainer {
	t.Helper()
	return m.kafka.get(t, NewKafkaContainer)
}
