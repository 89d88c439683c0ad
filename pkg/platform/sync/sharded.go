// Package sync holds keyed locking helpers shared by services that serialize
// work per request id or per sending identity.
package sync

import (
	"hash/fnv"
	"sync"
)

const shardCount = 64

// ShardedMutex serializes callers that share a key. Distinct keys usually
// land on distinct shards; a collision only costs contention.
type ShardedMutex struct {
	shards [shardCount]sync.Mutex
}

func NewShardedMutex() *ShardedMutex {
	return &ShardedMutex{}
}

func (m *ShardedMutex) Lock(key string) {
	m.shards[m.shardFor(key)].Lock()
}

func (m *ShardedMutex) Unlock(key string) {
	m.shards[m.shardFor(key)].Unlock()
}

// Hold locks key and returns the matching unlock.
func (m *ShardedMutex) Hold(key string) (release func()) {
	shard := &m.shards[m.shardFor(key)]
	shard.Lock()
	return shard.Unlock
}

func (m *ShardedMutex) shardFor(key string) int {
	if key == "" {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % shardCount)
}
