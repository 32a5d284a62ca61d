// Package memory is an in-process blob store, used for tests and the memory:// state store.
package memory

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bsv-blockchain/teranode-archive/errors"
	"github.com/bsv-blockchain/teranode-archive/stores/blob/options"
)

type blobEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e blobEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

type Memory struct {
	mu         sync.RWMutex
	blobs      map[string]blobEntry
	options    *options.Options
	Counters   map[string]int
	countersMu sync.Mutex
}

func New(opts ...options.StoreOption) *Memory {
	return &Memory{
		blobs:    make(map[string]blobEntry),
		options:  options.NewStoreOptions(opts...),
		Counters: make(map[string]int),
	}
}

func (m *Memory) count(op string) {
	m.countersMu.Lock()
	m.Counters[op]++
	m.countersMu.Unlock()
}

// Count returns how many times op was called.
func (m *Memory) Count(op string) int {
	m.countersMu.Lock()
	defer m.countersMu.Unlock()

	return m.Counters[op]
}

func (m *Memory) Health(_ context.Context, _ bool) (int, string, error) {
	m.count("health")

	m.mu.RLock()
	defer m.mu.RUnlock()

	return http.StatusOK, fmt.Sprintf("Memory Store: %d blobs", len(m.blobs)), nil
}

func (m *Memory) Close(_ context.Context) error {
	m.count("close")

	return nil
}

func (m *Memory) Set(_ context.Context, key []byte, value []byte, opts ...options.FileOption) error {
	m.count("set")

	merged := options.MergeOptions(m.options, opts)
	storeKey := string(merged.CalculateKey(key))

	m.mu.Lock()
	defer m.mu.Unlock()

	if !merged.AllowOverwrite {
		if existing, ok := m.blobs[storeKey]; ok && !existing.expired(time.Now()) {
			return errors.NewBlobAlreadyExistsError("blob already exists")
		}
	}

	entry := blobEntry{value: append([]byte(nil), value...)}
	if merged.TTL > 0 {
		entry.expiresAt = time.Now().Add(merged.TTL)
	}

	m.blobs[storeKey] = entry

	return nil
}

func (m *Memory) Get(_ context.Context, key []byte, opts ...options.FileOption) ([]byte, error) {
	m.count("get")

	merged := options.MergeOptions(m.options, opts)
	storeKey := string(merged.CalculateKey(key))

	m.mu.RLock()
	entry, ok := m.blobs[storeKey]
	m.mu.RUnlock()

	if !ok || entry.expired(time.Now()) {
		return nil, errors.NewBlobNotFoundError("memory key not found [%x]", key)
	}

	return append([]byte(nil), entry.value...), nil
}

func (m *Memory) Exists(_ context.Context, key []byte, opts ...options.FileOption) (bool, error) {
	m.count("exists")

	merged := options.MergeOptions(m.options, opts)
	storeKey := string(merged.CalculateKey(key))

	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.blobs[storeKey]

	return ok && !entry.expired(time.Now()), nil
}

func (m *Memory) Del(_ context.Context, key []byte, opts ...options.FileOption) error {
	m.count("del")

	merged := options.MergeOptions(m.options, opts)
	storeKey := string(merged.CalculateKey(key))

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.blobs, storeKey)

	return nil
}
