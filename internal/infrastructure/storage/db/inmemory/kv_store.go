package inmemory

import (
	"sync"

	"github.com/tdex-network/liquid-wallet/internal/core/ports"
)

// kvStore is the volatile ports.KVStore used by tests and by wallets that
// opt out of persistence.
type kvStore struct {
	mtx     sync.RWMutex
	entries map[string][]byte
}

// NewKVStore returns an empty in-memory store.
func NewKVStore() ports.KVStore {
	return &kvStore{entries: make(map[string][]byte)}
}

func (s *kvStore) Get(key string) ([]byte, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	value, ok := s.entries[key]
	if !ok {
		return nil, ports.ErrKeyNotFound
	}
	copied := make([]byte, len(value))
	copy(copied, value)
	return copied, nil
}

func (s *kvStore) Put(key string, value []byte) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	copied := make([]byte, len(value))
	copy(copied, value)
	s.entries[key] = copied
	return nil
}

func (s *kvStore) Remove(key string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *kvStore) Close() error {
	return nil
}
