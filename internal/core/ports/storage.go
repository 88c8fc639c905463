package ports

import "errors"

// ErrKeyNotFound is returned by KVStore.Get for missing keys.
var ErrKeyNotFound = errors.New("key not found in store")

// KVStore is the persistence the wallet service writes its state snapshots
// through. Implementations must make Put durable before returning.
type KVStore interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Remove(key string) error
	Close() error
}
