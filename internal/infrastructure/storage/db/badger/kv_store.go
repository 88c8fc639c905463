package dbbadger

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v3"
	"github.com/tdex-network/liquid-wallet/internal/core/ports"
	"github.com/timshannon/badgerhold/v4"
)

// stateEntry is the badgerhold record wrapping a persisted value.
type stateEntry struct {
	Key  string `badgerhold:"key"`
	Data []byte
}

// kvStore is the on-disk ports.KVStore backed by badger.
type kvStore struct {
	store *badgerhold.Store
}

// NewKVStore opens (or creates if not exists) the badger store under the
// given data directory. Pass a nil logger to silence badger.
func NewKVStore(baseDbDir string, logger badger.Logger) (ports.KVStore, error) {
	opts := badger.DefaultOptions(baseDbDir + "/wallet")
	opts.Logger = logger

	store, err := badgerhold.Open(badgerhold.Options{
		Encoder:          JSONEncode,
		Decoder:          JSONDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, fmt.Errorf("opening wallet db: %w", err)
	}
	return &kvStore{store}, nil
}

func (s *kvStore) Get(key string) ([]byte, error) {
	entry := &stateEntry{}
	if err := s.store.Get(key, entry); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, ports.ErrKeyNotFound
		}
		return nil, err
	}
	return entry.Data, nil
}

func (s *kvStore) Put(key string, value []byte) error {
	return s.store.Upsert(key, &stateEntry{Key: key, Data: value})
}

func (s *kvStore) Remove(key string) error {
	err := s.store.Delete(key, &stateEntry{})
	if err == badgerhold.ErrNotFound {
		return nil
	}
	return err
}

func (s *kvStore) Close() error {
	return s.store.Close()
}

// JSONEncode is a custom JSON based encoder for badger
func JSONEncode(value interface{}) ([]byte, error) {
	var buff bytes.Buffer

	en := json.NewEncoder(&buff)

	err := en.Encode(value)
	if err != nil {
		return nil, err
	}

	return buff.Bytes(), nil
}

// JSONDecode is a custom JSON based decoder for badger
func JSONDecode(data []byte, value interface{}) error {
	var buff bytes.Buffer
	de := json.NewDecoder(&buff)

	_, err := buff.Write(data)
	if err != nil {
		return err
	}

	return de.Decode(value)
}
