// Package storage is the durable store: badger-backed, msgpack-encoded,
// with a per-kind key index so collections can be enumerated.
package storage

import (
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v3"
	"github.com/vmihailenco/msgpack/v5"

	"racetimed/pkg/domain"
)

type Store struct {
	db *badger.DB
}

func New(db *badger.DB) *Store {
	return &Store{db: db}
}

func valueKey(kind, id string) []byte {
	return []byte(domain.StoreKey(kind, id))
}

func memberKey(kind, id string) []byte {
	return []byte(fmt.Sprintf("%s/%s", domain.CollectionKey(kind), id))
}

func memberPrefix(kind string) []byte {
	return []byte(domain.CollectionKey(kind) + "/")
}

func buildValue(value any) ([]byte, error) {
	buf, err := msgpack.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal value: %w", err)
	}
	return buf, nil
}

// Get fetches the raw value for one entity. Absence is not an error.
func (s *Store) Get(kind, id string) ([]byte, bool, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(valueKey(kind, id))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s:%s: %w", kind, id, err)
	}
	return out, true, nil
}

// GetValue decodes the stored entity into out.
func (s *Store) GetValue(kind, id string, out any) (bool, error) {
	buf, ok, err := s.Get(kind, id)
	if err != nil || !ok {
		return ok, err
	}
	if err := msgpack.Unmarshal(buf, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s:%s: %w", kind, id, err)
	}
	return true, nil
}

// Exists checks for the entity's value key.
func (s *Store) Exists(kind, id string) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(valueKey(kind, id))
		return err
	})
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check %s:%s: %w", kind, id, err)
	}
	return true, nil
}

// Keys enumerates the ids recorded in the kind's collection index.
func (s *Store) Keys(kind string) ([]string, error) {
	prefix := memberPrefix(kind)
	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			ids = append(ids, strings.TrimPrefix(key, string(prefix)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list keys for %s: %w", kind, err)
	}
	return ids, nil
}

// AddOrUpdate upserts the entity and its collection membership in a single
// transaction; on any failure the transaction is discarded whole.
func (s *Store) AddOrUpdate(e domain.Entity) error {
	buf, err := buildValue(e)
	if err != nil {
		return err
	}
	kind, id := e.EntityKind(), e.EntityKey()
	return s.db.Update(func(txn *badger.Txn) error {
		// distinguishes insert from overwrite; both end as a plain set
		if _, err := txn.Get(valueKey(kind, id)); err != nil && err != badger.ErrKeyNotFound {
			return err
		}
		if err := txn.Set(valueKey(kind, id), buf); err != nil {
			return err
		}
		return txn.Set(memberKey(kind, id), nil)
	})
}

// Delete removes the entity's value and its collection membership together.
func (s *Store) Delete(kind, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(valueKey(kind, id)); err != nil {
			return err
		}
		return txn.Delete(memberKey(kind, id))
	})
}
