package cache

import (
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v3"
)

// BadgerTier backs the distributed cache contract with a badger keyspace.
// Keys are prefixed so the tier can share a DB with other data.
type BadgerTier struct {
	db *badger.DB
}

func NewBadgerTier(db *badger.DB) *BadgerTier {
	return &BadgerTier{db: db}
}

func tierKey(key string) []byte {
	return []byte("cache/" + key)
}

func tierMemberKey(collection, member string) []byte {
	return []byte(fmt.Sprintf("cacheset/%s/%s", collection, member))
}

func tierMemberPrefix(collection string) []byte {
	return []byte(fmt.Sprintf("cacheset/%s/", collection))
}

func (t *BadgerTier) Exists(key string) (bool, error) {
	err := t.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(tierKey(key))
		return err
	})
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache tier exists %s: %w", key, err)
	}
	return true, nil
}

func (t *BadgerTier) Get(key string) ([]byte, bool, error) {
	var out []byte
	err := t.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(tierKey(key))
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
		return nil, false, fmt.Errorf("cache tier get %s: %w", key, err)
	}
	return out, true, nil
}

func (t *BadgerTier) Set(key string, value []byte) error {
	return t.db.Update(func(txn *badger.Txn) error {
		return txn.Set(tierKey(key), value)
	})
}

func (t *BadgerTier) Delete(key string) error {
	return t.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(tierKey(key))
	})
}

func (t *BadgerTier) AddMember(collection, member string) error {
	return t.db.Update(func(txn *badger.Txn) error {
		return txn.Set(tierMemberKey(collection, member), nil)
	})
}

func (t *BadgerTier) RemoveMember(collection, member string) error {
	return t.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(tierMemberKey(collection, member))
	})
}

func (t *BadgerTier) Members(collection string) ([]string, error) {
	prefix := tierMemberPrefix(collection)
	var members []string
	err := t.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			members = append(members, strings.TrimPrefix(string(it.Item().Key()), string(prefix)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cache tier members %s: %w", collection, err)
	}
	return members, nil
}
