// Package repository is the cache-aside persistence layer entity actors go
// through: reads hit the hybrid cache before the durable store, writes
// commit to the store first and then write through the cache.
package repository

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/vmihailenco/msgpack/v5"

	"racetimed/pkg/cache"
	"racetimed/pkg/domain"
	"racetimed/pkg/storage"
)

type Repository struct {
	store *storage.Store
	cache *cache.Hybrid
}

func New(store *storage.Store, c *cache.Hybrid) *Repository {
	return &Repository{store: store, cache: c}
}

// Store exposes the durable tier for callers that must enumerate durable
// ids regardless of cache contents.
func (r *Repository) Store() *storage.Store { return r.store }

// Get reads cache-aside: cache tiers first, the durable store on a miss.
// A miss-then-absent does not populate the cache.
func Get[E domain.Entity](r *Repository, kind, id string) (E, bool, error) {
	var zero E
	buf, ok, err := r.cache.GetOrCreate(domain.StoreKey(kind, id), func() ([]byte, bool, error) {
		return r.store.Get(kind, id)
	}, domain.CollectionKey(kind))
	if err != nil {
		return zero, false, fmt.Errorf("get %s:%s: %w", kind, id, err)
	}
	if !ok {
		return zero, false, nil
	}
	var e E
	if err := msgpack.Unmarshal(buf, &e); err != nil {
		return zero, false, fmt.Errorf("decode %s:%s: %w", kind, id, err)
	}
	return e, true, nil
}

// GetAll enumerates the kind's collection index and fetches each entry from
// the cache; individually missing keys are skipped, not fatal.
func GetAll[E domain.Entity](r *Repository, kind string) ([]E, error) {
	keys, err := r.cache.AllKeys(domain.CollectionKey(kind))
	if err != nil {
		return nil, fmt.Errorf("list %s keys: %w", kind, err)
	}
	out := make([]E, 0, len(keys))
	for _, key := range keys {
		buf, ok, err := r.cache.Get(key)
		if err != nil {
			return nil, fmt.Errorf("get %s: %w", key, err)
		}
		if !ok {
			continue
		}
		var e E
		if err := msgpack.Unmarshal(buf, &e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// Exists checks the cache tiers and falls back to the durable store.
func (r *Repository) Exists(kind, id string) (bool, error) {
	ok, err := r.cache.Exists(domain.StoreKey(kind, id))
	if err != nil || ok {
		return ok, err
	}
	return r.store.Exists(kind, id)
}

// AddOrUpdate commits the entity to the durable store transactionally; the
// cache write-through that follows is best-effort, a miss self-heals on the
// next read.
func (r *Repository) AddOrUpdate(e domain.Entity) error {
	if err := r.store.AddOrUpdate(e); err != nil {
		return fmt.Errorf("upsert %s:%s: %w", e.EntityKind(), e.EntityKey(), err)
	}
	buf, err := msgpack.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode %s:%s: %w", e.EntityKind(), e.EntityKey(), err)
	}
	kind, id := e.EntityKind(), e.EntityKey()
	if err := r.cache.Set(domain.StoreKey(kind, id), buf, domain.CollectionKey(kind)); err != nil {
		log.Err(err).Str("kind", kind).Str("id", id).Msg("cache write-through failed")
	}
	return nil
}

// Delete removes the entity from the store and both cache tiers.
func (r *Repository) Delete(kind, id string) error {
	if err := r.store.Delete(kind, id); err != nil {
		return fmt.Errorf("delete %s:%s: %w", kind, id, err)
	}
	if err := r.cache.Remove(domain.StoreKey(kind, id), domain.CollectionKey(kind)); err != nil {
		log.Err(err).Str("kind", kind).Str("id", id).Msg("cache remove failed")
	}
	return nil
}
