// Package cache is the two-tier cache-aside layer: an in-process map in
// front of a distributed key/value tier. Reads check local first, then the
// distributed tier; get-or-create is single-flighted per key.
package cache

import (
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrWaitTimeout is returned when a caller waits too long on another
// caller's in-flight create for the same key.
var ErrWaitTimeout = errors.New("cache: timed out waiting for in-flight create")

// Distributed is the out-of-process tier: string keys to byte values, plus
// named member sets used as collection indices.
type Distributed interface {
	Exists(key string) (bool, error)
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
	AddMember(collection, member string) error
	RemoveMember(collection, member string) error
	Members(collection string) ([]string, error)
}

type Hybrid struct {
	dist        Distributed
	local       sync.Map // key -> []byte
	group       singleflight.Group
	waitTimeout time.Duration
}

func New(dist Distributed) *Hybrid {
	return &Hybrid{dist: dist, waitTimeout: 3 * time.Second}
}

// Exists checks the local tier, then the distributed one.
func (h *Hybrid) Exists(key string) (bool, error) {
	if _, ok := h.local.Load(key); ok {
		return true, nil
	}
	return h.dist.Exists(key)
}

// AllKeys enumerates a collection index in the distributed tier.
func (h *Hybrid) AllKeys(collection string) ([]string, error) {
	return h.dist.Members(collection)
}

// Get returns the cached value if present in either tier. Absence is a
// valid non-error outcome; a failing distributed tier is an error.
func (h *Hybrid) Get(key string) ([]byte, bool, error) {
	if v, ok := h.local.Load(key); ok {
		return v.([]byte), true, nil
	}
	buf, ok, err := h.dist.Get(key)
	if err != nil || !ok {
		return nil, false, err
	}
	h.local.Store(key, buf)
	return buf, true, nil
}

type flightResult struct {
	buf []byte
	ok  bool
}

// GetOrCreate runs the check-then-create sequence under a per-key single
// flight: concurrent callers for the same key share exactly one factory
// invocation, and the flight handle is retired once the call completes.
// Callers wait a bounded time before failing rather than deadlocking.
func (h *Hybrid) GetOrCreate(key string, factory func() ([]byte, bool, error), collection string) ([]byte, bool, error) {
	ch := h.group.DoChan(key, func() (any, error) {
		if v, ok := h.local.Load(key); ok {
			return flightResult{v.([]byte), true}, nil
		}
		buf, ok, err := h.dist.Get(key)
		if err != nil {
			return nil, err
		}
		if ok {
			h.local.Store(key, buf)
			return flightResult{buf, true}, nil
		}
		buf, ok, err = factory()
		if err != nil {
			return nil, err
		}
		if !ok {
			return flightResult{}, nil
		}
		if err := h.Set(key, buf, collection); err != nil {
			return nil, err
		}
		return flightResult{buf, true}, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		f := res.Val.(flightResult)
		return f.buf, f.ok, nil
	case <-time.After(h.waitTimeout):
		return nil, false, ErrWaitTimeout
	}
}

// Set writes through both tiers and records collection membership when a
// collection is given.
func (h *Hybrid) Set(key string, value []byte, collection string) error {
	if err := h.dist.Set(key, value); err != nil {
		return err
	}
	if collection != "" {
		if err := h.dist.AddMember(collection, key); err != nil {
			return err
		}
	}
	h.local.Store(key, value)
	return nil
}

// Remove drops the key from both tiers and from its collection index.
func (h *Hybrid) Remove(key string, collection string) error {
	if err := h.dist.Delete(key); err != nil {
		return err
	}
	if collection != "" {
		if err := h.dist.RemoveMember(collection, key); err != nil {
			return err
		}
	}
	h.local.Delete(key)
	return nil
}
