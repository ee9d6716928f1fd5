package actor

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"sort"
	"strconv"
)

// PoolKind selects the distribution policy of a pool router.
type PoolKind int

const (
	RoundRobin PoolKind = iota
	Random
	ConsistentHash
	Broadcast
)

// HashKeyer lets a message pin itself to a pool replica under the
// consistent-hash policy.
type HashKeyer interface {
	HashKey() string
}

// Router fans one address out over a homogeneous pool of N actor instances.
// The router holds no state beyond the pool itself; stopping the router
// tears the pool down with it.
type Router struct {
	kind         PoolKind
	size         int
	replicaCount int
	producer     Producer

	pool []*PID
	next uint64
	ring ring
}

// NewRouter returns a producer for a pool router actor.
func NewRouter(kind PoolKind, size int, producer Producer) Producer {
	return NewRouterWithReplicas(kind, size, 100, producer)
}

// NewRouterWithReplicas tunes the consistent-hash smoothing factor.
func NewRouterWithReplicas(kind PoolKind, size, replicaCount int, producer Producer) Producer {
	return func() Actor {
		return &Router{kind: kind, size: size, replicaCount: replicaCount, producer: producer}
	}
}

func (r *Router) Receive(ctx *Context) {
	switch ctx.Message().(type) {
	case Started:
		r.pool = make([]*PID, r.size)
		for i := 0; i < r.size; i++ {
			r.pool[i] = ctx.Spawn(strconv.Itoa(i), r.producer)
		}
		if r.kind == ConsistentHash {
			r.ring = buildRing(r.pool, r.replicaCount)
		}
	case Stopping, Stopped, Restarting, Terminated, ChildFailure, ReceiveTimeout:
	default:
		r.route(ctx)
	}
}

func (r *Router) route(ctx *Context) {
	if len(r.pool) == 0 {
		return
	}
	switch r.kind {
	case RoundRobin:
		ctx.Forward(r.pool[r.next%uint64(len(r.pool))])
		r.next++
	case Random:
		ctx.Forward(r.pool[rand.Intn(len(r.pool))])
	case ConsistentHash:
		ctx.Forward(r.ring.lookup(messageHashKey(ctx.Message())))
	case Broadcast:
		for _, pid := range r.pool {
			ctx.Send(pid, ctx.Message())
		}
	}
}

func messageHashKey(msg any) string {
	if k, ok := msg.(HashKeyer); ok {
		return k.HashKey()
	}
	return fmt.Sprintf("%T:%v", msg, msg)
}

type ringEntry struct {
	hash uint32
	pid  *PID
}

type ring []ringEntry

// buildRing places replicaCount virtual nodes per pool instance on a hash
// ring so the key space maps smoothly and stably onto the pool.
func buildRing(pool []*PID, replicaCount int) ring {
	entries := make(ring, 0, len(pool)*replicaCount)
	for _, pid := range pool {
		for i := 0; i < replicaCount; i++ {
			entries = append(entries, ringEntry{hash: fnv32(fmt.Sprintf("%s-%d", pid.ID, i)), pid: pid})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].hash < entries[j].hash })
	return entries
}

func (r ring) lookup(key string) *PID {
	h := fnv32(key)
	i := sort.Search(len(r), func(i int) bool { return r[i].hash >= h })
	if i == len(r) {
		i = 0
	}
	return r[i].pid
}

func fnv32(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}
