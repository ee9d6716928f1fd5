package actors

import (
	"testing"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/stretchr/testify/require"

	"racetimed/pkg/actor"
	"racetimed/pkg/cache"
	"racetimed/pkg/events"
	"racetimed/pkg/repository"
	"racetimed/pkg/storage"
)

type testEnv struct {
	sys  *actor.System
	repo *repository.Repository
	elog *events.Log
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	sys := actor.NewSystem("test")
	t.Cleanup(func() {
		sys.Shutdown()
		_ = db.Close()
	})
	return &testEnv{
		sys:  sys,
		repo: repository.New(storage.New(db), cache.New(cache.NewBadgerTier(db))),
		elog: events.NewLog(db),
	}
}

func (e *testEnv) request(t *testing.T, pid *actor.PID, msg any) any {
	t.Helper()
	res, err := e.sys.Root().Request(pid, msg)
	require.NoError(t, err)
	return res
}

// receiveFunc adapts a bare function into an actor.
type receiveFunc func(ctx *actor.Context)

func (f receiveFunc) Receive(ctx *actor.Context) { f(ctx) }

// capture is a sink actor handing everything it receives to a channel.
type capture struct{ ch chan any }

func newCapture() *capture {
	return &capture{ch: make(chan any, 64)}
}

func (c *capture) producer() actor.Producer {
	return func() actor.Actor { return c }
}

func (c *capture) Receive(ctx *actor.Context) {
	switch ctx.Message().(type) {
	case actor.Started, actor.Stopping, actor.Stopped, actor.Restarting,
		actor.ReceiveTimeout, actor.ChildFailure, actor.Terminated:
	default:
		select {
		case c.ch <- ctx.Message():
		default:
		}
	}
}

func (c *capture) next(t *testing.T, within time.Duration) any {
	t.Helper()
	select {
	case m := <-c.ch:
		return m
	case <-time.After(within):
		t.Fatal("no message captured in time")
		return nil
	}
}
