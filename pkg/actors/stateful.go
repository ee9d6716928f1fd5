// Package actors holds the domain actors: stateful entity actors for
// athletes and races, the per-type coordinators that route to them, the
// event-sourced lane telemetry actor, the results aggregator and the
// transport bridge actors.
package actors

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"racetimed/pkg/actor"
	"racetimed/pkg/domain"
	"racetimed/pkg/message"
	"racetimed/pkg/repository"
)

// Entity is the lifecycle core every stateful entity actor embeds: recovery
// from the repository on start, idle-timeout self stop, persist before the
// caller sees success, explicit invalid-command responses.
type Entity[T domain.Entity] struct {
	Kind string
	ID   string
	Repo *repository.Repository

	IdleTimeout time.Duration
	StoreCode   domain.Code

	State     T
	Recovered bool
	Behavior  actor.Behavior

	// BehaviorFor maps recovered state to its domain behavior.
	BehaviorFor func(T) actor.Receive
	// AfterRecover runs once recovery found durable state.
	AfterRecover func(*actor.Context)
}

// HandleSignal consumes lifecycle and supervision signals; domain messages
// fall through to the current behavior.
func (e *Entity[T]) HandleSignal(ctx *actor.Context) bool {
	switch msg := ctx.Message().(type) {
	case actor.Started:
		if e.IdleTimeout > 0 {
			ctx.SetReceiveTimeout(e.IdleTimeout)
		}
		e.recoverState(ctx)
		return true
	case actor.ReceiveTimeout:
		log.Debug().Str("kind", e.Kind).Str("id", e.ID).Msg("idle timeout, stopping actor")
		ctx.Stop(ctx.Self())
		return true
	case actor.Stopping, actor.Stopped, actor.Restarting:
		log.Debug().Str("kind", e.Kind).Str("id", e.ID).Type("signal", msg).Msg("lifecycle signal")
		return true
	case actor.ChildFailure:
		log.Error().Err(msg.Reason).Str("kind", e.Kind).Str("id", e.ID).Str("child", msg.Who.ID).Msg("child failed")
		return true
	case actor.Terminated:
		log.Debug().Str("kind", e.Kind).Str("id", e.ID).Str("child", msg.Who.ID).Msg("child terminated")
		return true
	}
	return false
}

func (e *Entity[T]) recoverState(ctx *actor.Context) {
	state, ok, err := repository.Get[T](e.Repo, e.Kind, e.ID)
	if err != nil {
		log.Err(err).Str("kind", e.Kind).Str("id", e.ID).Msg("recovery failed, staying uninitialized")
		return
	}
	if !ok {
		log.Debug().Str("kind", e.Kind).Str("id", e.ID).Msg("no durable state, staying uninitialized")
		return
	}
	e.State = state
	e.Recovered = true
	if e.BehaviorFor != nil {
		e.Behavior.Become(e.BehaviorFor(state))
	}
	if e.AfterRecover != nil {
		e.AfterRecover(ctx)
	}
}

// commit persists the new state before the caller sees success. A failing
// persist leaves the in-memory state untouched and answers with the
// entity's store-access failure, never a false success.
func (e *Entity[T]) commit(ctx *actor.Context, next T, reply any, become actor.Receive) bool {
	if err := e.Repo.AddOrUpdate(next); err != nil {
		log.Err(err).Str("kind", e.Kind).Str("id", e.ID).Msg("persist failed")
		ctx.Respond(message.Fail(e.StoreCode))
		return false
	}
	e.State = next
	e.Recovered = true
	if become != nil {
		e.Behavior.Become(become)
	}
	if reply != nil {
		ctx.Respond(reply)
	}
	return true
}

func (e *Entity[T]) unprocessed(ctx *actor.Context, state string) {
	cmd := fmt.Sprintf("%T", ctx.Message())
	log.Warn().Str("kind", e.Kind).Str("id", e.ID).Str("state", state).Str("command", cmd).Msg("unprocessed command")
	ctx.Respond(message.InvalidCommand{Command: cmd, State: state})
}
