package actors

import (
	"time"

	"racetimed/pkg/actor"
	"racetimed/pkg/domain"
	"racetimed/pkg/message"
	"racetimed/pkg/repository"
)

// AthleteActor owns one athlete's state. Uninitialized accepts only the
// create request; everything else waits until the entity exists.
type AthleteActor struct {
	Entity[domain.Athlete]
}

func NewAthlete(id string, repo *repository.Repository, idle time.Duration) actor.Producer {
	return func() actor.Actor {
		a := &AthleteActor{Entity[domain.Athlete]{
			Kind:        domain.AthleteKind,
			ID:          id,
			Repo:        repo,
			IdleTimeout: idle,
			StoreCode:   domain.CodeAthleteStoreAccess,
		}}
		a.BehaviorFor = func(domain.Athlete) actor.Receive { return a.initialized }
		a.Behavior.Become(a.uninitialized)
		return a
	}
}

func (a *AthleteActor) Receive(ctx *actor.Context) {
	if a.HandleSignal(ctx) {
		return
	}
	a.Behavior.Receive(ctx)
}

func (a *AthleteActor) uninitialized(ctx *actor.Context) {
	switch m := ctx.Message().(type) {
	case message.AddAthlete:
		ath, code := domain.NewAthlete(a.ID, m.Name, m.Surname, m.CountryID, m.Sex, m.DateOfBirth, time.Now())
		if code != domain.CodeNone {
			ctx.Respond(message.Fail(code))
			return
		}
		a.commit(ctx, ath, message.AddAthleteSuccess{ID: a.ID}, a.initialized)
	default:
		a.unprocessed(ctx, "uninitialized")
	}
}

func (a *AthleteActor) initialized(ctx *actor.Context) {
	switch m := ctx.Message().(type) {
	case message.GetAthlete:
		ctx.Respond(message.GetAthleteSuccess{Athlete: a.State})
	case message.UpdateAthlete:
		next, code := domain.UpdateAthlete(a.State, m.Name, m.Surname, m.CountryID, m.Sex, m.DateOfBirth, time.Now())
		if code != domain.CodeNone {
			ctx.Respond(message.Fail(code))
			return
		}
		a.commit(ctx, next, message.UpdateAthleteSuccess{}, nil)
	case message.ArchiveAthlete:
		if a.commit(ctx, a.State.Touch(time.Now()), message.ArchiveAthleteSuccess{}, nil) {
			ctx.Stop(ctx.Self())
		}
	default:
		a.unprocessed(ctx, "initialized")
	}
}
