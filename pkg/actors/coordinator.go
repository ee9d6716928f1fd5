package actors

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"racetimed/pkg/actor"
	"racetimed/pkg/domain"
	"racetimed/pkg/events"
	"racetimed/pkg/message"
	"racetimed/pkg/repository"
)

// children survive a bounded number of panics before staying down
func entityStrategy() actor.Strategy {
	return actor.Strategy{MaxRetries: 3, Within: 10 * time.Second}
}

// AthleteCoordinator owns the athlete id to child address map: creates spawn
// fresh children, reads route to live ones or rehydrate from the store.
type AthleteCoordinator struct {
	repo     *repository.Repository
	idle     time.Duration
	children map[string]*actor.PID
}

func NewAthleteCoordinator(repo *repository.Repository, idle time.Duration) actor.Producer {
	return func() actor.Actor {
		return &AthleteCoordinator{repo: repo, idle: idle, children: make(map[string]*actor.PID)}
	}
}

func (c *AthleteCoordinator) Receive(ctx *actor.Context) {
	switch m := ctx.Message().(type) {
	case actor.Started, actor.Stopping, actor.Stopped, actor.Restarting, actor.ReceiveTimeout:
	case actor.ChildFailure:
		log.Error().Err(m.Reason).Str("child", m.Who.ID).Msg("athlete child failed")
	case actor.Terminated:
		pruneChild(c.children, m.Who, "athlete")
	case message.AddAthlete:
		id := domain.NewID()
		ctx.Forward(c.spawn(ctx, id))
	case message.GetAthlete:
		c.route(ctx, m.ID)
	case message.UpdateAthlete:
		c.route(ctx, m.ID)
	case message.ArchiveAthlete:
		c.route(ctx, m.ID)
	case message.GetAllAthletes:
		athletes := fetchAll[domain.Athlete](c.repo, domain.AthleteKind, domain.CodeAthleteStoreAccess, ctx)
		if athletes != nil {
			ctx.Respond(message.GetAllAthletesSuccess{Athletes: athletes})
		}
	default:
		respondUntyped(ctx, "athlete-coordinator")
	}
}

func (c *AthleteCoordinator) spawn(ctx *actor.Context, id string) *actor.PID {
	pid := ctx.Spawn(id, NewAthlete(id, c.repo, c.idle), actor.WithStrategy(entityStrategy()))
	c.children[id] = pid
	return pid
}

// route forwards to the live child or rehydrates from the durable store. A
// get is answered directly from the fetched state; mutations go through the
// freshly spawned child, which recovers before processing them.
func (c *AthleteCoordinator) route(ctx *actor.Context, id string) {
	if pid, ok := c.children[id]; ok {
		ctx.Forward(pid)
		return
	}
	ath, ok, err := repository.Get[domain.Athlete](c.repo, domain.AthleteKind, id)
	if err != nil {
		log.Err(err).Str("id", id).Msg("athlete rehydration failed")
		ctx.Respond(message.Fail(domain.CodeAthleteStoreAccess))
		return
	}
	if !ok {
		ctx.Respond(message.Fail(domain.CodeAthleteNotFound))
		return
	}
	pid := c.spawn(ctx, id)
	if _, isGet := ctx.Message().(message.GetAthlete); isGet {
		ctx.Respond(message.GetAthleteSuccess{Athlete: ath})
		return
	}
	ctx.Forward(pid)
}

// RaceCoordinator mirrors the athlete coordinator for races; every routed
// message carries the race id.
type RaceCoordinator struct {
	repo        *repository.Repository
	elog        *events.Log
	transporter *actor.PID
	aggregator  *actor.PID
	idle        time.Duration
	children    map[string]*actor.PID
}

func NewRaceCoordinator(repo *repository.Repository, elog *events.Log, transporter, aggregator *actor.PID, idle time.Duration) actor.Producer {
	return func() actor.Actor {
		return &RaceCoordinator{
			repo:        repo,
			elog:        elog,
			transporter: transporter,
			aggregator:  aggregator,
			idle:        idle,
			children:    make(map[string]*actor.PID),
		}
	}
}

func (c *RaceCoordinator) Receive(ctx *actor.Context) {
	switch m := ctx.Message().(type) {
	case actor.Started, actor.Stopping, actor.Stopped, actor.Restarting, actor.ReceiveTimeout:
	case actor.ChildFailure:
		log.Error().Err(m.Reason).Str("child", m.Who.ID).Msg("race child failed")
	case actor.Terminated:
		pruneChild(c.children, m.Who, "race")
	case message.AddRace:
		id := domain.NewID()
		ctx.Forward(c.spawn(ctx, id))
	case message.GetRace:
		c.route(ctx, m.ID)
	case message.UpdateRace:
		c.route(ctx, m.ID)
	case message.ArchiveRace:
		c.route(ctx, m.ID)
	case message.GetRaceStatus:
		c.route(ctx, m.ID)
	case message.RaceReady:
		c.route(ctx, m.ID)
	case message.RaceStart:
		c.route(ctx, m.ID)
	case message.RaceFinish:
		c.route(ctx, m.ID)
	case message.RaceCancel:
		c.route(ctx, m.ID)
	case message.RaceReset:
		c.route(ctx, m.ID)
	case message.RaceAddAthlete:
		c.route(ctx, m.RaceID)
	case message.RaceRemoveAthlete:
		c.route(ctx, m.RaceID)
	case message.RaceSwapLanes:
		c.route(ctx, m.RaceID)
	case message.AssignStartingGun:
		c.route(ctx, m.RaceID)
	case message.SensorReading:
		c.route(ctx, m.RaceID)
	case message.GetAllRaces:
		races := fetchAll[domain.Race](c.repo, domain.RaceKind, domain.CodeRaceStoreAccess, ctx)
		if races != nil {
			ctx.Respond(message.GetAllRacesSuccess{Races: races})
		}
	default:
		respondUntyped(ctx, "race-coordinator")
	}
}

func (c *RaceCoordinator) spawn(ctx *actor.Context, id string) *actor.PID {
	pid := ctx.Spawn(id, NewRace(id, c.repo, c.elog, c.transporter, c.aggregator, c.idle), actor.WithStrategy(entityStrategy()))
	c.children[id] = pid
	return pid
}

func (c *RaceCoordinator) route(ctx *actor.Context, id string) {
	if pid, ok := c.children[id]; ok {
		ctx.Forward(pid)
		return
	}
	race, ok, err := repository.Get[domain.Race](c.repo, domain.RaceKind, id)
	if err != nil {
		log.Err(err).Str("id", id).Msg("race rehydration failed")
		ctx.Respond(message.Fail(domain.CodeRaceStoreAccess))
		return
	}
	if !ok {
		ctx.Respond(message.Fail(domain.CodeRaceNotFound))
		return
	}
	pid := c.spawn(ctx, id)
	switch ctx.Message().(type) {
	case message.GetRace:
		ctx.Respond(message.GetRaceSuccess{Race: race})
	case message.GetRaceStatus:
		ctx.Respond(message.GetRaceStatusSuccess{Status: race.Status})
	default:
		ctx.Forward(pid)
	}
}

// fetchAll enumerates every durable id for the kind, whether or not a live
// child exists, and fetches them concurrently. Individual failures are
// logged and excluded; only the id enumeration itself is fatal, in which
// case the failure has already been answered and nil is returned.
func fetchAll[E domain.Entity](repo *repository.Repository, kind string, storeCode domain.Code, ctx *actor.Context) []E {
	ids, err := repo.Store().Keys(kind)
	if err != nil {
		log.Err(err).Str("kind", kind).Msg("key enumeration failed")
		ctx.Respond(message.Fail(storeCode))
		return nil
	}
	var mu sync.Mutex
	out := make([]E, 0, len(ids))
	var g errgroup.Group
	for _, id := range ids {
		id := id
		g.Go(func() error {
			e, ok, err := repository.Get[E](repo, kind, id)
			if err != nil {
				log.Err(err).Str("kind", kind).Str("id", id).Msg("fetch failed, entity excluded")
				return nil
			}
			if !ok {
				return nil
			}
			mu.Lock()
			out = append(out, e)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// pruneChild drops a terminated child from the routing map. A termination
// for an unparseable or untracked id is an error worth surfacing.
func pruneChild(children map[string]*actor.PID, who *actor.PID, kind string) {
	id := who.Name()
	if _, ok := domain.ParseID(id); !ok {
		log.Error().Str("kind", kind).Str("child", who.ID).Msg("terminated child id is not parseable")
		return
	}
	if _, ok := children[id]; !ok {
		log.Error().Str("kind", kind).Str("id", id).Msg("terminated child was not tracked")
		return
	}
	delete(children, id)
}

func respondUntyped(ctx *actor.Context, state string) {
	cmd := fmt.Sprintf("%T", ctx.Message())
	log.Warn().Str("state", state).Str("command", cmd).Msg("unprocessed command")
	ctx.Respond(message.InvalidCommand{Command: cmd, State: state})
}
