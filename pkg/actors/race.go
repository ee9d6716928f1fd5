package actors

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"racetimed/pkg/actor"
	"racetimed/pkg/domain"
	"racetimed/pkg/events"
	"racetimed/pkg/message"
	"racetimed/pkg/repository"
	"racetimed/pkg/transport"
)

// distance sensors sit every 10 metres, fixing the expected split count
const splitIntervalM = 10

// RaceActor owns one race: its status machine, its lane assignment set and
// the per-lane telemetry children it spawns once the race is ready.
type RaceActor struct {
	Entity[domain.Race]

	elog        *events.Log
	transporter *actor.PID
	aggregator  *actor.PID

	publisher *actor.PID
	lanes     map[int16]*actor.PID
}

func NewRace(id string, repo *repository.Repository, elog *events.Log, transporter, aggregator *actor.PID, idle time.Duration) actor.Producer {
	return func() actor.Actor {
		r := &RaceActor{
			Entity: Entity[domain.Race]{
				Kind:        domain.RaceKind,
				ID:          id,
				Repo:        repo,
				IdleTimeout: idle,
				StoreCode:   domain.CodeRaceStoreAccess,
			},
			elog:        elog,
			transporter: transporter,
			aggregator:  aggregator,
		}
		r.BehaviorFor = r.behaviorFor
		r.AfterRecover = r.afterRecover
		r.Behavior.Become(r.uninitialized)
		return r
	}
}

func (r *RaceActor) behaviorFor(state domain.Race) actor.Receive {
	switch state.Status {
	case domain.StatusReadyToStart:
		return r.ready
	case domain.StatusOngoing:
		return r.ongoing
	case domain.StatusFinished:
		return r.finished
	case domain.StatusCanceled:
		return r.canceled
	}
	return r.scheduled
}

// afterRecover respawns lane children for a race that went down mid-flight;
// each lane rebuilds its own state from its journal.
func (r *RaceActor) afterRecover(ctx *actor.Context) {
	if r.State.Status == domain.StatusReadyToStart || r.State.Status == domain.StatusOngoing {
		r.spawnLanes(ctx, false)
	}
}

// Receive runs the global override ahead of the status behavior: reset,
// cancel and the status query are accepted in every recovered state.
func (r *RaceActor) Receive(ctx *actor.Context) {
	if r.HandleSignal(ctx) {
		return
	}
	if r.Recovered {
		switch ctx.Message().(type) {
		case message.RaceReset:
			r.resetLanes(ctx)
			if r.aggregator != nil {
				ctx.Send(r.aggregator, message.ClearStandings{RaceID: r.ID})
			}
			r.transition(ctx, domain.StatusScheduled, r.scheduled)
			return
		case message.RaceCancel:
			r.transition(ctx, domain.StatusCanceled, r.canceled)
			return
		case message.GetRaceStatus:
			ctx.Respond(message.GetRaceStatusSuccess{Status: r.State.Status})
			return
		case message.GetRace:
			ctx.Respond(message.GetRaceSuccess{Race: r.State})
			return
		case message.ArchiveRace:
			r.archive(ctx)
			return
		}
		if m, ok := ctx.Message().(message.SensorReading); ok {
			r.fanSensor(ctx, m)
			return
		}
	}
	r.Behavior.Receive(ctx)
}

// fanSensor translates a wire reading into the lane message it stands for.
// A gun reading with lane zero addresses every lane; the lane state machine
// itself rejects readings its current state does not accept.
func (r *RaceActor) fanSensor(ctx *actor.Context, m message.SensorReading) {
	if len(r.lanes) == 0 {
		log.Warn().Str("id", r.ID).Str("kind", m.Kind).Msg("sensor reading before lanes exist, dropped")
		return
	}
	var out any
	switch m.Kind {
	case message.SensorGun:
		out = message.GunFired{}
	case message.SensorReaction:
		out = message.ReactionTime{TimeMs: m.TimeMs}
	case message.SensorSplit:
		out = message.Split{DistanceCm: m.DistanceCm, TimeMs: m.TimeMs}
	case message.SensorFinish:
		out = message.FinishTime{TimeMs: m.TimeMs}
	default:
		log.Warn().Str("id", r.ID).Str("kind", m.Kind).Msg("unknown sensor reading kind, dropped")
		return
	}
	if m.Kind == message.SensorGun && m.Lane == 0 {
		for _, pid := range r.lanes {
			ctx.Send(pid, out)
		}
		return
	}
	pid, ok := r.lanes[m.Lane]
	if !ok {
		log.Warn().Str("id", r.ID).Int16("lane", m.Lane).Msg("sensor reading for unknown lane, dropped")
		return
	}
	ctx.Send(pid, out)
}

func (r *RaceActor) uninitialized(ctx *actor.Context) {
	switch m := ctx.Message().(type) {
	case message.AddRace:
		if !m.Distance.Defined() {
			ctx.Respond(message.Fail(domain.CodeRaceInvalidDistance))
			return
		}
		now := time.Now()
		race := domain.Race{
			ID:             r.ID,
			Name:           m.Name,
			Distance:       m.Distance,
			GenderDivision: m.GenderDivision,
			Type:           m.Type,
			Round:          m.Round,
			Location:       m.Location,
			StartAt:        m.StartAt,
			Status:         domain.StatusScheduled,
			LaneCount:      m.LaneCount,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if r.commit(ctx, race, message.AddRaceSuccess{ID: r.ID}, r.scheduled) {
			log.Info().Str("id", r.ID).Msg("race created")
		}
	default:
		r.unprocessed(ctx, "uninitialized")
	}
}

func (r *RaceActor) scheduled(ctx *actor.Context) {
	switch m := ctx.Message().(type) {
	case message.RaceAddAthlete:
		lanes, code := domain.AddLaneAthlete(r.State.LaneCount, r.State.Lanes, m.Lane, m.AthleteID)
		if code != domain.CodeNone {
			ctx.Respond(message.Fail(code))
			return
		}
		r.commitLanes(ctx, lanes, message.RaceAddAthleteSuccess{})
	case message.RaceRemoveAthlete:
		lanes, code := domain.RemoveLaneAthlete(r.State.Lanes, m.AthleteID)
		if code != domain.CodeNone {
			ctx.Respond(message.Fail(code))
			return
		}
		r.commitLanes(ctx, lanes, message.RaceRemoveAthleteSuccess{})
	case message.RaceSwapLanes:
		lanes, code := domain.SwapLanes(r.State.Lanes, m.Origin, m.Destination)
		if code != domain.CodeNone {
			ctx.Respond(message.Fail(code))
			return
		}
		r.commitLanes(ctx, lanes, message.RaceSwapLanesSuccess{})
	case message.AssignStartingGun:
		next := r.State
		next.StartingGunID = m.DeviceID
		next.UpdatedAt = time.Now()
		r.commit(ctx, next, message.AssignStartingGunSuccess{}, nil)
	case message.RaceReady:
		r.spawnLanes(ctx, true)
		r.transition(ctx, domain.StatusReadyToStart, r.ready)
	case message.UpdateRace:
		if !m.Distance.Defined() {
			ctx.Respond(message.Fail(domain.CodeRaceInvalidDistance))
			return
		}
		for _, la := range r.State.Lanes {
			if la.Lane > m.LaneCount {
				ctx.Respond(message.Fail(domain.CodeInvalidLaneNumber))
				return
			}
		}
		next := r.State
		next.Name = m.Name
		next.Distance = m.Distance
		next.GenderDivision = m.GenderDivision
		next.Type = m.Type
		next.Round = m.Round
		next.Location = m.Location
		next.StartAt = m.StartAt
		next.LaneCount = m.LaneCount
		next.UpdatedAt = time.Now()
		r.commit(ctx, next, message.UpdateRaceSuccess{}, nil)
	default:
		r.unprocessed(ctx, "scheduled")
	}
}

// archive soft-archives the race and stops its actor; a race mid-flight must
// be finished or canceled first.
func (r *RaceActor) archive(ctx *actor.Context) {
	if r.State.Status == domain.StatusReadyToStart || r.State.Status == domain.StatusOngoing {
		r.unprocessed(ctx, r.State.Status.String())
		return
	}
	next := r.State
	next.UpdatedAt = time.Now()
	if r.commit(ctx, next, message.ArchiveRaceSuccess{}, nil) {
		ctx.Stop(ctx.Self())
	}
}

func (r *RaceActor) ready(ctx *actor.Context) {
	switch ctx.Message().(type) {
	case message.RaceStart:
		for _, pid := range r.lanes {
			ctx.Send(pid, message.GunFired{})
		}
		r.transition(ctx, domain.StatusOngoing, r.ongoing)
	default:
		r.unprocessed(ctx, "ready")
	}
}

func (r *RaceActor) ongoing(ctx *actor.Context) {
	switch ctx.Message().(type) {
	case message.RaceFinish:
		r.transition(ctx, domain.StatusFinished, r.finished)
	default:
		r.unprocessed(ctx, "ongoing")
	}
}

func (r *RaceActor) finished(ctx *actor.Context) {
	r.unprocessed(ctx, "finished")
}

func (r *RaceActor) canceled(ctx *actor.Context) {
	r.unprocessed(ctx, "canceled")
}

func (r *RaceActor) transition(ctx *actor.Context, status domain.RaceStatus, become actor.Receive) {
	next := r.State
	next.Status = status
	next.UpdatedAt = time.Now()
	if r.commit(ctx, next, message.RaceStatusChanged{Status: status}, become) {
		log.Info().Str("id", r.ID).Str("status", status.String()).Msg("race status changed")
	}
}

func (r *RaceActor) commitLanes(ctx *actor.Context, lanes []domain.LaneAthlete, reply any) {
	next := r.State
	next.Lanes = lanes
	next.UpdatedAt = time.Now()
	r.commit(ctx, next, reply, nil)
}

// spawnLanes builds one telemetry child per lane. With init set, assigned
// lanes receive their pre-race init; on recovery the children replay their
// own journals instead.
func (r *RaceActor) spawnLanes(ctx *actor.Context, init bool) {
	pub := r.racePublisher(ctx)
	r.lanes = make(map[int16]*actor.PID, r.State.LaneCount)
	for lane := int16(1); lane <= r.State.LaneCount; lane++ {
		r.lanes[lane] = ctx.Spawn(fmt.Sprintf("lane-%d", lane), NewLaneEvents(r.elog, r.aggregator, pub))
	}
	if !init {
		return
	}
	splits := int(r.State.Distance) / splitIntervalM
	for _, la := range r.State.Lanes {
		ctx.Send(r.lanes[la.Lane], message.InitLane{
			RaceID:    r.ID,
			AthleteID: la.AthleteID,
			Lane:      la.Lane,
			Splits:    splits,
		})
	}
}

func (r *RaceActor) resetLanes(ctx *actor.Context) {
	for _, pid := range r.lanes {
		ctx.Send(pid, message.LaneReset{})
	}
}

// racePublisher resolves the race's telemetry topic publisher once.
func (r *RaceActor) racePublisher(ctx *actor.Context) *actor.PID {
	if r.publisher != nil || r.transporter == nil {
		return r.publisher
	}
	res, err := ctx.Request(r.transporter, message.GetOrCreatePublisher{Topic: transport.RaceTopic(r.ID)})
	if err != nil {
		log.Err(err).Str("id", r.ID).Msg("publisher unavailable, telemetry will not be published")
		return nil
	}
	if pid, ok := res.(*actor.PID); ok {
		r.publisher = pid
	}
	return r.publisher
}
