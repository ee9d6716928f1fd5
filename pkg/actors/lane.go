package actors

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/vmihailenco/msgpack/v5"

	"racetimed/pkg/actor"
	"racetimed/pkg/domain"
	"racetimed/pkg/events"
	"racetimed/pkg/message"
)

// journal event types
const (
	laneEventGun      = "gun"
	laneEventReaction = "reaction"
	laneEventSplit    = "split"
	laneEventFinish   = "finish"
	laneEventReset    = "reset"
)

// LaneEventsActor derives live telemetry for one (race, lane) from the
// sensor stream. Accepted events are appended to a per-actor journal; a
// snapshot is taken on stop and recovery replays the journal tail after it.
// Samples are applied in arrival order, never reordered.
type LaneEventsActor struct {
	elog       *events.Log
	aggregator *actor.PID
	publisher  *actor.PID

	id       string
	state    domain.LaneTelemetry
	version  int
	behavior actor.Behavior
}

func NewLaneEvents(elog *events.Log, aggregator, publisher *actor.PID) actor.Producer {
	return func() actor.Actor {
		l := &LaneEventsActor{elog: elog, aggregator: aggregator, publisher: publisher}
		l.behavior.Become(l.uninitialized)
		return l
	}
}

func (l *LaneEventsActor) Receive(ctx *actor.Context) {
	switch ctx.Message().(type) {
	case actor.Started:
		l.id = ctx.Self().ID
		l.state = domain.LaneTelemetry{ID: l.id}
		l.recoverState()
		return
	case actor.Stopping:
		l.snapshot()
		return
	case actor.Stopped, actor.Restarting, actor.ReceiveTimeout, actor.ChildFailure, actor.Terminated:
		return
	case message.GetLaneTelemetry:
		ctx.Respond(message.GetLaneTelemetrySuccess{Telemetry: l.state})
		return
	}
	l.behavior.Receive(ctx)
}

func (l *LaneEventsActor) uninitialized(ctx *actor.Context) {
	switch m := ctx.Message().(type) {
	case message.InitLane:
		// pre-race setup, not journaled: a replayed journal starts after it
		// or the snapshot carries the full state
		l.state = domain.LaneTelemetry{
			ID:        l.id,
			RaceID:    m.RaceID,
			AthleteID: m.AthleteID,
			Lane:      m.Lane,
			State:     domain.LaneInitialized,
			Splits:    make([]domain.DistanceTime, m.Splits),
		}
		l.behavior.Become(l.initialized)
		ctx.Respond(message.InitLaneSuccess{})
	default:
		l.unprocessed(ctx)
	}
}

func (l *LaneEventsActor) initialized(ctx *actor.Context) {
	switch ctx.Message().(type) {
	case message.GunFired:
		if !l.record(laneEventGun, message.GunFired{}) {
			return
		}
		l.state.State = domain.LaneListening
		l.behavior.Become(l.listening)
	case message.LaneReset:
		l.reset(ctx)
	default:
		l.unprocessed(ctx)
	}
}

func (l *LaneEventsActor) listening(ctx *actor.Context) {
	switch m := ctx.Message().(type) {
	case message.ReactionTime:
		if !l.record(laneEventReaction, m) {
			return
		}
		l.applyReaction(m.TimeMs)
	case message.Split:
		if !l.record(laneEventSplit, m) {
			return
		}
		sample := domain.DistanceTime{DistanceCm: m.DistanceCm, TimeMs: m.TimeMs}
		speed := l.applySplit(sample)
		ctx.Send(l.publisher, message.LaneUpdate{
			RaceID:   l.state.RaceID,
			Lane:     l.state.Lane,
			Sample:   sample,
			SpeedKmH: speed,
		})
	case message.FinishTime:
		if !l.record(laneEventFinish, m) {
			return
		}
		l.applyFinish(m.TimeMs)
		l.behavior.Become(l.finished)
		fin := message.LaneFinished{
			RaceID:       l.state.RaceID,
			Lane:         l.state.Lane,
			AthleteID:    l.state.AthleteID,
			FinishTimeMs: m.TimeMs,
			AvgSpeedKmH:  l.state.AvgSpeedKmH,
			MaxSpeedKmH:  l.state.MaxSpeedKmH,
		}
		ctx.Send(l.publisher, fin)
		ctx.Send(l.aggregator, fin)
	case message.LaneReset:
		l.reset(ctx)
	default:
		l.unprocessed(ctx)
	}
}

func (l *LaneEventsActor) finished(ctx *actor.Context) {
	switch ctx.Message().(type) {
	case message.LaneReset:
		l.reset(ctx)
	default:
		l.unprocessed(ctx)
	}
}

func (l *LaneEventsActor) reset(ctx *actor.Context) {
	if !l.record(laneEventReset, message.LaneReset{}) {
		return
	}
	l.state = domain.LaneTelemetry{ID: l.id}
	l.behavior.Become(l.uninitialized)
}

// record appends the event before it is applied; a failed append rejects
// the event so journal and state never diverge.
func (l *LaneEventsActor) record(etype string, payload any) bool {
	next := l.version + 1
	if err := l.elog.Append(l.id, etype, next, payload); err != nil {
		log.Err(err).Str("actor", l.id).Str("event", etype).Msg("event append failed, event dropped")
		return false
	}
	l.version = next
	return true
}

func (l *LaneEventsActor) snapshot() {
	if l.version == 0 && l.state.State == domain.LaneUninitialized {
		return
	}
	if err := l.elog.SaveSnapshot(l.id, l.version, l.state); err != nil {
		log.Err(err).Str("actor", l.id).Msg("snapshot failed")
	}
}

// recoverState loads the latest snapshot and replays only the journal tail
// recorded after its version.
func (l *LaneEventsActor) recoverState() {
	from := 1
	snap, ok, err := l.elog.LatestSnapshot(l.id)
	if err != nil {
		log.Err(err).Str("actor", l.id).Msg("snapshot read failed, replaying full journal")
	} else if ok {
		if err := msgpack.Unmarshal(snap.Payload, &l.state); err != nil {
			log.Err(err).Str("actor", l.id).Msg("snapshot decode failed, replaying full journal")
		} else {
			l.version = snap.Version
			from = snap.Version + 1
		}
	}
	err = l.elog.ReadFrom(l.id, from, func(e events.Event) error {
		if err := l.apply(e); err != nil {
			return err
		}
		l.version = e.Version
		return nil
	})
	if err != nil {
		log.Err(err).Str("actor", l.id).Msg("journal replay failed")
	}
	l.behavior.Become(l.behaviorForState())
}

func (l *LaneEventsActor) behaviorForState() actor.Receive {
	switch l.state.State {
	case domain.LaneInitialized:
		return l.initialized
	case domain.LaneListening:
		return l.listening
	case domain.LaneFinished:
		return l.finished
	}
	return l.uninitialized
}

// apply is the replay fold; it mirrors the live handlers without their
// publishes.
func (l *LaneEventsActor) apply(e events.Event) error {
	switch e.Type {
	case laneEventGun:
		l.state.State = domain.LaneListening
	case laneEventReaction:
		var m message.ReactionTime
		if err := msgpack.Unmarshal(e.Payload, &m); err != nil {
			return fmt.Errorf("decode reaction event: %w", err)
		}
		l.applyReaction(m.TimeMs)
	case laneEventSplit:
		var m message.Split
		if err := msgpack.Unmarshal(e.Payload, &m); err != nil {
			return fmt.Errorf("decode split event: %w", err)
		}
		l.applySplit(domain.DistanceTime{DistanceCm: m.DistanceCm, TimeMs: m.TimeMs})
	case laneEventFinish:
		var m message.FinishTime
		if err := msgpack.Unmarshal(e.Payload, &m); err != nil {
			return fmt.Errorf("decode finish event: %w", err)
		}
		l.applyFinish(m.TimeMs)
	case laneEventReset:
		l.state = domain.LaneTelemetry{ID: l.id}
	}
	return nil
}

func (l *LaneEventsActor) applyReaction(timeMs int) {
	if l.state.ReactionTimeMs == nil {
		l.state.ReactionTimeMs = &timeMs
	}
}

func (l *LaneEventsActor) applySplit(sample domain.DistanceTime) float64 {
	var speed float64
	if l.state.Recorded >= 1 {
		speed = domain.SpeedKmH(sample, l.state.Splits[l.state.Recorded-1])
	}
	if l.state.Recorded >= len(l.state.Splits) {
		log.Warn().Str("actor", l.id).Int("recorded", l.state.Recorded).Msg("split sequence full, sample ignored")
		return speed
	}
	l.state.Splits[l.state.Recorded] = sample
	l.state.Recorded++
	if speed > l.state.MaxSpeedKmH {
		l.state.MaxSpeedKmH = speed
	}
	return speed
}

func (l *LaneEventsActor) applyFinish(timeMs int) {
	l.state.FinishTimeMs = &timeMs
	l.state.AvgSpeedKmH = domain.AverageSpeedKmH(l.state.Splits, l.state.Recorded)
	l.state.State = domain.LaneFinished
}

func (l *LaneEventsActor) unprocessed(ctx *actor.Context) {
	cmd := fmt.Sprintf("%T", ctx.Message())
	state := l.state.State.String()
	log.Warn().Str("actor", l.id).Str("state", state).Str("command", cmd).Msg("unprocessed command")
	ctx.Respond(message.InvalidCommand{Command: cmd, State: state})
}
