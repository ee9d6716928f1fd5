package actors

import (
	"sort"

	"github.com/rs/zerolog/log"

	"racetimed/pkg/actor"
	"racetimed/pkg/message"
)

// ResultsAggregator folds lane-finished events into per-race standings,
// ordered by finish time.
type ResultsAggregator struct {
	standings map[string][]message.LaneFinished
}

func NewResultsAggregator() actor.Producer {
	return func() actor.Actor {
		return &ResultsAggregator{standings: make(map[string][]message.LaneFinished)}
	}
}

func (a *ResultsAggregator) Receive(ctx *actor.Context) {
	switch m := ctx.Message().(type) {
	case actor.Started, actor.Stopping, actor.Stopped, actor.Restarting,
		actor.ReceiveTimeout, actor.ChildFailure, actor.Terminated:
	case message.LaneFinished:
		list := append(a.standings[m.RaceID], m)
		sort.SliceStable(list, func(i, j int) bool { return list[i].FinishTimeMs < list[j].FinishTimeMs })
		a.standings[m.RaceID] = list
		log.Info().Str("race", m.RaceID).Int16("lane", m.Lane).Int("finishMs", m.FinishTimeMs).Msg("lane result recorded")
	case message.ClearStandings:
		delete(a.standings, m.RaceID)
		log.Info().Str("race", m.RaceID).Msg("standings cleared")
	case message.GetStandings:
		list := a.standings[m.RaceID]
		out := make([]message.LaneFinished, len(list))
		copy(out, list)
		ctx.Respond(message.GetStandingsSuccess{Standings: out})
	default:
		respondUntyped(ctx, "results-aggregator")
	}
}
