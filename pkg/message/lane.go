package message

import "racetimed/pkg/domain"

// lane telemetry stream messages

type InitLane struct {
	RaceID    string
	AthleteID string
	Lane      int16
	Splits    int
}

type InitLaneSuccess struct{}

type GunFired struct{}

type ReactionTime struct {
	TimeMs int
}

type FinishTime struct {
	TimeMs int
}

// Split is one distance/time sample from a distance sensor; samples are
// applied in arrival order.
type Split struct {
	DistanceCm int
	TimeMs     int
}

// LaneReset returns the lane to its pre-init state from any other state.
type LaneReset struct{}

// sensor reading kinds carried on the wire
const (
	SensorGun      = "gun"
	SensorReaction = "reaction"
	SensorSplit    = "split"
	SensorFinish   = "finish"
)

// SensorReading is the wire envelope a timing device publishes; the inbound
// router decodes it and the owning race fans it out to the lane. Lane zero
// on a gun reading addresses every lane.
type SensorReading struct {
	RaceID     string
	Lane       int16
	Kind       string
	TimeMs     int
	DistanceCm int
}

// HashKey pins all readings of one race to the same router replica so
// arrival order is preserved per race.
func (r SensorReading) HashKey() string { return r.RaceID }

// LaneUpdate is published downstream on every accepted split.
type LaneUpdate struct {
	RaceID   string
	Lane     int16
	Sample   domain.DistanceTime
	SpeedKmH float64
}

// LaneFinished goes to both the results aggregator and the telemetry sink.
type LaneFinished struct {
	RaceID       string
	Lane         int16
	AthleteID    string
	FinishTimeMs int
	AvgSpeedKmH  float64
	MaxSpeedKmH  float64
}

type GetLaneTelemetry struct{}

type GetLaneTelemetrySuccess struct {
	Telemetry domain.LaneTelemetry
}

// standings

type GetStandings struct {
	RaceID string
}

// ClearStandings drops every recorded result of one race; a reset race
// starts its rerun from an empty board.
type ClearStandings struct {
	RaceID string
}

type GetStandingsSuccess struct {
	Standings []LaneFinished
}
