package domain

import "time"

type RaceStatus int8

const (
	StatusScheduled    RaceStatus = 1
	StatusReadyToStart RaceStatus = 2
	StatusOngoing      RaceStatus = 3
	StatusFinished     RaceStatus = 4
	StatusCanceled     RaceStatus = 99
)

func (s RaceStatus) String() string {
	switch s {
	case StatusScheduled:
		return "Scheduled"
	case StatusReadyToStart:
		return "ReadyToStart"
	case StatusOngoing:
		return "Ongoing"
	case StatusFinished:
		return "Finished"
	case StatusCanceled:
		return "Canceled"
	}
	return "Unknown"
}

type RaceDistance int16

const (
	Distance60  RaceDistance = 60
	Distance100 RaceDistance = 100
	Distance200 RaceDistance = 200
	Distance400 RaceDistance = 400
)

func (d RaceDistance) Defined() bool {
	switch d {
	case Distance60, Distance100, Distance200, Distance400:
		return true
	}
	return false
}

type GenderDivision int8

const (
	DivisionMen GenderDivision = iota + 1
	DivisionWomen
	DivisionMixed
)

type RaceType int8

const (
	RacePlain RaceType = iota + 1
	RaceObstacle
	RaceRelay
)

type RaceRound int8

const (
	RoundHeats RaceRound = iota + 1
	RoundQuarterFinal
	RoundSemiFinal
	RoundFinal
)

type Race struct {
	ID             string
	Name           string
	Distance       RaceDistance
	GenderDivision GenderDivision
	Type           RaceType
	Round          RaceRound
	Location       string
	StartAt        *time.Time
	Status         RaceStatus
	LaneCount      int16
	Lanes          []LaneAthlete
	StartingGunID  string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (r Race) EntityKey() string  { return r.ID }
func (r Race) EntityKind() string { return RaceKind }

// LaneAthlete is one entry of a race's lane assignment set.
type LaneAthlete struct {
	Lane      int16
	AthleteID string
}

// AddLaneAthlete appends an assignment after checking the lane invariants:
// lane within [1,laneCount], lane free, athlete not already assigned.
func AddLaneAthlete(laneCount int16, lanes []LaneAthlete, lane int16, athleteID string) ([]LaneAthlete, Code) {
	if lane < 1 || lane > laneCount {
		return nil, CodeInvalidLaneNumber
	}
	for _, la := range lanes {
		if la.Lane == lane {
			return nil, CodeLaneAlreadyTaken
		}
		if la.AthleteID == athleteID {
			return nil, CodeAthleteAlreadyInRace
		}
	}
	out := make([]LaneAthlete, len(lanes), len(lanes)+1)
	copy(out, lanes)
	return append(out, LaneAthlete{Lane: lane, AthleteID: athleteID}), CodeNone
}

// RemoveLaneAthlete drops the entry holding athleteID.
func RemoveLaneAthlete(lanes []LaneAthlete, athleteID string) ([]LaneAthlete, Code) {
	for i, la := range lanes {
		if la.AthleteID == athleteID {
			out := make([]LaneAthlete, 0, len(lanes)-1)
			out = append(out, lanes[:i]...)
			return append(out, lanes[i+1:]...), CodeNone
		}
	}
	return nil, CodeAthleteNotInRace
}

// SwapLanes exchanges the occupants of two lanes. Origin and destination must
// differ and at least one of the two lanes must be occupied; entries in
// neither lane are untouched.
func SwapLanes(lanes []LaneAthlete, origin, destination int16) ([]LaneAthlete, Code) {
	if origin == destination {
		return nil, CodeSwapToSameLane
	}
	occupied := false
	for _, la := range lanes {
		if la.Lane == origin || la.Lane == destination {
			occupied = true
			break
		}
	}
	if !occupied {
		return nil, CodeSwapEmptyLanes
	}
	out := make([]LaneAthlete, len(lanes))
	for i, la := range lanes {
		switch la.Lane {
		case origin:
			la.Lane = destination
		case destination:
			la.Lane = origin
		}
		out[i] = la
	}
	return out, CodeNone
}
