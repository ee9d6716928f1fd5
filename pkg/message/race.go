package message

import (
	"time"

	"racetimed/pkg/domain"
)

type AddRace struct {
	Name           string
	Distance       domain.RaceDistance
	GenderDivision domain.GenderDivision
	Type           domain.RaceType
	Round          domain.RaceRound
	Location       string
	StartAt        *time.Time
	LaneCount      int16
}

type AddRaceSuccess struct {
	ID string
}

// UpdateRace rewrites the race metadata; accepted while the race is still
// scheduled. The lane count may not shrink below an occupied lane.
type UpdateRace struct {
	ID             string
	Name           string
	Distance       domain.RaceDistance
	GenderDivision domain.GenderDivision
	Type           domain.RaceType
	Round          domain.RaceRound
	Location       string
	StartAt        *time.Time
	LaneCount      int16
}

type UpdateRaceSuccess struct{}

// ArchiveRace stamps the race and stops its actor; rejected mid-flight.
type ArchiveRace struct {
	ID string
}

type ArchiveRaceSuccess struct{}

type GetRace struct {
	ID string
}

type GetRaceSuccess struct {
	Race domain.Race
}

type GetAllRaces struct{}

type GetAllRacesSuccess struct {
	Races []domain.Race
}

// status control messages; transitions happen only through these
type RaceReady struct{ ID string }
type RaceStart struct{ ID string }
type RaceFinish struct{ ID string }
type RaceCancel struct{ ID string }
type RaceReset struct{ ID string }

type RaceStatusChanged struct {
	Status domain.RaceStatus
}

type GetRaceStatus struct {
	ID string
}

type GetRaceStatusSuccess struct {
	Status domain.RaceStatus
}

// lane assignment
type RaceAddAthlete struct {
	RaceID    string
	AthleteID string
	Lane      int16
}

type RaceAddAthleteSuccess struct{}

type RaceRemoveAthlete struct {
	RaceID    string
	AthleteID string
}

type RaceRemoveAthleteSuccess struct{}

type RaceSwapLanes struct {
	RaceID      string
	Origin      int16
	Destination int16
}

type RaceSwapLanesSuccess struct{}

type AssignStartingGun struct {
	RaceID   string
	DeviceID string
}

type AssignStartingGunSuccess struct{}
