package message

import (
	"time"

	"racetimed/pkg/domain"
)

type AddAthlete struct {
	Name        string
	Surname     string
	CountryID   string
	Sex         domain.Sex
	DateOfBirth time.Time
}

type AddAthleteSuccess struct {
	ID string
}

type UpdateAthlete struct {
	ID          string
	Name        string
	Surname     string
	CountryID   string
	Sex         domain.Sex
	DateOfBirth time.Time
}

type UpdateAthleteSuccess struct{}

type GetAthlete struct {
	ID string
}

type GetAthleteSuccess struct {
	Athlete domain.Athlete
}

type GetAllAthletes struct{}

type GetAllAthletesSuccess struct {
	Athletes []domain.Athlete
}

type ArchiveAthlete struct {
	ID string
}

type ArchiveAthleteSuccess struct{}
