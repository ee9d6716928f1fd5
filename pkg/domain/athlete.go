package domain

import (
	"regexp"
	"time"
)

type Sex int8

const (
	SexMale Sex = iota + 1
	SexFemale
)

func (s Sex) Defined() bool { return s == SexMale || s == SexFemale }

type Athlete struct {
	ID          string
	Name        string
	Surname     string
	CountryID   string
	Sex         Sex
	DateOfBirth time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (a Athlete) EntityKey() string  { return a.ID }
func (a Athlete) EntityKind() string { return AthleteKind }

var nameRe = regexp.MustCompile(`^[\p{L}'-]+$`)

// NewAthlete validates the fields and builds a fresh athlete entity.
// Age must land in [1,99] at validation time, names are 2-20 letters,
// apostrophes or hyphens, the country code must be in the reference list.
func NewAthlete(id, name, surname, countryID string, sex Sex, dob, now time.Time) (Athlete, Code) {
	if age := yearsBetween(dob, now); age < 1 || age > 99 {
		return Athlete{}, CodeAthleteInvalidAge
	}
	for _, n := range []string{name, surname} {
		if len([]rune(n)) < 2 || len([]rune(n)) > 20 || !nameRe.MatchString(n) {
			return Athlete{}, CodeAthleteInvalidName
		}
	}
	if !sex.Defined() {
		return Athlete{}, CodeAthleteInvalidSex
	}
	if !ValidCountry(countryID) {
		return Athlete{}, CodeAthleteInvalidCountry
	}
	return Athlete{
		ID:          id,
		Name:        name,
		Surname:     surname,
		CountryID:   countryID,
		Sex:         sex,
		DateOfBirth: dob,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, CodeNone
}

// UpdateAthlete runs the same validation as NewAthlete and additionally
// rejects a sex change as a domain error, never a silent overwrite.
func UpdateAthlete(current Athlete, name, surname, countryID string, sex Sex, dob, now time.Time) (Athlete, Code) {
	next, code := NewAthlete(current.ID, name, surname, countryID, sex, dob, now)
	if code != CodeNone {
		return Athlete{}, code
	}
	if next.Sex != current.Sex {
		return Athlete{}, CodeAthleteCantChangeSex
	}
	next.CreatedAt = current.CreatedAt
	return next, CodeNone
}

// Touch stamps the last-updated time, used by archive.
func (a Athlete) Touch(now time.Time) Athlete {
	a.UpdatedAt = now
	return a
}

func yearsBetween(from, to time.Time) int {
	years := to.Year() - from.Year()
	anniversary := from.AddDate(years, 0, 0)
	if anniversary.After(to) {
		years--
	}
	return years
}
