package domain

import "time"

type DeviceType int8

const (
	DeviceStartingGun DeviceType = iota + 1
	DeviceReactionTimeSensor
	DeviceDistanceSensor
	DeviceFinishLineSensor
)

func (t DeviceType) Defined() bool {
	return t >= DeviceStartingGun && t <= DeviceFinishLineSensor
}

type Device struct {
	ID                  string
	Type                DeviceType
	ManufactureDate     *time.Time
	ManufactureLocation string
	Manufacturer        string
	LastServicedAt      *time.Time
	ServiceLocation     string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (d Device) EntityKey() string  { return d.ID }
func (d Device) EntityKind() string { return DeviceKind }
