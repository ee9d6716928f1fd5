package message

import (
	"time"

	"racetimed/pkg/domain"
)

type AddDevice struct {
	Type                domain.DeviceType
	ManufactureDate     *time.Time
	ManufactureLocation string
	Manufacturer        string
	LastServicedAt      *time.Time
	ServiceLocation     string
}

type AddDeviceSuccess struct {
	ID string
}

type GetDevice struct {
	ID string
}

type GetDeviceSuccess struct {
	Device domain.Device
}

type GetAllDevices struct{}

type GetAllDevicesSuccess struct {
	Devices []domain.Device
}

type UpdateDevice struct {
	ID                  string
	Type                domain.DeviceType
	ManufactureDate     *time.Time
	ManufactureLocation string
	Manufacturer        string
	LastServicedAt      *time.Time
	ServiceLocation     string
}

type UpdateDeviceSuccess struct{}

type ArchiveDevice struct {
	ID string
}

type ArchiveDeviceSuccess struct{}

type DeviceExists struct {
	ID string
}

type DeviceExistsSuccess struct{}
