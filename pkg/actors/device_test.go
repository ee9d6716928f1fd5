package actors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"racetimed/pkg/actor"
	"racetimed/pkg/domain"
	"racetimed/pkg/message"
)

func spawnDevices(e *testEnv) *actor.PID {
	return e.sys.Spawn("devices", NewDeviceCoordinator(e.repo))
}

func addDevice(t *testing.T, e *testEnv, pid *actor.PID, m message.AddDevice) string {
	t.Helper()
	res := e.request(t, pid, m)
	ok, isOK := res.(message.AddDeviceSuccess)
	require.True(t, isOK, "unexpected response %#v", res)
	require.NotEmpty(t, ok.ID)
	return ok.ID
}

func TestDeviceAddAndGet(t *testing.T) {
	e := newTestEnv(t)
	devices := spawnDevices(e)
	manufactured := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	id := addDevice(t, e, devices, message.AddDevice{
		Type:                domain.DeviceStartingGun,
		ManufactureDate:     &manufactured,
		ManufactureLocation: "Espoo",
		Manufacturer:        "Omega",
	})

	res := e.request(t, devices, message.GetDevice{ID: id})
	got, ok := res.(message.GetDeviceSuccess)
	require.True(t, ok, "unexpected response %#v", res)
	assert.Equal(t, id, got.Device.ID)
	assert.Equal(t, domain.DeviceStartingGun, got.Device.Type)
	assert.Equal(t, "Omega", got.Device.Manufacturer)
	require.NotNil(t, got.Device.ManufactureDate)
	assert.True(t, manufactured.Equal(*got.Device.ManufactureDate))
	assert.False(t, got.Device.CreatedAt.IsZero())
}

func TestDeviceRejectsUndefinedType(t *testing.T) {
	e := newTestEnv(t)
	devices := spawnDevices(e)

	for _, bad := range []domain.DeviceType{0, 42} {
		res := e.request(t, devices, message.AddDevice{Type: bad, Manufacturer: "Omega"})
		fail, ok := res.(message.Failure)
		require.True(t, ok, "unexpected response %#v", res)
		assert.Equal(t, int(domain.CodeDeviceInvalidType), fail.Code)
	}

	// the update path holds the same invariant
	id := addDevice(t, e, devices, message.AddDevice{Type: domain.DeviceStartingGun})
	res := e.request(t, devices, message.UpdateDevice{ID: id, Type: 42})
	fail, ok := res.(message.Failure)
	require.True(t, ok, "unexpected response %#v", res)
	assert.Equal(t, int(domain.CodeDeviceInvalidType), fail.Code)

	got := e.request(t, devices, message.GetDevice{ID: id}).(message.GetDeviceSuccess).Device
	assert.Equal(t, domain.DeviceStartingGun, got.Type)
}

func TestDeviceGetUnknown(t *testing.T) {
	e := newTestEnv(t)
	devices := spawnDevices(e)

	res := e.request(t, devices, message.GetDevice{ID: domain.NewID()})
	fail, ok := res.(message.Failure)
	require.True(t, ok, "unexpected response %#v", res)
	assert.Equal(t, int(domain.CodeDeviceNotFound), fail.Code)
	assert.Equal(t, domain.ErrorMessage(domain.CodeDeviceNotFound), fail.Error)
}

func TestDeviceExists(t *testing.T) {
	e := newTestEnv(t)
	devices := spawnDevices(e)
	id := addDevice(t, e, devices, message.AddDevice{Type: domain.DeviceReactionTimeSensor})

	res := e.request(t, devices, message.DeviceExists{ID: id})
	require.IsType(t, message.DeviceExistsSuccess{}, res)

	res = e.request(t, devices, message.DeviceExists{ID: domain.NewID()})
	fail, ok := res.(message.Failure)
	require.True(t, ok, "unexpected response %#v", res)
	assert.Equal(t, int(domain.CodeDeviceNotFound), fail.Code)
}

func TestDeviceUpdatePreservesCreatedAt(t *testing.T) {
	e := newTestEnv(t)
	devices := spawnDevices(e)
	id := addDevice(t, e, devices, message.AddDevice{Type: domain.DeviceDistanceSensor, Manufacturer: "Omega"})

	created := e.request(t, devices, message.GetDevice{ID: id}).(message.GetDeviceSuccess).Device.CreatedAt

	serviced := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	res := e.request(t, devices, message.UpdateDevice{
		ID:              id,
		Type:            domain.DeviceDistanceSensor,
		Manufacturer:    "Omega",
		LastServicedAt:  &serviced,
		ServiceLocation: "Helsinki",
	})
	require.IsType(t, message.UpdateDeviceSuccess{}, res)

	got := e.request(t, devices, message.GetDevice{ID: id}).(message.GetDeviceSuccess).Device
	assert.True(t, created.Equal(got.CreatedAt))
	require.NotNil(t, got.LastServicedAt)
	assert.True(t, serviced.Equal(*got.LastServicedAt))
	assert.Equal(t, "Helsinki", got.ServiceLocation)
}

func TestDeviceUpdateUnknown(t *testing.T) {
	e := newTestEnv(t)
	devices := spawnDevices(e)

	res := e.request(t, devices, message.UpdateDevice{ID: domain.NewID(), Type: domain.DeviceStartingGun})
	fail, ok := res.(message.Failure)
	require.True(t, ok, "unexpected response %#v", res)
	assert.Equal(t, int(domain.CodeDeviceNotFound), fail.Code)
}

func TestDeviceArchive(t *testing.T) {
	e := newTestEnv(t)
	devices := spawnDevices(e)
	id := addDevice(t, e, devices, message.AddDevice{Type: domain.DeviceFinishLineSensor})

	res := e.request(t, devices, message.ArchiveDevice{ID: id})
	require.IsType(t, message.ArchiveDeviceSuccess{}, res)

	res = e.request(t, devices, message.GetDevice{ID: id})
	fail, ok := res.(message.Failure)
	require.True(t, ok, "unexpected response %#v", res)
	assert.Equal(t, int(domain.CodeDeviceNotFound), fail.Code)
}

func TestGetAllDevices(t *testing.T) {
	e := newTestEnv(t)
	devices := spawnDevices(e)

	ids := []string{
		addDevice(t, e, devices, message.AddDevice{Type: domain.DeviceStartingGun}),
		addDevice(t, e, devices, message.AddDevice{Type: domain.DeviceFinishLineSensor}),
	}

	res := e.request(t, devices, message.GetAllDevices{})
	all, ok := res.(message.GetAllDevicesSuccess)
	require.True(t, ok, "unexpected response %#v", res)
	got := make([]string, 0, len(all.Devices))
	for _, d := range all.Devices {
		got = append(got, d.ID)
	}
	assert.ElementsMatch(t, ids, got)
}
