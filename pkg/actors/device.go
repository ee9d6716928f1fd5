package actors

import (
	"time"

	"github.com/rs/zerolog/log"

	"racetimed/pkg/actor"
	"racetimed/pkg/domain"
	"racetimed/pkg/message"
	"racetimed/pkg/repository"
)

// DeviceCoordinator serves device CRUD directly against the repository.
// Devices carry no behavior of their own, so no child actor is spawned per
// device; ids are always generated server-side.
type DeviceCoordinator struct {
	repo *repository.Repository
}

func NewDeviceCoordinator(repo *repository.Repository) actor.Producer {
	return func() actor.Actor {
		return &DeviceCoordinator{repo: repo}
	}
}

func (c *DeviceCoordinator) Receive(ctx *actor.Context) {
	switch m := ctx.Message().(type) {
	case actor.Started, actor.Stopping, actor.Stopped, actor.Restarting, actor.ReceiveTimeout, actor.Terminated:
	case actor.ChildFailure:
		log.Error().Err(m.Reason).Str("child", m.Who.ID).Msg("device child failed")
	case message.AddDevice:
		c.add(ctx, m)
	case message.GetDevice:
		if dev, ok := c.fetch(ctx, m.ID); ok {
			ctx.Respond(message.GetDeviceSuccess{Device: dev})
		}
	case message.GetAllDevices:
		devices, err := repository.GetAll[domain.Device](c.repo, domain.DeviceKind)
		if err != nil {
			log.Err(err).Msg("device listing failed")
			ctx.Respond(message.Fail(domain.CodeDeviceStoreAccess))
			return
		}
		ctx.Respond(message.GetAllDevicesSuccess{Devices: devices})
	case message.DeviceExists:
		ok, err := c.repo.Exists(domain.DeviceKind, m.ID)
		if err != nil {
			log.Err(err).Str("id", m.ID).Msg("device existence check failed")
			ctx.Respond(message.Fail(domain.CodeDeviceStoreAccess))
			return
		}
		if !ok {
			ctx.Respond(message.Fail(domain.CodeDeviceNotFound))
			return
		}
		ctx.Respond(message.DeviceExistsSuccess{})
	case message.UpdateDevice:
		c.update(ctx, m)
	case message.ArchiveDevice:
		if _, ok := c.fetch(ctx, m.ID); !ok {
			return
		}
		if err := c.repo.Delete(domain.DeviceKind, m.ID); err != nil {
			log.Err(err).Str("id", m.ID).Msg("device archive failed")
			ctx.Respond(message.Fail(domain.CodeDeviceStoreAccess))
			return
		}
		ctx.Respond(message.ArchiveDeviceSuccess{})
	default:
		respondUntyped(ctx, "device-coordinator")
	}
}

func (c *DeviceCoordinator) add(ctx *actor.Context, m message.AddDevice) {
	if !m.Type.Defined() {
		ctx.Respond(message.Fail(domain.CodeDeviceInvalidType))
		return
	}
	id := domain.NewID()
	exists, err := c.repo.Exists(domain.DeviceKind, id)
	if err != nil {
		log.Err(err).Str("id", id).Msg("device existence check failed")
		ctx.Respond(message.Fail(domain.CodeDeviceStoreAccess))
		return
	}
	if exists {
		ctx.Respond(message.Fail(domain.CodeDeviceAlreadyExists))
		return
	}
	now := time.Now()
	dev := domain.Device{
		ID:                  id,
		Type:                m.Type,
		ManufactureDate:     m.ManufactureDate,
		ManufactureLocation: m.ManufactureLocation,
		Manufacturer:        m.Manufacturer,
		LastServicedAt:      m.LastServicedAt,
		ServiceLocation:     m.ServiceLocation,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := c.repo.AddOrUpdate(dev); err != nil {
		log.Err(err).Str("id", id).Msg("device add failed")
		ctx.Respond(message.Fail(domain.CodeDeviceStoreAccess))
		return
	}
	ctx.Respond(message.AddDeviceSuccess{ID: id})
}

func (c *DeviceCoordinator) update(ctx *actor.Context, m message.UpdateDevice) {
	if !m.Type.Defined() {
		ctx.Respond(message.Fail(domain.CodeDeviceInvalidType))
		return
	}
	current, ok := c.fetch(ctx, m.ID)
	if !ok {
		return
	}
	next := domain.Device{
		ID:                  m.ID,
		Type:                m.Type,
		ManufactureDate:     m.ManufactureDate,
		ManufactureLocation: m.ManufactureLocation,
		Manufacturer:        m.Manufacturer,
		LastServicedAt:      m.LastServicedAt,
		ServiceLocation:     m.ServiceLocation,
		CreatedAt:           current.CreatedAt,
		UpdatedAt:           time.Now(),
	}
	if err := c.repo.AddOrUpdate(next); err != nil {
		log.Err(err).Str("id", m.ID).Msg("device update failed")
		ctx.Respond(message.Fail(domain.CodeDeviceStoreAccess))
		return
	}
	ctx.Respond(message.UpdateDeviceSuccess{})
}

// fetch resolves a device or answers with the matching failure itself.
func (c *DeviceCoordinator) fetch(ctx *actor.Context, id string) (domain.Device, bool) {
	dev, ok, err := repository.Get[domain.Device](c.repo, domain.DeviceKind, id)
	if err != nil {
		log.Err(err).Str("id", id).Msg("device read failed")
		ctx.Respond(message.Fail(domain.CodeDeviceStoreAccess))
		return domain.Device{}, false
	}
	if !ok {
		ctx.Respond(message.Fail(domain.CodeDeviceNotFound))
		return domain.Device{}, false
	}
	return dev, true
}
