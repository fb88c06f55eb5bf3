package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/mmoforge/skillstore/internal/dto"
	"github.com/mmoforge/skillstore/internal/store"
)

// MaintenanceHandler exposes the bulk operations on the admin surface. The
// store serializes them internally; two overlapping purge requests simply
// queue on the mass-update lock.
type MaintenanceHandler struct {
	store *store.Store
}

func NewMaintenanceHandler(st *store.Store) *MaintenanceHandler {
	return &MaintenanceHandler{store: st}
}

func (h *MaintenanceHandler) PurgePowerless(c *fiber.Ctx) error {
	return c.JSON(dto.PurgeResponse{Purged: h.store.PurgePowerless()})
}

func (h *MaintenanceHandler) PurgeOld(c *fiber.Ctx) error {
	return c.JSON(dto.PurgeResponse{Purged: h.store.PurgeOld()})
}

func (h *MaintenanceHandler) RemoveUser(c *fiber.Ctx) error {
	name := c.Params("name")
	if name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Player name required",
		})
	}

	id := uuid.Nil
	if q := c.Query("uuid"); q != "" {
		parsed, err := uuid.Parse(q)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid uuid",
			})
		}
		id = parsed
	}

	return c.JSON(dto.RemoveUserResponse{Removed: h.store.RemoveUser(name, id)})
}
