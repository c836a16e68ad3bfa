package server

import (
	"github.com/gofiber/fiber/v2"

	"barangay/internal/models"
	"barangay/internal/service"
	"barangay/internal/syncbus"
)

// GetMyResident returns the resident record linked to the authenticated
// account, together with any pending update request so the profile view can
// render both in one round trip.
func (s *Server) GetMyResident(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return nil
	}
	if user.ResidentID == nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Resident record", user.ID))
	}

	resident, err := s.residentRepo.GetByID(c.Context(), *user.ResidentID)
	if err != nil {
		return respondServiceError(c, err)
	}
	pending, err := s.requestSvc.GetPending(c.Context(), resident.ID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"resident":        resident,
		"pending_request": pending,
	})
}

// GetResident returns one resident record. Admin only.
func (s *Server) GetResident(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	resident, err := s.residentRepo.GetByID(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(resident)
}

type updateResidentRequest struct {
	Changes models.JSONMap `json:"changes"`
	Version int64          `json:"version"`
}

// UpdateResident applies a direct correction to a resident record, outside
// the request/approval workflow. Admin only. The caller sends the version it
// read; a stale version fails with a conflict rather than overwriting.
func (s *Server) UpdateResident(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var body updateResidentRequest
	if err := c.BodyParser(&body); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	changes := service.NormalizeChanges(body.Changes)
	if err := service.ValidateChanges(changes); err != nil {
		return respondServiceError(c, err)
	}

	resident, err := s.residentRepo.GetByID(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}

	expectedVersion := body.Version
	if expectedVersion == 0 {
		expectedVersion = resident.Version
	}

	if _, err := service.ApplyChanges(resident, changes); err != nil {
		return respondServiceError(c, err)
	}
	if err := s.residentRepo.Update(c.Context(), resident, expectedVersion); err != nil {
		return respondServiceError(c, err)
	}

	if s.broadcaster != nil {
		_ = s.broadcaster.Publish(c.Context(), syncbus.Event{
			Name:        syncbus.EventResidentDataUpdated,
			ResidentID:  resident.ID,
			UpdatedData: changes,
		})
	}

	return c.JSON(resident)
}

// ListResidents returns a page of resident records. Admin only.
func (s *Server) ListResidents(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	residents, err := s.residentRepo.List(c.Context(), p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"residents": residents})
}
