package server

import (
	"github.com/gofiber/fiber/v2"

	"barangay/internal/models"
)

type submitUpdateRequest struct {
	Changes       models.JSONMap `json:"changes"`
	UploadedFiles []string       `json:"uploaded_files"`
}

// SubmitUpdateRequest files a change request for the authenticated
// resident's own record.
func (s *Server) SubmitUpdateRequest(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return nil
	}
	if user.ResidentID == nil {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewUnauthorizedError("Account is not linked to a resident record"))
	}

	var req submitUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	request, err := s.requestSvc.Submit(c.Context(), *user.ResidentID, user.ID, req.Changes, req.UploadedFiles)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(request)
}

// GetMyPendingRequest returns the caller's pending request, or null.
func (s *Server) GetMyPendingRequest(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return nil
	}
	if user.ResidentID == nil {
		return c.JSON(fiber.Map{"pending_request": nil})
	}
	pending, err := s.requestSvc.GetPending(c.Context(), *user.ResidentID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"pending_request": pending})
}

// GetMyRequests returns the caller's request history, newest first.
func (s *Server) GetMyRequests(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return nil
	}
	if user.ResidentID == nil {
		return c.JSON(fiber.Map{"requests": []models.UpdateRequest{}})
	}
	p := parsePagination(c, 20)
	requests, err := s.requestSvc.ListByResident(c.Context(), *user.ResidentID, p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"requests": requests})
}

// GetUpdateRequest returns one request. Admins see any; residents only
// their own.
func (s *Server) GetUpdateRequest(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return nil
	}
	requestID := c.Params("requestId")
	if requestID == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request ID"))
	}
	request, err := s.requestSvc.GetByID(c.Context(), user, requestID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(request)
}

// ListUpdateRequests returns the admin review queue, optionally filtered by
// ?status=, oldest first.
func (s *Server) ListUpdateRequests(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	status := models.UpdateRequestStatus(c.Query("status"))
	requests, err := s.requestSvc.ListQueue(c.Context(), status, p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"requests": requests})
}
