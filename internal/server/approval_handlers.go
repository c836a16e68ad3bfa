package server

import (
	"github.com/gofiber/fiber/v2"

	"barangay/internal/models"
	"barangay/internal/service"
)

type reviewRequest struct {
	Notes string `json:"notes"`
}

// ApproveUpdateRequest applies a pending request to the resident record.
// Admin only. Approving an already-resolved request is a no-op success.
func (s *Server) ApproveUpdateRequest(c *fiber.Ctx) error {
	return s.resolveUpdateRequest(c, true)
}

// RejectUpdateRequest declines a pending request. Admin only.
func (s *Server) RejectUpdateRequest(c *fiber.Ctx) error {
	return s.resolveUpdateRequest(c, false)
}

func (s *Server) resolveUpdateRequest(c *fiber.Ctx, approve bool) error {
	reviewerID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	requestID := c.Params("requestId")
	if requestID == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request ID"))
	}

	var body reviewRequest
	// The body is optional for approvals.
	_ = c.BodyParser(&body)
	if !approve && body.Notes == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Rejection requires review notes"))
	}

	var outcome *service.ApprovalOutcome
	if approve {
		outcome, err = s.approvalSvc.Approve(c.Context(), requestID, reviewerID, body.Notes)
	} else {
		outcome, err = s.approvalSvc.Reject(c.Context(), requestID, reviewerID, body.Notes)
	}
	if err != nil {
		return respondServiceError(c, err)
	}

	response := fiber.Map{
		"request":    outcome.Request,
		"idempotent": outcome.Idempotent,
	}
	if outcome.Resident != nil {
		response["resident"] = outcome.Resident
	}
	if len(outcome.Warnings) > 0 {
		response["warnings"] = outcome.Warnings
	}
	return c.JSON(response)
}
