package server

import (
	"github.com/gofiber/fiber/v2"

	"barangay/internal/models"
)

// GetNotifications returns one page of the caller's notifications together
// with the unread count and total for the same scope. The three values come
// out of one repository transaction, so the badge always matches the list.
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return nil
	}
	p := parsePagination(c, 20)
	unreadOnly := c.QueryBool("unread_only", false)

	list, err := s.notificationSvc.ListForUser(c.Context(), user, unreadOnly, p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(list)
}

// MarkNotificationRead flips the read marker on one notification.
func (s *Server) MarkNotificationRead(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return nil
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.notificationSvc.MarkRead(c.Context(), user, id); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"read": true})
}

// MarkAllNotificationsRead clears the unread badge for the caller's whole
// scope, not just the loaded page.
func (s *Server) MarkAllNotificationsRead(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return nil
	}
	if err := s.notificationSvc.MarkAllRead(c.Context(), user); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"read": true})
}

type patchStatusRequest struct {
	Status models.NotificationStatus `json:"status"`
}

// PatchNotificationStatus transitions a notification's workflow status.
// Admin only; reapplying the current status succeeds without a write.
func (s *Server) PatchNotificationStatus(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return nil
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req patchStatusRequest
	if err := c.BodyParser(&req); err != nil || req.Status == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Status is required"))
	}
	notification, err := s.notificationSvc.PatchStatus(c.Context(), user, id, req.Status)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(notification)
}

// DeleteNotification removes one notification the caller can see.
func (s *Server) DeleteNotification(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return nil
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.notificationSvc.Delete(c.Context(), user, id); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
