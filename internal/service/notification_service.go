package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"barangay/internal/models"
	"barangay/internal/observability"
	"barangay/internal/repository"
)

// NotificationService provides notification business logic: building the
// workflow notifications and exposing scoped reads and patches.
type NotificationService struct {
	notificationRepo repository.NotificationRepository
}

// NewNotificationService returns a new NotificationService.
func NewNotificationService(notificationRepo repository.NotificationRepository) *NotificationService {
	return &NotificationService{notificationRepo: notificationRepo}
}

// CreateUpdateRequestNotification writes the admin review notification for a
// freshly submitted request. The request snapshot rides in the payload so
// the review queue renders without a second fetch.
func (s *NotificationService) CreateUpdateRequestNotification(ctx context.Context, request *models.UpdateRequest, resident *models.Resident) (*models.Notification, error) {
	snapshot, err := requestSnapshot(request)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	notification := &models.Notification{
		Type:         models.NotificationTypeUpdateRequest,
		Title:        "Information Update Request",
		Message:      fmt.Sprintf("%s requested changes to their record", residentName(resident)),
		TargetRole:   models.RoleAdmin,
		SenderUserID: &request.RequestedBy,
		ResidentID:   &request.ResidentID,
		RequestID:    request.ID,
		Priority:     "normal",
		Status:       models.NotificationStatusPending,
		Data: models.JSONMap{
			"request":       snapshot,
			"resident_name": residentName(resident),
		},
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		return nil, err
	}
	observability.NotificationWrites.WithLabelValues(string(notification.Type)).Inc()
	return notification, nil
}

// CreateOutcomeNotification writes the resident-facing notice after a
// request is resolved.
func (s *NotificationService) CreateOutcomeNotification(ctx context.Context, request *models.UpdateRequest, reviewerID uint) (*models.Notification, error) {
	var (
		notifType models.NotificationType
		status    models.NotificationStatus
		title     string
		message   string
	)
	switch request.Status {
	case models.UpdateRequestStatusApproved:
		notifType = models.NotificationTypeUpdateApproved
		status = models.NotificationStatusApproved
		title = "Update Request Approved"
		message = "Your information update request has been approved and applied to your record."
	case models.UpdateRequestStatusRejected:
		notifType = models.NotificationTypeUpdateRejected
		status = models.NotificationStatusRejected
		title = "Update Request Rejected"
		message = "Your information update request has been rejected."
		if notes := strings.TrimSpace(request.ReviewNotes); notes != "" {
			message = fmt.Sprintf("Your information update request has been rejected: %s", notes)
		}
	default:
		return nil, models.NewValidationError("Outcome notification requires a resolved request")
	}

	notification := &models.Notification{
		Type:         notifType,
		Title:        title,
		Message:      message,
		TargetRole:   models.RoleResident,
		TargetUserID: &request.RequestedBy,
		SenderUserID: &reviewerID,
		ResidentID:   &request.ResidentID,
		RequestID:    request.ID,
		Priority:     "normal",
		Status:       status,
		Data: models.JSONMap{
			"request_id":   request.ID,
			"review_notes": request.ReviewNotes,
		},
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		return nil, err
	}
	observability.NotificationWrites.WithLabelValues(string(notification.Type)).Inc()
	return notification, nil
}

// ListForUser returns the page, unread count and total scoped to what the
// user is allowed to see: admins see the admin queue, residents see their
// own notices.
func (s *NotificationService) ListForUser(ctx context.Context, user *models.User, unreadOnly bool, limit, offset int) (*models.NotificationList, error) {
	filter := repository.NotificationFilter{
		UnreadOnly: unreadOnly,
		Limit:      limit,
		Offset:     offset,
	}
	if user.IsAdmin() {
		filter.TargetRole = models.RoleAdmin
	} else {
		filter.TargetRole = models.RoleResident
		filter.TargetUserID = &user.ID
	}
	return s.notificationRepo.List(ctx, filter)
}

// MarkRead flips the read marker on one notification the user can see.
func (s *NotificationService) MarkRead(ctx context.Context, user *models.User, id uint) error {
	if err := s.authorize(ctx, user, id); err != nil {
		return err
	}
	return s.notificationRepo.MarkRead(ctx, id)
}

// MarkAllRead clears the unread badge for the user's whole scope, not just
// the visible page.
func (s *NotificationService) MarkAllRead(ctx context.Context, user *models.User) error {
	filter := repository.NotificationFilter{}
	if user.IsAdmin() {
		filter.TargetRole = models.RoleAdmin
	} else {
		filter.TargetRole = models.RoleResident
		filter.TargetUserID = &user.ID
	}
	return s.notificationRepo.MarkAllRead(ctx, filter)
}

// PatchStatus transitions a notification's workflow status. Admin only;
// reapplying the current status is a no-op.
func (s *NotificationService) PatchStatus(ctx context.Context, user *models.User, id uint, status models.NotificationStatus) (*models.Notification, error) {
	if !user.IsAdmin() {
		return nil, models.NewUnauthorizedError("Only administrators can update notification status")
	}
	switch status {
	case models.NotificationStatusPending, models.NotificationStatusApproved,
		models.NotificationStatusRejected, models.NotificationStatusCompleted:
	default:
		return nil, models.NewValidationError("Unknown notification status")
	}
	return s.notificationRepo.PatchStatus(ctx, id, status)
}

// Delete removes a notification the user can see.
func (s *NotificationService) Delete(ctx context.Context, user *models.User, id uint) error {
	if err := s.authorize(ctx, user, id); err != nil {
		return err
	}
	return s.notificationRepo.Delete(ctx, id)
}

func (s *NotificationService) authorize(ctx context.Context, user *models.User, id uint) error {
	notification, err := s.notificationRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user.IsAdmin() {
		return nil
	}
	if notification.TargetUserID == nil || *notification.TargetUserID != user.ID {
		return models.NewUnauthorizedError("Notification belongs to another user")
	}
	return nil
}

func residentName(resident *models.Resident) string {
	parts := []string{resident.FirstName, resident.MiddleName, resident.LastName}
	name := strings.Join(parts, " ")
	return strings.Join(strings.Fields(name), " ")
}

func requestSnapshot(request *models.UpdateRequest) (map[string]interface{}, error) {
	raw, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
