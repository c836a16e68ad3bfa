package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"barangay/internal/cache"
	"barangay/internal/middleware"
	"barangay/internal/models"
	"barangay/internal/observability"
	"barangay/internal/repository"
	"barangay/internal/syncbus"
)

// SyncPublisher fans a sync event out to open views. Implementations treat
// delivery as best-effort; the returned error is for accounting, not
// rollback.
type SyncPublisher interface {
	Publish(ctx context.Context, ev syncbus.Event) error
}

// UpdateRequestService handles submission and reads of resident update
// requests.
type UpdateRequestService struct {
	requestRepo     repository.UpdateRequestRepository
	residentRepo    repository.ResidentRepository
	notificationSvc *NotificationService
	publisher       SyncPublisher
}

// NewUpdateRequestService returns a new UpdateRequestService.
func NewUpdateRequestService(
	requestRepo repository.UpdateRequestRepository,
	residentRepo repository.ResidentRepository,
	notificationSvc *NotificationService,
	publisher SyncPublisher,
) *UpdateRequestService {
	return &UpdateRequestService{
		requestRepo:     requestRepo,
		residentRepo:    residentRepo,
		notificationSvc: notificationSvc,
		publisher:       publisher,
	}
}

// Submit validates and stores a new update request and raises the admin
// review notification. The request row is authoritative: once it commits,
// the submission stands even if the notification or event fan-out fails.
func (s *UpdateRequestService) Submit(ctx context.Context, residentID, requestedBy uint, changes models.JSONMap, uploadedFiles []string) (*models.UpdateRequest, error) {
	normalized := NormalizeChanges(changes)
	if err := ValidateChanges(normalized); err != nil {
		return nil, err
	}

	files := NormalizeUploadedFiles(uploadedFiles)
	if err := ValidateUploadedFiles(files); err != nil {
		return nil, err
	}

	resident, err := s.residentRepo.GetByID(ctx, residentID)
	if err != nil {
		return nil, err
	}

	request := &models.UpdateRequest{
		ID:               uuid.NewString(),
		ResidentID:       residentID,
		OriginalData:     snapshotFields(resident, normalized),
		RequestedChanges: normalized,
		Status:           models.UpdateRequestStatusPending,
		ResidentVersion:  resident.Version,
		UploadedFiles:    files,
		RequestedBy:      requestedBy,
		RequestedAt:      time.Now(),
	}
	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, err
	}

	// Everything below is best-effort. The hint only short-circuits the
	// duplicate-submission check; the database stays authoritative.
	cache.SetPendingHint(ctx, residentID, request.ID)

	if _, err := s.notificationSvc.CreateUpdateRequestNotification(ctx, request, resident); err != nil {
		observability.PartialPropagations.WithLabelValues("submit_notification").Inc()
		middleware.Logger.WarnContext(ctx, "update request stored but admin notification failed",
			"request_id", request.ID, "error", err)
	}

	if s.publisher != nil {
		ev := syncbus.Event{Name: syncbus.EventAdminDataRefresh, ResidentID: residentID, TargetRole: models.RoleAdmin}
		if err := s.publisher.Publish(ctx, ev); err != nil {
			observability.PartialPropagations.WithLabelValues("submit_sync").Inc()
			middleware.Logger.WarnContext(ctx, "admin refresh event not delivered",
				"request_id", request.ID, "error", err)
		}
	}
	return request, nil
}

// GetPending returns the resident's pending request, if any. The cached
// hint is consulted first but a miss always falls through to the database.
func (s *UpdateRequestService) GetPending(ctx context.Context, residentID uint) (*models.UpdateRequest, error) {
	if requestID := cache.GetPendingHint(ctx, residentID); requestID != "" {
		if request, err := s.requestRepo.GetByID(ctx, requestID); err == nil &&
			request.Status == models.UpdateRequestStatusPending {
			return request, nil
		}
		// Stale hint; drop it and ask the database.
		cache.ClearPendingHint(ctx, residentID)
	}
	return s.requestRepo.GetPendingByResident(ctx, residentID)
}

// GetByID returns one request. Residents may only read their own.
func (s *UpdateRequestService) GetByID(ctx context.Context, user *models.User, requestID string) (*models.UpdateRequest, error) {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() && request.RequestedBy != user.ID {
		return nil, models.NewUnauthorizedError("Update request belongs to another resident")
	}
	return request, nil
}

// ListByResident returns a resident's request history, newest first.
func (s *UpdateRequestService) ListByResident(ctx context.Context, residentID uint, limit, offset int) ([]models.UpdateRequest, error) {
	return s.requestRepo.ListByResident(ctx, residentID, limit, offset)
}

// ListQueue returns the admin review queue, optionally filtered by status,
// oldest first.
func (s *UpdateRequestService) ListQueue(ctx context.Context, status models.UpdateRequestStatus, limit, offset int) ([]models.UpdateRequest, error) {
	if status != "" && status != models.UpdateRequestStatusPending &&
		!status.Terminal() {
		return nil, models.NewValidationError("Unknown update request status")
	}
	return s.requestRepo.List(ctx, status, limit, offset)
}
