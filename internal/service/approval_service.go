package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"barangay/internal/cache"
	"barangay/internal/featureflags"
	"barangay/internal/middleware"
	"barangay/internal/models"
	"barangay/internal/observability"
	"barangay/internal/repository"
	"barangay/internal/syncbus"
)

// ApprovalOutcome is what a resolution returns: the terminal request, the
// mutated resident (approvals only) and any best-effort steps that failed
// after the commit.
type ApprovalOutcome struct {
	Request  *models.UpdateRequest
	Resident *models.Resident
	// Idempotent is set when the request was already resolved and nothing
	// was written.
	Idempotent bool
	// Warnings lists post-commit propagation failures. The resolution
	// itself succeeded; background repair or the next poll covers these.
	Warnings []string
}

// ApprovalService resolves pending update requests. The authoritative
// mutation runs in one repository transaction; notification and sync
// fan-out happen after commit and never undo it.
type ApprovalService struct {
	requestRepo     repository.UpdateRequestRepository
	notificationSvc *NotificationService
	flags           *featureflags.Manager
	publisher       SyncPublisher

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewApprovalService returns a new ApprovalService.
func NewApprovalService(
	requestRepo repository.UpdateRequestRepository,
	notificationSvc *NotificationService,
	flags *featureflags.Manager,
	publisher SyncPublisher,
) *ApprovalService {
	return &ApprovalService{
		requestRepo:     requestRepo,
		notificationSvc: notificationSvc,
		flags:           flags,
		publisher:       publisher,
		inFlight:        make(map[string]struct{}),
	}
}

// Approve applies a pending request to the resident record.
func (s *ApprovalService) Approve(ctx context.Context, requestID string, reviewerID uint, notes string) (*ApprovalOutcome, error) {
	return s.resolve(ctx, requestID, models.UpdateRequestStatusApproved, reviewerID, notes)
}

// Reject declines a pending request without touching the resident record.
func (s *ApprovalService) Reject(ctx context.Context, requestID string, reviewerID uint, notes string) (*ApprovalOutcome, error) {
	return s.resolve(ctx, requestID, models.UpdateRequestStatusRejected, reviewerID, notes)
}

func (s *ApprovalService) resolve(ctx context.Context, requestID string, newStatus models.UpdateRequestStatus, reviewerID uint, notes string) (*ApprovalOutcome, error) {
	ctx, span := otel.Tracer("barangay").Start(ctx, "approval.resolve",
		trace.WithAttributes(
			attribute.String("request.id", requestID),
			attribute.String("request.new_status", string(newStatus)),
		))
	defer span.End()

	if !s.tryLock(requestID) {
		observability.ApprovalOutcomes.WithLabelValues("in_flight").Inc()
		return nil, models.NewConflictError("This request is being resolved by another action")
	}
	defer s.unlock(requestID)

	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		observability.ApprovalOutcomes.WithLabelValues("error").Inc()
		return nil, err
	}
	if request.Status.Terminal() {
		// Double click or a second admin tab. The first resolution stands.
		observability.ApprovalOutcomes.WithLabelValues("idempotent").Inc()
		return &ApprovalOutcome{Request: request, Idempotent: true}, nil
	}

	expectedVersion := request.ResidentVersion
	if s.flags != nil && s.flags.Enabled(featureflags.RelaxedVersionCheck, reviewerID) {
		expectedVersion = -1
	}

	params := repository.ResolveParams{
		RequestID:       requestID,
		NewStatus:       newStatus,
		ReviewerID:      reviewerID,
		ReviewNotes:     notes,
		ExpectedVersion: expectedVersion,
	}
	if newStatus == models.UpdateRequestStatusApproved {
		changes := request.RequestedChanges
		params.Apply = func(current *models.Resident) (*models.Resident, error) {
			return ApplyChanges(current, changes)
		}
	}

	start := time.Now()
	result, err := s.requestRepo.Resolve(ctx, params)
	observability.ApprovalDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyResolved) {
			observability.ApprovalOutcomes.WithLabelValues("idempotent").Inc()
			return &ApprovalOutcome{Request: result.Request, Idempotent: true}, nil
		}
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeConflict {
			observability.ApprovalOutcomes.WithLabelValues("conflict").Inc()
		} else {
			observability.ApprovalOutcomes.WithLabelValues("error").Inc()
		}
		return nil, err
	}
	observability.ApprovalOutcomes.WithLabelValues(string(newStatus)).Inc()

	outcome := &ApprovalOutcome{Request: result.Request, Resident: result.Resident}
	s.propagate(ctx, outcome, reviewerID)
	return outcome, nil
}

// propagate performs the post-commit best-effort steps: clearing the
// pending hint, notifying the resident and pushing sync events. Failures
// are recorded as warnings, never as a rollback.
func (s *ApprovalService) propagate(ctx context.Context, outcome *ApprovalOutcome, reviewerID uint) {
	request := outcome.Request
	cache.ClearPendingHint(ctx, request.ResidentID)

	if _, err := s.notificationSvc.CreateOutcomeNotification(ctx, request, reviewerID); err != nil {
		observability.PartialPropagations.WithLabelValues("outcome_notification").Inc()
		middleware.Logger.WarnContext(ctx, "resolution committed but outcome notification failed",
			"request_id", request.ID, "error", err)
		outcome.Warnings = append(outcome.Warnings, "resident notification could not be created")
	}

	if s.publisher == nil {
		return
	}
	action := syncbus.ActionRejected
	if request.Status == models.UpdateRequestStatusApproved {
		action = syncbus.ActionApproved
	}
	var updated models.JSONMap
	if outcome.Resident != nil {
		updated = request.RequestedChanges
	}
	requester := request.RequestedBy

	events := []syncbus.Event{
		{Name: syncbus.EventPersonalInfoUpdated, ResidentID: request.ResidentID, UpdatedData: updated, Action: action, TargetUserID: &requester},
		{Name: syncbus.EventResidentDataUpdated, ResidentID: request.ResidentID, UpdatedData: updated, Action: action},
		{Name: syncbus.EventAdminDataRefresh, ResidentID: request.ResidentID, Action: action, TargetRole: models.RoleAdmin},
	}
	for _, ev := range events {
		if err := s.publisher.Publish(ctx, ev); err != nil {
			observability.PartialPropagations.WithLabelValues("resolve_sync").Inc()
			middleware.Logger.WarnContext(ctx, "resolution committed but sync event not delivered",
				"request_id", request.ID, "event", ev.Name, "error", err)
			outcome.Warnings = append(outcome.Warnings, "open views may refresh late")
			break
		}
	}
}

func (s *ApprovalService) tryLock(requestID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[requestID]; busy {
		return false
	}
	s.inFlight[requestID] = struct{}{}
	return true
}

func (s *ApprovalService) unlock(requestID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, requestID)
}
