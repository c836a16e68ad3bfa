package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barangay/internal/featureflags"
	"barangay/internal/models"
	"barangay/internal/repository"
	"barangay/internal/syncbus"
)

func pendingRequest() *models.UpdateRequest {
	return &models.UpdateRequest{
		ID:               "req-1",
		ResidentID:       4,
		RequestedChanges: models.JSONMap{"occupation": "Teacher"},
		Status:           models.UpdateRequestStatusPending,
		ResidentVersion:  3,
		RequestedBy:      77,
	}
}

func resolvingRepo(t *testing.T, captured **repository.ResolveParams) *updateRequestRepoStub {
	t.Helper()
	return &updateRequestRepoStub{
		getByIDFn: func(_ context.Context, id string) (*models.UpdateRequest, error) {
			req := pendingRequest()
			req.ID = id
			return req, nil
		},
		resolveFn: func(_ context.Context, p repository.ResolveParams) (*repository.ResolveResult, error) {
			if captured != nil {
				*captured = &p
			}
			req := pendingRequest()
			req.ID = p.RequestID
			req.Status = p.NewStatus
			req.ReviewNotes = p.ReviewNotes
			result := &repository.ResolveResult{Request: req}
			if p.Apply != nil {
				resident := &models.Resident{ID: 4, FirstName: "Juan", Version: 3}
				merged, err := p.Apply(resident)
				if err != nil {
					return nil, err
				}
				merged.Version++
				result.Resident = merged
			}
			return result, nil
		},
	}
}

func TestApprove_HappyPath(t *testing.T) {
	var params *repository.ResolveParams
	repo := resolvingRepo(t, &params)
	var notified *models.Notification
	notificationRepo := &notificationRepoStub{
		createFn: func(_ context.Context, n *models.Notification) error {
			notified = n
			return nil
		},
	}
	publisher := &publisherStub{}
	svc := NewApprovalService(repo, NewNotificationService(notificationRepo), featureflags.NewManager(""), publisher)

	outcome, err := svc.Approve(context.Background(), "req-1", 9, "looks good")
	require.NoError(t, err)
	require.NotNil(t, params)

	assert.Equal(t, int64(3), params.ExpectedVersion, "approval is pinned to the snapshot version")
	assert.Equal(t, models.UpdateRequestStatusApproved, outcome.Request.Status)
	require.NotNil(t, outcome.Resident)
	assert.Equal(t, "Teacher", outcome.Resident.Occupation)
	assert.False(t, outcome.Idempotent)
	assert.Empty(t, outcome.Warnings)

	require.NotNil(t, notified)
	assert.Equal(t, models.NotificationTypeUpdateApproved, notified.Type)
	require.NotNil(t, notified.TargetUserID)
	assert.Equal(t, uint(77), *notified.TargetUserID)

	require.Len(t, publisher.events, 3)
	names := []syncbus.EventName{publisher.events[0].Name, publisher.events[1].Name, publisher.events[2].Name}
	assert.Contains(t, names, syncbus.EventPersonalInfoUpdated)
	assert.Contains(t, names, syncbus.EventResidentDataUpdated)
	assert.Contains(t, names, syncbus.EventAdminDataRefresh)
}

func TestReject_SkipsResidentMutation(t *testing.T) {
	var params *repository.ResolveParams
	repo := resolvingRepo(t, &params)
	svc := NewApprovalService(repo, NewNotificationService(acceptingNotificationRepo()), featureflags.NewManager(""), &publisherStub{})

	outcome, err := svc.Reject(context.Background(), "req-1", 9, "document unreadable")
	require.NoError(t, err)

	assert.Nil(t, params.Apply, "rejections never touch the resident record")
	assert.Equal(t, models.UpdateRequestStatusRejected, outcome.Request.Status)
	assert.Nil(t, outcome.Resident)
}

func TestResolve_TerminalRequestIsIdempotent(t *testing.T) {
	resolveCalled := false
	repo := &updateRequestRepoStub{
		getByIDFn: func(_ context.Context, id string) (*models.UpdateRequest, error) {
			req := pendingRequest()
			req.Status = models.UpdateRequestStatusApproved
			return req, nil
		},
		resolveFn: func(context.Context, repository.ResolveParams) (*repository.ResolveResult, error) {
			resolveCalled = true
			return nil, nil
		},
	}
	svc := NewApprovalService(repo, NewNotificationService(acceptingNotificationRepo()), featureflags.NewManager(""), &publisherStub{})

	outcome, err := svc.Approve(context.Background(), "req-1", 9, "")
	require.NoError(t, err)
	assert.True(t, outcome.Idempotent)
	assert.False(t, resolveCalled, "nothing is written for an already-resolved request")
}

func TestResolve_LostRaceIsIdempotent(t *testing.T) {
	repo := &updateRequestRepoStub{
		getByIDFn: func(_ context.Context, id string) (*models.UpdateRequest, error) {
			return pendingRequest(), nil
		},
		resolveFn: func(context.Context, repository.ResolveParams) (*repository.ResolveResult, error) {
			req := pendingRequest()
			req.Status = models.UpdateRequestStatusRejected
			return &repository.ResolveResult{Request: req}, repository.ErrAlreadyResolved
		},
	}
	svc := NewApprovalService(repo, NewNotificationService(acceptingNotificationRepo()), featureflags.NewManager(""), &publisherStub{})

	outcome, err := svc.Approve(context.Background(), "req-1", 9, "")
	require.NoError(t, err)
	assert.True(t, outcome.Idempotent)
	assert.Equal(t, models.UpdateRequestStatusRejected, outcome.Request.Status)
}

func TestResolve_VersionConflictPropagates(t *testing.T) {
	repo := &updateRequestRepoStub{
		getByIDFn: func(_ context.Context, id string) (*models.UpdateRequest, error) {
			return pendingRequest(), nil
		},
		resolveFn: func(context.Context, repository.ResolveParams) (*repository.ResolveResult, error) {
			return nil, models.NewConflictError("Resident record was modified since it was read")
		},
	}
	svc := NewApprovalService(repo, NewNotificationService(acceptingNotificationRepo()), featureflags.NewManager(""), &publisherStub{})

	_, err := svc.Approve(context.Background(), "req-1", 9, "")
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeConflict, appErr.Code)
}

func TestResolve_RelaxedFlagSkipsVersionCheck(t *testing.T) {
	var params *repository.ResolveParams
	repo := resolvingRepo(t, &params)
	flags := featureflags.NewManager(featureflags.RelaxedVersionCheck + "=on")
	svc := NewApprovalService(repo, NewNotificationService(acceptingNotificationRepo()), flags, &publisherStub{})

	_, err := svc.Approve(context.Background(), "req-1", 9, "")
	require.NoError(t, err)
	assert.Equal(t, int64(-1), params.ExpectedVersion)
}

func TestResolve_PropagationFailuresBecomeWarnings(t *testing.T) {
	repo := resolvingRepo(t, nil)
	notificationRepo := &notificationRepoStub{
		createFn: func(context.Context, *models.Notification) error {
			return models.NewInternalError(assert.AnError)
		},
	}
	publisher := &publisherStub{
		publishFn: func(context.Context, syncbus.Event) error {
			return models.NewTransientNetworkError(errors.New("redis down"))
		},
	}
	svc := NewApprovalService(repo, NewNotificationService(notificationRepo), featureflags.NewManager(""), publisher)

	outcome, err := svc.Approve(context.Background(), "req-1", 9, "")
	require.NoError(t, err, "the committed resolution is never rolled back")
	assert.Equal(t, models.UpdateRequestStatusApproved, outcome.Request.Status)
	assert.Len(t, outcome.Warnings, 2)
}

func TestResolve_InFlightGuard(t *testing.T) {
	repo := resolvingRepo(t, nil)
	svc := NewApprovalService(repo, NewNotificationService(acceptingNotificationRepo()), featureflags.NewManager(""), &publisherStub{})

	require.True(t, svc.tryLock("req-1"))
	defer svc.unlock("req-1")

	_, err := svc.Approve(context.Background(), "req-1", 9, "")
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeConflict, appErr.Code)

	_, err = svc.Approve(context.Background(), "req-2", 9, "")
	assert.NoError(t, err, "other requests are unaffected")
}
