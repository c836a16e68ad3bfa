package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barangay/internal/models"
	"barangay/internal/repository"
)

func TestCreateUpdateRequestNotification(t *testing.T) {
	var created *models.Notification
	repo := &notificationRepoStub{
		createFn: func(_ context.Context, n *models.Notification) error {
			created = n
			return nil
		},
	}
	svc := NewNotificationService(repo)

	request := pendingRequest()
	resident := &models.Resident{ID: 4, FirstName: "Juan", MiddleName: "", LastName: "Dela Cruz"}
	_, err := svc.CreateUpdateRequestNotification(context.Background(), request, resident)
	require.NoError(t, err)

	require.NotNil(t, created)
	assert.Equal(t, models.NotificationTypeUpdateRequest, created.Type)
	assert.Equal(t, models.RoleAdmin, created.TargetRole)
	assert.Nil(t, created.TargetUserID, "review queue notifications address the role, not one admin")
	assert.Equal(t, models.NotificationStatusPending, created.Status)
	assert.Equal(t, request.ID, created.RequestID)
	assert.Contains(t, created.Message, "Juan Dela Cruz")

	embedded, ok := created.Data["request"].(map[string]interface{})
	require.True(t, ok, "payload embeds the full request snapshot")
	assert.Equal(t, request.ID, embedded["id"])
}

func TestCreateOutcomeNotification(t *testing.T) {
	tests := []struct {
		name       string
		status     models.UpdateRequestStatus
		notes      string
		wantType   models.NotificationType
		wantStatus models.NotificationStatus
		wantInMsg  string
	}{
		{
			name:       "approved",
			status:     models.UpdateRequestStatusApproved,
			wantType:   models.NotificationTypeUpdateApproved,
			wantStatus: models.NotificationStatusApproved,
			wantInMsg:  "approved",
		},
		{
			name:       "rejected with notes",
			status:     models.UpdateRequestStatusRejected,
			notes:      "ID photo is blurry",
			wantType:   models.NotificationTypeUpdateRejected,
			wantStatus: models.NotificationStatusRejected,
			wantInMsg:  "ID photo is blurry",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var created *models.Notification
			repo := &notificationRepoStub{
				createFn: func(_ context.Context, n *models.Notification) error {
					created = n
					return nil
				},
			}
			svc := NewNotificationService(repo)

			request := pendingRequest()
			request.Status = tt.status
			request.ReviewNotes = tt.notes
			_, err := svc.CreateOutcomeNotification(context.Background(), request, 9)
			require.NoError(t, err)

			require.NotNil(t, created)
			assert.Equal(t, tt.wantType, created.Type)
			assert.Equal(t, tt.wantStatus, created.Status)
			assert.Equal(t, models.RoleResident, created.TargetRole)
			require.NotNil(t, created.TargetUserID)
			assert.Equal(t, request.RequestedBy, *created.TargetUserID)
			assert.Contains(t, created.Message, tt.wantInMsg)
		})
	}
}

func TestCreateOutcomeNotification_PendingRejected(t *testing.T) {
	svc := NewNotificationService(acceptingNotificationRepo())

	_, err := svc.CreateOutcomeNotification(context.Background(), pendingRequest(), 9)
	require.Error(t, err)
}

func TestListForUser_ScopesByRole(t *testing.T) {
	var captured repository.NotificationFilter
	repo := &notificationRepoStub{
		listFn: func(_ context.Context, filter repository.NotificationFilter) (*models.NotificationList, error) {
			captured = filter
			return &models.NotificationList{}, nil
		},
	}
	svc := NewNotificationService(repo)

	admin := &models.User{ID: 1, Role: models.RoleAdmin}
	_, err := svc.ListForUser(context.Background(), admin, true, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, captured.TargetRole)
	assert.Nil(t, captured.TargetUserID, "admins share one queue")
	assert.True(t, captured.UnreadOnly)

	resident := &models.User{ID: 77, Role: models.RoleResident}
	_, err = svc.ListForUser(context.Background(), resident, false, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, models.RoleResident, captured.TargetRole)
	require.NotNil(t, captured.TargetUserID)
	assert.Equal(t, uint(77), *captured.TargetUserID)
}

func TestMarkRead_AuthScope(t *testing.T) {
	other := uint(99)
	repo := &notificationRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.Notification, error) {
			return &models.Notification{ID: id, TargetRole: models.RoleResident, TargetUserID: &other}, nil
		},
		markReadFn: func(context.Context, uint) error { return nil },
	}
	svc := NewNotificationService(repo)

	resident := &models.User{ID: 77, Role: models.RoleResident}
	err := svc.MarkRead(context.Background(), resident, 5)
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeUnauthorized, appErr.Code)

	admin := &models.User{ID: 1, Role: models.RoleAdmin}
	assert.NoError(t, svc.MarkRead(context.Background(), admin, 5))
}

func TestPatchStatus_AdminOnly(t *testing.T) {
	repo := &notificationRepoStub{
		patchStatusFn: func(_ context.Context, id uint, status models.NotificationStatus) (*models.Notification, error) {
			return &models.Notification{ID: id, Status: status}, nil
		},
	}
	svc := NewNotificationService(repo)

	resident := &models.User{ID: 77, Role: models.RoleResident}
	_, err := svc.PatchStatus(context.Background(), resident, 5, models.NotificationStatusCompleted)
	require.Error(t, err)

	admin := &models.User{ID: 1, Role: models.RoleAdmin}
	_, err = svc.PatchStatus(context.Background(), admin, 5, "archived")
	require.Error(t, err, "unknown status")

	patched, err := svc.PatchStatus(context.Background(), admin, 5, models.NotificationStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationStatusCompleted, patched.Status)
}
