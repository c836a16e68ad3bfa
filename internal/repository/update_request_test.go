package repository

import (
	"context"
	"testing"

	"barangay/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResident(t *testing.T, firstName string) *models.Resident {
	t.Helper()
	resident := &models.Resident{
		FirstName:     firstName,
		LastName:      "Dela Cruz",
		ContactNumber: "0917000000",
		Version:       1,
	}
	require.NoError(t, testDB.Create(resident).Error)
	return resident
}

func newPendingRequest(residentID uint) *models.UpdateRequest {
	return &models.UpdateRequest{
		ID:               uuid.NewString(),
		ResidentID:       residentID,
		OriginalData:     models.JSONMap{"first_name": "Juan"},
		RequestedChanges: models.JSONMap{"first_name": "Juana"},
		Status:           models.UpdateRequestStatusPending,
		ResidentVersion:  1,
		RequestedBy:      1,
	}
}

func TestUpdateRequestRepository_SinglePendingInvariant(t *testing.T) {
	truncateTables(t)
	repo := NewUpdateRequestRepository(testDB)
	ctx := context.Background()

	resident := newTestResident(t, "Juan")

	first := newPendingRequest(resident.ID)
	require.NoError(t, repo.Create(ctx, first))

	second := newPendingRequest(resident.ID)
	err := repo.Create(ctx, second)
	require.Error(t, err)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeConflict, appErr.Code)

	// Exactly one pending request exists.
	var count int64
	testDB.Model(&models.UpdateRequest{}).
		Where("resident_id = ? AND status = ?", resident.ID, models.UpdateRequestStatusPending).
		Count(&count)
	assert.EqualValues(t, 1, count)

	// A different resident is unaffected.
	other := newTestResident(t, "Maria")
	require.NoError(t, repo.Create(ctx, newPendingRequest(other.ID)))
}

func TestUpdateRequestRepository_ResolvedRequestAllowsResubmission(t *testing.T) {
	truncateTables(t)
	repo := NewUpdateRequestRepository(testDB)
	ctx := context.Background()

	resident := newTestResident(t, "Juan")

	first := newPendingRequest(resident.ID)
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, testDB.Model(&models.UpdateRequest{}).
		Where("id = ?", first.ID).
		Update("status", models.UpdateRequestStatusRejected).Error)

	require.NoError(t, repo.Create(ctx, newPendingRequest(resident.ID)))
}

func TestUpdateRequestRepository_GetPendingByResident(t *testing.T) {
	truncateTables(t)
	repo := NewUpdateRequestRepository(testDB)
	ctx := context.Background()

	resident := newTestResident(t, "Juan")

	got, err := repo.GetPendingByResident(ctx, resident.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	created := newPendingRequest(resident.ID)
	require.NoError(t, repo.Create(ctx, created))

	got, err = repo.GetPendingByResident(ctx, resident.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Juana", got.RequestedChanges["first_name"])
}

func TestUpdateRequestRepository_GetByIDNotFound(t *testing.T) {
	truncateTables(t)
	repo := NewUpdateRequestRepository(testDB)

	_, err := repo.GetByID(context.Background(), uuid.NewString())
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}
