package repository

import (
	"context"
	"testing"

	"barangay/internal/cache"
	"barangay/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestResidentRepository_UpdateBumpsVersion(t *testing.T) {
	truncateTables(t)
	repo := NewResidentRepository(testDB)
	ctx := context.Background()

	resident := newTestResident(t, "Juan")
	require.EqualValues(t, 1, resident.Version)

	resident.FirstName = "Juana"
	require.NoError(t, repo.Update(ctx, resident, 1))
	assert.EqualValues(t, 2, resident.Version)

	got, err := repo.GetByID(ctx, resident.ID)
	require.NoError(t, err)
	assert.Equal(t, "Juana", got.FirstName)
	assert.EqualValues(t, 2, got.Version)
}

func TestResidentRepository_UpdateStaleVersionConflicts(t *testing.T) {
	truncateTables(t)
	repo := NewResidentRepository(testDB)
	ctx := context.Background()

	resident := newTestResident(t, "Juan")

	resident.FirstName = "Juana"
	require.NoError(t, repo.Update(ctx, resident, 1))

	stale := *resident
	stale.Version = 1 // pretend we still hold the old read
	stale.FirstName = "Juanito"
	err := repo.Update(ctx, &stale, 1)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeConflict, appErr.Code)

	got, err := repo.GetByID(ctx, resident.ID)
	require.NoError(t, err)
	assert.Equal(t, "Juana", got.FirstName, "stale write must not land")
}

func TestResidentRepository_UpdateMissingResident(t *testing.T) {
	truncateTables(t)
	repo := NewResidentRepository(testDB)

	ghost := &models.Resident{ID: 9999, FirstName: "Nobody", LastName: "Here", Version: 1}
	err := repo.Update(context.Background(), ghost, 1)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}

func TestResidentRepository_UpdateInvalidatesCacheAfterCommit(t *testing.T) {
	truncateTables(t)
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	repo := NewResidentRepository(testDB)
	ctx := context.Background()

	resident := newTestResident(t, "Juan")
	_, err := repo.GetByID(ctx, resident.ID)
	require.NoError(t, err)
	key := cache.ResidentKey(resident.ID)
	require.True(t, mr.Exists(key), "read should prime the cache")

	// The transaction-scoped helper must leave the cache alone; a reader
	// racing an uncommitted transaction would otherwise re-cache the old row.
	err = testDB.Transaction(func(tx *gorm.DB) error {
		resident.FirstName = "Juana"
		if err := updateResident(tx, resident, 1); err != nil {
			return err
		}
		assert.True(t, mr.Exists(key), "cache untouched while the transaction is open")
		return nil
	})
	require.NoError(t, err)

	resident.Occupation = "Teacher"
	require.NoError(t, repo.Update(ctx, resident, resident.Version))
	assert.False(t, mr.Exists(key), "committed update drops the cached row")
}

func TestResidentRepository_List(t *testing.T) {
	truncateTables(t)
	repo := NewResidentRepository(testDB)
	ctx := context.Background()

	newTestResident(t, "Juan")
	newTestResident(t, "Maria")

	residents, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, residents, 2)
}
