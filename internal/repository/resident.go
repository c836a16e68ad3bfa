package repository

import (
	"context"

	"barangay/internal/cache"
	"barangay/internal/models"

	"gorm.io/gorm"
)

// ResidentRepository defines persistence operations for resident records.
type ResidentRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Resident, error)
	Create(ctx context.Context, resident *models.Resident) error
	// Update persists the full record and bumps its version. The caller's
	// expectedVersion must match the stored row or the update fails with a
	// conflict; pass a negative expectedVersion to skip the check.
	Update(ctx context.Context, resident *models.Resident, expectedVersion int64) error
	List(ctx context.Context, limit, offset int) ([]models.Resident, error)
}

type residentRepository struct {
	db *gorm.DB
}

// NewResidentRepository returns a new ResidentRepository implementation.
func NewResidentRepository(db *gorm.DB) ResidentRepository {
	return &residentRepository{db: db}
}

func (r *residentRepository) GetByID(ctx context.Context, id uint) (*models.Resident, error) {
	var resident models.Resident
	key := cache.ResidentKey(id)

	err := cache.Aside(ctx, key, &resident, cache.ResidentTTL, func() error {
		if err := r.db.WithContext(ctx).First(&resident, id).Error; err != nil {
			return translateNotFound(err, "Resident", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resident, nil
}

func (r *residentRepository) Create(ctx context.Context, resident *models.Resident) error {
	if resident.Version == 0 {
		resident.Version = 1
	}
	if err := r.db.WithContext(ctx).Create(resident).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("Resident already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *residentRepository) Update(ctx context.Context, resident *models.Resident, expectedVersion int64) error {
	if err := updateResident(r.db.WithContext(ctx), resident, expectedVersion); err != nil {
		return err
	}
	cache.InvalidateResident(ctx, resident.ID)
	return nil
}

// updateResident is shared with the resolve transaction, which runs it
// against a transaction handle instead of the root DB. It does not touch
// the cache: callers invalidate after their transaction commits, so a
// concurrent read cannot re-cache a row the transaction later rolls back.
func updateResident(tx *gorm.DB, resident *models.Resident, expectedVersion int64) error {
	resident.Version++

	q := tx.Model(&models.Resident{}).Where("id = ?", resident.ID)
	if expectedVersion >= 0 {
		q = q.Where("version = ?", expectedVersion)
	}

	res := q.Select("*").Omit("id", "created_at").Updates(resident)
	if res.Error != nil {
		resident.Version--
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		resident.Version--
		// Either the record is gone or the version moved on; distinguish.
		var count int64
		if err := tx.Model(&models.Resident{}).Where("id = ?", resident.ID).Count(&count).Error; err != nil {
			return models.NewInternalError(err)
		}
		if count == 0 {
			return models.NewNotFoundError("Resident", resident.ID)
		}
		return models.NewConflictError("Resident record was modified since it was read")
	}
	return nil
}

func (r *residentRepository) List(ctx context.Context, limit, offset int) ([]models.Resident, error) {
	var residents []models.Resident
	if err := r.db.WithContext(ctx).
		Order("last_name ASC, first_name ASC").
		Limit(limit).Offset(offset).
		Find(&residents).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return residents, nil
}
