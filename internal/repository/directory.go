package repository

import (
	"context"

	"barangay/internal/models"

	"gorm.io/gorm"
)

// DirectoryRepository serves the read-mostly household and official listings.
type DirectoryRepository interface {
	ListHouseholds(ctx context.Context, limit, offset int) ([]models.Household, error)
	GetHousehold(ctx context.Context, id uint) (*models.Household, error)
	ListOfficials(ctx context.Context, activeOnly bool) ([]models.Official, error)
}

type directoryRepository struct {
	db *gorm.DB
}

// NewDirectoryRepository returns a new DirectoryRepository implementation.
func NewDirectoryRepository(db *gorm.DB) DirectoryRepository {
	return &directoryRepository{db: db}
}

func (r *directoryRepository) ListHouseholds(ctx context.Context, limit, offset int) ([]models.Household, error) {
	var households []models.Household
	if err := r.db.WithContext(ctx).
		Order("household_number ASC").
		Limit(limit).Offset(offset).
		Find(&households).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return households, nil
}

func (r *directoryRepository) GetHousehold(ctx context.Context, id uint) (*models.Household, error) {
	var household models.Household
	if err := r.db.WithContext(ctx).
		Preload("Residents").
		First(&household, id).Error; err != nil {
		return nil, translateNotFound(err, "Household", id)
	}
	return &household, nil
}

func (r *directoryRepository) ListOfficials(ctx context.Context, activeOnly bool) ([]models.Official, error) {
	var officials []models.Official
	q := r.db.WithContext(ctx).Preload("Resident").Order("position ASC")
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	if err := q.Find(&officials).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return officials, nil
}
