package repository

import (
	"context"
	"time"

	"barangay/internal/models"

	"gorm.io/gorm"
)

// UpdateRequestRepository defines persistence operations for update requests.
type UpdateRequestRepository interface {
	// Create inserts the request, enforcing the single-pending invariant:
	// the insert and the pending-count check run in one transaction, so a
	// second pending request for the same resident fails with a conflict.
	Create(ctx context.Context, request *models.UpdateRequest) error
	GetByID(ctx context.Context, id string) (*models.UpdateRequest, error)
	GetPendingByResident(ctx context.Context, residentID uint) (*models.UpdateRequest, error)
	ListByResident(ctx context.Context, residentID uint, limit, offset int) ([]models.UpdateRequest, error)
	List(ctx context.Context, status models.UpdateRequestStatus, limit, offset int) ([]models.UpdateRequest, error)
	// Resolve transitions a pending request to a terminal status and, for
	// approvals, applies the change to the resident record in the same
	// transaction. See ResolveParams.
	Resolve(ctx context.Context, p ResolveParams) (*ResolveResult, error)
}

type updateRequestRepository struct {
	db *gorm.DB
}

// NewUpdateRequestRepository returns a new UpdateRequestRepository implementation.
func NewUpdateRequestRepository(db *gorm.DB) UpdateRequestRepository {
	return &updateRequestRepository{db: db}
}

func (r *updateRequestRepository) Create(ctx context.Context, request *models.UpdateRequest) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pending int64
		if err := tx.Model(&models.UpdateRequest{}).
			Where("resident_id = ? AND status = ?", request.ResidentID, models.UpdateRequestStatusPending).
			Count(&pending).Error; err != nil {
			return models.NewInternalError(err)
		}
		if pending > 0 {
			return models.NewConflictError("Resident already has a pending update request")
		}

		if request.RequestedAt.IsZero() {
			request.RequestedAt = time.Now()
		}
		if err := tx.Create(request).Error; err != nil {
			if isUniqueConstraintError(err) {
				return models.NewConflictError("Resident already has a pending update request")
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	return err
}

func (r *updateRequestRepository) GetByID(ctx context.Context, id string) (*models.UpdateRequest, error) {
	var request models.UpdateRequest
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&request).Error; err != nil {
		return nil, translateNotFound(err, "Update request", id)
	}
	return &request, nil
}

func (r *updateRequestRepository) GetPendingByResident(ctx context.Context, residentID uint) (*models.UpdateRequest, error) {
	var request models.UpdateRequest
	err := r.db.WithContext(ctx).
		Where("resident_id = ? AND status = ?", residentID, models.UpdateRequestStatusPending).
		First(&request).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &request, nil
}

func (r *updateRequestRepository) ListByResident(ctx context.Context, residentID uint, limit, offset int) ([]models.UpdateRequest, error) {
	var requests []models.UpdateRequest
	if err := r.db.WithContext(ctx).
		Where("resident_id = ?", residentID).
		Order("requested_at DESC").
		Limit(limit).Offset(offset).
		Find(&requests).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return requests, nil
}

func (r *updateRequestRepository) List(ctx context.Context, status models.UpdateRequestStatus, limit, offset int) ([]models.UpdateRequest, error) {
	var requests []models.UpdateRequest
	q := r.db.WithContext(ctx).Order("requested_at ASC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Limit(limit).Offset(offset).Find(&requests).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return requests, nil
}
