package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"barangay/internal/cache"
	"barangay/internal/models"

	"gorm.io/gorm"
)

// ErrAlreadyResolved reports that the request reached a terminal status
// before this resolution ran. Callers treat it as idempotent success.
var ErrAlreadyResolved = errors.New("update request already resolved")

// ResolveParams describes one resolution of a pending update request.
type ResolveParams struct {
	RequestID   string
	NewStatus   models.UpdateRequestStatus
	ReviewerID  uint
	ReviewNotes string

	// Apply merges the request's changes into the current resident record
	// and returns the record to persist. nil for rejections.
	Apply func(current *models.Resident) (*models.Resident, error)

	// ExpectedVersion is the resident version the change set was built
	// against. Negative skips the check.
	ExpectedVersion int64
}

// ResolveResult carries the rows as they stand after the transaction.
type ResolveResult struct {
	Request  *models.UpdateRequest
	Resident *models.Resident
}

// Resolve flips the request to a terminal status, applies the change to the
// resident (for approvals) and patches the embedded admin notification, all
// in one transaction. Either every row changes or none does.
//
// On ErrAlreadyResolved the returned result holds the request as previously
// resolved and nothing was written.
func (r *updateRequestRepository) Resolve(ctx context.Context, p ResolveParams) (*ResolveResult, error) {
	if !p.NewStatus.Terminal() {
		return nil, models.NewValidationError("Resolution status must be approved or rejected")
	}

	result := &ResolveResult{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req models.UpdateRequest
		if err := tx.Where("id = ?", p.RequestID).First(&req).Error; err != nil {
			return translateNotFound(err, "Update request", p.RequestID)
		}
		if req.Status.Terminal() {
			result.Request = &req
			return ErrAlreadyResolved
		}

		if p.NewStatus == models.UpdateRequestStatusApproved {
			var current models.Resident
			if err := tx.First(&current, req.ResidentID).Error; err != nil {
				return translateNotFound(err, "Resident", req.ResidentID)
			}
			merged, err := p.Apply(&current)
			if err != nil {
				return err
			}
			if err := updateResident(tx, merged, p.ExpectedVersion); err != nil {
				return err
			}
			result.Resident = merged
		}

		now := time.Now()
		req.Status = p.NewStatus
		req.ReviewedBy = &p.ReviewerID
		req.ReviewedAt = &now
		req.ReviewNotes = p.ReviewNotes
		res := tx.Model(&models.UpdateRequest{}).
			Where("id = ? AND status = ?", p.RequestID, models.UpdateRequestStatusPending).
			Updates(map[string]interface{}{
				"status":       req.Status,
				"reviewed_by":  req.ReviewedBy,
				"reviewed_at":  req.ReviewedAt,
				"review_notes": req.ReviewNotes,
			})
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			// Another reviewer won between our read and write.
			return models.NewConflictError("Update request was resolved concurrently")
		}

		if err := patchEmbeddedNotification(tx, &req); err != nil {
			return err
		}
		result.Request = &req
		return nil
	})
	if err != nil && !errors.Is(err, ErrAlreadyResolved) {
		return nil, err
	}
	if result.Resident != nil {
		// Only after commit, so a concurrent read cannot re-cache the
		// pre-transaction row.
		cache.InvalidateResident(ctx, result.Resident.ID)
	}
	return result, err
}

// patchEmbeddedNotification flips the admin review notification for req and
// refreshes the request copy embedded in its payload. A missing notification
// is tolerated: the request row remains the source of truth.
func patchEmbeddedNotification(tx *gorm.DB, req *models.UpdateRequest) error {
	var notif models.Notification
	err := tx.Where("request_id = ? AND type = ?", req.ID, models.NotificationTypeUpdateRequest).
		First(&notif).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return models.NewInternalError(err)
	}

	data, err := notif.Data.Clone()
	if err != nil || data == nil {
		data = models.JSONMap{}
	}
	if snapshot, err := requestAsMap(req); err == nil {
		data["request"] = snapshot
	}

	res := tx.Model(&models.Notification{}).Where("id = ?", notif.ID).
		Updates(map[string]interface{}{
			"status": models.NotificationStatus(req.Status),
			"data":   data,
		})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	return nil
}

func requestAsMap(req *models.UpdateRequest) (map[string]interface{}, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
