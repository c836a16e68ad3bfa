package repository

import (
	"context"
	"errors"

	"barangay/internal/models"

	"gorm.io/gorm"
)

// NotificationFilter is the one query shape notification reads need:
// role-scoped, optionally narrowed to a user or resident, paged.
type NotificationFilter struct {
	TargetRole   models.Role
	TargetUserID *uint
	ResidentID   *uint
	UnreadOnly   bool
	Limit        int
	Offset       int
}

// NotificationRepository defines persistence operations for notifications.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	GetByID(ctx context.Context, id uint) (*models.Notification, error)
	GetByRequestID(ctx context.Context, requestID string, notificationType models.NotificationType) (*models.Notification, error)
	// List returns one page plus the unread count and total for the same
	// filter, all computed inside a single transaction so they can never
	// disagree with each other.
	List(ctx context.Context, filter NotificationFilter) (*models.NotificationList, error)
	MarkRead(ctx context.Context, id uint) error
	MarkAllRead(ctx context.Context, filter NotificationFilter) error
	// PatchStatus transitions a notification's status. Reapplying the
	// current status is a no-op, not an error.
	PatchStatus(ctx context.Context, id uint, status models.NotificationStatus) (*models.Notification, error)
	Delete(ctx context.Context, id uint) error
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository returns a new NotificationRepository implementation.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	if err := r.db.WithContext(ctx).Create(notification).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *notificationRepository) GetByID(ctx context.Context, id uint) (*models.Notification, error) {
	var notification models.Notification
	if err := r.db.WithContext(ctx).First(&notification, id).Error; err != nil {
		return nil, translateNotFound(err, "Notification", id)
	}
	return &notification, nil
}

func (r *notificationRepository) GetByRequestID(ctx context.Context, requestID string, notificationType models.NotificationType) (*models.Notification, error) {
	var notification models.Notification
	err := r.db.WithContext(ctx).
		Where("request_id = ? AND type = ?", requestID, notificationType).
		First(&notification).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &notification, nil
}

func scopedQuery(tx *gorm.DB, filter NotificationFilter) *gorm.DB {
	q := tx.Model(&models.Notification{}).Where("target_role = ?", filter.TargetRole)
	if filter.TargetUserID != nil {
		q = q.Where("target_user_id = ?", *filter.TargetUserID)
	}
	if filter.ResidentID != nil {
		q = q.Where("resident_id = ?", *filter.ResidentID)
	}
	return q
}

func (r *notificationRepository) List(ctx context.Context, filter NotificationFilter) (*models.NotificationList, error) {
	out := &models.NotificationList{Notifications: []models.Notification{}}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		countQ := scopedQuery(tx, filter)
		if filter.UnreadOnly {
			countQ = countQ.Where("read = ?", false)
		}
		if err := countQ.Count(&out.Total).Error; err != nil {
			return err
		}

		listQ := scopedQuery(tx, filter)
		if filter.UnreadOnly {
			listQ = listQ.Where("read = ?", false)
		}
		if err := listQ.
			Order("created_at DESC").
			Limit(filter.Limit).Offset(filter.Offset).
			Find(&out.Notifications).Error; err != nil {
			return err
		}

		// The badge count always covers the whole scope, not just this page.
		return scopedQuery(tx, filter).Where("read = ?", false).Count(&out.UnreadCount).Error
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	out.HasMore = int64(filter.Offset+len(out.Notifications)) < out.Total
	return out, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ?", id).
		Update("read", true)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Notification", id)
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, filter NotificationFilter) error {
	if err := scopedQuery(r.db.WithContext(ctx), filter).
		Where("read = ?", false).
		Update("read", true).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *notificationRepository) PatchStatus(ctx context.Context, id uint, status models.NotificationStatus) (*models.Notification, error) {
	notification, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if notification.Status == status {
		return notification, nil
	}

	if err := r.db.WithContext(ctx).
		Model(notification).
		Update("status", status).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	notification.Status = status
	return notification, nil
}

func (r *notificationRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Notification{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Notification", id)
	}
	return nil
}
