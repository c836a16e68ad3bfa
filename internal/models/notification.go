package models

import "time"

// NotificationType tags the notification variant. Types outside the
// update-request workflow (document and ID requests) are stored and routed
// but otherwise opaque to this service.
type NotificationType string

const (
	// NotificationTypeUpdateRequest carries a full UpdateRequest snapshot to
	// the admin review queue.
	NotificationTypeUpdateRequest NotificationType = "info_update_request"
	// NotificationTypeUpdateApproved informs the resident their change was applied.
	NotificationTypeUpdateApproved NotificationType = "info_update_approved"
	// NotificationTypeUpdateRejected informs the resident their change was declined.
	NotificationTypeUpdateRejected NotificationType = "info_update_rejected"
)

// NotificationStatus tracks resolution of the underlying request. It is
// correlated with, but independent of, the read marker: a resident can read
// an approval notice that is already completed.
type NotificationStatus string

const (
	NotificationStatusPending   NotificationStatus = "pending"
	NotificationStatusApproved  NotificationStatus = "approved"
	NotificationStatusRejected  NotificationStatus = "rejected"
	NotificationStatusCompleted NotificationStatus = "completed"
)

// Notification is a role-addressed message record. For
// NotificationTypeUpdateRequest the Data payload embeds a value copy of the
// UpdateRequest; the copy is owned by the notification and is updated through
// the same resolve transaction that flips the request's status.
type Notification struct {
	ID           uint               `gorm:"primaryKey" json:"id"`
	Type         NotificationType   `gorm:"type:varchar(40);not null;index" json:"type"`
	Title        string             `gorm:"size:160;not null" json:"title"`
	Message      string             `gorm:"type:text" json:"message"`
	TargetRole   Role               `gorm:"type:varchar(20);not null;index:idx_notifications_target" json:"target_role"`
	TargetUserID *uint              `gorm:"index:idx_notifications_target" json:"target_user_id,omitempty"`
	SenderUserID *uint              `json:"sender_user_id,omitempty"`
	ResidentID   *uint              `gorm:"index" json:"resident_id,omitempty"`
	RequestID    string             `gorm:"type:varchar(36);index" json:"request_id,omitempty"`
	Priority     string             `gorm:"size:20;default:'normal'" json:"priority"`
	Status       NotificationStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Data         JSONMap            `json:"data,omitempty"`
	Read         bool               `gorm:"not null;default:false;index" json:"read"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Notification) TableName() string {
	return "notifications"
}

// NotificationList is one page of notifications together with the unread
// count computed in the same query scope. The two are always produced and
// consumed together so a badge count can never disagree with the list it
// accompanies.
type NotificationList struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int64          `json:"unread_count"`
	Total         int64          `json:"total"`
	HasMore       bool           `json:"has_more"`
}
