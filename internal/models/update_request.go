package models

import "time"

// UpdateRequestStatus defines lifecycle states for resident update requests.
// Transitions are forward-only: pending may become approved or rejected, both
// of which are terminal.
type UpdateRequestStatus string

const (
	// UpdateRequestStatusPending indicates the request is awaiting review.
	UpdateRequestStatusPending UpdateRequestStatus = "pending"
	// UpdateRequestStatusApproved indicates the change was applied.
	UpdateRequestStatusApproved UpdateRequestStatus = "approved"
	// UpdateRequestStatusRejected indicates the change was declined.
	UpdateRequestStatusRejected UpdateRequestStatus = "rejected"
)

// Terminal reports whether no further transition is allowed from s.
func (s UpdateRequestStatus) Terminal() bool {
	return s == UpdateRequestStatusApproved || s == UpdateRequestStatusRejected
}

// UpdateRequest is a resident-submitted, admin-reviewable proposed change to
// a resident record. A resident may hold at most one pending request at a
// time; the repository enforces this inside the submit transaction.
//
// OriginalData is an immutable snapshot of the resident's fields at
// submission time. ResidentVersion is the resident record version that
// snapshot was taken from.
type UpdateRequest struct {
	ID               string              `gorm:"type:varchar(36);primaryKey" json:"id"`
	ResidentID       uint                `gorm:"not null;index:idx_update_requests_resident" json:"resident_id"`
	Resident         *Resident           `gorm:"foreignKey:ResidentID" json:"resident,omitempty"`
	OriginalData     JSONMap             `json:"original_data"`
	RequestedChanges JSONMap             `json:"requested_changes"`
	Status           UpdateRequestStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ResidentVersion  int64               `gorm:"not null" json:"resident_version"`
	UploadedFiles    StringSlice         `json:"uploaded_files,omitempty"`
	RequestedBy      uint                `gorm:"not null" json:"requested_by"`
	RequestedAt      time.Time           `gorm:"not null" json:"requested_at"`
	ReviewedBy       *uint               `json:"reviewed_by,omitempty"`
	ReviewedAt       *time.Time          `json:"reviewed_at,omitempty"`
	ReviewNotes      string              `gorm:"type:text" json:"review_notes,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (UpdateRequest) TableName() string {
	return "update_requests"
}
