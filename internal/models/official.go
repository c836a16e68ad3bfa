package models

import "time"

// Official is a barangay official shown in the public directory. Officials
// with linked accounts appear as reviewers on resolved update requests.
type Official struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Position   string     `gorm:"size:80;not null" json:"position"`
	ResidentID *uint      `gorm:"index" json:"resident_id,omitempty"`
	Resident   *Resident  `gorm:"foreignKey:ResidentID" json:"resident,omitempty"`
	UserID     *uint      `gorm:"index" json:"user_id,omitempty"`
	TermStart  *time.Time `json:"term_start,omitempty"`
	TermEnd    *time.Time `json:"term_end,omitempty"`
	Active     bool       `gorm:"default:true;index" json:"active"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Official) TableName() string {
	return "officials"
}
