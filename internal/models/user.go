package models

import "time"

// Role is the coarse authorization role of an account.
type Role string

const (
	// RoleAdmin marks barangay staff accounts that review update requests.
	RoleAdmin Role = "admin"
	// RoleResident marks resident self-service accounts.
	RoleResident Role = "resident"
)

// User is an authenticated account. Resident accounts link to the resident
// record they are allowed to submit changes for.
type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Username   string    `gorm:"size:60;uniqueIndex;not null" json:"username"`
	Email      string    `gorm:"size:120;uniqueIndex;not null" json:"email"`
	Password   string    `gorm:"size:100;not null" json:"-"`
	Role       Role      `gorm:"type:varchar(20);not null;default:'resident';index" json:"role"`
	ResidentID *uint     `gorm:"index" json:"resident_id,omitempty"`
	Resident   *Resident `gorm:"foreignKey:ResidentID" json:"resident,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the account may review update requests.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
