package models

import "time"

// Household groups residents under one household number.
type Household struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	HouseholdNumber string     `gorm:"size:50;uniqueIndex;not null" json:"household_number"`
	HeadResidentID  *uint      `json:"head_resident_id,omitempty"`
	Purok           string     `gorm:"size:60" json:"purok"`
	Status          string     `gorm:"size:20;default:'active'" json:"status"`
	Residents       []Resident `gorm:"foreignKey:HouseholdID" json:"residents,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Household) TableName() string {
	return "households"
}
