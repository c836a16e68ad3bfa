package models

import "time"

// Address is the structured address block of a resident record. It is stored
// as embedded columns so partial updates can target individual sub-fields.
type Address struct {
	HouseNumber string `gorm:"size:20" json:"house_number"`
	Street      string `gorm:"size:120" json:"street"`
	Purok       string `gorm:"size:60" json:"purok"`
	Barangay    string `gorm:"size:60" json:"barangay"`
	City        string `gorm:"size:60" json:"city"`
	Province    string `gorm:"size:60" json:"province"`
	ZipCode     string `gorm:"size:10" json:"zip_code"`
}

// IsBlank reports whether every sub-field is empty. A blank address in a
// requested change set is dropped rather than applied, so it can never wipe
// an existing address.
func (a Address) IsBlank() bool {
	return a.HouseNumber == "" && a.Street == "" && a.Purok == "" &&
		a.Barangay == "" && a.City == "" && a.Province == "" && a.ZipCode == ""
}

// Resident is the authoritative record of one registered resident. Only the
// approval processor may mutate it as part of the update-request workflow.
//
// Version increases by one on every write. An update request records the
// version it was submitted against; approval fails with a conflict when the
// record has moved on since.
type Resident struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	FirstName     string     `gorm:"size:80;not null" json:"first_name"`
	MiddleName    string     `gorm:"size:80" json:"middle_name"`
	LastName      string     `gorm:"size:80;not null" json:"last_name"`
	Suffix        string     `gorm:"size:10" json:"suffix"`
	BirthDate     *time.Time `json:"birth_date,omitempty"`
	Gender        string     `gorm:"size:20" json:"gender"`
	CivilStatus   string     `gorm:"size:20" json:"civil_status"`
	Occupation    string     `gorm:"size:120" json:"occupation"`
	ContactNumber string     `gorm:"size:20" json:"contact_number"`
	Email         string     `gorm:"size:120" json:"email"`
	Address       Address    `gorm:"embedded;embeddedPrefix:address_" json:"address"`
	HouseholdID   *uint      `gorm:"index" json:"household_id,omitempty"`
	Household     *Household `gorm:"foreignKey:HouseholdID" json:"household,omitempty"`
	Version       int64      `gorm:"not null;default:1" json:"version"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Resident) TableName() string {
	return "residents"
}
