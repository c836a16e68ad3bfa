// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"barangay/internal/models"
)

// Options control how much demo data is generated.
type Options struct {
	Households        int
	ResidentsPerHouse int
	ResidentAccounts  int
	PendingRequests   int
	AdminUsername     string
	AdminEmail        string
	AdminPassword     string
}

// DefaultOptions returns a small but representative data set.
func DefaultOptions() Options {
	return Options{
		Households:        12,
		ResidentsPerHouse: 4,
		ResidentAccounts:  10,
		PendingRequests:   3,
		AdminUsername:     "kapitan",
		AdminEmail:        "kapitan@barangay.local",
		AdminPassword:     "kapitan-dev-password",
	}
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db        *gorm.DB
	rand      *rand.Rand
	nextHouse int
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) *Factory {
	seed := time.Now().UnixNano()
	gofakeit.Seed(seed)
	return &Factory{db: db, rand: rand.New(rand.NewSource(seed))}
}

var puroks = []string{"Purok 1", "Purok 2", "Purok 3", "Purok 4", "Purok 5", "Purok 6", "Purok 7"}

var occupations = []string{
	"Farmer", "Fisher", "Teacher", "Driver", "Vendor", "Carpenter",
	"Nurse", "Barangay Tanod", "Store Owner", "Electrician",
}

var civilStatuses = []string{"single", "married", "widowed", "separated"}

// CreateHousehold persists a household on a random purok. Household numbers
// are sequential, the column carries a unique index.
func (f *Factory) CreateHousehold() (*models.Household, error) {
	f.nextHouse++
	household := &models.Household{
		HouseholdNumber: fmt.Sprintf("HH-%04d", f.nextHouse),
		Purok:           puroks[f.rand.Intn(len(puroks))],
		Status:          "active",
	}
	if err := f.db.Create(household).Error; err != nil {
		return nil, err
	}
	return household, nil
}

// CreateResident persists a resident attached to household.
func (f *Factory) CreateResident(household *models.Household) (*models.Resident, error) {
	birth := gofakeit.DateRange(
		time.Now().AddDate(-80, 0, 0),
		time.Now().AddDate(-18, 0, 0),
	)
	resident := &models.Resident{
		FirstName:     gofakeit.FirstName(),
		MiddleName:    gofakeit.LastName(),
		LastName:      gofakeit.LastName(),
		BirthDate:     &birth,
		Gender:        gofakeit.RandomString([]string{"male", "female"}),
		CivilStatus:   civilStatuses[f.rand.Intn(len(civilStatuses))],
		Occupation:    occupations[f.rand.Intn(len(occupations))],
		ContactNumber: gofakeit.Numerify("09#########"),
		Email:         gofakeit.Email(),
		Address: models.Address{
			HouseNumber: fmt.Sprintf("%d", f.rand.Intn(300)+1),
			Street:      gofakeit.StreetName(),
			Purok:       household.Purok,
			Barangay:    "San Isidro",
			City:        "Quezon City",
			Province:    "Metro Manila",
			ZipCode:     "1100",
		},
		HouseholdID: &household.ID,
		Version:     1,
	}
	if err := f.db.Create(resident).Error; err != nil {
		return nil, err
	}
	return resident, nil
}

// CreateResidentAccount persists a self-service account for resident.
func (f *Factory) CreateResidentAccount(resident *models.Resident) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte("resident-dev-password"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username:   fmt.Sprintf("%s%d", gofakeit.Username(), resident.ID),
		Email:      fmt.Sprintf("resident%d@barangay.local", resident.ID),
		Password:   string(hash),
		Role:       models.RoleResident,
		ResidentID: &resident.ID,
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateAdmin persists the demo admin account.
func (f *Factory) CreateAdmin(username, email, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	admin := &models.User{
		Username: username,
		Email:    email,
		Password: string(hash),
		Role:     models.RoleAdmin,
	}
	if err := f.db.Create(admin).Error; err != nil {
		return nil, err
	}
	return admin, nil
}

// CreateOfficials persists the standard roster of barangay officials, each
// linked to a resident record.
func (f *Factory) CreateOfficials(household *models.Household) error {
	positions := []string{
		"Punong Barangay",
		"Kagawad", "Kagawad", "Kagawad", "Kagawad", "Kagawad", "Kagawad", "Kagawad",
		"SK Chairperson", "Secretary", "Treasurer",
	}
	start := time.Now().AddDate(-1, 0, 0)
	end := start.AddDate(3, 0, 0)
	for _, position := range positions {
		resident, err := f.CreateResident(household)
		if err != nil {
			return err
		}
		official := &models.Official{
			Position:   position,
			ResidentID: &resident.ID,
			TermStart:  &start,
			TermEnd:    &end,
			Active:     true,
		}
		if err := f.db.Create(official).Error; err != nil {
			return err
		}
	}
	return nil
}
