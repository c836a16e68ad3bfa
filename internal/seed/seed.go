package seed

import (
	"context"
	"fmt"
	"log"

	"gorm.io/gorm"

	"barangay/internal/models"
	"barangay/internal/repository"
	"barangay/internal/service"
)

// ClearAll removes every seeded row. Child tables go first so foreign keys
// do not complain on databases that enforce them.
func ClearAll(db *gorm.DB) error {
	tables := []string{
		"notifications",
		"update_requests",
		"officials",
		"users",
		"residents",
		"households",
	}
	for _, table := range tables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// Run populates the database with a demo barangay: households, residents,
// officials, accounts and a few pending update requests so the review queue
// is not empty on first login. It is idempotent at the coarse level: a
// database that already has residents is left alone.
func Run(db *gorm.DB, opts Options) error {
	var existing int64
	if err := db.Model(&models.Resident{}).Count(&existing).Error; err != nil {
		return fmt.Errorf("count residents: %w", err)
	}
	if existing > 0 {
		log.Printf("seed: database already has %d residents, skipping", existing)
		return nil
	}

	f := NewFactory(db)

	if _, err := f.CreateAdmin(opts.AdminUsername, opts.AdminEmail, opts.AdminPassword); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	officialsHome, err := f.CreateHousehold()
	if err != nil {
		return fmt.Errorf("create household: %w", err)
	}
	if err := f.CreateOfficials(officialsHome); err != nil {
		return fmt.Errorf("create officials: %w", err)
	}

	var accounts []*models.User
	for i := 0; i < opts.Households; i++ {
		household, err := f.CreateHousehold()
		if err != nil {
			return fmt.Errorf("create household: %w", err)
		}
		for j := 0; j < opts.ResidentsPerHouse; j++ {
			resident, err := f.CreateResident(household)
			if err != nil {
				return fmt.Errorf("create resident: %w", err)
			}
			if len(accounts) < opts.ResidentAccounts {
				account, err := f.CreateResidentAccount(resident)
				if err != nil {
					return fmt.Errorf("create resident account: %w", err)
				}
				accounts = append(accounts, account)
			}
		}
	}

	if err := seedPendingRequests(db, accounts, opts.PendingRequests); err != nil {
		return err
	}

	log.Printf("seed: created %d households with residents, %d accounts, %d pending requests",
		opts.Households, len(accounts), opts.PendingRequests)
	return nil
}

// seedPendingRequests submits demo update requests through the real service
// path so the admin notifications exist too.
func seedPendingRequests(db *gorm.DB, accounts []*models.User, count int) error {
	requestRepo := repository.NewUpdateRequestRepository(db)
	residentRepo := repository.NewResidentRepository(db)
	notificationSvc := service.NewNotificationService(repository.NewNotificationRepository(db))
	requestSvc := service.NewUpdateRequestService(requestRepo, residentRepo, notificationSvc, nil)

	ctx := context.Background()
	for i := 0; i < count && i < len(accounts); i++ {
		account := accounts[i]
		if account.ResidentID == nil {
			continue
		}
		changes := models.JSONMap{
			"occupation":     occupations[i%len(occupations)],
			"contact_number": fmt.Sprintf("09%09d", 170000000+i),
		}
		if _, err := requestSvc.Submit(ctx, *account.ResidentID, account.ID, changes, nil); err != nil {
			return fmt.Errorf("seed pending request: %w", err)
		}
	}
	return nil
}
