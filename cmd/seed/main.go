// Command main runs the demo data seeder.
package main

import (
	"flag"
	"log"

	"barangay/internal/config"
	"barangay/internal/database"
	"barangay/internal/seed"
)

func main() {
	households := flag.Int("households", 12, "Number of households to create")
	residents := flag.Int("residents", 4, "Residents per household")
	accounts := flag.Int("accounts", 10, "Resident self-service accounts to create")
	pending := flag.Int("pending", 3, "Pending update requests to submit")
	shouldClean := flag.Bool("clean", false, "Clean seeded tables before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if *shouldClean {
		if err := seed.ClearAll(db); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	opts := seed.DefaultOptions()
	opts.Households = *households
	opts.ResidentsPerHouse = *residents
	opts.ResidentAccounts = *accounts
	opts.PendingRequests = *pending

	if err := seed.Run(db, opts); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Done. Admin account: %s / %s", opts.AdminUsername, opts.AdminPassword)
	log.Println("Resident accounts use the password: resident-dev-password")
}
