package main

import (
	"log"
	"os"

	"jeezy-monetization-be/internal/model"
	"jeezy-monetization-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDB(database.GormConfig{DSN: dsn})
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}
	defer database.Close(db)

	log.Println("Starting GORM Migration...")

	// 3. Pre-Migration: gen_random_uuid() lives in pgcrypto on older servers
	log.Println("Step 1: Setting up Extensions...")
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		log.Printf("Warn: Failed to create pgcrypto: %v. Continuing...", err)
	}

	// 4. AutoMigrate All Models
	log.Println("Step 2: Running AutoMigrate...")

	models := []interface{}{
		&model.User{},
		&model.Wallet{},
		&model.VipSubscription{},
		&model.Transaction{},
		&model.PayPalOrder{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Post-Migration: enumerations as CHECK constraints
	log.Println("Step 3: Adding CHECK constraints...")

	for _, c := range checkConstraints() {
		if err := db.Exec(c.sql()).Error; err != nil {
			log.Fatalf("Error: Failed to add constraint %s: %v", c.name, err)
		}
	}

	log.Println("Success: Database migration completed successfully via GORM.")
}
