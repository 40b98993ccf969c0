package main

import (
	"log"
	"os"

	"posemarket-be/internal/model"
	"posemarket-be/pkg/database"

	"github.com/fatih/color"
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
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	color.Cyan("Starting Authoritative GORM Migration...")

	// 3. Pre-Migration: Extensions (Things GORM AutoMigrate doesn't do)
	color.Yellow("Step 1: Setting up Extensions...")

	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
		// pose_signature columns need pgvector for the duplicate screen.
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	}

	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	// 4. AutoMigrate All Models
	color.Yellow("Step 2: Running AutoMigrate...")

	models := []interface{}{
		&model.User{},
		&model.Task{},
		&model.Submission{},
		&model.Transaction{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Post-Migration: Indexes AutoMigrate cannot express
	color.Yellow("Step 3: Creating supplementary indexes...")

	postMigrationSQL := []string{
		// Approximate nearest-neighbour scan for the duplicate screen.
		`CREATE INDEX IF NOT EXISTS idx_submissions_pose_signature
		 ON submissions USING ivfflat (pose_signature vector_cosine_ops) WITH (lists = 100);`,

		// Ledger history is always read per user, newest first.
		`CREATE INDEX IF NOT EXISTS idx_transactions_user_created
		 ON transactions (user_id, created_at DESC);`,

		// Deposit settlements are keyed by order id in the description.
		// The gateway redelivers notifications, so the database is the
		// final arbiter against double credits.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_deposit_order
		 ON transactions (description) WHERE type = 'deposit';`,
	}

	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v. Continuing...", err)
		}
	}

	color.Green("✅ Migration completed successfully")
}
