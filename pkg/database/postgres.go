package database

import (
	"log"
	"os"

	"github.com/draworld/draworld-backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func NewDatabase() *gorm.DB {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := RunMigrations(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	return db
}

func RunMigrations(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.CreditTransaction{},
		&models.ShareClaim{},
		&models.Referral{},
		&models.Video{},
		&models.CreditPackage{},
		&models.Payment{},
	)
	if err != nil {
		return err
	}

	return SeedCreditPackages(db)
}

// SeedCreditPackages inserts the default packages if they are missing.
func SeedCreditPackages(db *gorm.DB) error {
	packages := []models.CreditPackage{
		{
			Name:         "Starter Pack",
			Description:  "100 credits to get started",
			Credits:      100,
			BonusCredits: 0,
			Price:        1.99,
			IsActive:     true,
		},
		{
			Name:         "Popular Pack",
			Description:  "500 credits + 50 bonus",
			Credits:      500,
			BonusCredits: 50,
			Price:        9.99,
			IsActive:     true,
		},
		{
			Name:         "Creator Pack",
			Description:  "1000 credits + 200 bonus",
			Credits:      1000,
			BonusCredits: 200,
			Price:        19.99,
			IsActive:     true,
		},
		{
			Name:         "Studio Pack",
			Description:  "3000 credits + 900 bonus, best value",
			Credits:      3000,
			BonusCredits: 900,
			Price:        49.99,
			IsActive:     true,
		},
	}

	for _, pkg := range packages {
		var count int64
		db.Model(&models.CreditPackage{}).Where("name = ?", pkg.Name).Count(&count)
		if count == 0 {
			if err := db.Create(&pkg).Error; err != nil {
				return err
			}
		}
	}

	return nil
}
