package config

import (
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"p9e.in/meterops/models"
)

// Seed creates the reader roster and default accounts. Idempotent: it
// skips anything that already exists.
func Seed(db *gorm.DB) error {
	if err := seedReaders(db); err != nil {
		return err
	}
	return seedUsers(db)
}

// seedReaders creates the initial field-reader roster.
func seedReaders(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Reader{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	readers := []models.Reader{
		{Name: "John Duah", Department: "Field Operations"},
		{Name: "Mary Asante", Department: "Technical Support"},
		{Name: "Robert Asare", Department: "Field Operations"},
	}
	if err := db.Create(&readers).Error; err != nil {
		return err
	}
	log.Printf("Seeded %d readers", len(readers))
	return nil
}

// seedUsers creates a default supervisor and reader login for a fresh
// database. Passwords come from env; the hardcoded fallbacks are for
// local development only.
func seedUsers(db *gorm.DB) error {
	defaults := []struct {
		username string
		envVar   string
		fallback string
		role     string
	}{
		{"supervisor", "SEED_SUPERVISOR_PASSWORD", "supervisor123", models.RoleSupervisor},
		{"reader", "SEED_READER_PASSWORD", "reader123", models.RoleUser},
	}

	for _, d := range defaults {
		var count int64
		if err := db.Model(&models.User{}).Where("username = ?", d.username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		password := os.Getenv(d.envVar)
		if password == "" {
			password = d.fallback
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		user := models.User{
			Username:     d.username,
			PasswordHash: string(hash),
			Role:         d.role,
		}
		if err := db.Create(&user).Error; err != nil {
			return err
		}
		log.Printf("Seeded user %q with role %q", d.username, d.role)
	}
	return nil
}
