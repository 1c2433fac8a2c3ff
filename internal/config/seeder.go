package config

import (
	"log"

	"lendhub/internal/adapters/persistence/models"
	"lendhub/internal/core/domain"
	"lendhub/internal/pkg/password"

	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedAdminUser(); err != nil {
		log.Printf("⚠️ Admin seeder skipped: %v", err)
	}
	if err := s.seedCatalog(); err != nil {
		log.Printf("⚠️ Catalog seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedAdminUser seeds default admin user
// This is for development/testing only
// In production, create admin through secure process
func (s *Seeder) seedAdminUser() error {
	var count int64
	s.db.Model(&models.User{}).Where("role = ?", domain.RoleAdmin).Count(&count)
	if count > 0 {
		return nil // Admin already exists
	}

	hashedPassword, err := password.Hash("admin123456")
	if err != nil {
		return err
	}

	admin := &models.User{
		Username: "admin",
		Email:    "admin@lendhub.local",
		Password: hashedPassword,
		Role:     string(domain.RoleAdmin),
		IsActive: true,
	}

	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Println("✅ Default admin user created (admin / admin123456)")
	return nil
}

// seedCatalog seeds a starter section and product for development
func (s *Seeder) seedCatalog() error {
	var count int64
	s.db.Model(&models.Section{}).Count(&count)
	if count > 0 {
		return nil // Catalog already seeded
	}

	price := int64(10)
	section := &models.Section{
		Code:           "AV",
		Name:           "Audio / Video",
		Description:    "Cameras, projectors and recording gear",
		AllowedDaysOut: "1,2,3,4,5",
		AllowedDaysIn:  "1,2,3,4,5",
		IsActive:       true,
	}
	if err := s.db.Create(section).Error; err != nil {
		return err
	}

	product := &models.Product{
		SectionID:    section.ID,
		Code:         "AV-CAM-01",
		Name:         "Field camera kit",
		Description:  "Mirrorless body, two lenses, tripod",
		MinDuration:  1,
		MaxDuration:  14,
		PriceCredits: &price,
		CreditPeriod: string(domain.PeriodDay),
		Status:       string(domain.ProductAvailable),
	}
	if err := s.db.Create(product).Error; err != nil {
		return err
	}

	log.Println("✅ Starter catalog created")
	return nil
}
