package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lendhub/internal/adapters/persistence/models"
	"lendhub/internal/adapters/persistence/repositories"
	"lendhub/internal/core/domain"
)

// testEnv wires the services against an in-memory database. Each test gets
// its own database; the shared-cache DSN keeps it alive across the pooled
// connections GORM opens.
type testEnv struct {
	db           *gorm.DB
	credits      *CreditService
	reservations *ReservationService
	maintenance  *MaintenanceService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// sqlite rejects concurrent writers; a single connection serializes them
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	creditRepo := repositories.NewCreditRepository(db)
	credits := NewCreditService(creditRepo)

	reservations := NewReservationService(
		db,
		repositories.NewReservationRepository(db),
		repositories.NewMaintenanceRepository(db),
		repositories.NewProductRepository(db),
		repositories.NewMovementRepository(db),
		credits,
		48,
	)
	maintenance := NewMaintenanceService(
		repositories.NewMaintenanceRepository(db),
		repositories.NewProductRepository(db),
		reservations,
	)

	return &testEnv{
		db:           db,
		credits:      credits,
		reservations: reservations,
		maintenance:  maintenance,
	}
}

// setNow pins the clock of every time-dependent service
func (e *testEnv) setNow(now time.Time) {
	e.reservations.now = func() time.Time { return now }
	e.maintenance.now = func() time.Time { return now }
}

func (e *testEnv) createUser(t *testing.T, balance int64) *models.User {
	t.Helper()
	user := &models.User{
		Username:      "user-" + uuid.NewString()[:8],
		Email:         uuid.NewString()[:8] + "@test.local",
		Password:      "irrelevant",
		Role:          string(domain.RoleUser),
		CreditBalance: balance,
		IsActive:      true,
	}
	if err := e.db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func (e *testEnv) createSection(t *testing.T, daysOut, daysIn string) *models.Section {
	t.Helper()
	section := &models.Section{
		Code:           "S-" + uuid.NewString()[:8],
		Name:           "Test section",
		AllowedDaysOut: daysOut,
		AllowedDaysIn:  daysIn,
		IsActive:       true,
	}
	if err := e.db.Create(section).Error; err != nil {
		t.Fatalf("failed to create section: %v", err)
	}
	return section
}

func (e *testEnv) createProduct(t *testing.T, sectionID uint, minDur, maxDur int, price int64, period domain.CreditPeriod) *models.Product {
	t.Helper()
	product := &models.Product{
		SectionID:    sectionID,
		Code:         "P-" + uuid.NewString()[:8],
		Name:         "Test product",
		MinDuration:  minDur,
		MaxDuration:  maxDur,
		PriceCredits: &price,
		CreditPeriod: string(period),
		Status:       string(domain.ProductAvailable),
	}
	if err := e.db.Create(product).Error; err != nil {
		t.Fatalf("failed to create product: %v", err)
	}
	return product
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Fixed calendar anchors: 2026-03-01 is a Sunday.
var (
	monday = date(2026, time.March, 2)
	friday = date(2026, time.March, 6)
	sunday = date(2026, time.March, 8)
)

func (e *testEnv) mustBalance(t *testing.T, userID uint) int64 {
	t.Helper()
	balance, err := e.credits.Balance(userID)
	if err != nil {
		t.Fatalf("failed to read balance: %v", err)
	}
	return balance
}

func (e *testEnv) reservationCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	if err := e.db.Model(&models.Reservation{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count reservations: %v", err)
	}
	return count
}
