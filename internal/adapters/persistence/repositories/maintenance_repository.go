package repositories

import (
	"time"

	"lendhub/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// MaintenanceRepository handles maintenance window database operations
type MaintenanceRepository struct {
	db *gorm.DB
}

// NewMaintenanceRepository creates a new maintenance repository
func NewMaintenanceRepository(db *gorm.DB) *MaintenanceRepository {
	return &MaintenanceRepository{db: db}
}

// Create inserts a maintenance window
func (r *MaintenanceRepository) Create(m *models.Maintenance) error {
	return r.db.Create(m).Error
}

// GetByID returns a maintenance window with its product
func (r *MaintenanceRepository) GetByID(id uint) (*models.Maintenance, error) {
	var m models.Maintenance
	err := r.db.Preload("Product").First(&m, id).Error
	return &m, err
}

// FindOverlapping returns non-ended maintenance windows on the product whose
// interval overlaps [start, end]. A nil end on either side is treated as
// +infinity (indefinite window / open query).
func (r *MaintenanceRepository) FindOverlapping(productID uint, start time.Time, end *time.Time) ([]models.Maintenance, error) {
	var windows []models.Maintenance

	q := r.db.
		Where("product_id = ?", productID).
		Where("ended_at IS NULL").
		Where("end_date IS NULL OR end_date >= ?", start)
	if end != nil {
		q = q.Where("start_date <= ?", *end)
	}

	err := q.Order("start_date ASC").Find(&windows).Error
	return windows, err
}

// HasOverlap reports whether any non-ended window conflicts with the interval.
func (r *MaintenanceRepository) HasOverlap(productID uint, start time.Time, end *time.Time) (bool, error) {
	var count int64

	q := r.db.Model(&models.Maintenance{}).
		Where("product_id = ?", productID).
		Where("ended_at IS NULL").
		Where("end_date IS NULL OR end_date >= ?", start)
	if end != nil {
		q = q.Where("start_date <= ?", *end)
	}

	err := q.Count(&count).Error
	return count > 0, err
}

// ListByProduct returns all windows for a product, newest first
func (r *MaintenanceRepository) ListByProduct(productID uint) ([]models.Maintenance, error) {
	var windows []models.Maintenance
	err := r.db.
		Where("product_id = ?", productID).
		Order("start_date DESC").
		Find(&windows).Error
	return windows, err
}

// Update applies a partial update
func (r *MaintenanceRepository) Update(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.Maintenance{}).Where("id = ?", id).Updates(updates).Error
}

// CountActiveForProduct counts non-ended windows already covering now,
// excluding one window (used when ending a window to decide whether the
// product can go back to AVAILABLE).
func (r *MaintenanceRepository) CountActiveForProduct(productID uint, excludeID uint, now time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Maintenance{}).
		Where("product_id = ?", productID).
		Where("ended_at IS NULL").
		Where("id <> ?", excludeID).
		Where("start_date <= ?", now).
		Where("end_date IS NULL OR end_date >= ?", now).
		Count(&count).Error
	return count, err
}

// FindExpired returns non-ended windows whose end date has passed
func (r *MaintenanceRepository) FindExpired(now time.Time) ([]models.Maintenance, error) {
	var windows []models.Maintenance
	err := r.db.
		Where("ended_at IS NULL").
		Where("end_date IS NOT NULL AND end_date < ?", now).
		Find(&windows).Error
	return windows, err
}
