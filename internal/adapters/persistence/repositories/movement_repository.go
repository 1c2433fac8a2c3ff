package repositories

import (
	"lendhub/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// MovementRepository is the write-only movement log sink
type MovementRepository struct {
	db *gorm.DB
}

// NewMovementRepository creates a new movement repository
func NewMovementRepository(db *gorm.DB) *MovementRepository {
	return &MovementRepository{db: db}
}

// Create appends a movement log entry
func (r *MovementRepository) Create(tx *gorm.DB, entry *models.MovementLog) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Create(entry).Error
}

// ListByReservation returns movement entries for a reservation, oldest first
func (r *MovementRepository) ListByReservation(reservationID uint) ([]models.MovementLog, error) {
	var entries []models.MovementLog
	err := r.db.
		Where("reservation_id = ?", reservationID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	return entries, err
}

// ListByProduct returns recent movement entries for a product
func (r *MovementRepository) ListByProduct(productID uint, limit int) ([]models.MovementLog, error) {
	var entries []models.MovementLog
	err := r.db.
		Where("product_id = ?", productID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
