package repositories

import (
	"time"

	"lendhub/internal/adapters/persistence/models"
	"lendhub/internal/core/domain"

	"gorm.io/gorm"
)

// ReservationRepository handles reservation database operations.
// Overlap queries always hit the live table: conflict decisions must see
// the current set of non-terminal reservations, never a cached snapshot,
// because bookings race.
type ReservationRepository struct {
	db *gorm.DB
}

// NewReservationRepository creates a new reservation repository
func NewReservationRepository(db *gorm.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// occupyingStatuses are the states that hold a date interval.
var occupyingStatuses = []string{
	string(domain.ReservationConfirmed),
	string(domain.ReservationCheckedOut),
}

// Create inserts a reservation inside the given transaction handle.
func (r *ReservationRepository) Create(tx *gorm.DB, reservation *models.Reservation) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Create(reservation).Error
}

// GetByID returns a reservation with relations
func (r *ReservationRepository) GetByID(id uint) (*models.Reservation, error) {
	var reservation models.Reservation
	err := r.db.
		Preload("Product").
		Preload("Product.Section").
		Preload("User").
		First(&reservation, id).Error
	return &reservation, err
}

// GetByReference returns a reservation by its public reference code
func (r *ReservationRepository) GetByReference(reference string) (*models.Reservation, error) {
	var reservation models.Reservation
	err := r.db.
		Preload("Product").
		Preload("Product.Section").
		Where("reference = ?", reference).
		First(&reservation).Error
	return &reservation, err
}

// FindOverlapping returns reservations in occupying states on the product
// whose inclusive interval overlaps [start, end]. A nil end queries an open
// interval (everything from start onward). excludeID is skipped when nonzero.
func (r *ReservationRepository) FindOverlapping(productID uint, start time.Time, end *time.Time, excludeID uint) ([]models.Reservation, error) {
	var reservations []models.Reservation

	q := r.db.
		Where("product_id = ?", productID).
		Where("status IN ?", occupyingStatuses).
		Where("end_date >= ?", start)
	if end != nil {
		q = q.Where("start_date <= ?", *end)
	}
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}

	err := q.Order("start_date ASC").Find(&reservations).Error
	return reservations, err
}

// HasOverlap reports whether any occupying reservation conflicts with the interval.
func (r *ReservationRepository) HasOverlap(productID uint, start time.Time, end *time.Time, excludeID uint) (bool, error) {
	var count int64

	q := r.db.Model(&models.Reservation{}).
		Where("product_id = ?", productID).
		Where("status IN ?", occupyingStatuses).
		Where("end_date >= ?", start)
	if end != nil {
		q = q.Where("start_date <= ?", *end)
	}
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}

	err := q.Count(&count).Error
	return count > 0, err
}

// UpdateStatus applies a partial update inside the given transaction handle.
func (r *ReservationRepository) UpdateStatus(tx *gorm.DB, id uint, updates map[string]interface{}) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Model(&models.Reservation{}).Where("id = ?", id).Updates(updates).Error
}

// ListByUser returns a user's reservations, newest first
func (r *ReservationRepository) ListByUser(userID uint, offset, limit int) ([]models.Reservation, int64, error) {
	var reservations []models.Reservation
	var total int64

	base := r.db.Model(&models.Reservation{}).Where("user_id = ?", userID)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&reservations).Error
	return reservations, total, err
}

// List returns reservations with optional product/status filters, newest first
func (r *ReservationRepository) List(productID uint, status string, offset, limit int) ([]models.Reservation, int64, error) {
	var reservations []models.Reservation
	var total int64

	filter := func(q *gorm.DB) *gorm.DB {
		if productID != 0 {
			q = q.Where("product_id = ?", productID)
		}
		if status != "" {
			q = q.Where("status = ?", status)
		}
		return q
	}

	if err := filter(r.db.Model(&models.Reservation{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := filter(r.db.Preload("Product").Preload("User")).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&reservations).Error
	return reservations, total, err
}

// DueForReturn returns checked-out reservations whose end date has passed
func (r *ReservationRepository) DueForReturn(now time.Time) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := r.db.
		Preload("Product").
		Preload("User").
		Where("status = ?", string(domain.ReservationCheckedOut)).
		Where("end_date < ?", now).
		Order("end_date ASC").
		Find(&reservations).Error
	return reservations, err
}
