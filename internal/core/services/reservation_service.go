package services

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"lendhub/internal/adapters/persistence/models"
	"lendhub/internal/adapters/persistence/repositories"
	"lendhub/internal/core/domain"
	"lendhub/internal/core/scheduling"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reservation errors
var (
	ErrReservationNotFound = errors.New("reservation not found")
	ErrProductNotFound     = errors.New("product not found")
	ErrNotOwner            = errors.New("reservation belongs to another user")
)

// maintenanceCancelReason marks cancellations generated by the maintenance cascade
const maintenanceCancelReason = "maintenance"

// ReservationService owns the reservation lifecycle state machine:
// CONFIRMED -> CHECKED_OUT -> RETURNED, CONFIRMED -> CANCELLED,
// {CANCELLED, RETURNED} -> refund. Every transition is a single atomic
// unit; booking creation is serialized per product.
type ReservationService struct {
	db              *gorm.DB
	reservationRepo *repositories.ReservationRepository
	maintenanceRepo *repositories.MaintenanceRepository
	productRepo     *repositories.ProductRepository
	movementRepo    *repositories.MovementRepository
	credits         *CreditService
	refundDeadline  time.Duration // self-service cancellations closer to start than this get no automatic refund
	now             func() time.Time

	productLocks sync.Map // productID -> *sync.Mutex
}

// NewReservationService creates a new reservation service
func NewReservationService(
	db *gorm.DB,
	reservationRepo *repositories.ReservationRepository,
	maintenanceRepo *repositories.MaintenanceRepository,
	productRepo *repositories.ProductRepository,
	movementRepo *repositories.MovementRepository,
	credits *CreditService,
	refundDeadlineHours int,
) *ReservationService {
	return &ReservationService{
		db:              db,
		reservationRepo: reservationRepo,
		maintenanceRepo: maintenanceRepo,
		productRepo:     productRepo,
		movementRepo:    movementRepo,
		credits:         credits,
		refundDeadline:  time.Duration(refundDeadlineHours) * time.Hour,
		now:             time.Now,
	}
}

// lockProduct returns the mutex serializing check-then-act sequences for a
// product. Two concurrent creates on the same product must never both pass
// the conflict check.
func (s *ReservationService) lockProduct(productID uint) *sync.Mutex {
	v, _ := s.productLocks.LoadOrStore(productID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// ============================================================
// Booking
// ============================================================

// CreateReservationInput represents a booking request
type CreateReservationInput struct {
	ProductID uint      `json:"product_id" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
	StartTime string    `json:"start_time"` // display only, never enters overlap math
	EndTime   string    `json:"end_time"`
	Notes     string    `json:"notes"`
}

// Create validates and books a reservation: day rules on both endpoints,
// duration bounds, conflict check across the whole span, price, debit,
// insert in CONFIRMED. All checks run under the product lock so concurrent
// bookings on the same product serialize.
func (s *ReservationService) Create(userID uint, input *CreateReservationInput) (*models.Reservation, error) {
	start := scheduling.Date(input.StartDate)
	end := scheduling.Date(input.EndDate)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end date before start date", domain.ErrValidation)
	}

	product, err := s.productRepo.GetByID(input.ProductID)
	if err != nil {
		return nil, ErrProductNotFound
	}
	if product.Status != string(domain.ProductAvailable) {
		return nil, domain.ErrProductNotAvailable
	}
	if product.PriceCredits == nil {
		return nil, domain.ErrPriceHidden
	}

	daysOut, err := product.Section.DaysOut()
	if err != nil {
		return nil, err
	}
	daysIn, err := product.Section.DaysIn()
	if err != nil {
		return nil, err
	}
	if !daysOut.Allows(start) {
		return nil, fmt.Errorf("%w: checkout not allowed on this weekday", domain.ErrDayNotAllowed)
	}
	if !daysIn.Allows(end) {
		return nil, fmt.Errorf("%w: return not allowed on this weekday", domain.ErrDayNotAllowed)
	}

	duration := scheduling.DurationDays(start, end)
	if duration < product.MinDuration {
		return nil, fmt.Errorf("%w: duration %d below minimum %d days", domain.ErrValidation, duration, product.MinDuration)
	}
	if product.MaxDuration > 0 && duration > product.MaxDuration {
		return nil, fmt.Errorf("%w: duration %d above maximum %d days", domain.ErrValidation, duration, product.MaxDuration)
	}

	price := scheduling.Price(start, end, *product.PriceCredits, domain.CreditPeriod(product.CreditPeriod))

	mu := s.lockProduct(product.ID)
	mu.Lock()
	defer mu.Unlock()

	conflict, err := s.hasConflict(product.ID, start, &end, 0)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, domain.ErrConflict
	}

	reservation := &models.Reservation{
		Reference:      uuid.NewString(),
		ProductID:      product.ID,
		UserID:         userID,
		StartDate:      start,
		EndDate:        end,
		StartTime:      input.StartTime,
		EndTime:        input.EndTime,
		Status:         string(domain.ReservationConfirmed),
		CreditsCharged: price,
		Notes:          input.Notes,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.reservationRepo.Create(tx, reservation); err != nil {
			return err
		}
		desc := fmt.Sprintf("reservation %s (%s)", reservation.Reference, product.Code)
		return s.credits.Debit(tx, userID, price, domain.EntryReservationDebit, &reservation.ID, desc)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Reservation created: %s (product %s, user %d, %d credits)",
		reservation.Reference, product.Code, userID, price)

	created, err := s.reservationRepo.GetByID(reservation.ID)
	if err != nil {
		return reservation, nil
	}
	return created, nil
}

// hasConflict consults the live conflict index: occupying reservations plus
// non-ended maintenance windows.
func (s *ReservationService) hasConflict(productID uint, start time.Time, end *time.Time, excludeID uint) (bool, error) {
	conflict, err := s.reservationRepo.HasOverlap(productID, start, end, excludeID)
	if err != nil || conflict {
		return conflict, err
	}
	return s.maintenanceRepo.HasOverlap(productID, start, end)
}

// CheckAvailability reports whether the interval is free for the product
// and lists the conflicting reservations and maintenance windows if not.
type AvailabilityResult struct {
	Available    bool                 `json:"available"`
	Reservations []models.Reservation `json:"conflicting_reservations,omitempty"`
	Maintenances []models.Maintenance `json:"conflicting_maintenances,omitempty"`
}

// CheckAvailability is a read-only conflict query; it tolerates concurrent
// writers and takes no lock.
func (s *ReservationService) CheckAvailability(productID uint, start, end time.Time) (*AvailabilityResult, error) {
	start = scheduling.Date(start)
	endDate := scheduling.Date(end)
	if endDate.Before(start) {
		return nil, fmt.Errorf("%w: end date before start date", domain.ErrValidation)
	}
	if _, err := s.productRepo.GetByID(productID); err != nil {
		return nil, ErrProductNotFound
	}

	reservations, err := s.reservationRepo.FindOverlapping(productID, start, &endDate, 0)
	if err != nil {
		return nil, err
	}
	maintenances, err := s.maintenanceRepo.FindOverlapping(productID, start, &endDate)
	if err != nil {
		return nil, err
	}

	return &AvailabilityResult{
		Available:    len(reservations) == 0 && len(maintenances) == 0,
		Reservations: reservations,
		Maintenances: maintenances,
	}, nil
}

// ============================================================
// Lifecycle transitions
// ============================================================

// Checkout moves a CONFIRMED reservation to CHECKED_OUT and records the movement.
func (s *ReservationService) Checkout(id uint, actor domain.Actor, notes string) (*models.Reservation, error) {
	reservation, err := s.reservationRepo.GetByID(id)
	if err != nil {
		return nil, ErrReservationNotFound
	}
	if reservation.Status != string(domain.ReservationConfirmed) {
		return nil, domain.ErrInvalidTransition
	}

	now := s.now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.reservationRepo.UpdateStatus(tx, id, map[string]interface{}{
			"status":         string(domain.ReservationCheckedOut),
			"checked_out_at": now,
		}); err != nil {
			return err
		}
		return s.movementRepo.Create(tx, &models.MovementLog{
			ReservationID: id,
			ProductID:     reservation.ProductID,
			UserID:        reservation.UserID,
			ActorID:       actor.UserID,
			Action:        string(domain.MovementCheckout),
			Notes:         notes,
		})
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Reservation %s checked out", reservation.Reference)
	return s.reservationRepo.GetByID(id)
}

// Return moves a CHECKED_OUT reservation to RETURNED. Damage conditions are
// informational, never blocking: a legal return always succeeds.
func (s *ReservationService) Return(id uint, actor domain.Actor, condition domain.ReturnCondition, notes string) (*models.Reservation, error) {
	if condition == "" {
		condition = domain.ConditionOK
	}
	if !domain.ValidReturnCondition(condition) {
		return nil, fmt.Errorf("%w: unknown return condition %q", domain.ErrValidation, condition)
	}

	reservation, err := s.reservationRepo.GetByID(id)
	if err != nil {
		return nil, ErrReservationNotFound
	}
	if reservation.Status != string(domain.ReservationCheckedOut) {
		return nil, domain.ErrInvalidTransition
	}

	now := s.now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.reservationRepo.UpdateStatus(tx, id, map[string]interface{}{
			"status":           string(domain.ReservationReturned),
			"returned_at":      now,
			"return_condition": string(condition),
		}); err != nil {
			return err
		}
		return s.movementRepo.Create(tx, &models.MovementLog{
			ReservationID: id,
			ProductID:     reservation.ProductID,
			UserID:        reservation.UserID,
			ActorID:       actor.UserID,
			Action:        string(domain.MovementReturn),
			Condition:     string(condition),
			Notes:         notes,
		})
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Reservation %s returned (%s)", reservation.Reference, condition)
	return s.reservationRepo.GetByID(id)
}

// Cancel moves a CONFIRMED reservation to CANCELLED. Facility-initiated
// cancellations always refund in full; self-service cancellations refund
// only when the start date is at least the refund deadline away. A
// cancellation outside the deadline still goes through, it just carries no
// automatic refund (an admin may refund explicitly later). A failed
// automatic refund is logged, not propagated: the reservation stays
// CANCELLED and the refund can be retried.
func (s *ReservationService) Cancel(id uint, reason string, actor domain.Actor) (*models.Reservation, error) {
	reservation, err := s.reservationRepo.GetByID(id)
	if err != nil {
		return nil, ErrReservationNotFound
	}
	if !actor.Facility && reservation.UserID != actor.UserID {
		return nil, ErrNotOwner
	}
	if reservation.Status != string(domain.ReservationConfirmed) {
		return nil, domain.ErrInvalidTransition
	}

	now := s.now()
	cancelledBy := actor.UserID
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.reservationRepo.UpdateStatus(tx, id, map[string]interface{}{
			"status":        string(domain.ReservationCancelled),
			"cancelled_at":  now,
			"cancel_reason": reason,
			"cancelled_by":  cancelledBy,
		}); err != nil {
			return err
		}
		return s.movementRepo.Create(tx, &models.MovementLog{
			ReservationID: id,
			ProductID:     reservation.ProductID,
			UserID:        reservation.UserID,
			ActorID:       actor.UserID,
			Action:        string(domain.MovementStatusChange),
			Notes:         "cancelled: " + reason,
		})
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Reservation %s cancelled (%s)", reservation.Reference, reason)

	if s.refundEligible(reservation, actor, now) {
		if _, err := s.Refund(id, nil, "automatic refund on cancellation"); err != nil {
			log.Printf("⚠️ Automatic refund failed for reservation %s: %v", reservation.Reference, err)
		}
	}

	return s.reservationRepo.GetByID(id)
}

// refundEligible applies the refund-deadline rule. Facility actors (staff,
// maintenance cascade, system) always refund: the cancellation was not the
// user's choice.
func (s *ReservationService) refundEligible(reservation *models.Reservation, actor domain.Actor, now time.Time) bool {
	if actor.Facility {
		return true
	}
	return scheduling.Date(reservation.StartDate).Sub(scheduling.Date(now)) >= s.refundDeadline
}

// Refund credits back up to CreditsCharged on a CANCELLED or RETURNED
// reservation. amount nil means full refund. A CANCELLED reservation is
// re-tagged REFUNDED; a RETURNED one keeps its status and carries the
// refund through refund_amount/refunded_at.
func (s *ReservationService) Refund(id uint, amount *int64, reason string) (*models.Reservation, error) {
	reservation, err := s.reservationRepo.GetByID(id)
	if err != nil {
		return nil, ErrReservationNotFound
	}

	switch reservation.Status {
	case string(domain.ReservationCancelled), string(domain.ReservationReturned):
		// refundable states
	default:
		return nil, domain.ErrInvalidTransition
	}
	if reservation.IsRefunded() {
		return nil, domain.ErrAlreadyRefunded
	}

	refund := reservation.CreditsCharged
	if amount != nil {
		refund = *amount
	}
	if refund < 0 || refund > reservation.CreditsCharged {
		return nil, domain.ErrInvalidAmount
	}

	now := s.now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"refund_amount": refund,
			"refunded_at":   now,
		}
		if reservation.Status == string(domain.ReservationCancelled) {
			updates["status"] = string(domain.ReservationRefunded)
		}

		// Guard on refunded_at IS NULL so a racing double refund moves the
		// balance exactly once.
		result := tx.Model(&models.Reservation{}).
			Where("id = ? AND refunded_at IS NULL", id).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrAlreadyRefunded
		}

		desc := fmt.Sprintf("refund for reservation %s: %s", reservation.Reference, reason)
		return s.credits.Credit(tx, reservation.UserID, refund, domain.EntryRefundCredit, &reservation.ID, desc)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Reservation %s refunded %d credits", reservation.Reference, refund)
	return s.reservationRepo.GetByID(id)
}

// ============================================================
// Queries
// ============================================================

// GetByID returns a reservation
func (s *ReservationService) GetByID(id uint) (*models.Reservation, error) {
	reservation, err := s.reservationRepo.GetByID(id)
	if err != nil {
		return nil, ErrReservationNotFound
	}
	return reservation, nil
}

// GetByReference returns a reservation by its public reference code
func (s *ReservationService) GetByReference(reference string) (*models.Reservation, error) {
	reservation, err := s.reservationRepo.GetByReference(reference)
	if err != nil {
		return nil, ErrReservationNotFound
	}
	return reservation, nil
}

// Overdue returns checked-out reservations past their end date
func (s *ReservationService) Overdue() ([]models.Reservation, error) {
	return s.reservationRepo.DueForReturn(scheduling.Date(s.now()))
}

// ListByUser returns a user's reservations
func (s *ReservationService) ListByUser(userID uint, offset, limit int) ([]models.Reservation, int64, error) {
	return s.reservationRepo.ListByUser(userID, offset, limit)
}

// List returns reservations filtered by product and/or status
func (s *ReservationService) List(productID uint, status string, offset, limit int) ([]models.Reservation, int64, error) {
	return s.reservationRepo.List(productID, status, offset, limit)
}

// Movements returns the movement trail of a reservation, oldest first
func (s *ReservationService) Movements(id uint) ([]models.MovementLog, error) {
	if _, err := s.reservationRepo.GetByID(id); err != nil {
		return nil, ErrReservationNotFound
	}
	return s.movementRepo.ListByReservation(id)
}

// ProductMovements returns recent movement entries across a product's
// reservations, newest first.
func (s *ReservationService) ProductMovements(productID uint, limit int) ([]models.MovementLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if _, err := s.productRepo.GetByID(productID); err != nil {
		return nil, ErrProductNotFound
	}
	return s.movementRepo.ListByProduct(productID, limit)
}
