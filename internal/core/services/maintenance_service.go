package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"lendhub/internal/adapters/persistence/models"
	"lendhub/internal/adapters/persistence/repositories"
	"lendhub/internal/core/domain"
	"lendhub/internal/core/scheduling"
)

// Maintenance errors
var (
	ErrMaintenanceNotFound = errors.New("maintenance not found")
)

// MaintenanceService owns maintenance windows and the cascade: creating a
// window cancels and refunds every conflicting reservation through the
// reservation lifecycle. Per-reservation failures inside the cascade are
// logged and skipped; a maintenance window must win over a single bad
// reservation record.
type MaintenanceService struct {
	maintenanceRepo *repositories.MaintenanceRepository
	productRepo     *repositories.ProductRepository
	reservations    *ReservationService
	now             func() time.Time
}

// NewMaintenanceService creates a new maintenance service
func NewMaintenanceService(
	maintenanceRepo *repositories.MaintenanceRepository,
	productRepo *repositories.ProductRepository,
	reservations *ReservationService,
) *MaintenanceService {
	return &MaintenanceService{
		maintenanceRepo: maintenanceRepo,
		productRepo:     productRepo,
		reservations:    reservations,
		now:             time.Now,
	}
}

// MaintenanceInput represents a maintenance window request.
// EndDate nil means indefinite: the window blocks all future bookings until
// explicitly ended.
type MaintenanceInput struct {
	ProductID uint       `json:"product_id" validate:"required"`
	StartDate time.Time  `json:"start_date" validate:"required"`
	EndDate   *time.Time `json:"end_date"`
	Reason    string     `json:"reason" validate:"required"`
}

// PreviewResult is the dry-run outcome of a maintenance window
type PreviewResult struct {
	HasOverlap                bool                 `json:"has_overlap"`
	AffectedReservations      []models.Reservation `json:"affected_reservations"`
	TotalReservationsAffected int                  `json:"total_reservations_affected"`
	TotalCreditsToRefund      int64                `json:"total_credits_to_refund"`
}

func normalizeWindow(input *MaintenanceInput) (time.Time, *time.Time, error) {
	start := scheduling.Date(input.StartDate)
	var end *time.Time
	if input.EndDate != nil {
		e := scheduling.Date(*input.EndDate)
		if e.Before(start) {
			return time.Time{}, nil, fmt.Errorf("%w: end date before start date", domain.ErrValidation)
		}
		end = &e
	}
	return start, end, nil
}

// Preview runs the cascade computation without mutating anything.
func (s *MaintenanceService) Preview(input *MaintenanceInput) (*PreviewResult, error) {
	start, end, err := normalizeWindow(input)
	if err != nil {
		return nil, err
	}
	if _, err := s.productRepo.GetByID(input.ProductID); err != nil {
		return nil, ErrProductNotFound
	}

	hasOverlap, err := s.maintenanceRepo.HasOverlap(input.ProductID, start, end)
	if err != nil {
		return nil, err
	}

	affected, err := s.reservations.reservationRepo.FindOverlapping(input.ProductID, start, end, 0)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, r := range affected {
		total += r.CreditsCharged
	}

	return &PreviewResult{
		HasOverlap:                hasOverlap,
		AffectedReservations:      affected,
		TotalReservationsAffected: len(affected),
		TotalCreditsToRefund:      total,
	}, nil
}

// Create inserts a maintenance window and runs the cascade. Creation is
// rejected, not merged, when the window overlaps an existing non-ended
// maintenance on the same product; no cascade is attempted in that case.
func (s *MaintenanceService) Create(input *MaintenanceInput, createdBy uint) (*models.Maintenance, []domain.CascadeOutcome, error) {
	start, end, err := normalizeWindow(input)
	if err != nil {
		return nil, nil, err
	}
	if input.Reason == "" {
		return nil, nil, fmt.Errorf("%w: reason is required", domain.ErrValidation)
	}

	product, err := s.productRepo.GetByID(input.ProductID)
	if err != nil {
		return nil, nil, ErrProductNotFound
	}

	// Serialize against concurrent bookings on the same product: the set of
	// conflicting reservations must not grow while the cascade runs.
	mu := s.reservations.lockProduct(product.ID)
	mu.Lock()
	defer mu.Unlock()

	overlap, err := s.maintenanceRepo.HasOverlap(product.ID, start, end)
	if err != nil {
		return nil, nil, err
	}
	if overlap {
		return nil, nil, domain.ErrMaintenanceOverlap
	}

	maintenance := &models.Maintenance{
		ProductID: product.ID,
		StartDate: start,
		EndDate:   end,
		Reason:    input.Reason,
		CreatedBy: createdBy,
	}
	if err := s.maintenanceRepo.Create(maintenance); err != nil {
		return nil, nil, err
	}

	outcomes, cancelled, refunded := s.cascade(product.ID, start, end)

	if err := s.maintenanceRepo.Update(maintenance.ID, map[string]interface{}{
		"cancelled_reservations_count": cancelled,
		"refunded_credits_total":       refunded,
	}); err != nil {
		log.Printf("⚠️ Failed to record cascade outcome on maintenance %d: %v", maintenance.ID, err)
	}

	if maintenance.Status(s.now()) == domain.MaintenanceActive {
		if err := s.productRepo.UpdateStatus(product.ID, string(domain.ProductMaintenance)); err != nil {
			log.Printf("⚠️ Failed to set product %d to MAINTENANCE: %v", product.ID, err)
		}
	}

	log.Printf("✅ Maintenance %d created on product %s (%d reservations cancelled, %d credits refunded)",
		maintenance.ID, product.Code, cancelled, refunded)

	created, err := s.maintenanceRepo.GetByID(maintenance.ID)
	if err != nil {
		return maintenance, outcomes, nil
	}
	return created, outcomes, nil
}

// cascade cancels and refunds every occupying reservation conflicting with
// the window. Best effort: a failing reservation is logged and skipped,
// never aborting the remaining ones. Aggregates fold over successes only.
func (s *MaintenanceService) cascade(productID uint, start time.Time, end *time.Time) ([]domain.CascadeOutcome, int, int64) {
	conflicting, err := s.reservations.reservationRepo.FindOverlapping(productID, start, end, 0)
	if err != nil {
		log.Printf("❌ Cascade conflict query failed for product %d: %v", productID, err)
		return nil, 0, 0
	}

	outcomes := make([]domain.CascadeOutcome, 0, len(conflicting))
	var cancelledCount int
	var refundedTotal int64

	for _, r := range conflicting {
		outcome := domain.CascadeOutcome{ReservationID: r.ID, At: s.now()}

		res, err := s.reservations.Cancel(r.ID, maintenanceCancelReason, domain.System())
		if err != nil {
			outcome.Error = err.Error()
			outcomes = append(outcomes, outcome)
			log.Printf("⚠️ Cascade: cancel failed for reservation %d: %v", r.ID, err)
			continue
		}
		outcome.Cancelled = true
		cancelledCount++

		// Facility cancellations refund automatically; retry explicitly if
		// the automatic refund did not land.
		if !res.IsRefunded() {
			res, err = s.reservations.Refund(r.ID, nil, maintenanceCancelReason)
			if err != nil {
				outcome.Error = err.Error()
				outcomes = append(outcomes, outcome)
				log.Printf("⚠️ Cascade: refund failed for reservation %d: %v", r.ID, err)
				continue
			}
		}
		if res.RefundAmount != nil {
			outcome.Refunded = *res.RefundAmount
			refundedTotal += *res.RefundAmount
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes, cancelledCount, refundedTotal
}

// ============================================================
// Window lifecycle
// ============================================================

// End closes a maintenance window. Legal only while it has not been ended.
// endedBy = domain.SystemActor marks a system-automatic expiry. The product
// goes back to AVAILABLE when no other active window remains.
func (s *MaintenanceService) End(id uint, endedBy uint) (*models.Maintenance, error) {
	maintenance, err := s.maintenanceRepo.GetByID(id)
	if err != nil {
		return nil, ErrMaintenanceNotFound
	}
	if maintenance.IsEnded() {
		return nil, domain.ErrMaintenanceEnded
	}

	now := s.now()
	if err := s.maintenanceRepo.Update(id, map[string]interface{}{
		"ended_at": now,
		"ended_by": endedBy,
	}); err != nil {
		return nil, err
	}

	s.restoreProductStatus(maintenance.ProductID, id, now)

	log.Printf("✅ Maintenance %d ended by %d", id, endedBy)
	return s.maintenanceRepo.GetByID(id)
}

// CancelScheduled removes a window that has not started yet. Reservations
// already cancelled and refunded by the creation cascade are NOT restored;
// the cascade is a one-way door.
func (s *MaintenanceService) CancelScheduled(id uint, actor uint) (*models.Maintenance, error) {
	maintenance, err := s.maintenanceRepo.GetByID(id)
	if err != nil {
		return nil, ErrMaintenanceNotFound
	}
	if maintenance.IsEnded() {
		return nil, domain.ErrMaintenanceEnded
	}

	now := s.now()
	if !scheduling.Date(now).Before(scheduling.Date(maintenance.StartDate)) {
		return nil, domain.ErrMaintenanceStarted
	}

	if err := s.maintenanceRepo.Update(id, map[string]interface{}{
		"ended_at": now,
		"ended_by": actor,
	}); err != nil {
		return nil, err
	}

	log.Printf("✅ Scheduled maintenance %d cancelled before start", id)
	return s.maintenanceRepo.GetByID(id)
}

// restoreProductStatus flips a product in MAINTENANCE back to AVAILABLE
// when no other active window covers it.
func (s *MaintenanceService) restoreProductStatus(productID, excludeID uint, now time.Time) {
	remaining, err := s.maintenanceRepo.CountActiveForProduct(productID, excludeID, scheduling.Date(now))
	if err != nil {
		log.Printf("⚠️ Failed to count active maintenances for product %d: %v", productID, err)
		return
	}
	if remaining > 0 {
		return
	}

	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return
	}
	if product.Status == string(domain.ProductMaintenance) {
		if err := s.productRepo.UpdateStatus(productID, string(domain.ProductAvailable)); err != nil {
			log.Printf("⚠️ Failed to restore product %d to AVAILABLE: %v", productID, err)
		}
	}
}

// ============================================================
// Queries & sweep
// ============================================================

// GetByID returns a maintenance window
func (s *MaintenanceService) GetByID(id uint) (*models.Maintenance, error) {
	maintenance, err := s.maintenanceRepo.GetByID(id)
	if err != nil {
		return nil, ErrMaintenanceNotFound
	}
	return maintenance, nil
}

// ListByProduct returns all windows for a product with derived status
func (s *MaintenanceService) ListByProduct(productID uint) ([]models.Maintenance, error) {
	return s.maintenanceRepo.ListByProduct(productID)
}

// ExpireDue ends every window whose end date has passed, with the system
// sentinel as the ending actor. Idempotent: already-ended windows are never
// selected, so the sweep is safe to run at any cadence.
func (s *MaintenanceService) ExpireDue() (int, error) {
	due, err := s.maintenanceRepo.FindExpired(scheduling.Date(s.now()))
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, m := range due {
		if _, err := s.End(m.ID, domain.SystemActor); err != nil {
			log.Printf("⚠️ Failed to auto-expire maintenance %d: %v", m.ID, err)
			continue
		}
		expired++
	}

	if expired > 0 {
		log.Printf("🗑️ Auto-expired %d maintenance windows", expired)
	}
	return expired, nil
}
