package services

import (
	"errors"
	"log"

	"lendhub/internal/adapters/persistence/models"
	"lendhub/internal/adapters/persistence/repositories"
	"lendhub/internal/core/domain"

	"gorm.io/gorm"
)

// CreditService owns balance arithmetic over the append-only ledger.
// Debits are guarded in SQL (debit-if-sufficient), so the sufficiency check
// always reflects the latest committed balance.
type CreditService struct {
	creditRepo *repositories.CreditRepository
}

// NewCreditService creates a new credit service
func NewCreditService(creditRepo *repositories.CreditRepository) *CreditService {
	return &CreditService{creditRepo: creditRepo}
}

// Debit removes amount from the user's balance and records a ledger entry.
// Returns domain.ErrInsufficientCredits when the balance cannot cover it.
// Must run inside the caller's transaction so a failed booking never leaves
// a partial debit.
func (s *CreditService) Debit(tx *gorm.DB, userID uint, amount int64, entryType domain.CreditEntryType, reservationID *uint, description string) error {
	if amount < 0 {
		return domain.ErrInvalidAmount
	}

	ok, err := s.creditRepo.DebitIfSufficient(tx, userID, amount)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrInsufficientCredits
	}

	return s.creditRepo.AppendEntry(tx, &models.CreditEntry{
		UserID:        userID,
		Amount:        -amount,
		Type:          string(entryType),
		ReservationID: reservationID,
		Description:   description,
	})
}

// Credit adds amount to the user's balance and records a ledger entry.
func (s *CreditService) Credit(tx *gorm.DB, userID uint, amount int64, entryType domain.CreditEntryType, reservationID *uint, description string) error {
	if amount < 0 {
		return domain.ErrInvalidAmount
	}

	if err := s.creditRepo.Credit(tx, userID, amount); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	return s.creditRepo.AppendEntry(tx, &models.CreditEntry{
		UserID:        userID,
		Amount:        amount,
		Type:          string(entryType),
		ReservationID: reservationID,
		Description:   description,
	})
}

// Balance returns the user's current balance
func (s *CreditService) Balance(userID uint) (int64, error) {
	balance, err := s.creditRepo.Balance(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, domain.ErrUserNotFound
	}
	return balance, err
}

// History returns the user's ledger entries, newest first
func (s *CreditService) History(userID uint, offset, limit int) ([]models.CreditEntry, int64, error) {
	return s.creditRepo.History(userID, offset, limit)
}

// TopUp credits a user's account on behalf of an admin
func (s *CreditService) TopUp(userID uint, amount int64, description string) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	if err := s.Credit(nil, userID, amount, domain.EntryTopUp, nil, description); err != nil {
		return err
	}
	log.Printf("✅ Credits topped up: user %d +%d", userID, amount)
	return nil
}

// Adjust applies a signed admin adjustment. Negative adjustments still go
// through the sufficiency guard so a balance can never go below zero.
func (s *CreditService) Adjust(userID uint, amount int64, description string) error {
	if amount == 0 {
		return domain.ErrInvalidAmount
	}
	if amount > 0 {
		return s.Credit(nil, userID, amount, domain.EntryAdminAdjustment, nil, description)
	}
	return s.Debit(nil, userID, -amount, domain.EntryAdminAdjustment, nil, description)
}
