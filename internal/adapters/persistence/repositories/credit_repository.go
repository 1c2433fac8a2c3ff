package repositories

import (
	"lendhub/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// CreditRepository handles the append-only credit ledger and the
// denormalized balance column on users.
type CreditRepository struct {
	db *gorm.DB
}

// NewCreditRepository creates a new credit repository
func NewCreditRepository(db *gorm.DB) *CreditRepository {
	return &CreditRepository{db: db}
}

// DebitIfSufficient atomically subtracts amount from the user's balance,
// guarded in SQL so two racing debits can never both pass the sufficiency
// check. Returns (false, nil) when the balance is insufficient.
func (r *CreditRepository) DebitIfSufficient(tx *gorm.DB, userID uint, amount int64) (bool, error) {
	if tx == nil {
		tx = r.db
	}

	result := tx.Model(&models.User{}).
		Where("id = ? AND credit_balance >= ?", userID, amount).
		Update("credit_balance", gorm.Expr("credit_balance - ?", amount))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Credit adds amount to the user's balance. Fails with
// gorm.ErrRecordNotFound when the user row does not exist.
func (r *CreditRepository) Credit(tx *gorm.DB, userID uint, amount int64) error {
	if tx == nil {
		tx = r.db
	}

	result := tx.Model(&models.User{}).
		Where("id = ?", userID).
		Update("credit_balance", gorm.Expr("credit_balance + ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AppendEntry records a ledger row inside the given transaction handle.
func (r *CreditRepository) AppendEntry(tx *gorm.DB, entry *models.CreditEntry) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Create(entry).Error
}

// Balance returns the current balance for a user
func (r *CreditRepository) Balance(userID uint) (int64, error) {
	var user models.User
	err := r.db.Select("credit_balance").First(&user, userID).Error
	return user.CreditBalance, err
}

// History returns ledger entries for a user, newest first
func (r *CreditRepository) History(userID uint, offset, limit int) ([]models.CreditEntry, int64, error) {
	var entries []models.CreditEntry
	var total int64

	base := r.db.Model(&models.CreditEntry{}).Where("user_id = ?", userID)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&entries).Error
	return entries, total, err
}
