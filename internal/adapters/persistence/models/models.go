package models

import (
	"time"

	"gorm.io/gorm"

	"lendhub/internal/core/domain"
	"lendhub/internal/core/scheduling"
)

// ============================================================
// Auth & User Tables
// ============================================================

// User represents users table
type User struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Username      string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email         string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password      string         `gorm:"size:255;not null" json:"-"`
	Role          string         `gorm:"size:20;default:'USER'" json:"role"`
	CreditBalance int64          `gorm:"not null;default:0" json:"credit_balance"`
	IsActive      bool           `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID            uint      `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	CreditBalance int64     `json:"credit_balance"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		Role:          u.Role,
		CreditBalance: u.CreditBalance,
		IsActive:      u.IsActive,
		CreatedAt:     u.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Catalog Tables
// ============================================================

// Section groups products sharing weekday availability rules.
// AllowedDaysOut/In hold comma separated ISO weekday codes (1=Mon .. 7=Sun);
// empty means any day. Codes are validated on write via scheduling.ParseAllowedDays.
type Section struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Code           string         `gorm:"size:20;uniqueIndex;not null" json:"code"`
	Name           string         `gorm:"size:100;not null" json:"name"`
	Description    string         `gorm:"type:text" json:"description"`
	AllowedDaysOut string         `gorm:"size:20" json:"allowed_days_out"`
	AllowedDaysIn  string         `gorm:"size:20" json:"allowed_days_in"`
	IsActive       bool           `gorm:"default:true" json:"is_active"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Section) TableName() string {
	return "sections"
}

// DaysOut returns the parsed checkout weekday set.
func (s *Section) DaysOut() (scheduling.AllowedDays, error) {
	return scheduling.ParseAllowedDays(s.AllowedDaysOut)
}

// DaysIn returns the parsed return weekday set.
func (s *Section) DaysIn() (scheduling.AllowedDays, error) {
	return scheduling.ParseAllowedDays(s.AllowedDaysIn)
}

// Product represents a lendable item.
// MaxDuration = 0 means unbounded; when positive, MaxDuration >= MinDuration >= 1.
// PriceCredits NULL means the price is hidden pending caution validation and
// the product cannot be booked.
type Product struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	SectionID    uint           `gorm:"not null;index" json:"section_id"`
	Code         string         `gorm:"size:30;uniqueIndex;not null" json:"code"`
	Name         string         `gorm:"size:150;not null" json:"name"`
	Description  string         `gorm:"type:text" json:"description"`
	MinDuration  int            `gorm:"not null;default:1" json:"min_duration"`
	MaxDuration  int            `gorm:"not null;default:0" json:"max_duration"`
	PriceCredits *int64         `json:"price_credits"`
	CreditPeriod string         `gorm:"size:10;default:'DAY'" json:"credit_period"`
	Status       string         `gorm:"size:20;default:'AVAILABLE';index" json:"status"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Section      Section        `gorm:"foreignKey:SectionID" json:"section,omitempty"`
}

func (Product) TableName() string {
	return "products"
}

// ============================================================
// Reservation & Maintenance Tables
// ============================================================

// Reservation is the permanent audit record of a booking. It is never
// deleted, only transitioned.
type Reservation struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Reference       string     `gorm:"size:40;uniqueIndex;not null" json:"reference"`
	ProductID       uint       `gorm:"not null;index" json:"product_id"`
	UserID          uint       `gorm:"not null;index" json:"user_id"`
	StartDate       time.Time  `gorm:"type:date;not null;index" json:"start_date"`
	EndDate         time.Time  `gorm:"type:date;not null;index" json:"end_date"`
	StartTime       string     `gorm:"size:10" json:"start_time,omitempty"`
	EndTime         string     `gorm:"size:10" json:"end_time,omitempty"`
	Status          string     `gorm:"size:15;default:'CONFIRMED';index" json:"status"`
	CreditsCharged  int64      `gorm:"not null" json:"credits_charged"`
	RefundAmount    *int64     `json:"refund_amount"`
	CheckedOutAt    *time.Time `json:"checked_out_at"`
	ReturnedAt      *time.Time `json:"returned_at"`
	CancelledAt     *time.Time `json:"cancelled_at"`
	RefundedAt      *time.Time `json:"refunded_at"`
	CancelReason    string     `gorm:"size:255" json:"cancel_reason,omitempty"`
	CancelledBy     *uint      `json:"cancelled_by,omitempty"`
	ReturnCondition string     `gorm:"size:20" json:"return_condition,omitempty"`
	Notes           string     `gorm:"size:500" json:"notes,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	Product         Product    `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	User            User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Reservation) TableName() string {
	return "reservations"
}

// IsRefunded reports whether a refund has already been recorded.
func (r *Reservation) IsRefunded() bool {
	return r.RefundedAt != nil
}

// Maintenance is a blocking window on a product. EndDate nil means
// indefinite: the window blocks all future bookings until explicitly ended.
// EndedAt/EndedBy distinguish "still active" from "ended", and "ended by
// admin" from "ended by system expiry" (EndedBy = domain.SystemActor).
type Maintenance struct {
	ID                         uint       `gorm:"primaryKey" json:"id"`
	ProductID                  uint       `gorm:"not null;index" json:"product_id"`
	StartDate                  time.Time  `gorm:"type:date;not null;index" json:"start_date"`
	EndDate                    *time.Time `gorm:"type:date;index" json:"end_date"`
	Reason                     string     `gorm:"size:255;not null" json:"reason"`
	CreatedBy                  uint       `gorm:"not null" json:"created_by"`
	EndedAt                    *time.Time `json:"ended_at"`
	EndedBy                    *uint      `json:"ended_by"`
	CancelledReservationsCount int        `gorm:"not null;default:0" json:"cancelled_reservations_count"`
	RefundedCreditsTotal       int64      `gorm:"not null;default:0" json:"refunded_credits_total"`
	CreatedAt                  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt                  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	Product                    Product    `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (Maintenance) TableName() string {
	return "maintenances"
}

// IsEnded reports whether the window has been explicitly ended.
func (m *Maintenance) IsEnded() bool {
	return m.EndedAt != nil
}

// Status derives the maintenance state from stored dates and the clock.
// Nothing is persisted beyond EndedAt/EndedBy, so the derived status can
// never drift from wall-clock time.
func (m *Maintenance) Status(now time.Time) domain.MaintenanceStatus {
	if m.IsEnded() {
		return domain.MaintenanceEnded
	}
	today := scheduling.Date(now)
	if today.Before(scheduling.Date(m.StartDate)) {
		return domain.MaintenanceScheduled
	}
	if !scheduling.Overlaps(m.StartDate, m.EndDate, today, &today) {
		// Past its end date but not swept yet. Lazily ended.
		return domain.MaintenanceEnded
	}
	return domain.MaintenanceActive
}

// ============================================================
// Ledger & Movement Tables
// ============================================================

// CreditEntry is an append-only balance-affecting ledger row.
// Amount is signed: positive credits, negative debits.
type CreditEntry struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	Amount        int64     `gorm:"not null" json:"amount"`
	Type          string    `gorm:"size:25;not null" json:"type"`
	ReservationID *uint     `gorm:"index" json:"reservation_id,omitempty"`
	Description   string    `gorm:"size:255" json:"description"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (CreditEntry) TableName() string {
	return "credit_entries"
}

// MovementLog is the write-only checkout/return/status-change sink.
type MovementLog struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ReservationID uint      `gorm:"not null;index" json:"reservation_id"`
	ProductID     uint      `gorm:"not null;index" json:"product_id"`
	UserID        uint      `gorm:"not null" json:"user_id"`
	ActorID       uint      `gorm:"not null" json:"actor_id"`
	Action        string    `gorm:"size:20;not null" json:"action"`
	Condition     string    `gorm:"size:20" json:"condition,omitempty"`
	Notes         string    `gorm:"size:500" json:"notes,omitempty"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (MovementLog) TableName() string {
	return "movement_logs"
}

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// Auth
		&User{},
		&RefreshToken{},
		// Catalog
		&Section{},
		&Product{},
		// Scheduling engine
		&Reservation{},
		&Maintenance{},
		// Ledger & movement
		&CreditEntry{},
		&MovementLog{},
	)
}
