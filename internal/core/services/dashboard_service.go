package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"lendhub/internal/core/domain"
	"lendhub/internal/core/scheduling"
)

// DashboardService handles dashboard operations
type DashboardService struct {
	db *gorm.DB
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

// ============================================================
// Admin Dashboard
// ============================================================

// AdminDashboardData represents admin dashboard data
type AdminDashboardData struct {
	// User Statistics
	TotalUsers    int64 `json:"total_users"`
	TotalAdmins   int64 `json:"total_admins"`
	TotalOfficers int64 `json:"total_officers"`
	TotalMembers  int64 `json:"total_members"`

	// Catalog Statistics
	TotalProducts       int64 `json:"total_products"`
	AvailableProducts   int64 `json:"available_products"`
	MaintenanceProducts int64 `json:"maintenance_products"`

	// Reservation Statistics
	TotalReservations      int64 `json:"total_reservations"`
	ConfirmedReservations  int64 `json:"confirmed_reservations"`
	CheckedOutReservations int64 `json:"checked_out_reservations"`
	ReturnedReservations   int64 `json:"returned_reservations"`
	CancelledReservations  int64 `json:"cancelled_reservations"`

	// Credit Statistics
	TotalCreditsCharged  int64 `json:"total_credits_charged"`
	TotalCreditsRefunded int64 `json:"total_credits_refunded"`

	// Monthly Statistics
	ReservationsThisMonth int64 `json:"reservations_this_month"`
	CreditsThisMonth      int64 `json:"credits_this_month"`

	// Operations
	DueReturnsToday    int64 `json:"due_returns_today"`
	ActiveMaintenances int64 `json:"active_maintenances"`

	// Recent Activity
	RecentReservations []ReservationSummary `json:"recent_reservations"`
}

// ReservationSummary represents reservation summary
type ReservationSummary struct {
	ID             uint      `json:"id"`
	Reference      string    `json:"reference"`
	ProductName    string    `json:"product_name"`
	Username       string    `json:"username"`
	Status         string    `json:"status"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	CreditsCharged int64     `json:"credits_charged"`
	CreatedAt      time.Time `json:"created_at"`
}

// GetAdminDashboard returns admin dashboard data
func (s *DashboardService) GetAdminDashboard(ctx context.Context) (*AdminDashboardData, error) {
	data := &AdminDashboardData{}

	// User counts by role
	s.db.WithContext(ctx).Table("users").Where("deleted_at IS NULL").Count(&data.TotalUsers)
	s.db.WithContext(ctx).Table("users").Where("role = ? AND deleted_at IS NULL", domain.RoleAdmin).Count(&data.TotalAdmins)
	s.db.WithContext(ctx).Table("users").Where("role = ? AND deleted_at IS NULL", domain.RoleOfficer).Count(&data.TotalOfficers)
	s.db.WithContext(ctx).Table("users").Where("role = ? AND deleted_at IS NULL", domain.RoleUser).Count(&data.TotalMembers)

	// Catalog counts
	s.db.WithContext(ctx).Table("products").Where("deleted_at IS NULL").Count(&data.TotalProducts)
	s.db.WithContext(ctx).Table("products").Where("status = ? AND deleted_at IS NULL", domain.ProductAvailable).Count(&data.AvailableProducts)
	s.db.WithContext(ctx).Table("products").Where("status = ? AND deleted_at IS NULL", domain.ProductMaintenance).Count(&data.MaintenanceProducts)

	// Reservation counts by status
	s.db.WithContext(ctx).Table("reservations").Count(&data.TotalReservations)
	s.db.WithContext(ctx).Table("reservations").Where("status = ?", domain.ReservationConfirmed).Count(&data.ConfirmedReservations)
	s.db.WithContext(ctx).Table("reservations").Where("status = ?", domain.ReservationCheckedOut).Count(&data.CheckedOutReservations)
	s.db.WithContext(ctx).Table("reservations").Where("status = ?", domain.ReservationReturned).Count(&data.ReturnedReservations)
	s.db.WithContext(ctx).Table("reservations").
		Where("status IN ?", []string{string(domain.ReservationCancelled), string(domain.ReservationRefunded)}).
		Count(&data.CancelledReservations)

	// Credit totals
	s.db.WithContext(ctx).Table("reservations").
		Select("COALESCE(SUM(credits_charged), 0)").
		Scan(&data.TotalCreditsCharged)

	s.db.WithContext(ctx).Table("reservations").
		Where("refunded_at IS NOT NULL").
		Select("COALESCE(SUM(refund_amount), 0)").
		Scan(&data.TotalCreditsRefunded)

	// This month statistics
	startOfMonth := time.Now().AddDate(0, 0, -time.Now().Day()+1).Truncate(24 * time.Hour)
	s.db.WithContext(ctx).Table("reservations").
		Where("created_at >= ?", startOfMonth).
		Count(&data.ReservationsThisMonth)

	s.db.WithContext(ctx).Table("reservations").
		Where("created_at >= ?", startOfMonth).
		Select("COALESCE(SUM(credits_charged), 0)").
		Scan(&data.CreditsThisMonth)

	// Operations
	today := scheduling.Date(time.Now())
	s.db.WithContext(ctx).Table("reservations").
		Where("status = ? AND end_date <= ?", domain.ReservationCheckedOut, today).
		Count(&data.DueReturnsToday)

	s.db.WithContext(ctx).Table("maintenances").
		Where("ended_at IS NULL AND start_date <= ? AND (end_date IS NULL OR end_date >= ?)", today, today).
		Count(&data.ActiveMaintenances)

	// Recent reservations
	var recent []struct {
		ID             uint
		Reference      string
		ProductName    string
		Username       string
		Status         string
		StartDate      time.Time
		EndDate        time.Time
		CreditsCharged int64
		CreatedAt      time.Time
	}
	s.db.WithContext(ctx).Table("reservations").
		Select("reservations.id, reservations.reference, products.name as product_name, users.username, reservations.status, reservations.start_date, reservations.end_date, reservations.credits_charged, reservations.created_at").
		Joins("LEFT JOIN products ON reservations.product_id = products.id").
		Joins("LEFT JOIN users ON reservations.user_id = users.id").
		Order("reservations.created_at DESC").
		Limit(10).
		Scan(&recent)

	data.RecentReservations = make([]ReservationSummary, len(recent))
	for i, r := range recent {
		data.RecentReservations[i] = ReservationSummary{
			ID:             r.ID,
			Reference:      r.Reference,
			ProductName:    r.ProductName,
			Username:       r.Username,
			Status:         r.Status,
			StartDate:      r.StartDate,
			EndDate:        r.EndDate,
			CreditsCharged: r.CreditsCharged,
			CreatedAt:      r.CreatedAt,
		}
	}

	return data, nil
}

// ============================================================
// User Dashboard
// ============================================================

// UserDashboardData represents user dashboard data
type UserDashboardData struct {
	// My Summary
	TotalReservations  int64 `json:"total_reservations"`
	ActiveReservations int64 `json:"active_reservations"`
	CreditBalance      int64 `json:"credit_balance"`
	TotalCreditsSpent  int64 `json:"total_credits_spent"`

	// My Reservations
	UpcomingReservations []ReservationSummary `json:"upcoming_reservations"`
}

// GetUserDashboard returns user dashboard data
func (s *DashboardService) GetUserDashboard(ctx context.Context, userID uint) (*UserDashboardData, error) {
	data := &UserDashboardData{}

	s.db.WithContext(ctx).Table("reservations").
		Where("user_id = ?", userID).
		Count(&data.TotalReservations)

	s.db.WithContext(ctx).Table("reservations").
		Where("user_id = ? AND status IN ?",
			userID, []string{string(domain.ReservationConfirmed), string(domain.ReservationCheckedOut)}).
		Count(&data.ActiveReservations)

	s.db.WithContext(ctx).Table("users").
		Where("id = ?", userID).
		Select("credit_balance").
		Scan(&data.CreditBalance)

	s.db.WithContext(ctx).Table("reservations").
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(credits_charged), 0)").
		Scan(&data.TotalCreditsSpent)

	// Upcoming reservations
	today := scheduling.Date(time.Now())
	var upcoming []struct {
		ID             uint
		Reference      string
		ProductName    string
		Username       string
		Status         string
		StartDate      time.Time
		EndDate        time.Time
		CreditsCharged int64
		CreatedAt      time.Time
	}
	s.db.WithContext(ctx).Table("reservations").
		Select("reservations.id, reservations.reference, products.name as product_name, reservations.status, reservations.start_date, reservations.end_date, reservations.credits_charged, reservations.created_at").
		Joins("LEFT JOIN products ON reservations.product_id = products.id").
		Where("reservations.user_id = ? AND reservations.end_date >= ? AND reservations.status IN ?",
			userID, today, []string{string(domain.ReservationConfirmed), string(domain.ReservationCheckedOut)}).
		Order("reservations.start_date ASC").
		Limit(5).
		Scan(&upcoming)

	data.UpcomingReservations = make([]ReservationSummary, len(upcoming))
	for i, r := range upcoming {
		data.UpcomingReservations[i] = ReservationSummary{
			ID:             r.ID,
			Reference:      r.Reference,
			ProductName:    r.ProductName,
			Status:         r.Status,
			StartDate:      r.StartDate,
			EndDate:        r.EndDate,
			CreditsCharged: r.CreditsCharged,
			CreatedAt:      r.CreatedAt,
		}
	}

	return data, nil
}
