package domain

import "time"

// Role represents user role in the system
type Role string

const (
	RoleUser    Role = "USER"
	RoleOfficer Role = "OFFICER"
	RoleAdmin   Role = "ADMIN"
)

// CreditPeriod is the billing unit for a product
type CreditPeriod string

const (
	PeriodDay  CreditPeriod = "DAY"
	PeriodWeek CreditPeriod = "WEEK"
)

// ProductStatus is the catalog lifecycle status of a product
type ProductStatus string

const (
	ProductAvailable   ProductStatus = "AVAILABLE"
	ProductUnavailable ProductStatus = "UNAVAILABLE"
	ProductMaintenance ProductStatus = "MAINTENANCE"
	ProductArchived    ProductStatus = "ARCHIVED"
)

// ReservationStatus is the lifecycle state of a reservation
type ReservationStatus string

const (
	ReservationConfirmed  ReservationStatus = "CONFIRMED"
	ReservationCheckedOut ReservationStatus = "CHECKED_OUT"
	ReservationReturned   ReservationStatus = "RETURNED"
	ReservationCancelled  ReservationStatus = "CANCELLED"
	ReservationRefunded   ReservationStatus = "REFUNDED"
)

// IsTerminal reports whether no further status transition is defined.
// A RETURNED reservation can still carry a later refund event, recorded
// via refund_amount/refunded_at without changing status.
func (s ReservationStatus) IsTerminal() bool {
	switch s {
	case ReservationReturned, ReservationCancelled, ReservationRefunded:
		return true
	}
	return false
}

// Occupies reports whether a reservation in this status holds its date
// interval in the conflict index.
func (s ReservationStatus) Occupies() bool {
	return s == ReservationConfirmed || s == ReservationCheckedOut
}

// ReturnCondition describes the state of a product on return
type ReturnCondition string

const (
	ConditionOK           ReturnCondition = "OK"
	ConditionMinorDamage  ReturnCondition = "MINOR_DAMAGE"
	ConditionMajorDamage  ReturnCondition = "MAJOR_DAMAGE"
	ConditionMissingParts ReturnCondition = "MISSING_PARTS"
	ConditionBroken       ReturnCondition = "BROKEN"
)

// ValidReturnCondition reports whether c is a known return condition.
func ValidReturnCondition(c ReturnCondition) bool {
	switch c {
	case ConditionOK, ConditionMinorDamage, ConditionMajorDamage, ConditionMissingParts, ConditionBroken:
		return true
	}
	return false
}

// MaintenanceStatus is derived from the stored dates, never persisted.
type MaintenanceStatus string

const (
	MaintenanceScheduled MaintenanceStatus = "SCHEDULED"
	MaintenanceActive    MaintenanceStatus = "ACTIVE"
	MaintenanceEnded     MaintenanceStatus = "ENDED"
)

// SystemActor is the sentinel user ID recorded when the system itself
// performs an action (maintenance cascade cancel, auto-expiry sweep).
const SystemActor uint = 0

// CreditEntryType classifies ledger entries
type CreditEntryType string

const (
	EntryReservationDebit CreditEntryType = "RESERVATION_DEBIT"
	EntryRefundCredit     CreditEntryType = "REFUND_CREDIT"
	EntryAdminAdjustment  CreditEntryType = "ADMIN_ADJUSTMENT"
	EntryTopUp            CreditEntryType = "TOPUP"
)

// MovementAction classifies movement log entries
type MovementAction string

const (
	MovementCheckout     MovementAction = "CHECKOUT"
	MovementReturn       MovementAction = "RETURN"
	MovementStatusChange MovementAction = "STATUS_CHANGE"
)

// Actor identifies who initiated a lifecycle transition.
type Actor struct {
	UserID   uint
	Facility bool // staff or system initiated, as opposed to self-service
}

// System returns the facility actor used for system-generated transitions.
func System() Actor {
	return Actor{UserID: SystemActor, Facility: true}
}

// CascadeOutcome is the per-reservation result of a maintenance cascade.
// Aggregates on the maintenance record are a fold over successes only.
type CascadeOutcome struct {
	ReservationID uint      `json:"reservation_id"`
	Cancelled     bool      `json:"cancelled"`
	Refunded      int64     `json:"refunded"`
	Error         string    `json:"error,omitempty"`
	At            time.Time `json:"at"`
}
