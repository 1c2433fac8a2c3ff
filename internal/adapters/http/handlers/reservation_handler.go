package handlers

import (
	"errors"
	"strconv"
	"time"

	"lendhub/internal/config"
	"lendhub/internal/core/domain"
	"lendhub/internal/core/services"
	"lendhub/internal/pkg/pagination"
	"lendhub/internal/pkg/qrtoken"
	"lendhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ReservationHandler handles reservation lifecycle endpoints
type ReservationHandler struct {
	reservationService *services.ReservationService
	notifyService      *services.NotifyService
	cfg                *config.Config
}

// NewReservationHandler creates a new reservation handler
func NewReservationHandler(
	reservationService *services.ReservationService,
	notifyService *services.NotifyService,
	cfg *config.Config,
) *ReservationHandler {
	return &ReservationHandler{
		reservationService: reservationService,
		notifyService:      notifyService,
		cfg:                cfg,
	}
}

// actorFromCtx builds the acting identity from the auth middleware locals.
// OFFICER and ADMIN act on behalf of the facility.
func actorFromCtx(c *fiber.Ctx) (domain.Actor, bool) {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return domain.Actor{}, false
	}
	role, _ := c.Locals("role").(string)
	facility := role == string(domain.RoleOfficer) || role == string(domain.RoleAdmin)
	return domain.Actor{UserID: userID, Facility: facility}, true
}

// parseDate accepts YYYY-MM-DD or RFC3339
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// CreateReservationRequest represents reservation creation request body
type CreateReservationRequest struct {
	ProductID uint   `json:"product_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Notes     string `json:"notes"`
}

// Create handles creating a reservation
func (h *ReservationHandler) Create(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req CreateReservationRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.ProductID == 0 {
		return response.BadRequest(c, "Product ID is required")
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		return response.BadRequest(c, "Invalid start date")
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		return response.BadRequest(c, "Invalid end date")
	}

	reservation, err := h.reservationService.Create(userID, &services.CreateReservationInput{
		ProductID: req.ProductID,
		StartDate: start,
		EndDate:   end,
		Notes:     req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProductNotFound):
			return response.NotFound(c, "Product not found")
		case errors.Is(err, domain.ErrProductNotAvailable):
			return response.Conflict(c, "Product is not available for booking")
		case errors.Is(err, domain.ErrPriceHidden):
			return response.Conflict(c, "Product cannot be booked without a price")
		case errors.Is(err, domain.ErrDayNotAllowed):
			return response.BadRequest(c, "Pickup or return day is not allowed for this section")
		case errors.Is(err, domain.ErrConflict):
			return response.Conflict(c, "Requested dates overlap an existing reservation or maintenance")
		case errors.Is(err, domain.ErrInsufficientCredits):
			return response.Conflict(c, "Insufficient credits")
		case errors.Is(err, domain.ErrValidation):
			return response.BadRequest(c, err.Error())
		default:
			return response.InternalServerError(c, "Failed to create reservation")
		}
	}

	h.notifyService.NotifyConfirmed(reservation)

	return response.Created(c, "Reservation created successfully", fiber.Map{
		"reservation": reservation,
	})
}

// CheckAvailability handles a non-binding availability query
func (h *ReservationHandler) CheckAvailability(c *fiber.Ctx) error {
	productID, err := strconv.ParseUint(c.Query("product_id", "0"), 10, 32)
	if err != nil || productID == 0 {
		return response.BadRequest(c, "Product ID is required")
	}

	start, err := parseDate(c.Query("start_date"))
	if err != nil {
		return response.BadRequest(c, "Invalid start date")
	}
	end, err := parseDate(c.Query("end_date"))
	if err != nil {
		return response.BadRequest(c, "Invalid end date")
	}

	result, err := h.reservationService.CheckAvailability(uint(productID), start, end)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			return response.NotFound(c, "Product not found")
		}
		if errors.Is(err, domain.ErrValidation) {
			return response.BadRequest(c, err.Error())
		}
		return response.InternalServerError(c, "Failed to check availability")
	}

	return response.Success(c, "Availability checked successfully", result)
}

// MyReservations handles listing the caller's reservations
func (h *ReservationHandler) MyReservations(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	params := pagination.GetParams(c)
	reservations, total, err := h.reservationService.ListByUser(userID, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list reservations")
	}

	return response.Success(c, "Reservations retrieved successfully", pagination.NewResponse(reservations, params, total))
}

// List handles listing reservations with filters (Staff only)
func (h *ReservationHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	productID, _ := strconv.ParseUint(c.Query("product_id", "0"), 10, 32)
	status := c.Query("status", "")

	reservations, total, err := h.reservationService.List(uint(productID), status, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list reservations")
	}

	return response.Success(c, "Reservations retrieved successfully", pagination.NewResponse(reservations, params, total))
}

// Get handles getting a reservation by ID (owner or staff)
func (h *ReservationHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid reservation ID")
	}

	actor, ok := actorFromCtx(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	reservation, err := h.reservationService.GetByID(uint(id))
	if err != nil {
		return response.NotFound(c, "Reservation not found")
	}
	if !actor.Facility && reservation.UserID != actor.UserID {
		return response.Forbidden(c, "Reservation belongs to another user")
	}

	return response.Success(c, "Reservation retrieved successfully", fiber.Map{
		"reservation": reservation,
	})
}

// GetQRToken issues a signed checkout token for the owner's reservation
func (h *ReservationHandler) GetQRToken(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid reservation ID")
	}

	actor, ok := actorFromCtx(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	reservation, err := h.reservationService.GetByID(uint(id))
	if err != nil {
		return response.NotFound(c, "Reservation not found")
	}
	if !actor.Facility && reservation.UserID != actor.UserID {
		return response.Forbidden(c, "Reservation belongs to another user")
	}
	if reservation.Status != string(domain.ReservationConfirmed) {
		return response.Conflict(c, "Only confirmed reservations can be checked out")
	}

	token := qrtoken.Issue(reservation.ID, h.cfg.Reservation.QRSecret)

	return response.Success(c, "Checkout token issued successfully", fiber.Map{
		"token": token,
	})
}

// GetByReference handles looking up a reservation by its reference code (Staff only)
func (h *ReservationHandler) GetByReference(c *fiber.Ctx) error {
	reference := c.Params("reference")
	if reference == "" {
		return response.BadRequest(c, "Reference is required")
	}

	reservation, err := h.reservationService.GetByReference(reference)
	if err != nil {
		return response.NotFound(c, "Reservation not found")
	}

	return response.Success(c, "Reservation retrieved successfully", fiber.Map{
		"reservation": reservation,
	})
}

// Overdue handles listing checked-out reservations past their end date (Staff only)
func (h *ReservationHandler) Overdue(c *fiber.Ctx) error {
	reservations, err := h.reservationService.Overdue()
	if err != nil {
		return response.InternalServerError(c, "Failed to list overdue reservations")
	}

	return response.Success(c, "Overdue reservations retrieved successfully", fiber.Map{
		"reservations": reservations,
	})
}

// MovementNotesRequest represents checkout/return notes
type MovementNotesRequest struct {
	Notes     string `json:"notes"`
	Condition string `json:"condition"`
}

// Checkout handles handing out the item (Staff only)
func (h *ReservationHandler) Checkout(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid reservation ID")
	}

	actor, ok := actorFromCtx(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req MovementNotesRequest
	_ = c.BodyParser(&req)

	reservation, err := h.reservationService.Checkout(uint(id), actor, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrReservationNotFound):
			return response.NotFound(c, "Reservation not found")
		case errors.Is(err, domain.ErrInvalidTransition):
			return response.Conflict(c, "Only confirmed reservations can be checked out")
		default:
			return response.InternalServerError(c, "Failed to check out reservation")
		}
	}

	h.notifyService.NotifyCheckedOut(reservation)

	return response.Success(c, "Reservation checked out successfully", fiber.Map{
		"reservation": reservation,
	})
}

// CheckoutByTokenRequest represents QR checkout request body
type CheckoutByTokenRequest struct {
	Token string `json:"token"`
	Notes string `json:"notes"`
}

// CheckoutByToken handles checkout via a scanned QR token (Staff only)
func (h *ReservationHandler) CheckoutByToken(c *fiber.Ctx) error {
	actor, ok := actorFromCtx(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req CheckoutByTokenRequest
	if err := c.BodyParser(&req); err != nil || req.Token == "" {
		return response.BadRequest(c, "Checkout token is required")
	}

	reservationID, err := qrtoken.Verify(req.Token, h.cfg.Reservation.QRSecret)
	if err != nil {
		return response.Unauthorized(c, "Invalid checkout token")
	}

	reservation, err := h.reservationService.Checkout(reservationID, actor, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrReservationNotFound):
			return response.NotFound(c, "Reservation not found")
		case errors.Is(err, domain.ErrInvalidTransition):
			return response.Conflict(c, "Only confirmed reservations can be checked out")
		default:
			return response.InternalServerError(c, "Failed to check out reservation")
		}
	}

	h.notifyService.NotifyCheckedOut(reservation)

	return response.Success(c, "Reservation checked out successfully", fiber.Map{
		"reservation": reservation,
	})
}

// Return handles taking the item back (Staff only)
func (h *ReservationHandler) Return(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid reservation ID")
	}

	actor, ok := actorFromCtx(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req MovementNotesRequest
	_ = c.BodyParser(&req)

	reservation, err := h.reservationService.Return(uint(id), actor, domain.ReturnCondition(req.Condition), req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrReservationNotFound):
			return response.NotFound(c, "Reservation not found")
		case errors.Is(err, domain.ErrInvalidTransition):
			return response.Conflict(c, "Only checked out reservations can be returned")
		case errors.Is(err, domain.ErrValidation):
			return response.BadRequest(c, err.Error())
		default:
			return response.InternalServerError(c, "Failed to return reservation")
		}
	}

	h.notifyService.NotifyReturned(reservation)

	return response.Success(c, "Reservation returned successfully", fiber.Map{
		"reservation": reservation,
	})
}

// CancelRequest represents cancellation request body
type CancelRequest struct {
	Reason string `json:"reason"`
}

// Cancel handles cancelling a reservation (owner or staff)
func (h *ReservationHandler) Cancel(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid reservation ID")
	}

	actor, ok := actorFromCtx(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req CancelRequest
	_ = c.BodyParser(&req)
	if req.Reason == "" {
		req.Reason = "cancelled by user"
	}

	reservation, err := h.reservationService.Cancel(uint(id), req.Reason, actor)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrReservationNotFound):
			return response.NotFound(c, "Reservation not found")
		case errors.Is(err, services.ErrNotOwner):
			return response.Forbidden(c, "Reservation belongs to another user")
		case errors.Is(err, domain.ErrInvalidTransition):
			return response.Conflict(c, "Only confirmed reservations can be cancelled")
		default:
			return response.InternalServerError(c, "Failed to cancel reservation")
		}
	}

	h.notifyService.NotifyCancelled(reservation)

	return response.Success(c, "Reservation cancelled successfully", fiber.Map{
		"reservation": reservation,
	})
}

// RefundRequest represents refund request body
type RefundRequest struct {
	Amount *int64 `json:"amount"`
	Reason string `json:"reason"`
}

// Refund handles refunding a reservation (Staff only)
func (h *ReservationHandler) Refund(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid reservation ID")
	}

	var req RefundRequest
	_ = c.BodyParser(&req)
	if req.Reason == "" {
		req.Reason = "manual refund"
	}

	reservation, err := h.reservationService.Refund(uint(id), req.Amount, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrReservationNotFound):
			return response.NotFound(c, "Reservation not found")
		case errors.Is(err, domain.ErrInvalidTransition):
			return response.Conflict(c, "Only cancelled or returned reservations can be refunded")
		case errors.Is(err, domain.ErrAlreadyRefunded):
			return response.Conflict(c, "Reservation already refunded")
		case errors.Is(err, domain.ErrInvalidAmount):
			return response.BadRequest(c, "Refund amount out of range")
		default:
			return response.InternalServerError(c, "Failed to refund reservation")
		}
	}

	h.notifyService.NotifyRefunded(reservation)

	return response.Success(c, "Reservation refunded successfully", fiber.Map{
		"reservation": reservation,
	})
}

// Movements handles listing a reservation's movement trail (Staff only)
func (h *ReservationHandler) Movements(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid reservation ID")
	}

	movements, err := h.reservationService.Movements(uint(id))
	if err != nil {
		if errors.Is(err, services.ErrReservationNotFound) {
			return response.NotFound(c, "Reservation not found")
		}
		return response.InternalServerError(c, "Failed to list movements")
	}

	return response.Success(c, "Movements retrieved successfully", fiber.Map{
		"movements": movements,
	})
}

// ProductMovements handles listing a product's recent movements (Staff only)
func (h *ReservationHandler) ProductMovements(c *fiber.Ctx) error {
	productID, err := strconv.ParseUint(c.Params("productId"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid product ID")
	}
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	movements, err := h.reservationService.ProductMovements(uint(productID), limit)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			return response.NotFound(c, "Product not found")
		}
		return response.InternalServerError(c, "Failed to list movements")
	}

	return response.Success(c, "Movements retrieved successfully", fiber.Map{
		"movements": movements,
	})
}
