package handlers

import (
	"errors"
	"strconv"
	"time"

	"lendhub/internal/core/domain"
	"lendhub/internal/core/services"
	"lendhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// MaintenanceHandler handles maintenance window endpoints (Staff only)
type MaintenanceHandler struct {
	maintenanceService *services.MaintenanceService
}

// NewMaintenanceHandler creates a new maintenance handler
func NewMaintenanceHandler(maintenanceService *services.MaintenanceService) *MaintenanceHandler {
	return &MaintenanceHandler{maintenanceService: maintenanceService}
}

// MaintenanceRequest represents a maintenance window request body
type MaintenanceRequest struct {
	ProductID uint   `json:"product_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Reason    string `json:"reason"`
}

func (r *MaintenanceRequest) toInput() (*services.MaintenanceInput, error) {
	if r.ProductID == 0 {
		return nil, errors.New("product ID is required")
	}
	start, err := parseDate(r.StartDate)
	if err != nil {
		return nil, errors.New("invalid start date")
	}

	var end *time.Time
	if r.EndDate != "" {
		e, err := parseDate(r.EndDate)
		if err != nil {
			return nil, errors.New("invalid end date")
		}
		end = &e
	}

	return &services.MaintenanceInput{
		ProductID: r.ProductID,
		StartDate: start,
		EndDate:   end,
		Reason:    r.Reason,
	}, nil
}

// Preview handles a dry-run of the cascade
func (h *MaintenanceHandler) Preview(c *fiber.Ctx) error {
	var req MaintenanceRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	input, err := req.toInput()
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	result, err := h.maintenanceService.Preview(input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProductNotFound):
			return response.NotFound(c, "Product not found")
		case errors.Is(err, domain.ErrValidation):
			return response.BadRequest(c, err.Error())
		default:
			return response.InternalServerError(c, "Failed to preview maintenance")
		}
	}

	return response.Success(c, "Maintenance preview computed successfully", result)
}

// Create handles creating a maintenance window and running the cascade
func (h *MaintenanceHandler) Create(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req MaintenanceRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	input, err := req.toInput()
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	maintenance, outcomes, err := h.maintenanceService.Create(input, userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProductNotFound):
			return response.NotFound(c, "Product not found")
		case errors.Is(err, domain.ErrMaintenanceOverlap):
			return response.Conflict(c, "Window overlaps an existing maintenance")
		case errors.Is(err, domain.ErrValidation):
			return response.BadRequest(c, err.Error())
		default:
			return response.InternalServerError(c, "Failed to create maintenance")
		}
	}

	return response.Created(c, "Maintenance created successfully", fiber.Map{
		"maintenance": maintenance,
		"cascade":     outcomes,
	})
}

// Get handles getting a maintenance window by ID
func (h *MaintenanceHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid maintenance ID")
	}

	maintenance, err := h.maintenanceService.GetByID(uint(id))
	if err != nil {
		return response.NotFound(c, "Maintenance not found")
	}

	return response.Success(c, "Maintenance retrieved successfully", fiber.Map{
		"maintenance": maintenance,
		"status":      maintenance.Status(time.Now()),
	})
}

// ListByProduct handles listing windows for a product
func (h *MaintenanceHandler) ListByProduct(c *fiber.Ctx) error {
	productID, err := strconv.ParseUint(c.Params("productId"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid product ID")
	}

	maintenances, err := h.maintenanceService.ListByProduct(uint(productID))
	if err != nil {
		return response.InternalServerError(c, "Failed to list maintenances")
	}

	now := time.Now()
	items := make([]fiber.Map, len(maintenances))
	for i := range maintenances {
		items[i] = fiber.Map{
			"maintenance": maintenances[i],
			"status":      maintenances[i].Status(now),
		}
	}

	return response.Success(c, "Maintenances retrieved successfully", fiber.Map{
		"maintenances": items,
	})
}

// End handles ending an active maintenance window
func (h *MaintenanceHandler) End(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid maintenance ID")
	}

	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	maintenance, err := h.maintenanceService.End(uint(id), userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMaintenanceNotFound):
			return response.NotFound(c, "Maintenance not found")
		case errors.Is(err, domain.ErrMaintenanceEnded):
			return response.Conflict(c, "Maintenance already ended")
		default:
			return response.InternalServerError(c, "Failed to end maintenance")
		}
	}

	return response.Success(c, "Maintenance ended successfully", fiber.Map{
		"maintenance": maintenance,
	})
}

// CancelScheduled handles cancelling a window before it starts
func (h *MaintenanceHandler) CancelScheduled(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid maintenance ID")
	}

	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	maintenance, err := h.maintenanceService.CancelScheduled(uint(id), userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMaintenanceNotFound):
			return response.NotFound(c, "Maintenance not found")
		case errors.Is(err, domain.ErrMaintenanceEnded):
			return response.Conflict(c, "Maintenance already ended")
		case errors.Is(err, domain.ErrMaintenanceStarted):
			return response.Conflict(c, "Maintenance already started, end it instead")
		default:
			return response.InternalServerError(c, "Failed to cancel maintenance")
		}
	}

	return response.Success(c, "Scheduled maintenance cancelled successfully", fiber.Map{
		"maintenance": maintenance,
	})
}
