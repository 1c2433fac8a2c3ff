package handlers

import (
	"errors"
	"strconv"

	"lendhub/internal/core/domain"
	"lendhub/internal/core/services"
	"lendhub/internal/pkg/pagination"
	"lendhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// CatalogHandler handles section and product endpoints
type CatalogHandler struct {
	catalogService *services.CatalogService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalogService *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// ============================================================
// Sections
// ============================================================

// ListSections handles listing all active sections
func (h *CatalogHandler) ListSections(c *fiber.Ctx) error {
	sections, err := h.catalogService.ListSections()
	if err != nil {
		return response.InternalServerError(c, "Failed to list sections")
	}

	return response.Success(c, "Sections retrieved successfully", fiber.Map{
		"sections": sections,
	})
}

// GetSection handles getting a section by ID
func (h *CatalogHandler) GetSection(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid section ID")
	}

	section, err := h.catalogService.GetSection(uint(id))
	if err != nil {
		return response.NotFound(c, "Section not found")
	}

	return response.Success(c, "Section retrieved successfully", fiber.Map{
		"section": section,
	})
}

// CreateSection handles creating a section (Admin only)
func (h *CatalogHandler) CreateSection(c *fiber.Ctx) error {
	var input services.SectionInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	section, err := h.catalogService.CreateSection(&input)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return response.BadRequest(c, err.Error())
		}
		return response.InternalServerError(c, "Failed to create section")
	}

	return response.Created(c, "Section created successfully", fiber.Map{
		"section": section,
	})
}

// UpdateSection handles updating a section (Admin only)
func (h *CatalogHandler) UpdateSection(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid section ID")
	}

	var input services.SectionInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	section, err := h.catalogService.UpdateSection(uint(id), &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSectionNotFound):
			return response.NotFound(c, "Section not found")
		case errors.Is(err, domain.ErrValidation):
			return response.BadRequest(c, err.Error())
		default:
			return response.InternalServerError(c, "Failed to update section")
		}
	}

	return response.Success(c, "Section updated successfully", fiber.Map{
		"section": section,
	})
}

// DeleteSection handles deleting a section (Admin only)
func (h *CatalogHandler) DeleteSection(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid section ID")
	}

	if err := h.catalogService.DeleteSection(uint(id)); err != nil {
		if errors.Is(err, services.ErrSectionNotFound) {
			return response.NotFound(c, "Section not found")
		}
		return response.InternalServerError(c, "Failed to delete section")
	}

	return response.Success(c, "Section deleted successfully", nil)
}

// ============================================================
// Products
// ============================================================

// ListProducts handles listing products with optional filters
func (h *CatalogHandler) ListProducts(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	sectionID, _ := strconv.ParseUint(c.Query("section_id", "0"), 10, 32)
	status := c.Query("status", "")

	products, total, err := h.catalogService.ListProducts(uint(sectionID), status, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list products")
	}

	return response.Success(c, "Products retrieved successfully", pagination.NewResponse(products, params, total))
}

// GetProduct handles getting a product by ID
func (h *CatalogHandler) GetProduct(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid product ID")
	}

	product, err := h.catalogService.GetProduct(uint(id))
	if err != nil {
		return response.NotFound(c, "Product not found")
	}

	return response.Success(c, "Product retrieved successfully", fiber.Map{
		"product": product,
	})
}

// CreateProduct handles creating a product (Admin only)
func (h *CatalogHandler) CreateProduct(c *fiber.Ctx) error {
	var input services.ProductInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	product, err := h.catalogService.CreateProduct(&input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSectionNotFound):
			return response.NotFound(c, "Section not found")
		case errors.Is(err, domain.ErrValidation):
			return response.BadRequest(c, err.Error())
		default:
			return response.InternalServerError(c, "Failed to create product")
		}
	}

	return response.Created(c, "Product created successfully", fiber.Map{
		"product": product,
	})
}

// UpdateProduct handles updating a product (Admin only)
func (h *CatalogHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid product ID")
	}

	var input services.ProductInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	product, err := h.catalogService.UpdateProduct(uint(id), &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProductNotFound):
			return response.NotFound(c, "Product not found")
		case errors.Is(err, services.ErrSectionNotFound):
			return response.NotFound(c, "Section not found")
		case errors.Is(err, domain.ErrValidation):
			return response.BadRequest(c, err.Error())
		default:
			return response.InternalServerError(c, "Failed to update product")
		}
	}

	return response.Success(c, "Product updated successfully", fiber.Map{
		"product": product,
	})
}

// DeleteProduct handles deleting a product (Admin only)
func (h *CatalogHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid product ID")
	}

	if err := h.catalogService.DeleteProduct(uint(id)); err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			return response.NotFound(c, "Product not found")
		}
		return response.InternalServerError(c, "Failed to delete product")
	}

	return response.Success(c, "Product deleted successfully", nil)
}
