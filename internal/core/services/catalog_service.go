package services

import (
	"errors"
	"fmt"
	"log"

	"lendhub/internal/adapters/persistence/models"
	"lendhub/internal/adapters/persistence/repositories"
	"lendhub/internal/core/domain"
	"lendhub/internal/core/scheduling"
)

// Catalog errors
var (
	ErrSectionNotFound = errors.New("section not found")
)

// CatalogService handles section and product administration. Weekday sets
// and duration bounds are validated here, at configuration time, so the
// booking path never sees malformed rules.
type CatalogService struct {
	sectionRepo *repositories.SectionRepository
	productRepo *repositories.ProductRepository
}

// NewCatalogService creates a new catalog service
func NewCatalogService(sectionRepo *repositories.SectionRepository, productRepo *repositories.ProductRepository) *CatalogService {
	return &CatalogService{
		sectionRepo: sectionRepo,
		productRepo: productRepo,
	}
}

// ============================================================
// Sections
// ============================================================

// SectionInput represents section create/update payload
type SectionInput struct {
	Code           string `json:"code" validate:"required"`
	Name           string `json:"name" validate:"required"`
	Description    string `json:"description"`
	AllowedDaysOut string `json:"allowed_days_out"`
	AllowedDaysIn  string `json:"allowed_days_in"`
}

func validateSectionInput(input *SectionInput) error {
	if input.Code == "" || input.Name == "" {
		return fmt.Errorf("%w: code and name are required", domain.ErrValidation)
	}
	if _, err := scheduling.ParseAllowedDays(input.AllowedDaysOut); err != nil {
		return fmt.Errorf("%w: allowed_days_out: %v", domain.ErrValidation, err)
	}
	if _, err := scheduling.ParseAllowedDays(input.AllowedDaysIn); err != nil {
		return fmt.Errorf("%w: allowed_days_in: %v", domain.ErrValidation, err)
	}
	return nil
}

// CreateSection creates a section
func (s *CatalogService) CreateSection(input *SectionInput) (*models.Section, error) {
	if err := validateSectionInput(input); err != nil {
		return nil, err
	}

	section := &models.Section{
		Code:           input.Code,
		Name:           input.Name,
		Description:    input.Description,
		AllowedDaysOut: input.AllowedDaysOut,
		AllowedDaysIn:  input.AllowedDaysIn,
		IsActive:       true,
	}
	if err := s.sectionRepo.Create(section); err != nil {
		return nil, err
	}

	log.Printf("✅ Section created: %s", section.Code)
	return section, nil
}

// UpdateSection updates a section
func (s *CatalogService) UpdateSection(id uint, input *SectionInput) (*models.Section, error) {
	section, err := s.sectionRepo.GetByID(id)
	if err != nil {
		return nil, ErrSectionNotFound
	}
	if err := validateSectionInput(input); err != nil {
		return nil, err
	}

	section.Code = input.Code
	section.Name = input.Name
	section.Description = input.Description
	section.AllowedDaysOut = input.AllowedDaysOut
	section.AllowedDaysIn = input.AllowedDaysIn

	if err := s.sectionRepo.Update(section); err != nil {
		return nil, err
	}
	return section, nil
}

// GetSection returns a section
func (s *CatalogService) GetSection(id uint) (*models.Section, error) {
	section, err := s.sectionRepo.GetByID(id)
	if err != nil {
		return nil, ErrSectionNotFound
	}
	return section, nil
}

// ListSections returns all active sections
func (s *CatalogService) ListSections() ([]models.Section, error) {
	return s.sectionRepo.List()
}

// DeleteSection soft deletes a section
func (s *CatalogService) DeleteSection(id uint) error {
	if _, err := s.sectionRepo.GetByID(id); err != nil {
		return ErrSectionNotFound
	}
	return s.sectionRepo.Delete(id)
}

// ============================================================
// Products
// ============================================================

// ProductInput represents product create/update payload
type ProductInput struct {
	SectionID    uint   `json:"section_id" validate:"required"`
	Code         string `json:"code" validate:"required"`
	Name         string `json:"name" validate:"required"`
	Description  string `json:"description"`
	MinDuration  int    `json:"min_duration"`
	MaxDuration  int    `json:"max_duration"`
	PriceCredits *int64 `json:"price_credits"`
	CreditPeriod string `json:"credit_period"`
	Status       string `json:"status"`
}

func validateProductInput(input *ProductInput) error {
	if input.Code == "" || input.Name == "" {
		return fmt.Errorf("%w: code and name are required", domain.ErrValidation)
	}
	if input.MinDuration < 1 {
		return fmt.Errorf("%w: min_duration must be at least 1", domain.ErrValidation)
	}
	// max_duration = 0 means unbounded
	if input.MaxDuration < 0 || (input.MaxDuration > 0 && input.MaxDuration < input.MinDuration) {
		return fmt.Errorf("%w: max_duration must be 0 or >= min_duration", domain.ErrValidation)
	}
	if input.PriceCredits != nil && *input.PriceCredits < 0 {
		return fmt.Errorf("%w: price_credits must not be negative", domain.ErrValidation)
	}
	switch domain.CreditPeriod(input.CreditPeriod) {
	case domain.PeriodDay, domain.PeriodWeek:
	default:
		return fmt.Errorf("%w: credit_period must be DAY or WEEK", domain.ErrValidation)
	}
	if input.Status != "" {
		switch domain.ProductStatus(input.Status) {
		case domain.ProductAvailable, domain.ProductUnavailable, domain.ProductMaintenance, domain.ProductArchived:
		default:
			return fmt.Errorf("%w: unknown product status %q", domain.ErrValidation, input.Status)
		}
	}
	return nil
}

// CreateProduct creates a product
func (s *CatalogService) CreateProduct(input *ProductInput) (*models.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}
	if _, err := s.sectionRepo.GetByID(input.SectionID); err != nil {
		return nil, ErrSectionNotFound
	}

	status := input.Status
	if status == "" {
		status = string(domain.ProductAvailable)
	}

	product := &models.Product{
		SectionID:    input.SectionID,
		Code:         input.Code,
		Name:         input.Name,
		Description:  input.Description,
		MinDuration:  input.MinDuration,
		MaxDuration:  input.MaxDuration,
		PriceCredits: input.PriceCredits,
		CreditPeriod: input.CreditPeriod,
		Status:       status,
	}
	if err := s.productRepo.Create(product); err != nil {
		return nil, err
	}

	log.Printf("✅ Product created: %s", product.Code)
	return s.productRepo.GetByID(product.ID)
}

// UpdateProduct updates a product
func (s *CatalogService) UpdateProduct(id uint, input *ProductInput) (*models.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, ErrProductNotFound
	}
	if err := validateProductInput(input); err != nil {
		return nil, err
	}
	if input.SectionID != product.SectionID {
		if _, err := s.sectionRepo.GetByID(input.SectionID); err != nil {
			return nil, ErrSectionNotFound
		}
	}

	product.SectionID = input.SectionID
	product.Code = input.Code
	product.Name = input.Name
	product.Description = input.Description
	product.MinDuration = input.MinDuration
	product.MaxDuration = input.MaxDuration
	product.PriceCredits = input.PriceCredits
	product.CreditPeriod = input.CreditPeriod
	if input.Status != "" {
		product.Status = input.Status
	}

	if err := s.productRepo.Update(product); err != nil {
		return nil, err
	}
	return s.productRepo.GetByID(id)
}

// GetProduct returns a product with its section
func (s *CatalogService) GetProduct(id uint) (*models.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// ListProducts returns products filtered by section and/or status
func (s *CatalogService) ListProducts(sectionID uint, status string, offset, limit int) ([]models.Product, int64, error) {
	return s.productRepo.List(sectionID, status, offset, limit)
}

// DeleteProduct soft deletes a product
func (s *CatalogService) DeleteProduct(id uint) error {
	if _, err := s.productRepo.GetByID(id); err != nil {
		return ErrProductNotFound
	}
	return s.productRepo.Delete(id)
}
