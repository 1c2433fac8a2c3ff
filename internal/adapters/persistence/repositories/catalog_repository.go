package repositories

import (
	"lendhub/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// ============================================================
// Section Queries
// ============================================================

// SectionRepository handles section database operations
type SectionRepository struct {
	db *gorm.DB
}

// NewSectionRepository creates a new section repository
func NewSectionRepository(db *gorm.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

// Create inserts a section
func (r *SectionRepository) Create(section *models.Section) error {
	return r.db.Create(section).Error
}

// GetByID returns a section by ID
func (r *SectionRepository) GetByID(id uint) (*models.Section, error) {
	var section models.Section
	err := r.db.First(&section, id).Error
	return &section, err
}

// List returns all active sections
func (r *SectionRepository) List() ([]models.Section, error) {
	var sections []models.Section
	err := r.db.Where("is_active = ?", true).Order("code ASC").Find(&sections).Error
	return sections, err
}

// Update saves a section
func (r *SectionRepository) Update(section *models.Section) error {
	return r.db.Save(section).Error
}

// Delete soft deletes a section
func (r *SectionRepository) Delete(id uint) error {
	return r.db.Delete(&models.Section{}, id).Error
}

// ============================================================
// Product Queries
// ============================================================

// ProductRepository handles product database operations
type ProductRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create inserts a product
func (r *ProductRepository) Create(product *models.Product) error {
	return r.db.Create(product).Error
}

// GetByID returns a product with its section
func (r *ProductRepository) GetByID(id uint) (*models.Product, error) {
	var product models.Product
	err := r.db.Preload("Section").First(&product, id).Error
	return &product, err
}

// List returns products with optional section/status filters
func (r *ProductRepository) List(sectionID uint, status string, offset, limit int) ([]models.Product, int64, error) {
	var products []models.Product
	var total int64

	filter := func(q *gorm.DB) *gorm.DB {
		if sectionID != 0 {
			q = q.Where("section_id = ?", sectionID)
		}
		if status != "" {
			q = q.Where("status = ?", status)
		}
		return q
	}

	if err := filter(r.db.Model(&models.Product{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := filter(r.db.Preload("Section")).
		Order("code ASC").
		Offset(offset).Limit(limit).
		Find(&products).Error
	return products, total, err
}

// Update saves a product
func (r *ProductRepository) Update(product *models.Product) error {
	return r.db.Save(product).Error
}

// UpdateStatus updates only the product status
func (r *ProductRepository) UpdateStatus(id uint, status string) error {
	return r.db.Model(&models.Product{}).Where("id = ?", id).Update("status", status).Error
}

// Delete soft deletes a product
func (r *ProductRepository) Delete(id uint) error {
	return r.db.Delete(&models.Product{}, id).Error
}
