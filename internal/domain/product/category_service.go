// internal/domain/product/category_service.go
package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MuhammadAwais984/storefront/internal/pkg/apperror"
	"github.com/MuhammadAwais984/storefront/internal/pkg/pagination"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CategoryService handles category business logic
type CategoryService struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// NewCategoryService creates a new category service
func NewCategoryService(db *gorm.DB, log logrus.FieldLogger) *CategoryService {
	return &CategoryService{
		db:  db,
		log: log,
	}
}

// CategoryRequest represents category create and update data
type CategoryRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=2000"`
}

// GetCategories lists categories with their product counts
func (s *CategoryService) GetCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve categories: %w", err)
	}

	var counts []struct {
		CategoryID uint
		Count      int64
	}
	err := s.db.WithContext(ctx).Model(&Product{}).
		Select("category_id, COUNT(*) AS count").
		Group("category_id").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	byCategory := make(map[uint]int64, len(counts))
	for _, c := range counts {
		byCategory[c.CategoryID] = c.Count
	}
	for i := range categories {
		categories[i].ProductCount = byCategory[categories[i].ID]
	}
	return categories, nil
}

// GetCategory retrieves a single category by ID
func (s *CategoryService) GetCategory(ctx context.Context, id uint) (*Category, error) {
	var category Category
	if err := s.db.WithContext(ctx).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Category not found")
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&Product{}).Where("category_id = ?", id).Count(&category.ProductCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	return &category, nil
}

// FindByName resolves a category by its exact name on the given handle
func FindByName(tx *gorm.DB, name string) (*Category, error) {
	var category Category
	if err := tx.Where("name = ?", strings.TrimSpace(name)).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound(fmt.Sprintf("Category %q not found", name))
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &category, nil
}

// CreateCategory creates a category with a unique name
func (s *CategoryService) CreateCategory(ctx context.Context, req *CategoryRequest) (*Category, error) {
	name := strings.TrimSpace(req.Name)
	if err := s.ensureNameFree(ctx, name, 0); err != nil {
		return nil, err
	}

	category := Category{
		Name:        name,
		Slug:        Slugify(name),
		Description: req.Description,
	}
	if category.Slug == "" {
		return nil, apperror.Invalid("Category name must contain letters or digits")
	}

	if err := s.db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return &category, nil
}

// UpdateCategory renames or re-describes a category
func (s *CategoryService) UpdateCategory(ctx context.Context, id uint, req *CategoryRequest) (*Category, error) {
	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if err := s.ensureNameFree(ctx, name, id); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"name":        name,
		"slug":        Slugify(name),
		"description": req.Description,
	}
	if err := s.db.WithContext(ctx).Model(category).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return s.GetCategory(ctx, id)
}

// DeleteCategory removes a category that has no products
func (s *CategoryService) DeleteCategory(ctx context.Context, id uint) error {
	var productCount int64
	if err := s.db.WithContext(ctx).Model(&Product{}).Where("category_id = ?", id).Count(&productCount).Error; err != nil {
		return fmt.Errorf("failed to count products: %w", err)
	}
	if productCount > 0 {
		return apperror.Conflict("Cannot delete a category that still has products")
	}

	result := s.db.WithContext(ctx).Delete(&Category{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete category: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("Category not found")
	}
	return nil
}

// GetCategoryProducts lists the products of one category
func (s *CategoryService) GetCategoryProducts(ctx context.Context, id uint, page pagination.Request) (*ProductListResponse, error) {
	if _, err := s.GetCategory(ctx, id); err != nil {
		return nil, err
	}
	page.Normalize()

	query := s.db.WithContext(ctx).Model(&Product{}).Where("category_id = ?", id)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	var products []Product
	err := query.
		Preload("Category").
		Preload("Images", orderedImages).
		Order("created_at DESC, id DESC").
		Scopes(page.Scope).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}

	return &ProductListResponse{
		Products:   products,
		Pagination: pagination.New(page, total),
	}, nil
}

func (s *CategoryService) ensureNameFree(ctx context.Context, name string, exceptID uint) error {
	var count int64
	query := s.db.WithContext(ctx).Model(&Category{}).Where("LOWER(name) = ?", strings.ToLower(name))
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	if err := query.Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check category name: %w", err)
	}
	if count > 0 {
		return apperror.Conflict(fmt.Sprintf("Category %q already exists", name))
	}
	return nil
}
