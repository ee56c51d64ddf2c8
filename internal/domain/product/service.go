// internal/domain/product/service.go
package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MuhammadAwais984/storefront/internal/domain/upload"
	"github.com/MuhammadAwais984/storefront/internal/pkg/apperror"
	"github.com/MuhammadAwais984/storefront/internal/pkg/pagination"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const mediaFolder = "products"

// Service handles product business logic
type Service struct {
	db    *gorm.DB
	media *upload.Service
	log   logrus.FieldLogger
}

// NewService creates a new product service
func NewService(db *gorm.DB, media *upload.Service, log logrus.FieldLogger) *Service {
	return &Service{
		db:    db,
		media: media,
		log:   log,
	}
}

// ProductListRequest represents product list query parameters
type ProductListRequest struct {
	pagination.Request
	Search     string `form:"search"`
	CategoryID uint   `form:"category_id"`
	SortBy     string `form:"sort_by"`
	SortOrder  string `form:"sort_order"`
}

// ProductListResponse represents product list with pagination
type ProductListResponse struct {
	Products   []Product             `json:"products"`
	Pagination pagination.Pagination `json:"pagination"`
}

// CreateProductRequest is bound from the multipart admin form
type CreateProductRequest struct {
	Name         string `form:"name" binding:"required,max=255"`
	Description  string `form:"description" binding:"max=10000"`
	Price        string `form:"price" binding:"required,money"`
	CategoryName string `form:"categoryName" binding:"required"`
}

// UpdateProductRequest carries optional product changes
type UpdateProductRequest struct {
	Name         *string `form:"name" binding:"omitempty,min=1,max=255"`
	Description  *string `form:"description" binding:"omitempty,max=10000"`
	Price        *string `form:"price" binding:"omitempty,money"`
	CategoryName *string `form:"categoryName" binding:"omitempty,min=1"`
}

// GetProducts lists products, optionally filtered by a case-insensitive
// name substring and category
func (s *Service) GetProducts(ctx context.Context, req *ProductListRequest) (*ProductListResponse, error) {
	req.Normalize()

	query := s.db.WithContext(ctx).Model(&Product{})
	query = query.Scopes(pagination.Search(req.Search, "name"))
	if req.CategoryID != 0 {
		query = query.Where("category_id = ?", req.CategoryID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	var products []Product
	err := query.
		Preload("Category").
		Preload("Images", orderedImages).
		Order(buildOrderClause(req.SortBy, req.SortOrder)).
		Scopes(req.Scope).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}

	return &ProductListResponse{
		Products:   products,
		Pagination: pagination.New(req.Request, total),
	}, nil
}

// GetProduct retrieves a single product with category and images
func (s *Service) GetProduct(ctx context.Context, id uint) (*Product, error) {
	return loadProduct(s.db.WithContext(ctx), id)
}

// CreateProduct uploads the images, then inserts the product and its images
// in one transaction
func (s *Service) CreateProduct(ctx context.Context, req *CreateProductRequest, files []upload.File) (*Product, error) {
	price, ok := ParsePrice(req.Price)
	if !ok {
		return nil, apperror.Invalid("Price must be a non-negative amount")
	}

	// resolve the category before spending time on uploads
	category, err := FindByName(s.db.WithContext(ctx), req.CategoryName)
	if err != nil {
		return nil, err
	}

	objects, err := s.media.UploadImages(ctx, mediaFolder, files)
	if err != nil {
		return nil, err
	}

	product := Product{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       price,
		CategoryID:  category.ID,
		Images:      imagesFrom(objects, 0),
	}

	if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
		s.media.Delete(context.WithoutCancel(ctx), keysOf(objects)...)
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.log.WithFields(logrus.Fields{"product_id": product.ID, "images": len(objects)}).Info("product created")
	return s.GetProduct(ctx, product.ID)
}

// UpdateProduct applies a partial update and appends any new images
func (s *Service) UpdateProduct(ctx context.Context, id uint, req *UpdateProductRequest, files []upload.File) (*Product, error) {
	existing, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		price, ok := ParsePrice(*req.Price)
		if !ok {
			return nil, apperror.Invalid("Price must be a non-negative amount")
		}
		updates["price"] = price
	}
	if req.CategoryName != nil {
		category, err := FindByName(s.db.WithContext(ctx), *req.CategoryName)
		if err != nil {
			return nil, err
		}
		updates["category_id"] = category.ID
	}

	objects, err := s.media.UploadImages(ctx, mediaFolder, files)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&Product{ID: id}).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update product: %w", err)
			}
		}
		if len(objects) > 0 {
			images := imagesFrom(objects, len(existing.Images))
			for i := range images {
				images[i].ProductID = id
			}
			if err := tx.Create(&images).Error; err != nil {
				return fmt.Errorf("failed to save images: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		s.media.Delete(context.WithoutCancel(ctx), keysOf(objects)...)
		return nil, err
	}

	return s.GetProduct(ctx, id)
}

// AddImages uploads and attaches more images to a product
func (s *Service) AddImages(ctx context.Context, id uint, files []upload.File) (*Product, error) {
	if len(files) == 0 {
		return nil, apperror.Invalid("No files uploaded")
	}
	return s.UpdateProduct(ctx, id, &UpdateProductRequest{}, files)
}

// DeleteProduct removes the product and everything referencing it in order:
// cart items, order items, images, then the product. Stored media is removed
// after commit on a best effort basis.
func (s *Service) DeleteProduct(ctx context.Context, id uint) error {
	var keys []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product Product
		if err := tx.Preload("Images").First(&product, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("Product not found")
			}
			return fmt.Errorf("failed to get product: %w", err)
		}
		for _, img := range product.Images {
			keys = append(keys, img.StorageKey)
		}

		if err := tx.Exec("DELETE FROM cart_items WHERE product_id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete cart items: %w", err)
		}
		if err := tx.Exec("DELETE FROM order_items WHERE product_id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete order items: %w", err)
		}
		if err := tx.Where("product_id = ?", id).Delete(&ProductImage{}).Error; err != nil {
			return fmt.Errorf("failed to delete images: %w", err)
		}
		if err := tx.Delete(&Product{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.media.Delete(context.WithoutCancel(ctx), keys...)
	s.log.WithField("product_id", id).Info("product deleted")
	return nil
}

// RemoveImage deletes one product image
func (s *Service) RemoveImage(ctx context.Context, imageID uint) error {
	var image ProductImage
	if err := s.db.WithContext(ctx).First(&image, imageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("Image not found")
		}
		return fmt.Errorf("failed to get image: %w", err)
	}

	if err := s.db.WithContext(ctx).Delete(&image).Error; err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}

	s.media.Delete(context.WithoutCancel(ctx), image.StorageKey)
	return nil
}

// LoadProducts returns the products with the given ids keyed by id
func LoadProducts(tx *gorm.DB, ids []uint) (map[uint]Product, error) {
	var products []Product
	if len(ids) > 0 {
		if err := tx.Where("id IN ?", ids).Find(&products).Error; err != nil {
			return nil, fmt.Errorf("failed to load products: %w", err)
		}
	}
	out := make(map[uint]Product, len(products))
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

func loadProduct(db *gorm.DB, id uint) (*Product, error) {
	var product Product
	err := db.
		Preload("Category").
		Preload("Images", orderedImages).
		First(&product, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Product not found")
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

func orderedImages(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order ASC, id ASC")
}

// buildOrderClause builds ORDER BY clause for sorting
func buildOrderClause(sortBy, sortOrder string) string {
	validSortFields := map[string]bool{
		"name":       true,
		"price":      true,
		"created_at": true,
	}
	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}

	direction := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		direction = "ASC"
	}
	return sortBy + " " + direction + ", id " + direction
}

func imagesFrom(objects []upload.Object, offset int) []ProductImage {
	images := make([]ProductImage, 0, len(objects))
	for i, obj := range objects {
		images = append(images, ProductImage{
			URL:        obj.URL,
			StorageKey: obj.Key,
			SortOrder:  offset + i,
		})
	}
	return images
}

func keysOf(objects []upload.Object) []string {
	keys := make([]string, 0, len(objects))
	for _, obj := range objects {
		keys = append(keys, obj.Key)
	}
	return keys
}
