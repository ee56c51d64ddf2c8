// internal/interfaces/http/handlers/product.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/MuhammadAwais984/storefront/internal/domain/product"
	"github.com/MuhammadAwais984/storefront/internal/domain/upload"
	"github.com/gin-gonic/gin"
)

const productFilesField = "files"

// ProductHandler handles product endpoints
type ProductHandler struct {
	productService *product.Service
}

// NewProductHandler creates a new product handler
func NewProductHandler(productService *product.Service) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// GetProducts handles GET /products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	var req product.ProductListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.productService.GetProducts(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Products retrieved successfully", response)
}

// GetProduct handles GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "product ID")
	if !ok {
		return
	}

	p, err := h.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Product retrieved successfully", p)
}

// CreateProduct handles POST /products/upload (multipart)
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req product.CreateProductRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBindError(c, err)
		return
	}

	files, err := formFiles(c)
	if err != nil {
		respondBindError(c, err)
		return
	}

	p, err := h.productService.CreateProduct(c.Request.Context(), &req, files)
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, "Product created successfully", p)
}

// UpdateProduct handles PATCH /products/update/:id (multipart)
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "product ID")
	if !ok {
		return
	}

	var req product.UpdateProductRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBindError(c, err)
		return
	}

	files, err := formFiles(c)
	if err != nil {
		respondBindError(c, err)
		return
	}

	p, err := h.productService.UpdateProduct(c.Request.Context(), id, &req, files)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Product updated successfully", p)
}

// AddImages handles POST /products/upload-multiple/:productId
func (h *ProductHandler) AddImages(c *gin.Context) {
	id, ok := parseIDParam(c, "productId", "product ID")
	if !ok {
		return
	}

	files, err := formFiles(c)
	if err != nil {
		respondBindError(c, err)
		return
	}
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "No files uploaded",
		})
		return
	}

	p, err := h.productService.AddImages(c.Request.Context(), id, files)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Images uploaded successfully", p)
}

// DeleteProduct handles DELETE /products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "product ID")
	if !ok {
		return
	}

	if err := h.productService.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Product deleted successfully", nil)
}

// RemoveImage handles DELETE /products/image/:id
func (h *ProductHandler) RemoveImage(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "image ID")
	if !ok {
		return
	}

	if err := h.productService.RemoveImage(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Image deleted successfully", nil)
}

// formFiles returns the uploaded files of a multipart request, or none for
// other content types
func formFiles(c *gin.Context) ([]upload.File, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}
	return upload.FromMultipartList(form.File[productFilesField]), nil
}
