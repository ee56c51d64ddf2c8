// internal/domain/cart/cart.go
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/MuhammadAwais984/storefront/internal/domain/product"
	"github.com/MuhammadAwais984/storefront/internal/pkg/apperror"
	"gorm.io/gorm"
)

// Cart is implemented by the database cart of a signed-in user and by the
// Redis session cart of an anonymous visitor. Both share the same rules:
// quantities default to 1, adding an existing product increments it,
// Remove is idempotent, SetQuantity fails with NotFound for a missing line
// and a quantity of zero or less removes the line.
type Cart interface {
	Add(ctx context.Context, productID uint, quantity int) error
	Lines(ctx context.Context) ([]Line, error)
	Remove(ctx context.Context, productID uint) error
	SetQuantity(ctx context.Context, productID uint, quantity int) error
	Clear(ctx context.Context) error
}

func normalizeQuantity(quantity int) int {
	if quantity <= 0 {
		return 1
	}
	return quantity
}

func ensureProductExists(db *gorm.DB, productID uint) error {
	var count int64
	if err := db.Model(&product.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check product: %w", err)
	}
	if count == 0 {
		return apperror.NotFound("Product not found")
	}
	return nil
}

func errItemNotFound() error {
	return apperror.NotFound("Item not found in cart")
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
