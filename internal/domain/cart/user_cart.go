// internal/domain/cart/user_cart.go
package cart

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserCart is the persistent cart of a signed-in user
type UserCart struct {
	db     *gorm.DB
	userID uint
}

// NewUserCart binds a cart to a user on the given handle, which may be a
// transaction
func NewUserCart(db *gorm.DB, userID uint) *UserCart {
	return &UserCart{db: db, userID: userID}
}

func (c *UserCart) Add(ctx context.Context, productID uint, quantity int) error {
	quantity = normalizeQuantity(quantity)
	db := c.db.WithContext(ctx)

	if err := ensureProductExists(db, productID); err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		return addToUserCart(tx, c.userID, productID, quantity)
	})
}

func (c *UserCart) Lines(ctx context.Context) ([]Line, error) {
	var items []CartItem
	err := c.db.WithContext(ctx).
		Where("user_id = ?", c.userID).
		Preload("Product").
		Preload("Product.Category").
		Preload("Product.Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	lines := make([]Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, newLine(item.ProductID, item.Quantity, item.Product))
	}
	return lines, nil
}

func (c *UserCart) Remove(ctx context.Context, productID uint) error {
	err := c.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", c.userID, productID).
		Delete(&CartItem{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	return nil
}

func (c *UserCart) SetQuantity(ctx context.Context, productID uint, quantity int) error {
	db := c.db.WithContext(ctx)

	var item CartItem
	if err := db.Where("user_id = ? AND product_id = ?", c.userID, productID).First(&item).Error; err != nil {
		if isNotFound(err) {
			return errItemNotFound()
		}
		return fmt.Errorf("failed to get cart item: %w", err)
	}

	if quantity <= 0 {
		if err := db.Delete(&item).Error; err != nil {
			return fmt.Errorf("failed to remove cart item: %w", err)
		}
		return nil
	}

	if err := db.Model(&item).Update("quantity", quantity).Error; err != nil {
		return fmt.Errorf("failed to update cart item: %w", err)
	}
	return nil
}

func (c *UserCart) Clear(ctx context.Context) error {
	if err := c.db.WithContext(ctx).Where("user_id = ?", c.userID).Delete(&CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// addToUserCart inserts the line or increments the existing one in a single
// upsert on (user_id, product_id)
func addToUserCart(tx *gorm.DB, userID, productID uint, quantity int) error {
	item := CartItem{UserID: userID, ProductID: productID, Quantity: quantity}
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("cart_items.quantity + ?", quantity),
			"updated_at": time.Now(),
		}),
	}).Create(&item).Error
	if err != nil {
		return fmt.Errorf("failed to add cart item: %w", err)
	}
	return nil
}
