// internal/domain/cart/entity.go
package cart

import (
	"time"

	"github.com/MuhammadAwais984/storefront/internal/domain/product"
	"github.com/shopspring/decimal"
)

// CartItem is one line of a signed-in user's cart. A user holds at most one
// row per product.
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_cart_items_user_product" json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_items_user_product;index" json:"product_id"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Product *product.Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// TableName overrides the table name
func (CartItem) TableName() string {
	return "cart_items"
}

// sessionState is the JSON document stored in Redis for anonymous carts
type sessionState struct {
	SessionID string             `json:"session_id"`
	Items     []sessionStateItem `json:"items"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

type sessionStateItem struct {
	ProductID uint      `json:"product_id"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
}

// Line is a cart entry joined with its product
type Line struct {
	ProductID uint             `json:"product_id"`
	Quantity  int              `json:"quantity"`
	Product   *product.Product `json:"product"`
	LineTotal decimal.Decimal  `json:"line_total"`
}

// Totals represents calculated cart totals
type Totals struct {
	ItemCount     int             `json:"item_count"`
	TotalQuantity int             `json:"total_quantity"`
	SubTotal      decimal.Decimal `json:"sub_total"`
}

// CartResponse is returned by every cart endpoint
type CartResponse struct {
	Items  []Line `json:"items"`
	Totals Totals `json:"totals"`
	Guest  bool   `json:"guest"`
}

func calculateTotals(lines []Line) Totals {
	totals := Totals{ItemCount: len(lines), SubTotal: decimal.Zero}
	for _, l := range lines {
		totals.TotalQuantity += l.Quantity
		totals.SubTotal = totals.SubTotal.Add(l.LineTotal)
	}
	return totals
}

func newLine(productID uint, quantity int, p *product.Product) Line {
	line := Line{ProductID: productID, Quantity: quantity, Product: p, LineTotal: decimal.Zero}
	if p != nil {
		line.LineTotal = p.Price.Mul(decimal.NewFromInt(int64(quantity)))
	}
	return line
}
