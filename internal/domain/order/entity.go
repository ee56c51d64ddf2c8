// internal/domain/order/entity.go
package order

import (
	"fmt"
	"time"

	"github.com/MuhammadAwais984/storefront/internal/domain/user"
	"github.com/shopspring/decimal"
)

// Status represents the order status
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusCanceled  Status = "CANCELED"
)

// Order represents the order entity. Address and item prices are snapshots
// taken at checkout and never recomputed.
type Order struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OrderNumber string          `gorm:"size:50;index" json:"order_number"`
	UserID      uint            `gorm:"not null;index" json:"user_id"`
	GuestToken  *string         `gorm:"size:64;uniqueIndex" json:"-"`
	Address     string          `gorm:"type:text;not null" json:"address"`
	TotalPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_price"`
	Status      Status          `gorm:"size:20;not null;default:PENDING;index" json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	// Relationships
	Items         []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	StatusHistory []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"status_history,omitempty"`
	Customer      *user.User           `gorm:"foreignKey:UserID" json:"customer,omitempty"`
}

// OrderItem is one purchased line. ProductName and UnitPrice are copied from
// the product so later catalog edits do not rewrite history.
type OrderItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OrderID     uint            `gorm:"not null;index" json:"order_id"`
	ProductID   uint            `gorm:"not null;index" json:"product_id"`
	ProductName string          `gorm:"size:255;not null" json:"product_name"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"line_total"`
	CreatedAt   time.Time       `json:"created_at"`
}

// OrderStatusHistory tracks order status changes
type OrderStatusHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   uint      `gorm:"not null;index" json:"order_id"`
	Status    Status    `gorm:"size:20;not null" json:"status"`
	Comment   string    `gorm:"type:text" json:"comment"`
	CreatedBy *uint     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName overrides the table name for Order
func (Order) TableName() string {
	return "orders"
}

// TableName overrides the table name for OrderItem
func (OrderItem) TableName() string {
	return "order_items"
}

// TableName overrides the table name for OrderStatusHistory
func (OrderStatusHistory) TableName() string {
	return "order_status_history"
}

// IsGuestOrder reports whether the order was placed through guest checkout
func (o *Order) IsGuestOrder() bool {
	return o.GuestToken != nil && *o.GuestToken != ""
}

// ItemCount returns the total quantity across all items
func (o *Order) ItemCount() int {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return count
}

// CanBeCanceled checks if the order can be canceled
func (o *Order) CanBeCanceled() bool {
	return CanTransition(o.Status, StatusCanceled)
}

// newItem snapshots a product line
func newItem(productID uint, name string, price decimal.Decimal, quantity int) OrderItem {
	return OrderItem{
		ProductID:   productID,
		ProductName: name,
		UnitPrice:   price,
		Quantity:    quantity,
		LineTotal:   price.Mul(decimal.NewFromInt(int64(quantity))),
	}
}

func sumItems(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal)
	}
	return total
}

func formatOrderNumber(createdAt time.Time, id uint) string {
	return fmt.Sprintf("ORD-%s-%05d", createdAt.Format("20060102"), id)
}
