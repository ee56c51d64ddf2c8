// internal/domain/order/service.go
package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MuhammadAwais984/storefront/internal/domain/cart"
	"github.com/MuhammadAwais984/storefront/internal/domain/product"
	"github.com/MuhammadAwais984/storefront/internal/domain/user"
	"github.com/MuhammadAwais984/storefront/internal/pkg/apperror"
	"github.com/MuhammadAwais984/storefront/internal/pkg/pagination"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service handles order business logic
type Service struct {
	db     *gorm.DB
	log    logrus.FieldLogger
	events publisher
}

// NewService creates a new order service
func NewService(db *gorm.DB, log logrus.FieldLogger) *Service {
	return &Service{
		db:  db,
		log: log.WithField("component", "order"),
	}
}

// Subscribe registers a listener for committed order changes
func (s *Service) Subscribe(l Listener) {
	s.events.subscribe(l)
}

// CreateOrderRequest is the body of an authenticated checkout
type CreateOrderRequest struct {
	Address string `json:"address" binding:"omitempty,max=1000"`
}

// GuestItemRequest is one requested product of a guest checkout
type GuestItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1,max=1000"`
}

// GuestOrderRequest is the body of a guest checkout
type GuestOrderRequest struct {
	Name    string             `json:"name" binding:"required,max=120"`
	Email   string             `json:"email" binding:"required,email"`
	Phone   string             `json:"phone" binding:"omitempty,phone"`
	Address string             `json:"address" binding:"required,max=1000"`
	Items   []GuestItemRequest `json:"items" binding:"required,min=1,dive"`
}

// GuestOrderResult carries the token the guest needs for later lookups
type GuestOrderResult struct {
	Order      *Order `json:"order"`
	GuestToken string `json:"guest_token"`
}

// CancelGuestOrderRequest is the body of a guest cancellation
type CancelGuestOrderRequest struct {
	GuestToken string `json:"guest_token" binding:"required"`
}

// UpdateStatusRequest is the body of an admin status change
type UpdateStatusRequest struct {
	Status  Status `json:"status" binding:"required,order_status"`
	Comment string `json:"comment" binding:"omitempty,max=500"`
}

// OrderListRequest represents order list query parameters
type OrderListRequest struct {
	pagination.Request
	Status Status `form:"status" binding:"omitempty,order_status"`
	UserID uint   `form:"user_id"`
}

// OrderListResponse represents a page of orders
type OrderListResponse struct {
	Orders     []Order               `json:"orders"`
	Pagination pagination.Pagination `json:"pagination"`
}

// CreateOrder converts the user's cart into an order. The user row and cart
// rows are locked for the whole transaction so concurrent checkouts by the
// same user are serialized and the cart can be ordered only once.
func (s *Service) CreateOrder(ctx context.Context, userID uint, address string) (*Order, error) {
	var order Order

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner user.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&owner, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("User not found")
			}
			return fmt.Errorf("failed to lock user: %w", err)
		}

		var items []cart.CartItem
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			Order("id ASC").
			Find(&items).Error
		if err != nil {
			return fmt.Errorf("failed to load cart: %w", err)
		}
		if len(items) == 0 {
			return apperror.NotFound("Cart is empty")
		}

		address = strings.TrimSpace(address)
		if address == "" {
			saved, err := user.SavedAddressLine(tx, userID)
			if err != nil {
				return err
			}
			address = saved
		}
		if address == "" {
			return apperror.NotFound("No address found, please add it in your profile")
		}

		ids := make([]uint, 0, len(items))
		for _, item := range items {
			ids = append(ids, item.ProductID)
		}
		products, err := product.LoadProducts(tx, ids)
		if err != nil {
			return err
		}

		lines := make([]OrderItem, 0, len(items))
		for _, item := range items {
			p, ok := products[item.ProductID]
			if !ok {
				return apperror.NotFound(fmt.Sprintf("Product %d not found", item.ProductID))
			}
			lines = append(lines, newItem(p.ID, p.Name, p.Price, item.Quantity))
		}

		order = Order{
			UserID:     userID,
			Address:    address,
			TotalPrice: sumItems(lines),
			Status:     StatusPending,
			Items:      lines,
		}
		if err := s.insert(tx, &order, &userID); err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", userID).Delete(&cart.CartItem{}).Error; err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	created, err := s.loadOrder(s.db.WithContext(ctx), order.ID)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"order_id": created.ID,
		"user_id":  userID,
		"total":    created.TotalPrice.StringFixed(2),
	}).Info("order created")
	s.events.publish(ctx, Event{Type: EventCreated, OrderID: created.ID, Status: created.Status, Order: created})
	return created, nil
}

// CreateGuestOrder places an order without a login. The guest account is
// looked up by email or created, and the returned token is the only
// credential for later lookups and cancellation.
func (s *Service) CreateGuestOrder(ctx context.Context, req *GuestOrderRequest) (*GuestOrderResult, error) {
	address := strings.TrimSpace(req.Address)
	if address == "" {
		return nil, apperror.Invalid("Address is required")
	}
	if len(req.Items) == 0 {
		return nil, apperror.Invalid("At least one item is required")
	}

	// duplicate product ids are summed, first occurrence keeps its position
	quantities := make(map[uint]int, len(req.Items))
	ids := make([]uint, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Quantity < 1 {
			return nil, apperror.Invalid("Quantity must be at least 1")
		}
		if _, seen := quantities[item.ProductID]; !seen {
			ids = append(ids, item.ProductID)
		}
		quantities[item.ProductID] += item.Quantity
	}

	token := uuid.NewString()
	var order Order
	var guest *user.User

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products, err := product.LoadProducts(tx, ids)
		if err != nil {
			return err
		}

		lines := make([]OrderItem, 0, len(ids))
		for _, id := range ids {
			p, ok := products[id]
			if !ok {
				return apperror.NotFound(fmt.Sprintf("Product %d not found", id))
			}
			lines = append(lines, newItem(p.ID, p.Name, p.Price, quantities[id]))
		}

		guest, err = user.FindOrCreateGuest(tx, req.Name, req.Email, req.Phone)
		if err != nil {
			return err
		}

		order = Order{
			UserID:     guest.ID,
			GuestToken: &token,
			Address:    address,
			TotalPrice: sumItems(lines),
			Status:     StatusPending,
			Items:      lines,
		}
		return s.insert(tx, &order, nil)
	})
	if err != nil {
		return nil, err
	}

	created, err := s.loadOrder(s.db.WithContext(ctx), order.ID)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"order_id": created.ID,
		"user_id":  guest.ID,
		"total":    created.TotalPrice.StringFixed(2),
	}).Info("guest order created")
	s.events.publish(ctx, Event{
		Type:       EventCreated,
		OrderID:    created.ID,
		Status:     created.Status,
		Order:      created,
		GuestToken: token,
		Email:      guest.Email,
	})

	return &GuestOrderResult{Order: created, GuestToken: token}, nil
}

// ListUserOrders returns the caller's orders, newest first
func (s *Service) ListUserOrders(ctx context.Context, userID uint, req *OrderListRequest) (*OrderListResponse, error) {
	req.UserID = userID
	return s.ListOrders(ctx, req)
}

// GetUserOrder returns one of the caller's orders. Orders of other users are
// reported as missing.
func (s *Service) GetUserOrder(ctx context.Context, userID, orderID uint) (*Order, error) {
	order, err := s.loadOrder(s.db.WithContext(ctx), orderID)
	if err != nil {
		if apperror.KindOf(err) == apperror.KindNotFound {
			return nil, apperror.NotFound("Order not found or unauthorized")
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, apperror.NotFound("Order not found or unauthorized")
	}
	return order, nil
}

// GetOrder returns any order by id
func (s *Service) GetOrder(ctx context.Context, orderID uint) (*Order, error) {
	return s.loadOrder(s.db.WithContext(ctx), orderID)
}

// ListOrders retrieves orders with filtering and pagination
func (s *Service) ListOrders(ctx context.Context, req *OrderListRequest) (*OrderListResponse, error) {
	req.Normalize()

	query := s.filtered(s.db.WithContext(ctx), req)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []Order
	err := query.
		Preload("Items").
		Preload("Customer").
		Order("created_at DESC, id DESC").
		Scopes(req.Scope).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}

	return &OrderListResponse{
		Orders:     orders,
		Pagination: pagination.New(req.Request, total),
	}, nil
}

// UpdateStatus moves an order along its lifecycle on behalf of an admin
func (s *Service) UpdateStatus(ctx context.Context, orderID uint, req *UpdateStatusRequest, actorID uint) (*Order, error) {
	if !req.Status.Valid() {
		return nil, apperror.Invalid(fmt.Sprintf("Unknown order status %q", req.Status))
	}

	comment := req.Comment
	if comment == "" {
		comment = "Status changed to " + string(req.Status)
	}

	order, changed, err := s.transition(ctx, orderID, req.Status, &actorID, comment, nil)
	if err != nil {
		return nil, err
	}
	if !changed {
		return order, nil
	}

	eventType := EventStatusChanged
	if order.Status == StatusCanceled {
		eventType = EventCanceled
	}
	s.events.publish(ctx, Event{Type: eventType, OrderID: order.ID, Status: order.Status, Order: order})
	return order, nil
}

// CancelOrder cancels one of the caller's pending orders. Orders of other
// users are reported as missing.
func (s *Service) CancelOrder(ctx context.Context, userID, orderID uint) (*Order, error) {
	order, changed, err := s.transition(ctx, orderID, StatusCanceled, &userID, "Canceled by customer", func(o *Order) error {
		if o.UserID != userID {
			return apperror.NotFound("Not your order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.events.publish(ctx, Event{Type: EventCanceled, OrderID: order.ID, Status: order.Status, Order: order})
	}
	return order, nil
}

// GetOrdersByGuestToken returns the orders placed with the given token
func (s *Service) GetOrdersByGuestToken(ctx context.Context, token string) ([]Order, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperror.NotFound("Order not found")
	}

	var orders []Order
	err := s.db.WithContext(ctx).
		Where("guest_token = ?", token).
		Preload("Items").
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve guest orders: %w", err)
	}
	return orders, nil
}

// CancelGuestOrder cancels a pending guest order when the token matches
func (s *Service) CancelGuestOrder(ctx context.Context, orderID uint, token string) (*Order, error) {
	order, changed, err := s.transition(ctx, orderID, StatusCanceled, nil, "Canceled by guest", func(o *Order) error {
		if !o.IsGuestOrder() || *o.GuestToken != token {
			return apperror.Forbidden("Not authorized")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.events.publish(ctx, Event{Type: EventCanceled, OrderID: order.ID, Status: order.Status, Order: order})
	}
	return order, nil
}

// DeleteOrder hard deletes an order with its items and history
func (s *Service) DeleteOrder(ctx context.Context, orderID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order Order
		if err := tx.Select("id").First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("Order not found")
			}
			return fmt.Errorf("failed to get order: %w", err)
		}

		if err := tx.Where("order_id = ?", orderID).Delete(&OrderStatusHistory{}).Error; err != nil {
			return fmt.Errorf("failed to delete order history: %w", err)
		}
		if err := tx.Where("order_id = ?", orderID).Delete(&OrderItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete order items: %w", err)
		}
		if err := tx.Delete(&Order{}, orderID).Error; err != nil {
			return fmt.Errorf("failed to delete order: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.WithField("order_id", orderID).Info("order deleted")
	s.events.publish(ctx, Event{Type: EventDeleted, OrderID: orderID})
	return nil
}

// insert creates the order with its items and first history entry, then
// assigns the order number derived from the id
func (s *Service) insert(tx *gorm.DB, order *Order, actor *uint) error {
	order.StatusHistory = []OrderStatusHistory{{
		Status:    StatusPending,
		Comment:   "Order created",
		CreatedBy: actor,
	}}
	if err := tx.Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	order.OrderNumber = formatOrderNumber(order.CreatedAt, order.ID)
	if err := tx.Model(order).Update("order_number", order.OrderNumber).Error; err != nil {
		return fmt.Errorf("failed to set order number: %w", err)
	}
	return nil
}

// transition applies a status change under a row lock. authorize runs
// against the locked row before the state machine is consulted. Canceling
// an already canceled order is a no-op and reports changed as false.
func (s *Service) transition(ctx context.Context, orderID uint, to Status, actor *uint, comment string, authorize func(*Order) error) (*Order, bool, error) {
	changed := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("Order not found")
			}
			return fmt.Errorf("failed to get order: %w", err)
		}

		if authorize != nil {
			if err := authorize(&order); err != nil {
				return err
			}
		}

		if order.Status == to && to == StatusCanceled {
			return nil
		}
		if !CanTransition(order.Status, to) {
			if to == StatusCanceled {
				return apperror.Invalid("Only pending orders can be canceled")
			}
			return apperror.Invalid(fmt.Sprintf("Cannot change order status from %s to %s", order.Status, to))
		}

		if err := tx.Model(&order).Update("status", to).Error; err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		history := OrderStatusHistory{
			OrderID:   order.ID,
			Status:    to,
			Comment:   comment,
			CreatedBy: actor,
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("failed to record status history: %w", err)
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if changed {
		s.log.WithFields(logrus.Fields{"order_id": orderID, "status": to}).Info("order status changed")
	}
	order, err := s.loadOrder(s.db.WithContext(ctx), orderID)
	if err != nil {
		return nil, false, err
	}
	return order, changed, nil
}

func (s *Service) filtered(db *gorm.DB, req *OrderListRequest) *gorm.DB {
	query := db.Model(&Order{})
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.UserID != 0 {
		query = query.Where("user_id = ?", req.UserID)
	}
	return query
}

func (s *Service) loadOrder(db *gorm.DB, orderID uint) (*Order, error) {
	var order Order
	err := db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Customer").
		First(&order, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Order not found")
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}
