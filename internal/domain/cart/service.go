// internal/domain/cart/service.go
package cart

import (
	"context"
	"fmt"

	"github.com/MuhammadAwais984/storefront/internal/config"
	"github.com/MuhammadAwais984/storefront/internal/pkg/apperror"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Service picks the cart implementation for a request and merges session
// carts into user carts on login
type Service struct {
	db          *gorm.DB
	redisClient *redis.Client
	config      *config.Config
	log         logrus.FieldLogger
}

// NewService creates a new cart service
func NewService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, log logrus.FieldLogger) *Service {
	return &Service{
		db:          db,
		redisClient: redisClient,
		config:      cfg,
		log:         log,
	}
}

// AddToCartRequest represents adding a product to the cart
type AddToCartRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"omitempty,gte=0,lte=1000"`
}

// UpdateCartItemRequest sets the quantity of a line; 0 removes it
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"gte=0,lte=1000"`
}

// For returns the user's database cart when userID is set, otherwise the
// session cart
func (s *Service) For(userID *uint, sessionID string) (Cart, error) {
	if userID != nil {
		return NewUserCart(s.db, *userID), nil
	}
	if sessionID == "" {
		return nil, apperror.Invalid("Session ID required for guest cart")
	}
	return NewSessionCart(s.redisClient, s.db, sessionID, s.config.Cart.SessionTTL), nil
}

// UserCart returns the database cart of a user
func (s *Service) UserCart(userID uint) *UserCart {
	return NewUserCart(s.db, userID)
}

// Summarize loads the lines of a cart with totals
func (s *Service) Summarize(ctx context.Context, c Cart) (*CartResponse, error) {
	lines, err := c.Lines(ctx)
	if err != nil {
		return nil, err
	}
	_, guest := c.(*SessionCart)
	return &CartResponse{
		Items:  lines,
		Totals: calculateTotals(lines),
		Guest:  guest,
	}, nil
}

// Merge moves a session cart into the user's cart, summing quantities,
// then clears the session cart. Products deleted in the meantime are
// dropped.
func (s *Service) Merge(ctx context.Context, userID uint, sessionID string) (int, error) {
	if sessionID == "" {
		return 0, nil
	}

	session := NewSessionCart(s.redisClient, s.db, sessionID, s.config.Cart.SessionTTL)
	lines, err := session.Lines(ctx)
	if err != nil {
		return 0, err
	}
	if len(lines) == 0 {
		return 0, nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, line := range lines {
			if err := addToUserCart(tx, userID, line.ProductID, line.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to merge cart: %w", err)
	}

	if err := session.Clear(ctx); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("merged cart but failed to clear session cart")
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "lines": len(lines)}).Info("session cart merged")
	return len(lines), nil
}
