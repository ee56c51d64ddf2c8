// internal/domain/cart/session_cart.go
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MuhammadAwais984/storefront/internal/domain/product"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// SessionCart is the anonymous visitor's cart, kept in Redis under
// cart:session:<id> with a sliding TTL
type SessionCart struct {
	rdb       *redis.Client
	db        *gorm.DB
	sessionID string
	ttl       time.Duration
}

// NewSessionCart binds a cart to a session id
func NewSessionCart(rdb *redis.Client, db *gorm.DB, sessionID string, ttl time.Duration) *SessionCart {
	return &SessionCart{rdb: rdb, db: db, sessionID: sessionID, ttl: ttl}
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("cart:session:%s", sessionID)
}

func (c *SessionCart) Add(ctx context.Context, productID uint, quantity int) error {
	quantity = normalizeQuantity(quantity)

	if err := ensureProductExists(c.db.WithContext(ctx), productID); err != nil {
		return err
	}

	state, err := c.load(ctx)
	if err != nil {
		return err
	}

	found := false
	for i := range state.Items {
		if state.Items[i].ProductID == productID {
			state.Items[i].Quantity += quantity
			found = true
			break
		}
	}
	if !found {
		state.Items = append(state.Items, sessionStateItem{
			ProductID: productID,
			Quantity:  quantity,
			AddedAt:   time.Now().UTC(),
		})
	}

	return c.save(ctx, state)
}

// Lines joins the stored items with current product data. Items whose
// product has been deleted are skipped.
func (c *SessionCart) Lines(ctx context.Context) ([]Line, error) {
	state, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	if len(state.Items) == 0 {
		return []Line{}, nil
	}

	ids := make([]uint, 0, len(state.Items))
	for _, item := range state.Items {
		ids = append(ids, item.ProductID)
	}

	var products []product.Product
	err = c.db.WithContext(ctx).
		Preload("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		Where("id IN ?", ids).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load cart products: %w", err)
	}
	byID := make(map[uint]*product.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	lines := make([]Line, 0, len(state.Items))
	for _, item := range state.Items {
		p, ok := byID[item.ProductID]
		if !ok {
			continue
		}
		lines = append(lines, newLine(item.ProductID, item.Quantity, p))
	}
	return lines, nil
}

func (c *SessionCart) Remove(ctx context.Context, productID uint) error {
	state, err := c.load(ctx)
	if err != nil {
		return err
	}

	kept := state.Items[:0]
	for _, item := range state.Items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	state.Items = kept
	return c.save(ctx, state)
}

func (c *SessionCart) SetQuantity(ctx context.Context, productID uint, quantity int) error {
	state, err := c.load(ctx)
	if err != nil {
		return err
	}

	for i := range state.Items {
		if state.Items[i].ProductID != productID {
			continue
		}
		if quantity <= 0 {
			state.Items = append(state.Items[:i], state.Items[i+1:]...)
		} else {
			state.Items[i].Quantity = quantity
		}
		return c.save(ctx, state)
	}
	return errItemNotFound()
}

func (c *SessionCart) Clear(ctx context.Context) error {
	if err := c.rdb.Del(ctx, sessionKey(c.sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to clear session cart: %w", err)
	}
	return nil
}

func (c *SessionCart) load(ctx context.Context) (*sessionState, error) {
	data, err := c.rdb.Get(ctx, sessionKey(c.sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		now := time.Now().UTC()
		return &sessionState{
			SessionID: c.sessionID,
			Items:     []sessionStateItem{},
			CreatedAt: now,
			UpdatedAt: now,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session cart: %w", err)
	}

	var state sessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode session cart: %w", err)
	}
	return &state, nil
}

func (c *SessionCart) save(ctx context.Context, state *sessionState) error {
	state.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode session cart: %w", err)
	}
	if err := c.rdb.Set(ctx, sessionKey(c.sessionID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session cart: %w", err)
	}
	return nil
}
