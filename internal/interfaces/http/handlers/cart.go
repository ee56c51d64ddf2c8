// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"net/http"

	"github.com/MuhammadAwais984/storefront/internal/config"
	"github.com/MuhammadAwais984/storefront/internal/domain/cart"
	"github.com/MuhammadAwais984/storefront/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// CartHandler handles cart endpoints. Authenticated callers use their
// database cart; anonymous callers get a session cart keyed by cookie.
type CartHandler struct {
	cartService *cart.Service
	config      *config.Config
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartService *cart.Service, cfg *config.Config) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		config:      cfg,
	}
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	userCart, ok := h.resolve(c)
	if !ok {
		return
	}
	h.respondCart(c, userCart, "Cart retrieved successfully")
}

// AddToCart handles POST /cart
func (h *CartHandler) AddToCart(c *gin.Context) {
	var req cart.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	userCart, ok := h.resolve(c)
	if !ok {
		return
	}
	if err := userCart.Add(c.Request.Context(), req.ProductID, req.Quantity); err != nil {
		respondError(c, err)
		return
	}

	h.respondCart(c, userCart, "Item added to cart successfully")
}

// UpdateCartItem handles PATCH /cart/:productId
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	productID, ok := parseIDParam(c, "productId", "product ID")
	if !ok {
		return
	}

	var req cart.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	userCart, ok := h.resolve(c)
	if !ok {
		return
	}
	if err := userCart.SetQuantity(c.Request.Context(), productID, req.Quantity); err != nil {
		respondError(c, err)
		return
	}

	h.respondCart(c, userCart, "Cart item updated successfully")
}

// RemoveFromCart handles DELETE /cart/:productId
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	productID, ok := parseIDParam(c, "productId", "product ID")
	if !ok {
		return
	}

	userCart, ok := h.resolve(c)
	if !ok {
		return
	}
	if err := userCart.Remove(c.Request.Context(), productID); err != nil {
		respondError(c, err)
		return
	}

	h.respondCart(c, userCart, "Item removed from cart successfully")
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	userCart, ok := h.resolve(c)
	if !ok {
		return
	}
	if err := userCart.Clear(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Cart cleared successfully", nil)
}

// MergeCart handles POST /cart/merge for a logged in user holding a
// session cart
func (h *CartHandler) MergeCart(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	merged, err := h.cartService.Merge(c.Request.Context(), userID, sessionID(c, h.config, false))
	if err != nil {
		respondError(c, err)
		return
	}

	summary, err := h.cartService.Summarize(c.Request.Context(), h.cartService.UserCart(userID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart merged successfully",
		"data":    summary,
		"merged":  merged,
	})
}

func (h *CartHandler) resolve(c *gin.Context) (cart.Cart, bool) {
	var userID *uint
	if id, ok := middleware.GetUserIDFromContext(c); ok {
		userID = &id
	}

	sid := ""
	if userID == nil {
		sid = sessionID(c, h.config, true)
	}

	resolved, err := h.cartService.For(userID, sid)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return resolved, true
}

func (h *CartHandler) respondCart(c *gin.Context, userCart cart.Cart, message string) {
	summary, err := h.cartService.Summarize(c.Request.Context(), userCart)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, message, summary)
}
