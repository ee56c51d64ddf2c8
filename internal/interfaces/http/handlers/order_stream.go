package handlers

import (
	"net/http"

	"github.com/MuhammadAwais984/storefront/internal/interfaces/http/realtime"
	"github.com/MuhammadAwais984/storefront/internal/pkg/auth"
	"github.com/gin-gonic/gin"
)

// OrderStreamHandler upgrades admin connections to the live order feed.
// Browsers cannot set headers on websocket requests, so the access token is
// also accepted from the token query parameter.
type OrderStreamHandler struct {
	hub        *realtime.Hub
	jwtManager *auth.JWTManager
}

// NewOrderStreamHandler creates a new order stream handler
func NewOrderStreamHandler(hub *realtime.Hub, jwtManager *auth.JWTManager) *OrderStreamHandler {
	return &OrderStreamHandler{
		hub:        hub,
		jwtManager: jwtManager,
	}
}

// Stream handles GET /orders/admin/stream
func (h *OrderStreamHandler) Stream(c *gin.Context) {
	token := auth.ExtractTokenFromHeader(c.GetHeader("Authorization"))
	if token == "" {
		token = c.Query("token")
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Authentication required",
		})
		return
	}

	claims, err := h.jwtManager.ValidateAccessToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid or expired token",
		})
		return
	}
	if !auth.Allowed(auth.CapManageOrders, claims.Role) {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Insufficient permissions",
		})
		return
	}

	// Upgrade writes its own error response on failure
	if err := h.hub.Serve(c.Writer, c.Request, claims.UserID); err != nil {
		_ = c.Error(err)
	}
}
