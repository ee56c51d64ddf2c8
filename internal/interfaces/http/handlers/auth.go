// internal/interfaces/http/handlers/auth.go
package handlers

import (
	"github.com/MuhammadAwais984/storefront/internal/config"
	"github.com/MuhammadAwais984/storefront/internal/domain/cart"
	"github.com/MuhammadAwais984/storefront/internal/domain/user"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	userService *user.Service
	cartService *cart.Service
	config      *config.Config
	log         logrus.FieldLogger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(userService *user.Service, cartService *cart.Service, cfg *config.Config, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		cartService: cartService,
		config:      cfg,
		log:         log,
	}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req user.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	setRefreshCookie(c, h.config, response.Tokens.RefreshToken)
	respondCreated(c, "User registered successfully", response)
}

// Login handles POST /auth/login. A session cart held by the browser is
// merged into the account.
func (h *AuthHandler) Login(c *gin.Context) {
	var req user.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.userService.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	if sid := sessionID(c, h.config, false); sid != "" {
		merged, err := h.cartService.Merge(c.Request.Context(), response.User.ID, sid)
		if err != nil {
			h.log.WithError(err).WithField("user_id", response.User.ID).Warn("failed to merge session cart on login")
		} else if merged > 0 {
			h.log.WithFields(logrus.Fields{"user_id": response.User.ID, "items": merged}).Info("merged session cart")
		}
	}

	setRefreshCookie(c, h.config, response.Tokens.RefreshToken)
	respondOK(c, "Login successful", response)
}

// RefreshToken handles POST /auth/refresh using the refresh cookie
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	token, _ := c.Cookie(h.config.JWT.RefreshCookieName)

	response, err := h.userService.RefreshToken(c.Request.Context(), token)
	if err != nil {
		clearRefreshCookie(c, h.config)
		respondError(c, err)
		return
	}

	setRefreshCookie(c, h.config, response.Tokens.RefreshToken)
	respondOK(c, "Token refreshed successfully", response)
}

// Logout handles POST /auth/logout. Access tokens are stateless; only the
// refresh cookie is cleared.
func (h *AuthHandler) Logout(c *gin.Context) {
	clearRefreshCookie(c, h.config)
	respondOK(c, "Logged out successfully", nil)
}

// CreateAdmin handles POST /admin/create-admin
func (h *AuthHandler) CreateAdmin(c *gin.Context) {
	var req user.CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	admin, err := h.userService.CreateAdmin(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, "Admin created successfully", admin)
}
