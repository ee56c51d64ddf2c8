package handlers

import (
	"net/http"

	"github.com/MuhammadAwais984/storefront/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const refreshCookiePath = "/api/v1/auth"

func setRefreshCookie(c *gin.Context, cfg *config.Config, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.JWT.RefreshCookieName, token,
		int(cfg.JWT.RefreshTokenExpiry.Seconds()), refreshCookiePath, "", cfg.JWT.CookieSecure, true)
}

func clearRefreshCookie(c *gin.Context, cfg *config.Config) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.JWT.RefreshCookieName, "", -1, refreshCookiePath, "", cfg.JWT.CookieSecure, true)
}

// sessionID returns the anonymous cart session from its cookie. With create
// set, a missing session is started and the cookie issued.
func sessionID(c *gin.Context, cfg *config.Config, create bool) string {
	if id, err := c.Cookie(cfg.Cart.SessionCookieName); err == nil && id != "" {
		return id
	}
	if !create {
		return ""
	}

	id := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.Cart.SessionCookieName, id,
		int(cfg.Cart.SessionTTL.Seconds()), "/", "", cfg.JWT.CookieSecure, true)
	return id
}
