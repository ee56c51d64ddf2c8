// internal/interfaces/http/middleware/auth.go
package middleware

import (
	"net/http"

	"github.com/MuhammadAwais984/storefront/internal/pkg/auth"
	"github.com/gin-gonic/gin"
)

const (
	ctxUserID = "user_id"
	ctxEmail  = "user_email"
	ctxRole   = "user_role"
	ctxClaims = "token_claims"
)

// AuthMiddleware requires a valid access token
func AuthMiddleware(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header required",
			})
			return
		}

		tokenString := auth.ExtractTokenFromHeader(authHeader)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization header format",
			})
			return
		}

		claims, err := jwtManager.ValidateAccessToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			return
		}

		SetClaims(c, claims)
		c.Next()
	}
}

// OptionalAuthMiddleware attaches the caller when a valid token is present
// and otherwise lets the request through anonymously
func OptionalAuthMiddleware(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := auth.ExtractTokenFromHeader(c.GetHeader("Authorization"))
		if tokenString == "" {
			c.Next()
			return
		}

		if claims, err := jwtManager.ValidateAccessToken(tokenString); err == nil {
			SetClaims(c, claims)
		}
		c.Next()
	}
}

// RequireCapability rejects callers whose role lacks the capability. It must
// run after AuthMiddleware.
func RequireCapability(capability auth.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetRoleFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			return
		}

		if !auth.Allowed(capability, role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Insufficient permissions",
			})
			return
		}

		c.Next()
	}
}

// SetClaims stores the authenticated caller in the context
func SetClaims(c *gin.Context, claims *auth.Claims) {
	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxEmail, claims.Email)
	c.Set(ctxRole, claims.Role)
	c.Set(ctxClaims, claims)
}

// GetUserIDFromContext extracts user ID from gin context
func GetUserIDFromContext(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(ctxUserID)
	if !exists {
		return 0, false
	}
	id, ok := userID.(uint)
	return id, ok
}

// GetUserEmailFromContext extracts user email from gin context
func GetUserEmailFromContext(c *gin.Context) (string, bool) {
	email, exists := c.Get(ctxEmail)
	if !exists {
		return "", false
	}
	s, ok := email.(string)
	return s, ok
}

// GetRoleFromContext extracts the caller's role from gin context
func GetRoleFromContext(c *gin.Context) (auth.Role, bool) {
	role, exists := c.Get(ctxRole)
	if !exists {
		return "", false
	}
	r, ok := role.(auth.Role)
	return r, ok
}

// GetPrincipal returns the authenticated caller
func GetPrincipal(c *gin.Context) (auth.Principal, bool) {
	id, ok := GetUserIDFromContext(c)
	if !ok {
		return auth.Principal{}, false
	}
	role, _ := GetRoleFromContext(c)
	return auth.Principal{ID: id, Role: role}, true
}
