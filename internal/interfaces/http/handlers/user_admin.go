// internal/interfaces/http/handlers/user_admin.go
package handlers

import (
	"github.com/MuhammadAwais984/storefront/internal/domain/user"
	"github.com/MuhammadAwais984/storefront/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// UserAdminHandler handles admin user management endpoints
type UserAdminHandler struct {
	adminService *user.AdminService
}

// NewUserAdminHandler creates a new user admin handler
func NewUserAdminHandler(adminService *user.AdminService) *UserAdminHandler {
	return &UserAdminHandler{adminService: adminService}
}

// GetUsers handles GET /users
func (h *UserAdminHandler) GetUsers(c *gin.Context) {
	var req user.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.adminService.GetUsers(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Users retrieved successfully", response)
}

// GetUser handles GET /users/:id
func (h *UserAdminHandler) GetUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "id", "user ID")
	if !ok {
		return
	}

	userWithStats, err := h.adminService.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "User retrieved successfully", userWithStats)
}

// UpdateUser handles PATCH /users/:id
func (h *UserAdminHandler) UpdateUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "id", "user ID")
	if !ok {
		return
	}

	var req user.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	updated, err := h.adminService.UpdateUser(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "User updated successfully", updated)
}

// DeleteUser handles DELETE /users/:id
func (h *UserAdminHandler) DeleteUser(c *gin.Context) {
	actor, ok := middleware.GetPrincipal(c)
	if !ok {
		requireUser(c)
		return
	}
	userID, ok := parseIDParam(c, "id", "user ID")
	if !ok {
		return
	}

	if err := h.adminService.DeleteUser(c.Request.Context(), actor, userID); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "User deleted successfully", nil)
}
