// internal/interfaces/http/handlers/user_address.go
package handlers

import (
	"github.com/MuhammadAwais984/storefront/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// UserAddressHandler handles the single saved address of a user
type UserAddressHandler struct {
	addressService *user.AddressService
}

// NewUserAddressHandler creates a new user address handler
func NewUserAddressHandler(addressService *user.AddressService) *UserAddressHandler {
	return &UserAddressHandler{addressService: addressService}
}

// GetAddress handles GET /users/me/address
func (h *UserAddressHandler) GetAddress(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	address, err := h.addressService.GetAddress(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Address retrieved successfully", address)
}

// UpsertAddress handles PATCH /users/me/address
func (h *UserAddressHandler) UpsertAddress(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req user.AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	address, err := h.addressService.UpsertAddress(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Address saved successfully", address)
}

// DeleteAddress handles DELETE /users/me/address/:id
func (h *UserAddressHandler) DeleteAddress(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	addressID, ok := parseIDParam(c, "id", "address ID")
	if !ok {
		return
	}

	if err := h.addressService.DeleteAddress(c.Request.Context(), userID, addressID); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Address deleted successfully", nil)
}
