// internal/domain/user/address_service.go
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MuhammadAwais984/storefront/internal/pkg/apperror"
	"gorm.io/gorm"
)

// AddressService manages the single saved address of a user
type AddressService struct {
	db *gorm.DB
}

// NewAddressService creates a new address service
func NewAddressService(db *gorm.DB) *AddressService {
	return &AddressService{db: db}
}

// AddressRequest represents an address upsert
type AddressRequest struct {
	Address string `json:"address" binding:"required,max=500"`
}

// GetAddress returns the user's address
func (s *AddressService) GetAddress(ctx context.Context, userID uint) (*Address, error) {
	var address Address
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&address).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("No address found")
		}
		return nil, fmt.Errorf("failed to get address: %w", err)
	}
	return &address, nil
}

// UpsertAddress replaces the user's address or creates it
func (s *AddressService) UpsertAddress(ctx context.Context, userID uint, req *AddressRequest) (*Address, error) {
	line := strings.TrimSpace(req.Address)
	if line == "" {
		return nil, apperror.Invalid("Address cannot be empty")
	}

	var address *Address
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check user: %w", err)
		}
		if count == 0 {
			return apperror.NotFound("User not found")
		}

		saved, err := upsertAddress(tx, userID, line)
		address = saved
		return err
	})
	if err != nil {
		return nil, err
	}
	return address, nil
}

// DeleteAddress removes an address owned by userID
func (s *AddressService) DeleteAddress(ctx context.Context, userID, addressID uint) error {
	var address Address
	err := s.db.WithContext(ctx).First(&address, addressID).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to get address: %w", err)
	}
	if err != nil || address.UserID != userID {
		return apperror.Forbidden("Cannot delete this address")
	}

	if err := s.db.WithContext(ctx).Delete(&address).Error; err != nil {
		return fmt.Errorf("failed to delete address: %w", err)
	}
	return nil
}

// SavedAddressLine returns the stored address text or "" when none exists
func SavedAddressLine(tx *gorm.DB, userID uint) (string, error) {
	var address Address
	err := tx.Where("user_id = ?", userID).First(&address).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get address: %w", err)
	}
	return address.Line, nil
}

func upsertAddress(tx *gorm.DB, userID uint, line string) (*Address, error) {
	var address Address
	err := tx.Where("user_id = ?", userID).First(&address).Error
	switch {
	case err == nil:
		if err := tx.Model(&address).Update("address", line).Error; err != nil {
			return nil, fmt.Errorf("failed to update address: %w", err)
		}
		address.Line = line
	case errors.Is(err, gorm.ErrRecordNotFound):
		address = Address{UserID: userID, Line: line}
		if err := tx.Create(&address).Error; err != nil {
			return nil, fmt.Errorf("failed to create address: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to get address: %w", err)
	}
	return &address, nil
}
