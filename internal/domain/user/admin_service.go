// internal/domain/user/admin_service.go
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MuhammadAwais984/storefront/internal/pkg/apperror"
	"github.com/MuhammadAwais984/storefront/internal/pkg/auth"
	"github.com/MuhammadAwais984/storefront/internal/pkg/pagination"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AdminService handles back-office user management
type AdminService struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// NewAdminService creates a new admin user service
func NewAdminService(db *gorm.DB, log logrus.FieldLogger) *AdminService {
	return &AdminService{
		db:  db,
		log: log,
	}
}

// UserListRequest represents user list query parameters
type UserListRequest struct {
	pagination.Request
	Search string `form:"search"`
	Role   string `form:"role"`
}

// UserListResponse represents user list with pagination
type UserListResponse struct {
	Users      []UserWithStats       `json:"users"`
	Pagination pagination.Pagination `json:"pagination"`
}

// UserWithStats represents user with order statistics
type UserWithStats struct {
	User
	OrderCount int64           `json:"order_count"`
	TotalSpent decimal.Decimal `json:"total_spent"`
}

// UpdateUserRequest carries admin edits of an account
type UpdateUserRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=1,max=120"`
	Phone *string `json:"phone" binding:"omitempty,phone"`
	Email *string `json:"email" binding:"omitempty,email"`
}

// GetUsers retrieves users with filtering and pagination
func (s *AdminService) GetUsers(ctx context.Context, req *UserListRequest) (*UserListResponse, error) {
	req.Normalize()

	query := s.db.WithContext(ctx).Model(&User{})
	query = query.Scopes(pagination.Search(req.Search, "email", "name"))
	if role := auth.Role(strings.ToUpper(req.Role)); role.Valid() {
		query = query.Where("role = ?", role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	var users []User
	if err := query.Order("id ASC").Scopes(req.Scope).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve users: %w", err)
	}

	out := make([]UserWithStats, 0, len(users))
	for _, u := range users {
		stats, err := s.getUserStats(ctx, u.ID)
		if err != nil {
			stats = &UserWithStats{TotalSpent: decimal.Zero}
		}
		stats.User = u
		out = append(out, *stats)
	}

	return &UserListResponse{
		Users:      out,
		Pagination: pagination.New(req.Request, total),
	}, nil
}

// GetUser retrieves a single user with address and stats
func (s *AdminService) GetUser(ctx context.Context, userID uint) (*UserWithStats, error) {
	var user User
	if err := s.db.WithContext(ctx).Preload("Address").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("User not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	stats, err := s.getUserStats(ctx, userID)
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("failed to load user stats")
		stats = &UserWithStats{TotalSpent: decimal.Zero}
	}
	stats.User = user
	return stats, nil
}

// UpdateUser edits name, phone or email of an account
func (s *AdminService) UpdateUser(ctx context.Context, userID uint, req *UpdateUserRequest) (*User, error) {
	var user User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("User not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Email != nil {
		email := NormalizeEmail(*req.Email)
		if email != user.Email {
			var count int64
			if err := s.db.WithContext(ctx).Model(&User{}).Where("email = ? AND id <> ?", email, userID).Count(&count).Error; err != nil {
				return nil, fmt.Errorf("failed to check email: %w", err)
			}
			if count > 0 {
				return nil, apperror.Conflict("Email is already registered")
			}
			updates["email"] = email
		}
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	}

	if err := s.db.WithContext(ctx).Preload("Address").First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}
	return &user, nil
}

// DeleteUser removes an account and everything it owns. The actor must be
// allowed by auth.CanDeleteUser.
func (s *AdminService) DeleteUser(ctx context.Context, actor auth.Principal, userID uint) error {
	var target User
	if err := s.db.WithContext(ctx).First(&target, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("User not found")
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if !auth.CanDeleteUser(actor, target.Principal()) {
		if target.Role == auth.RoleSuperAdmin {
			return apperror.Forbidden("Cannot delete the main admin")
		}
		return apperror.Forbidden("Only the main admin can delete another admin")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		statements := []string{
			"DELETE FROM cart_items WHERE user_id = ?",
			"DELETE FROM order_items WHERE order_id IN (SELECT id FROM orders WHERE user_id = ?)",
			"DELETE FROM order_status_history WHERE order_id IN (SELECT id FROM orders WHERE user_id = ?)",
			"DELETE FROM orders WHERE user_id = ?",
			"DELETE FROM addresses WHERE user_id = ?",
		}
		for _, stmt := range statements {
			if err := tx.Exec(stmt, userID).Error; err != nil {
				return fmt.Errorf("failed to delete user data: %w", err)
			}
		}
		if err := tx.Delete(&User{}, userID).Error; err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":  userID,
		"actor_id": actor.ID,
	}).Info("user deleted")
	return nil
}

// CountByRole is used by the CLI and health reporting
func (s *AdminService) CountByRole(ctx context.Context, role auth.Role) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&User{}).Where("role = ?", role).Count(&count).Error
	return count, err
}

// getUserStats aggregates non-canceled orders of a user
func (s *AdminService) getUserStats(ctx context.Context, userID uint) (*UserWithStats, error) {
	var row struct {
		OrderCount int64
		TotalSpent decimal.NullDecimal
	}

	err := s.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*) AS order_count,
			SUM(total_price) AS total_spent
		FROM orders
		WHERE user_id = ? AND status <> 'CANCELED'
	`, userID).Scan(&row).Error
	if err != nil {
		return nil, err
	}

	stats := &UserWithStats{
		OrderCount: row.OrderCount,
		TotalSpent: decimal.Zero,
	}
	if row.TotalSpent.Valid {
		stats.TotalSpent = row.TotalSpent.Decimal
	}
	return stats, nil
}
