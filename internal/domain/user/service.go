// internal/domain/user/service.go
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MuhammadAwais984/storefront/internal/config"
	"github.com/MuhammadAwais984/storefront/internal/pkg/apperror"
	"github.com/MuhammadAwais984/storefront/internal/pkg/auth"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service handles registration, login and self-service profile operations
type Service struct {
	db              *gorm.DB
	config          *config.Config
	log             logrus.FieldLogger
	passwordManager *auth.PasswordManager
	jwtManager      *auth.JWTManager
}

// NewService creates a new user service
func NewService(db *gorm.DB, cfg *config.Config, log logrus.FieldLogger) *Service {
	return &Service{
		db:              db,
		config:          cfg,
		log:             log,
		passwordManager: auth.NewPasswordManager(cfg),
		jwtManager:      auth.NewJWTManager(cfg),
	}
}

// RegisterRequest represents user registration data
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	Name     string `json:"name" binding:"required,max=120"`
	Phone    string `json:"phone" binding:"omitempty,phone"`
	Address  string `json:"address" binding:"omitempty,max=500"`
}

// LoginRequest represents user login data
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// CreateAdminRequest is used by SUPER_ADMIN to provision staff accounts
type CreateAdminRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	Name     string `json:"name" binding:"required,max=120"`
	Phone    string `json:"phone" binding:"omitempty,phone"`
}

// UpdateProfileRequest carries optional profile changes
type UpdateProfileRequest struct {
	Name    *string `json:"name" binding:"omitempty,min=1,max=120"`
	Phone   *string `json:"phone" binding:"omitempty,phone"`
	Address *string `json:"address" binding:"omitempty,min=1,max=500"`
}

// ChangePasswordRequest represents a password change
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6,max=72"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User   *User           `json:"user"`
	Tokens *auth.TokenPair `json:"tokens"`
}

// Register creates a CUSTOMER account. An existing GUEST account with the
// same email is upgraded in place so its orders stay attached.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	email := NormalizeEmail(req.Email)
	hash := func() (string, error) {
		hashed, err := s.passwordManager.HashPassword(req.Password)
		if err != nil {
			return "", apperror.Wrap(apperror.KindInvalid, err.Error(), nil)
		}
		return hashed, nil
	}

	var user User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing User
		err := tx.Where("email = ?", email).First(&existing).Error
		switch {
		case err == nil && !existing.IsGuest():
			return apperror.Conflict("Email is already registered")
		case err == nil:
			hashedPassword, err := hash()
			if err != nil {
				return err
			}
			existing.Password = hashedPassword
			existing.Name = strings.TrimSpace(req.Name)
			existing.Role = auth.RoleCustomer
			if req.Phone != "" {
				existing.Phone = req.Phone
			}
			if err := tx.Save(&existing).Error; err != nil {
				return fmt.Errorf("failed to upgrade guest account: %w", err)
			}
			user = existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			hashedPassword, err := hash()
			if err != nil {
				return err
			}
			user = User{
				Email:    email,
				Password: hashedPassword,
				Name:     strings.TrimSpace(req.Name),
				Phone:    req.Phone,
				Role:     auth.RoleCustomer,
			}
			if err := tx.Create(&user).Error; err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}
		default:
			return fmt.Errorf("failed to look up user: %w", err)
		}

		if addr := strings.TrimSpace(req.Address); addr != "" {
			saved, err := upsertAddress(tx, user.ID, addr)
			if err != nil {
				return err
			}
			user.Address = saved
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "email": user.Email}).Info("user registered")

	return s.authResponse(&user)
}

// Login authenticates a user by email and password
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	var user User
	err := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(req.Email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Unauthorized("Invalid credentials")
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !user.HasPassword() {
		return nil, apperror.Unauthorized("Guest users cannot log in")
	}

	if err := s.passwordManager.VerifyPassword(req.Password, user.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, apperror.Unauthorized("Invalid credentials")
		}
		return nil, err
	}

	return s.authResponse(&user)
}

// RefreshToken issues a new token pair from a valid refresh token
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	if refreshToken == "" {
		return nil, apperror.Unauthorized("Refresh token missing")
	}

	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindUnauthorized, "Invalid refresh token", err)
	}

	var user User
	if err := s.db.WithContext(ctx).First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Unauthorized("User no longer exists")
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !user.HasPassword() {
		return nil, apperror.Unauthorized("Guest users cannot log in")
	}

	return s.authResponse(&user)
}

// CreateAdmin provisions an ADMIN account
func (s *Service) CreateAdmin(ctx context.Context, req *CreateAdminRequest) (*User, error) {
	return s.CreateWithRole(ctx, req, auth.RoleAdmin)
}

// CreateWithRole creates a password account with an explicit role. The
// HTTP surface only exposes ADMIN; the CLI can also bootstrap SUPER_ADMIN.
func (s *Service) CreateWithRole(ctx context.Context, req *CreateAdminRequest, role auth.Role) (*User, error) {
	if !role.Valid() || role == auth.RoleGuest {
		return nil, apperror.Invalid(fmt.Sprintf("Cannot create an account with role %s", role))
	}

	hashedPassword, err := s.passwordManager.HashPassword(req.Password)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInvalid, err.Error(), nil)
	}

	email := NormalizeEmail(req.Email)
	var count int64
	if err := s.db.WithContext(ctx).Model(&User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		return nil, apperror.Conflict("Email is already registered")
	}

	user := User{
		Email:    email,
		Password: hashedPassword,
		Name:     strings.TrimSpace(req.Name),
		Phone:    req.Phone,
		Role:     role,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "role": role}).Info("staff account created")
	return &user, nil
}

// GetProfile gets a user with their address
func (s *Service) GetProfile(ctx context.Context, userID uint) (*User, error) {
	var user User
	if err := s.db.WithContext(ctx).Preload("Address").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("User not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// UpdateProfile applies the provided fields and upserts the address
func (s *Service) UpdateProfile(ctx context.Context, userID uint, req *UpdateProfileRequest) (*User, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user User
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("User not found")
			}
			return fmt.Errorf("failed to get user: %w", err)
		}

		updates := map[string]interface{}{}
		if req.Name != nil {
			updates["name"] = strings.TrimSpace(*req.Name)
		}
		if req.Phone != nil {
			updates["phone"] = *req.Phone
		}
		if len(updates) > 0 {
			if err := tx.Model(&user).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update user: %w", err)
			}
		}

		if req.Address != nil {
			if _, err := upsertAddress(tx, userID, strings.TrimSpace(*req.Address)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetProfile(ctx, userID)
}

// ChangePassword verifies the old password before setting a new one
func (s *Service) ChangePassword(ctx context.Context, userID uint, req *ChangePasswordRequest) error {
	var user User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("User not found")
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if !user.HasPassword() {
		return apperror.Forbidden("Guest users cannot update password")
	}

	if err := s.passwordManager.VerifyPassword(req.OldPassword, user.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return apperror.Forbidden("Old password is incorrect")
		}
		return err
	}

	hashedPassword, err := s.passwordManager.HashPassword(req.NewPassword)
	if err != nil {
		return apperror.Wrap(apperror.KindInvalid, err.Error(), nil)
	}

	if err := s.db.WithContext(ctx).Model(&user).Update("password", hashedPassword).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// FindOrCreateGuest returns the account registered under email, creating a
// password-less GUEST account when none exists. It runs on the caller's
// transaction.
func FindOrCreateGuest(tx *gorm.DB, name, email, phone string) (*User, error) {
	email = NormalizeEmail(email)

	var user User
	err := tx.Where("email = ?", email).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up guest: %w", err)
	}

	user = User{
		Email: email,
		Name:  strings.TrimSpace(name),
		Phone: phone,
		Role:  auth.RoleGuest,
	}
	// a concurrent checkout may have created the account since the lookup
	result := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoNothing: true,
	}).Create(&user)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to create guest: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		user = User{}
		if err := tx.Where("email = ?", email).First(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to look up guest: %w", err)
		}
	}
	return &user, nil
}

func (s *Service) authResponse(user *User) (*AuthResponse, error) {
	tokens, err := s.jwtManager.GeneratePair(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{User: user, Tokens: tokens}, nil
}
