// internal/domain/user/entity.go
package user

import (
	"strings"
	"time"

	"github.com/MuhammadAwais984/storefront/internal/pkg/auth"
	"gorm.io/gorm"
)

// User is a storefront account. Guest checkouts create password-less users
// with the GUEST role.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null;size:255" json:"email"`
	Password  string    `gorm:"size:255" json:"-"`
	Name      string    `gorm:"size:120" json:"name"`
	Phone     string    `gorm:"size:32" json:"phone,omitempty"`
	Role      auth.Role `gorm:"size:20;not null;default:CUSTOMER;index" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Address *Address `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"address,omitempty"`
}

// Address is the single saved delivery address of a user. The unique index
// on user_id enforces one row per user.
type Address struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	Line      string    `gorm:"column:address;type:text;not null" json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name for User
func (User) TableName() string {
	return "users"
}

// TableName overrides the table name for Address
func (Address) TableName() string {
	return "addresses"
}

// BeforeSave keeps emails lowercase
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Email = NormalizeEmail(u.Email)
	return nil
}

// HasPassword reports whether the account can log in
func (u *User) HasPassword() bool {
	return u.Password != ""
}

// IsGuest reports whether the account was created by a guest checkout
func (u *User) IsGuest() bool {
	return u.Role == auth.RoleGuest || !u.HasPassword()
}

// Principal returns the identity used by authorization checks
func (u *User) Principal() auth.Principal {
	return auth.Principal{ID: u.ID, Role: u.Role}
}

// NormalizeEmail trims and lowercases an address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
