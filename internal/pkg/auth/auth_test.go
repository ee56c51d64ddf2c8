package auth

import (
	"testing"
	"time"

	"github.com/MuhammadAwais984/storefront/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "storefront-test"},
		JWT: config.JWTConfig{
			Secret:             "access-secret-access-secret-access-secret",
			RefreshSecret:      "refresh-secret-refresh-secret-refresh-secret",
			AccessTokenExpiry:  8 * time.Hour,
			RefreshTokenExpiry: 24 * time.Hour,
		},
		Security: config.SecurityConfig{BcryptCost: 4},
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	jm := NewJWTManager(testConfig())

	token, expiresAt, err := jm.GenerateAccessToken(42, "ada@example.com", RoleAdmin)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(8*time.Hour), expiresAt, time.Minute)

	claims, err := jm.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, RoleAdmin, claims.Role)
}

func TestRefreshTokenIsNotAnAccessToken(t *testing.T) {
	jm := NewJWTManager(testConfig())

	pair, err := jm.GeneratePair(7, "bob@example.com", RoleCustomer)
	require.NoError(t, err)

	_, err = jm.ValidateAccessToken(pair.RefreshToken)
	assert.Error(t, err)
	_, err = jm.ValidateRefreshToken(pair.AccessToken)
	assert.Error(t, err)

	claims, err := jm.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
}

func TestExpiredTokenRejected(t *testing.T) {
	cfg := testConfig()
	cfg.JWT.AccessTokenExpiry = -time.Minute
	jm := NewJWTManager(cfg)

	token, _, err := jm.GenerateAccessToken(1, "a@example.com", RoleCustomer)
	require.NoError(t, err)

	_, err = jm.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestExtractTokenFromHeader(t *testing.T) {
	assert.Equal(t, "abc", ExtractTokenFromHeader("Bearer abc"))
	assert.Equal(t, "abc", ExtractTokenFromHeader("bearer abc"))
	assert.Empty(t, ExtractTokenFromHeader("Basic abc"))
	assert.Empty(t, ExtractTokenFromHeader(""))
}

func TestPasswordManager(t *testing.T) {
	pm := NewPasswordManager(testConfig())

	hash, err := pm.HashPassword("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)

	assert.NoError(t, pm.VerifyPassword("secret1", hash))
	assert.ErrorIs(t, pm.VerifyPassword("wrong", hash), ErrPasswordMismatch)
	assert.ErrorIs(t, pm.VerifyPassword("secret1", ""), ErrPasswordMismatch)

	_, err = pm.HashPassword("abc")
	assert.Error(t, err)
}

func TestAllowed(t *testing.T) {
	tests := []struct {
		cap  Capability
		role Role
		want bool
	}{
		{CapShop, RoleCustomer, true},
		{CapShop, RoleGuest, false},
		{CapManageCatalog, RoleCustomer, false},
		{CapManageCatalog, RoleAdmin, true},
		{CapManageOrders, RoleSuperAdmin, true},
		{CapManageUsers, RoleGuest, false},
		{CapCreateAdmin, RoleAdmin, false},
		{CapCreateAdmin, RoleSuperAdmin, true},
		{Capability("unknown"), RoleSuperAdmin, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Allowed(tt.cap, tt.role), "%s/%s", tt.cap, tt.role)
	}
}

func TestCanDeleteUser(t *testing.T) {
	super := Principal{ID: 1, Role: RoleSuperAdmin}
	admin := Principal{ID: 2, Role: RoleAdmin}
	otherAdmin := Principal{ID: 3, Role: RoleAdmin}
	customer := Principal{ID: 4, Role: RoleCustomer}

	assert.False(t, CanDeleteUser(super, super), "super admin is never deletable")
	assert.False(t, CanDeleteUser(admin, super))
	assert.True(t, CanDeleteUser(super, admin))
	assert.True(t, CanDeleteUser(admin, admin), "admins may delete themselves")
	assert.False(t, CanDeleteUser(otherAdmin, admin))
	assert.True(t, CanDeleteUser(admin, customer))
	assert.True(t, CanDeleteUser(admin, Principal{ID: 9, Role: RoleGuest}))
}
