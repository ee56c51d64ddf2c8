package user_test

import (
	"context"
	"strings"
	"testing"

	"github.com/MuhammadAwais984/storefront/internal/domain/user"
	"github.com/MuhammadAwais984/storefront/internal/infrastructure/database/gormdb"
	"github.com/MuhammadAwais984/storefront/internal/pkg/apperror"
	"github.com/MuhammadAwais984/storefront/internal/pkg/auth"
	"github.com/MuhammadAwais984/storefront/internal/pkg/logger"
	"github.com/MuhammadAwais984/storefront/internal/testutil"
	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type UserServiceSuite struct {
	suite.Suite
	ctx       context.Context
	db        *gorm.DB
	service   *user.Service
	admin     *user.AdminService
	addresses *user.AddressService
}

func TestUserServiceSuite(t *testing.T) {
	suite.Run(t, new(UserServiceSuite))
}

func (s *UserServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = testutil.NewDB(s.T(), gormdb.Models()...)
	cfg := testutil.Config(s.T())
	log := logger.Discard()

	s.service = user.NewService(s.db, cfg, log)
	s.admin = user.NewAdminService(s.db, log)
	s.addresses = user.NewAddressService(s.db)
}

func (s *UserServiceSuite) register(email string) *user.User {
	resp, err := s.service.Register(s.ctx, &user.RegisterRequest{
		Email:    email,
		Password: "secret123",
		Name:     "Test User",
	})
	s.Require().NoError(err)
	return resp.User
}

func (s *UserServiceSuite) TestRegisterIssuesTokensAndHashesPassword() {
	resp, err := s.service.Register(s.ctx, &user.RegisterRequest{
		Email:    "  New@Example.com ",
		Password: "secret123",
		Name:     "New",
		Address:  "1 Main St",
	})
	s.Require().NoError(err)

	s.Equal("new@example.com", resp.User.Email)
	s.Equal(auth.RoleCustomer, resp.User.Role)
	s.NotEmpty(resp.Tokens.AccessToken)
	s.NotEmpty(resp.Tokens.RefreshToken)
	s.Require().NotNil(resp.User.Address)
	s.Equal("1 Main St", resp.User.Address.Line)

	var stored user.User
	s.Require().NoError(s.db.First(&stored, resp.User.ID).Error)
	s.NotEqual("secret123", stored.Password)
}

func (s *UserServiceSuite) TestRegisterDuplicateEmailConflicts() {
	s.register("dup@example.com")

	_, err := s.service.Register(s.ctx, &user.RegisterRequest{
		Email: "DUP@example.com", Password: "secret123", Name: "Again",
	})
	s.Equal(apperror.KindConflict, apperror.KindOf(err))
	s.Equal("Email is already registered", apperror.Message(err))

	// the duplicate check comes before hashing, so an unhashable password
	// still reports the conflict
	_, err = s.service.Register(s.ctx, &user.RegisterRequest{
		Email: "dup@example.com", Password: strings.Repeat("x", 100), Name: "Again",
	})
	s.Equal(apperror.KindConflict, apperror.KindOf(err))
}

func (s *UserServiceSuite) TestRegisterUpgradesGuestAccount() {
	guest, err := user.FindOrCreateGuest(s.db, "Guest", "guest@example.com", "")
	s.Require().NoError(err)
	s.Equal(auth.RoleGuest, guest.Role)

	_, err = s.service.Login(s.ctx, &user.LoginRequest{Email: "guest@example.com", Password: "anything"})
	s.Equal(apperror.KindUnauthorized, apperror.KindOf(err))
	s.Equal("Guest users cannot log in", apperror.Message(err))

	upgraded := s.register("guest@example.com")
	s.Equal(guest.ID, upgraded.ID)
	s.Equal(auth.RoleCustomer, upgraded.Role)

	_, err = s.service.Login(s.ctx, &user.LoginRequest{Email: "guest@example.com", Password: "secret123"})
	s.NoError(err)
}

func (s *UserServiceSuite) TestFindOrCreateGuestReusesAccounts() {
	customer := s.register("known@example.com")

	found, err := user.FindOrCreateGuest(s.db, "Someone", "Known@Example.com", "")
	s.Require().NoError(err)
	s.Equal(customer.ID, found.ID)
	s.Equal(auth.RoleCustomer, found.Role)
}

func (s *UserServiceSuite) TestFindOrCreateGuestConcurrent() {
	ids := make([]uint, 6)
	var g errgroup.Group
	for i := range ids {
		i := i
		g.Go(func() error {
			guest, err := user.FindOrCreateGuest(s.db, "Guest", "race@example.com", "")
			if err != nil {
				return err
			}
			ids[i] = guest.ID
			return nil
		})
	}
	s.Require().NoError(g.Wait())

	for _, id := range ids {
		s.Equal(ids[0], id)
	}
	var count int64
	s.Require().NoError(s.db.Model(&user.User{}).Where("email = ?", "race@example.com").Count(&count).Error)
	s.EqualValues(1, count)
}

func (s *UserServiceSuite) TestLoginFailures() {
	s.register("login@example.com")

	_, err := s.service.Login(s.ctx, &user.LoginRequest{Email: "login@example.com", Password: "wrong-password"})
	s.Equal("Invalid credentials", apperror.Message(err))

	_, err = s.service.Login(s.ctx, &user.LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	s.Equal("Invalid credentials", apperror.Message(err))
	s.Equal(apperror.KindUnauthorized, apperror.KindOf(err))
}

func (s *UserServiceSuite) TestRefreshToken() {
	s.register("refresh@example.com")
	resp, err := s.service.Login(s.ctx, &user.LoginRequest{Email: "refresh@example.com", Password: "secret123"})
	s.Require().NoError(err)

	refreshed, err := s.service.RefreshToken(s.ctx, resp.Tokens.RefreshToken)
	s.Require().NoError(err)
	s.Equal(resp.User.ID, refreshed.User.ID)

	_, err = s.service.RefreshToken(s.ctx, resp.Tokens.AccessToken)
	s.Equal(apperror.KindUnauthorized, apperror.KindOf(err))

	_, err = s.service.RefreshToken(s.ctx, "")
	s.Equal(apperror.KindUnauthorized, apperror.KindOf(err))
}

func (s *UserServiceSuite) TestChangePassword() {
	u := s.register("pw@example.com")

	err := s.service.ChangePassword(s.ctx, u.ID, &user.ChangePasswordRequest{OldPassword: "nope", NewPassword: "newsecret"})
	s.Equal(apperror.KindForbidden, apperror.KindOf(err))
	s.Equal("Old password is incorrect", apperror.Message(err))

	s.Require().NoError(s.service.ChangePassword(s.ctx, u.ID, &user.ChangePasswordRequest{OldPassword: "secret123", NewPassword: "newsecret"}))
	_, err = s.service.Login(s.ctx, &user.LoginRequest{Email: "pw@example.com", Password: "newsecret"})
	s.NoError(err)

	guest, err := user.FindOrCreateGuest(s.db, "Guest", "g@example.com", "")
	s.Require().NoError(err)
	err = s.service.ChangePassword(s.ctx, guest.ID, &user.ChangePasswordRequest{OldPassword: "", NewPassword: "newsecret"})
	s.Equal(apperror.KindForbidden, apperror.KindOf(err))

	err = s.service.ChangePassword(s.ctx, 9999, &user.ChangePasswordRequest{OldPassword: "x", NewPassword: "newsecret"})
	s.Equal(apperror.KindNotFound, apperror.KindOf(err))
}

func (s *UserServiceSuite) TestUpdateProfileUpsertsSingleAddress() {
	u := s.register("profile@example.com")
	name := "Renamed"
	first := "1 First St"
	second := "2 Second St"

	_, err := s.service.UpdateProfile(s.ctx, u.ID, &user.UpdateProfileRequest{Name: &name, Address: &first})
	s.Require().NoError(err)
	profile, err := s.service.UpdateProfile(s.ctx, u.ID, &user.UpdateProfileRequest{Address: &second})
	s.Require().NoError(err)

	s.Equal("Renamed", profile.Name)
	s.Require().NotNil(profile.Address)
	s.Equal(second, profile.Address.Line)

	var count int64
	s.Require().NoError(s.db.Model(&user.Address{}).Where("user_id = ?", u.ID).Count(&count).Error)
	s.EqualValues(1, count)
}

func (s *UserServiceSuite) TestAddressLifecycle() {
	u := s.register("addr@example.com")
	other := s.register("other@example.com")

	_, err := s.addresses.GetAddress(s.ctx, u.ID)
	s.Equal(apperror.KindNotFound, apperror.KindOf(err))

	_, err = s.addresses.UpsertAddress(s.ctx, u.ID, &user.AddressRequest{Address: "   "})
	s.Equal(apperror.KindInvalid, apperror.KindOf(err))

	first, err := s.addresses.UpsertAddress(s.ctx, u.ID, &user.AddressRequest{Address: "1 Road"})
	s.Require().NoError(err)
	second, err := s.addresses.UpsertAddress(s.ctx, u.ID, &user.AddressRequest{Address: "2 Road"})
	s.Require().NoError(err)
	s.Equal(first.ID, second.ID)

	line, err := user.SavedAddressLine(s.db, u.ID)
	s.Require().NoError(err)
	s.Equal("2 Road", line)

	err = s.addresses.DeleteAddress(s.ctx, other.ID, second.ID)
	s.Equal(apperror.KindForbidden, apperror.KindOf(err))

	s.Require().NoError(s.addresses.DeleteAddress(s.ctx, u.ID, second.ID))
	line, err = user.SavedAddressLine(s.db, u.ID)
	s.Require().NoError(err)
	s.Empty(line)
}

func (s *UserServiceSuite) TestCreateAdminRoles() {
	admin, err := s.service.CreateAdmin(s.ctx, &user.CreateAdminRequest{Email: "ops@example.com", Password: "secret123", Name: "Ops"})
	s.Require().NoError(err)
	s.Equal(auth.RoleAdmin, admin.Role)

	_, err = s.service.CreateAdmin(s.ctx, &user.CreateAdminRequest{Email: "ops@example.com", Password: "secret123", Name: "Ops"})
	s.Equal(apperror.KindConflict, apperror.KindOf(err))

	_, err = s.service.CreateWithRole(s.ctx, &user.CreateAdminRequest{Email: "g@example.com", Password: "secret123", Name: "G"}, auth.RoleGuest)
	s.Equal(apperror.KindInvalid, apperror.KindOf(err))
}

func (s *UserServiceSuite) TestDeleteUserRules() {
	super, err := s.service.CreateWithRole(s.ctx, &user.CreateAdminRequest{Email: "root@example.com", Password: "secret123", Name: "Root"}, auth.RoleSuperAdmin)
	s.Require().NoError(err)
	admin, err := s.service.CreateAdmin(s.ctx, &user.CreateAdminRequest{Email: "ops@example.com", Password: "secret123", Name: "Ops"})
	s.Require().NoError(err)
	otherAdmin, err := s.service.CreateAdmin(s.ctx, &user.CreateAdminRequest{Email: "ops2@example.com", Password: "secret123", Name: "Ops2"})
	s.Require().NoError(err)
	customer := s.register("victim@example.com")
	_, err = s.addresses.UpsertAddress(s.ctx, customer.ID, &user.AddressRequest{Address: "3 Road"})
	s.Require().NoError(err)

	err = s.admin.DeleteUser(s.ctx, admin.Principal(), super.ID)
	s.Equal(apperror.KindForbidden, apperror.KindOf(err))
	s.Equal("Cannot delete the main admin", apperror.Message(err))

	err = s.admin.DeleteUser(s.ctx, admin.Principal(), otherAdmin.ID)
	s.Equal(apperror.KindForbidden, apperror.KindOf(err))

	s.Require().NoError(s.admin.DeleteUser(s.ctx, admin.Principal(), customer.ID))
	var addresses int64
	s.Require().NoError(s.db.Model(&user.Address{}).Where("user_id = ?", customer.ID).Count(&addresses).Error)
	s.Zero(addresses)

	s.Require().NoError(s.admin.DeleteUser(s.ctx, super.Principal(), otherAdmin.ID))

	err = s.admin.DeleteUser(s.ctx, super.Principal(), 9999)
	s.Equal(apperror.KindNotFound, apperror.KindOf(err))
}

func (s *UserServiceSuite) TestAdminListAndUpdate() {
	s.register("alice@example.com")
	bob := s.register("bob@example.com")
	_, err := user.FindOrCreateGuest(s.db, "Guest", "guest@example.com", "")
	s.Require().NoError(err)

	resp, err := s.admin.GetUsers(s.ctx, &user.UserListRequest{Search: "ALI"})
	s.Require().NoError(err)
	s.Require().Len(resp.Users, 1)
	s.Equal("alice@example.com", resp.Users[0].Email)

	resp, err = s.admin.GetUsers(s.ctx, &user.UserListRequest{Search: "_"})
	s.Require().NoError(err)
	s.Empty(resp.Users)

	resp, err = s.admin.GetUsers(s.ctx, &user.UserListRequest{Role: "guest"})
	s.Require().NoError(err)
	s.EqualValues(1, resp.Pagination.Total)

	taken := "alice@example.com"
	_, err = s.admin.UpdateUser(s.ctx, bob.ID, &user.UpdateUserRequest{Email: &taken})
	s.Equal(apperror.KindConflict, apperror.KindOf(err))

	name := "Robert"
	updated, err := s.admin.UpdateUser(s.ctx, bob.ID, &user.UpdateUserRequest{Name: &name})
	s.Require().NoError(err)
	s.Equal("Robert", updated.Name)

	detail, err := s.admin.GetUser(s.ctx, bob.ID)
	s.Require().NoError(err)
	s.Zero(detail.OrderCount)
	s.True(detail.TotalSpent.IsZero())

	count, err := s.admin.CountByRole(s.ctx, auth.RoleCustomer)
	s.Require().NoError(err)
	s.EqualValues(2, count)
}
