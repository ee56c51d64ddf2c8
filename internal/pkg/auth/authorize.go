// internal/pkg/auth/authorize.go
package auth

// Role is the account role stored on the user and carried in tokens
type Role string

const (
	RoleCustomer   Role = "CUSTOMER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleGuest      Role = "GUEST"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleAdmin, RoleSuperAdmin, RoleGuest:
		return true
	}
	return false
}

// IsStaff reports whether r can reach the back office
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Capability names a protected action
type Capability string

const (
	CapShop          Capability = "shop"
	CapManageCatalog Capability = "manage_catalog"
	CapManageOrders  Capability = "manage_orders"
	CapManageUsers   Capability = "manage_users"
	CapCreateAdmin   Capability = "create_admin"
)

var grants = map[Capability][]Role{
	CapShop:          {RoleCustomer, RoleAdmin, RoleSuperAdmin},
	CapManageCatalog: {RoleAdmin, RoleSuperAdmin},
	CapManageOrders:  {RoleAdmin, RoleSuperAdmin},
	CapManageUsers:   {RoleAdmin, RoleSuperAdmin},
	CapCreateAdmin:   {RoleSuperAdmin},
}

// Allowed is the single authorization predicate used by every protected route
func Allowed(capability Capability, role Role) bool {
	for _, r := range grants[capability] {
		if r == role {
			return true
		}
	}
	return false
}

// Principal identifies the account acting or being acted on
type Principal struct {
	ID   uint
	Role Role
}

// CanDeleteUser applies the account deletion rules. A SUPER_ADMIN can never
// be deleted and an ADMIN only by a SUPER_ADMIN or by themselves.
func CanDeleteUser(actor, target Principal) bool {
	switch target.Role {
	case RoleSuperAdmin:
		return false
	case RoleAdmin:
		return actor.Role == RoleSuperAdmin || actor.ID == target.ID
	default:
		return Allowed(CapManageUsers, actor.Role) || actor.ID == target.ID
	}
}
