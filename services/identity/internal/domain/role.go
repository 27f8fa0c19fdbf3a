package domain

import "github.com/Hello-Vince/crm-system/pkg/tenancy"

// Role re-exports the three RBAC roles from pkg/tenancy so callers in this
// service don't need to import both packages for the same concept.
type Role = tenancy.Role

const (
	RoleSystemAdmin = tenancy.RoleSystemAdmin
	RoleTenantAdmin = tenancy.RoleTenantAdmin
	RoleUser        = tenancy.RoleUser
)

// ValidRoles returns the set of valid roles.
func ValidRoles() []Role {
	return []Role{RoleSystemAdmin, RoleTenantAdmin, RoleUser}
}

// IsValidRole checks whether the given role string is a valid role.
func IsValidRole(role string) bool {
	return Role(role).Valid()
}
