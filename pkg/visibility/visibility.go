// Package visibility implements the single predicate every tenant-scoped
// reader in this platform uses to decide whether a principal may see a
// given record.
package visibility

import "github.com/Hello-Vince/crm-system/pkg/tenancy"

// Scope computes the set of tenant IDs a principal may see records for.
// SYSTEM_ADMIN sees everything (represented as a nil/empty scope meaning "no
// filter", never as an enumerated list); TENANT_ADMIN sees its own tenant
// plus every descendant; USER sees only its own tenant. A principal with no
// tenant sees nothing.
func Scope(p tenancy.Principal, allTenants []tenancy.Node) []string {
	if p.IsSystemAdmin() {
		return nil
	}
	if p.TenantID == nil {
		return nil
	}
	own := *p.TenantID

	switch p.Role {
	case tenancy.RoleTenantAdmin:
		scope := append([]string{own}, tenancy.Descendants(own, allTenants)...)
		return scope
	default: // RoleUser
		return []string{own}
	}
}

// Visible reports whether a record with the given visibleTo tenant set is
// visible to a principal holding scope. An empty scope for a non-system-admin
// principal means "can see nothing"; a system admin (isSystemAdmin=true)
// bypasses the check unconditionally.
func Visible(scope []string, visibleTo []string, isSystemAdmin bool) bool {
	if isSystemAdmin {
		return true
	}
	if len(scope) == 0 || len(visibleTo) == 0 {
		return false
	}
	inScope := make(map[string]struct{}, len(scope))
	for _, id := range scope {
		inScope[id] = struct{}{}
	}
	for _, id := range visibleTo {
		if _, ok := inScope[id]; ok {
			return true
		}
	}
	return false
}
