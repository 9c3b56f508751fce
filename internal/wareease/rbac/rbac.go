package rbac

import (
	"strings"
)

// Role represents a WareEase staff tier as carried in the access token's role claim.
type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleManager Role = "Manager"
	RoleStaff   Role = "Staff"
)

// Capability represents a discrete area of the application guarded by role membership.
type Capability string

const (
	CapAccountsManage Capability = "accounts.manage"
	CapReportsView    Capability = "reports.view"
	CapProductsView   Capability = "products.view"
)

// capabilityRoles maps each capability to the roles permitted to access it.
var capabilityRoles = map[Capability]Roles{
	CapAccountsManage: {RoleAdmin},
	CapReportsView:    {RoleAdmin, RoleManager},
	CapProductsView:   {RoleAdmin, RoleManager, RoleStaff},
}

// Roles captures a list of roles and exposes intersection checks used for RBAC evaluation.
type Roles []Role

// Has returns true if the provided role exists in the set.
func (rs Roles) Has(role Role) bool {
	for _, r := range rs {
		if r == role {
			return true
		}
	}
	return false
}

// Intersects returns true if any role in the candidate slice is also present in the set.
func (rs Roles) Intersects(candidate Roles) bool {
	for _, role := range candidate {
		if rs.Has(role) {
			return true
		}
	}
	return false
}

// FromClaims converts raw role strings into Role values, dropping blanks and
// duplicates. Matching stays case-sensitive: "admin" is not "Admin".
func FromClaims(raw []string) Roles {
	if len(raw) == 0 {
		return nil
	}
	seen := make(map[Role]struct{}, len(raw))
	roles := make(Roles, 0, len(raw))
	for _, val := range raw {
		role := Role(strings.TrimSpace(val))
		if role == "" {
			continue
		}
		if _, ok := seen[role]; ok {
			continue
		}
		seen[role] = struct{}{}
		roles = append(roles, role)
	}
	return roles
}

// RolesForCapability returns the configured roles able to access the capability.
func RolesForCapability(cap Capability) Roles {
	if roles, ok := capabilityRoles[cap]; ok {
		return roles
	}
	return nil
}

// HasCapability reports whether the provided roles grant access to the capability.
func HasCapability(userRoles []string, capability Capability) bool {
	if capability == "" {
		return true
	}
	allowed := RolesForCapability(capability)
	if len(allowed) == 0 {
		return false
	}
	return allowed.Intersects(FromClaims(userRoles))
}
