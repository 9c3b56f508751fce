package signin

import "github.com/wareease/wareease-web/internal/wareease/rbac"

const (
	RouteAdminAccounts  = "/admin/accounts"
	RouteManagerReports = "/manager/reports"
	RouteStaffProducts  = "/staff/products"
)

// landingRoutes is evaluated in order; the first role held wins.
var landingRoutes = []struct {
	role  rbac.Role
	route string
}{
	{rbac.RoleAdmin, RouteAdminAccounts},
	{rbac.RoleManager, RouteManagerReports},
	{rbac.RoleStaff, RouteStaffProducts},
}

// LandingRoute picks the post-login view for the given role claims. It
// returns "" when no known role is present; callers must not navigate then.
func LandingRoute(roles []string) string {
	held := rbac.FromClaims(roles)
	for _, candidate := range landingRoutes {
		if held.Has(candidate.role) {
			return candidate.route
		}
	}
	return ""
}
