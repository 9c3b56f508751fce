package partials

import "github.com/wareease/wareease-web/internal/wareease/rbac"

// Toast is a notice rendered next to the page content.
type Toast struct {
	Level string
	Text  string
}

// NavItem is a landing view link guarded by a capability.
type NavItem struct {
	Label      string
	Href       string
	Capability rbac.Capability
}

// Navigation lists the role landing views.
var Navigation = []NavItem{
	{Label: "Accounts", Href: "/admin/accounts", Capability: rbac.CapAccountsManage},
	{Label: "Reports", Href: "/manager/reports", Capability: rbac.CapReportsView},
	{Label: "Products", Href: "/staff/products", Capability: rbac.CapProductsView},
}
