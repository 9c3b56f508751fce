package helpers

import (
	"context"

	"github.com/wareease/wareease-web/internal/wareease/httpserver/middleware"
	"github.com/wareease/wareease-web/internal/wareease/rbac"
)

// HasCapability reports whether the signed-in user possesses the capability.
// An empty capability is unconstrained.
func HasCapability(ctx context.Context, capability rbac.Capability) bool {
	if capability == "" {
		return true
	}
	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		return false
	}
	return rbac.HasCapability(user.Roles, capability)
}
