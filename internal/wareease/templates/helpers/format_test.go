package helpers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wareease/wareease-web/internal/wareease/httpserver/middleware"
	"github.com/wareease/wareease-web/internal/wareease/rbac"
)

func TestDelaySeconds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   time.Duration
		want string
	}{
		{in: 0, want: "0s"},
		{in: -time.Second, want: "0s"},
		{in: 1500 * time.Millisecond, want: "2s"},
		{in: time.Hour, want: "3600s"},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, DelaySeconds(tc.in), tc.in.String())
	}
}

func TestEnvironmentBadge(t *testing.T) {
	t.Parallel()

	require.Equal(t, "", EnvironmentBadge("production"))
	require.Equal(t, "STG", EnvironmentBadge("staging"))
	require.Equal(t, "DEV", EnvironmentBadge(""))
	require.Equal(t, "QA", EnvironmentBadge("qa"))
}

func TestToastClassAndRole(t *testing.T) {
	t.Parallel()

	require.Equal(t, "toast toast--error", ToastClass("error"))
	require.Equal(t, "alert", ToastRole("error"))
	require.Equal(t, "toast toast--success", ToastClass("success"))
	require.Equal(t, "status", ToastRole("success"))
	require.Equal(t, "toast toast--info", ToastClass("warning"))
	require.Equal(t, "status", ToastRole(""))
	require.Equal(t, "nav-link", NavClass(false))
}

func TestNavActive(t *testing.T) {
	t.Parallel()

	var ctx context.Context
	handler := middleware.RequestInfoMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx = r.Context()
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/manager/reports/", nil))

	require.True(t, NavActive(ctx, "/manager/reports"))
	require.False(t, NavActive(ctx, "/manager/reportsx"))
	require.False(t, NavActive(ctx, "/staff/products"))
}

func TestHasCapability(t *testing.T) {
	t.Parallel()

	ctx := middleware.ContextWithUser(context.Background(), &middleware.User{Roles: []string{"Manager"}})
	require.True(t, HasCapability(ctx, rbac.CapReportsView))
	require.True(t, HasCapability(ctx, rbac.CapProductsView))
	require.False(t, HasCapability(ctx, rbac.CapAccountsManage))
	require.False(t, HasCapability(context.Background(), rbac.CapProductsView))
	require.True(t, HasCapability(context.Background(), ""))
}
