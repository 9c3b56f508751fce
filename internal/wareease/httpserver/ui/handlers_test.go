package ui

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	custommw "github.com/wareease/wareease-web/internal/wareease/httpserver/middleware"
	appsession "github.com/wareease/wareease-web/internal/wareease/session"
)

func TestLandingViewRendersExpiryAndAutoLogout(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	h := NewHandlers(Dependencies{Now: func() time.Time { return now }})

	req := httptest.NewRequest(http.MethodGet, "/manager/reports", nil)
	req = req.WithContext(custommw.ContextWithUser(req.Context(), &custommw.User{
		SessionID: "sid",
		Email:     "manager@wareease.test",
		Roles:     []string{"Manager"},
		ExpiresAt: now.Add(45 * time.Minute),
	}))
	rec := httptest.NewRecorder()
	h.ManagerReports(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	require.Equal(t, "Reports | WareEase", doc.Find("title").Text())
	require.Equal(t, "Reports", doc.Find("[data-landing] h1").Text())
	require.Equal(t, 1, doc.Find("[data-session-expiry]").Length())

	trigger := doc.Find("[data-auto-logout]")
	require.Equal(t, "/auth/logout?reason=expired", trigger.AttrOr("hx-post", ""))
	require.Equal(t, "load delay:2700s", trigger.AttrOr("hx-trigger", ""))
	require.Zero(t, doc.Find("[data-toast]").Length())
}

func TestLandingViewRequiresUser(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	NewHandlers(Dependencies{}).StaffProducts(rec, httptest.NewRequest(http.MethodGet, "/staff/products", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLandingViewShowsFlashOnce(t *testing.T) {
	t.Parallel()

	mgr, err := appsession.NewManager(appsession.Config{HashKey: []byte("0123456789abcdef0123456789abcdef")})
	require.NoError(t, err)
	sess := mgr.New()
	sess.SetFlash("success", "Login successful!")

	h := NewHandlers(Dependencies{})
	user := &custommw.User{Email: "staff@wareease.test", Roles: []string{"Staff"}, ExpiresAt: time.Now().Add(time.Hour)}

	serve := func() *goquery.Document {
		req := httptest.NewRequest(http.MethodGet, "/staff/products", nil)
		ctx := custommw.ContextWithSession(req.Context(), sess)
		req = req.WithContext(custommw.ContextWithUser(ctx, user))
		rec := httptest.NewRecorder()
		h.StaffProducts(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		doc, err := goquery.NewDocumentFromReader(rec.Body)
		require.NoError(t, err)
		return doc
	}

	doc := serve()
	require.Equal(t, "success", doc.Find("[data-toast]").AttrOr("data-toast", ""))
	require.Equal(t, "Login successful!", doc.Find("[data-toast]").Text())

	require.Zero(t, serve().Find("[data-toast]").Length())
}
