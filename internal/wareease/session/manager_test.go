package session

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fixedClock struct {
	current time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.current
}

func newTestManager(t *testing.T) (*Manager, *fixedClock) {
	t.Helper()

	clock := &fixedClock{current: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)}
	httpOnly := true
	mgr, err := NewManager(Config{
		CookieName:     "test_session",
		HashKey:        []byte("12345678901234567890123456789012"),
		BlockKey:       []byte("abcdefghijklmnopqrstuv0123456789"),
		CookiePath:     "/",
		CookieHTTPOnly: &httpOnly,
		Lifetime:       2 * time.Hour,
		Now:            clock.Now,
	})
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}
	return mgr, clock
}

func roundTrip(t *testing.T, mgr *Manager, sess *Session) *Session {
	t.Helper()
	rec := httptest.NewRecorder()
	if err := mgr.Save(rec, sess); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	cookie := findCookie(rec.Result().Cookies(), "test_session")
	if cookie == nil {
		t.Fatalf("expected session cookie to be set")
	}
	req := httptest.NewRequest(http.MethodGet, "/staff/products", nil)
	req.AddCookie(cookie)
	loaded, err := mgr.Load(req)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	return loaded
}

func TestManager_NewSessionLifecycle(t *testing.T) {
	mgr, clock := newTestManager(t)

	sess, err := mgr.Load(httptest.NewRequest(http.MethodGet, "/auth/signin", nil))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if sess.ID() == "" {
		t.Fatalf("expected session ID")
	}
	if !sess.CreatedAt().Equal(clock.current) {
		t.Fatalf("unexpected CreatedAt: %v", sess.CreatedAt())
	}
	if !sess.ExpiresAt().Equal(clock.current.Add(2 * time.Hour)) {
		t.Fatalf("unexpected ExpiresAt: %v", sess.ExpiresAt())
	}

	exp := clock.current.Add(time.Hour)
	sess.SetUser(&User{Email: "staff@wareease.test", Roles: []string{"Staff"}, TokenExpiresAt: exp})

	clock.current = clock.current.Add(5 * time.Minute)
	sess2 := roundTrip(t, mgr, sess)
	if sess2.ID() != sess.ID() {
		t.Fatalf("expected session ID to persist")
	}
	user := sess2.User()
	if user == nil || user.Email != "staff@wareease.test" {
		t.Fatalf("expected user to persist, got %+v", user)
	}
	if len(user.Roles) != 1 || user.Roles[0] != "Staff" {
		t.Fatalf("unexpected roles: %v", user.Roles)
	}
	if !user.TokenExpiresAt.Equal(exp) {
		t.Fatalf("unexpected token expiry: %v", user.TokenExpiresAt)
	}
	if !sess2.LastActive().Equal(clock.current) {
		t.Fatalf("expected save to touch LastActive, got %v", sess2.LastActive())
	}
	if mgr.CookieName() != "test_session" {
		t.Fatalf("unexpected cookie name %q", mgr.CookieName())
	}
}

func TestManager_FlashIsShownOnce(t *testing.T) {
	mgr, _ := newTestManager(t)
	sess := mgr.New()
	sess.SetFlash("success", "Login successful!")

	sess2 := roundTrip(t, mgr, sess)
	flash, ok := sess2.PopFlash()
	if !ok || flash.Text != "Login successful!" || flash.Level != "success" {
		t.Fatalf("unexpected flash: %+v %v", flash, ok)
	}
	if !sess2.Dirty() {
		t.Fatalf("popping a flash must mark the session dirty")
	}

	sess3 := roundTrip(t, mgr, sess2)
	if _, ok := sess3.PopFlash(); ok {
		t.Fatalf("expected flash to be consumed")
	}
}

func TestManager_AbsoluteExpiry(t *testing.T) {
	mgr, clock := newTestManager(t)
	sess := mgr.New()
	rec := httptest.NewRecorder()
	if err := mgr.Save(rec, sess); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	cookie := findCookie(rec.Result().Cookies(), "test_session")

	clock.current = clock.current.Add(3 * time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/staff/products", nil)
	req.AddCookie(cookie)
	if _, err := mgr.Load(req); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestManager_TamperedCookieStartsFresh(t *testing.T) {
	mgr, _ := newTestManager(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "test_session", Value: "garbage"})

	sess, err := mgr.Load(req)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if sess.User() != nil {
		t.Fatalf("expected anonymous session")
	}
}

func TestManager_Destroy(t *testing.T) {
	mgr, _ := newTestManager(t)
	sess := mgr.New()
	sess.Destroy()

	rec := httptest.NewRecorder()
	if err := mgr.Save(rec, sess); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	cookie := findCookie(rec.Result().Cookies(), "test_session")
	if cookie == nil || cookie.MaxAge != -1 {
		t.Fatalf("expected session cookie cleared")
	}
}

func TestNewManager_ValidatesKeys(t *testing.T) {
	if _, err := NewManager(Config{}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for missing hash key, got %v", err)
	}
	if _, err := NewManager(Config{HashKey: []byte("k"), BlockKey: []byte("short")}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for bad block key, got %v", err)
	}
}

func TestSession_SetUserCopiesRoles(t *testing.T) {
	mgr, _ := newTestManager(t)
	sess := mgr.New()
	roles := []string{"Manager"}
	sess.SetUser(&User{Email: "m@wareease.test", Roles: roles})
	roles[0] = "Admin"
	if sess.User().Roles[0] != "Manager" {
		t.Fatalf("expected roles to be copied")
	}
}

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}
