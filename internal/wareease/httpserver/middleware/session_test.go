package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appsession "github.com/wareease/wareease-web/internal/wareease/session"
)

type sessionTestClock struct {
	now time.Time
}

func (c *sessionTestClock) Now() time.Time {
	return c.now
}

type testSessionStore struct {
	*appsession.Manager
}

func newTestSessionStore(t *testing.T) *testSessionStore {
	t.Helper()
	return &testSessionStore{Manager: newSessionStoreForTest(t, &sessionTestClock{now: time.Now()})}
}

func (s *testSessionStore) cookieFor(t *testing.T, sess *appsession.Session) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	if err := s.Save(rec, sess); err != nil {
		t.Fatalf("save session: %v", err)
	}
	cookie := findCookie(rec.Result().Cookies(), "test_session")
	if cookie == nil {
		t.Fatalf("expected session cookie")
	}
	return cookie
}

func newSessionStoreForTest(t *testing.T, clock *sessionTestClock) *appsession.Manager {
	t.Helper()
	httpOnly := true
	store, err := appsession.NewManager(appsession.Config{
		CookieName:     "test_session",
		HashKey:        []byte("12345678901234567890123456789012"),
		BlockKey:       []byte("abcdefghijklmnopqrstuvwxyzABCDEF"),
		CookiePath:     "/",
		CookieHTTPOnly: &httpOnly,
		Lifetime:       time.Hour,
		Now:            clock.Now,
	})
	if err != nil {
		t.Fatalf("session manager init: %v", err)
	}
	return store
}

func TestSessionMiddlewareLifecycle(t *testing.T) {
	clock := &sessionTestClock{now: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)}
	store := newSessionStoreForTest(t, clock)

	var ids []string
	handler := Session(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := SessionFromContext(r.Context())
		if !ok {
			t.Fatalf("session missing in context")
		}
		ids = append(ids, sess.ID())
		w.WriteHeader(http.StatusOK)
	}))

	rec1 := httptest.NewRecorder()
	handler.ServeHTTP(rec1, httptest.NewRequest(http.MethodGet, "/auth/signin", nil))
	if len(ids) != 1 || ids[0] == "" {
		t.Fatalf("expected initial session id")
	}
	cookie := findCookie(rec1.Result().Cookies(), "test_session")
	if cookie == nil {
		t.Fatalf("expected session cookie on first response, got headers %v", rec1.Header().Values("Set-Cookie"))
	}

	clock.now = clock.now.Add(2 * time.Minute)
	req2 := httptest.NewRequest(http.MethodGet, "/auth/signin", nil)
	req2.AddCookie(cookie)
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req2)
	if ids[1] != ids[0] {
		t.Fatalf("expected same session id between active requests")
	}

	clock.now = clock.now.Add(2 * time.Hour) // exceed lifetime
	req3 := httptest.NewRequest(http.MethodGet, "/auth/signin", nil)
	req3.AddCookie(cookie)
	rec3 := httptest.NewRecorder()
	handler.ServeHTTP(rec3, req3)
	if ids[2] == ids[1] {
		t.Fatalf("expected new session id after expiry")
	}
	if header := rec3.Header().Get("Set-Cookie"); header == "" {
		t.Fatalf("expected refreshed session cookie after expiry")
	}
}

func TestSessionCookieWrittenBeforeBody(t *testing.T) {
	clock := &sessionTestClock{now: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)}
	store := newSessionStoreForTest(t, clock)

	handler := Session(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFromContext(r.Context())
		sess.SetFlash("success", "Login successful!")
		http.Redirect(w, r, "/staff/products", http.StatusSeeOther)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/signin", nil))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	cookie := findCookie(rec.Result().Cookies(), "test_session")
	if cookie == nil {
		t.Fatalf("expected session cookie on redirect")
	}

	req := httptest.NewRequest(http.MethodGet, "/staff/products", nil)
	req.AddCookie(cookie)
	sess, err := store.Load(req)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if flash, ok := sess.PopFlash(); !ok || flash.Text != "Login successful!" {
		t.Fatalf("expected flash to survive redirect, got %+v", flash)
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
