package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v4"

	"github.com/wareease/wareease-web/internal/wareease/authapi"
	"github.com/wareease/wareease-web/internal/wareease/autologout"
	"github.com/wareease/wareease-web/internal/wareease/httpserver"
	appsession "github.com/wareease/wareease-web/internal/wareease/session"
	"github.com/wareease/wareease-web/internal/wareease/signin"
	"github.com/wareease/wareease-web/internal/wareease/token"
	"github.com/wareease/wareease-web/internal/wareease/userstore"
)

// Account is a user known to the fake auth service.
type Account struct {
	Email    string
	Password string
	Roles    []string
	// TTL is the lifetime of issued tokens; zero means one hour.
	TTL time.Duration
}

// Server bundles the running test server with the collaborators tests
// inspect directly.
type Server struct {
	*httptest.Server
	AuthAPI   *httptest.Server
	Users     *userstore.MemoryStore
	Scheduler *autologout.Scheduler
	Sessions  *appsession.Manager
}

type serverOptions struct {
	accounts    []Account
	environment string
	authDown    bool
}

// ServerOption customises the test server.
type ServerOption func(*serverOptions)

// WithAccount registers an account with the fake auth service.
func WithAccount(acct Account) ServerOption {
	return func(o *serverOptions) {
		o.accounts = append(o.accounts, acct)
	}
}

// WithEnvironment sets the environment label shown in the layout.
func WithEnvironment(env string) ServerOption {
	return func(o *serverOptions) {
		o.environment = env
	}
}

// WithAuthServiceDown points the auth client at a closed listener.
func WithAuthServiceDown() ServerOption {
	return func(o *serverOptions) {
		o.authDown = true
	}
}

// NewServer starts the full WareEase HTTP stack against an in-process fake
// auth service and an in-memory user store.
func NewServer(t testing.TB, opts ...ServerOption) *Server {
	t.Helper()

	options := serverOptions{environment: "test"}
	for _, opt := range opts {
		opt(&options)
	}

	authAPI := NewAuthAPI(t, options.accounts...)
	if options.authDown {
		authAPI.Close()
	}
	client, err := authapi.NewClient(authAPI.URL, &http.Client{Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("auth client: %v", err)
	}

	users := userstore.NewMemoryStore(time.Minute)
	scheduler := autologout.NewScheduler(userstore.Revoker{Store: users})
	t.Cleanup(scheduler.Close)

	sessions, err := appsession.NewManager(appsession.Config{
		HashKey: []byte("0123456789abcdef0123456789abcdef"),
	})
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}

	workflow := signin.NewWorkflow(client, token.NewDecoder(), scheduler)

	srv := httpserver.New(httpserver.Config{
		Address:     ":0",
		Environment: options.environment,
		Sessions:    sessions,
		Users:       users,
		Workflow:    workflow,
		Scheduler:   scheduler,
	})
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)

	return &Server{
		Server:    ts,
		AuthAPI:   authAPI,
		Users:     users,
		Scheduler: scheduler,
		Sessions:  sessions,
	}
}

// NewAuthAPI starts a fake auth service answering POST /api/auth/login the
// way the real one does: an envelope with a signed token on success and a
// 401 envelope with a message otherwise.
func NewAuthAPI(t testing.TB, accounts ...Account) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"statusCode": 400, "message": "Malformed request"})
			return
		}
		for _, acct := range accounts {
			if acct.Email != req.Email || acct.Password != req.Password {
				continue
			}
			ttl := acct.TTL
			if ttl == 0 {
				ttl = time.Hour
			}
			exp := time.Now().Add(ttl).UTC().Truncate(time.Second)
			writeJSON(w, http.StatusOK, map[string]any{
				"statusCode": 200,
				"result": map[string]any{
					"token":      SignedToken(t, acct.Email, acct.Roles, exp),
					"expiration": exp.Format(time.RFC3339),
				},
			})
			return
		}
		writeJSON(w, http.StatusUnauthorized, map[string]any{"statusCode": 401, "message": "Invalid email or password."})
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

// SignedToken issues an HS256 access token carrying the role claim.
func SignedToken(t testing.TB, email string, roles []string, exp time.Time) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub":           email,
		"email":         email,
		token.RoleClaim: roles,
		"exp":           exp.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("wareease-test"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
