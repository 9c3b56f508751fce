package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/wareease/wareease-web/internal/wareease/autologout"
	"github.com/wareease/wareease-web/internal/wareease/observability"
	appsession "github.com/wareease/wareease-web/internal/wareease/session"
	"github.com/wareease/wareease-web/internal/wareease/userstore"
)

type authContextKey string

const userContextKey authContextKey = "auth.user"

const (
	// ReasonMissingToken indicates a request without a signed-in user.
	ReasonMissingToken = "missing_token"
	// ReasonExpired indicates the stored token has lapsed.
	ReasonExpired = "expired"
)

// User is the signed-in user resolved from the server-side user store.
type User struct {
	SessionID string
	Email     string
	Roles     []string
	Token     string
	ExpiresAt time.Time
}

// Remaining returns how long the token stays valid after now.
func (u *User) Remaining(now time.Time) time.Duration {
	if u == nil || u.ExpiresAt.IsZero() {
		return 0
	}
	if d := u.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// LogoutChecker runs the auto-logout check for a session.
type LogoutChecker interface {
	Check(ctx context.Context, sessionID string, tokens autologout.TokenSource) (autologout.State, autologout.CancelFunc, error)
}

// AuthConfig wires the Auth middleware.
type AuthConfig struct {
	Store      userstore.Store
	Logout     LogoutChecker
	SignInPath string
	Now        func() time.Time
}

// Auth runs the auto-logout check on every request and either attaches the
// signed-in User to the context or sends the browser to the sign-in page.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	if cfg.Store == nil {
		panic("auth: user store is required")
	}
	if cfg.Logout == nil {
		panic("auth: logout checker is required")
	}
	if cfg.SignInPath == "" {
		cfg.SignInPath = "/auth/signin"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := observability.FromContext(ctx)

			sess, ok := SessionFromContext(ctx)
			if !ok {
				handleUnauthorized(w, r, cfg.SignInPath, ReasonMissingToken)
				return
			}

			binding := userstore.Bind(cfg.Store, sess.ID(), cfg.Now)
			// The timer belongs to the session, not to this request, so the
			// returned cancel func is not used here.
			state, _, err := cfg.Logout.Check(ctx, sess.ID(), binding)
			if err != nil {
				logger.Error("auto logout check failed", zap.Error(err), zap.Stringer("state", state))
			}

			switch state {
			case autologout.StateExpiredToken:
				logger.Info("session token expired")
				sess.SetUser(nil)
				handleUnauthorized(w, r, cfg.SignInPath, ReasonExpired)
				return
			case autologout.StateNoToken:
				sess.SetUser(nil)
				handleUnauthorized(w, r, cfg.SignInPath, ReasonMissingToken)
				return
			}

			info, err := binding.UserInfo(ctx)
			if err != nil {
				if !errors.Is(err, userstore.ErrNotFound) {
					logger.Error("load user info failed", zap.Error(err))
				}
				sess.SetUser(nil)
				handleUnauthorized(w, r, cfg.SignInPath, ReasonMissingToken)
				return
			}

			user := &User{
				SessionID: sess.ID(),
				Email:     info.Email,
				Roles:     slices.Clone(info.Roles),
				Token:     info.Token,
				ExpiresAt: info.Expiration,
			}
			sess.SetUser(&appsession.User{
				Email:          user.Email,
				Roles:          user.Roles,
				TokenExpiresAt: user.ExpiresAt,
			})

			next.ServeHTTP(w, r.WithContext(ContextWithUser(ctx, user)))
		})
	}
}

// ContextWithUser attaches user to ctx.
func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext retrieves the signed-in user if present.
func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(userContextKey).(*User)
	return user, ok && user != nil
}

// SignInURL returns the sign-in path annotated with reason, if any.
func SignInURL(signInPath, reason string) string {
	if reason == "" || reason == ReasonMissingToken {
		return signInPath
	}
	u, err := url.Parse(signInPath)
	if err != nil {
		return signInPath
	}
	q := u.Query()
	q.Set("reason", reason)
	u.RawQuery = q.Encode()
	return u.String()
}

func handleUnauthorized(w http.ResponseWriter, r *http.Request, signInPath, reason string) {
	target := SignInURL(signInPath, reason)
	if IsHTMXRequest(r.Context()) {
		w.Header().Set("HX-Redirect", target)
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}
