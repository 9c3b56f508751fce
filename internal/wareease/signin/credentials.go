package signin

import (
	"context"
	"time"

	"github.com/wareease/wareease-web/internal/wareease/autologout"
)

// Credentials are the values submitted by the sign-in form.
type Credentials struct {
	Email    string
	Password string
}

// FormState is what the form re-renders with after an attempt.
type FormState struct {
	Email    string
	Password string
}

func echoForm(creds Credentials) FormState {
	return FormState{Email: creds.Email, Password: creds.Password}
}

// UserInfo is handed to the session store after a successful login.
type UserInfo struct {
	Email      string    `json:"email"`
	Password   string    `json:"password"`
	Roles      []string  `json:"roles"`
	Token      string    `json:"token"`
	Expiration time.Time `json:"expiration"`
}

// Expired reports whether the token has lapsed at now.
func (u UserInfo) Expired(now time.Time) bool {
	return !u.Expiration.IsZero() && !now.Before(u.Expiration)
}

// SessionStore is the per-session storage the workflow writes to and the
// auto-logout check reads from.
type SessionStore interface {
	autologout.TokenSource
	SetUserInfo(ctx context.Context, info UserInfo) error
}
