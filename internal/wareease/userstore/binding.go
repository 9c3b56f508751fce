package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/wareease/wareease-web/internal/wareease/autologout"
	"github.com/wareease/wareease-web/internal/wareease/signin"
)

// Binding is a Store scoped to one browser session. It satisfies
// signin.SessionStore and autologout.TokenSource.
type Binding struct {
	store     Store
	sessionID string
	now       func() time.Time
}

var _ signin.SessionStore = (*Binding)(nil)

// Bind scopes store to sessionID. A nil now uses time.Now.
func Bind(store Store, sessionID string, now func() time.Time) *Binding {
	if now == nil {
		now = time.Now
	}
	return &Binding{store: store, sessionID: sessionID, now: now}
}

// SessionID returns the bound session ID.
func (b *Binding) SessionID() string {
	return b.sessionID
}

// SetUserInfo stores info for the bound session.
func (b *Binding) SetUserInfo(ctx context.Context, info signin.UserInfo) error {
	return b.store.Put(ctx, b.sessionID, info)
}

// UserInfo returns the stored info, or ErrNotFound.
func (b *Binding) UserInfo(ctx context.Context) (signin.UserInfo, error) {
	return b.store.Get(ctx, b.sessionID)
}

// AuthToken returns "" when nothing is stored, autologout.ExpiredToken once
// the expiration has passed, and the token otherwise.
func (b *Binding) AuthToken(ctx context.Context) (string, error) {
	info, err := b.store.Get(ctx, b.sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	if info.Token == "" {
		return "", nil
	}
	if info.Expired(b.now()) {
		return autologout.ExpiredToken, nil
	}
	return info.Token, nil
}

// AuthTokenDuration returns the time left until the stored token expires.
// Zero means nothing is stored or it has already expired.
func (b *Binding) AuthTokenDuration(ctx context.Context) (time.Duration, error) {
	info, err := b.store.Get(ctx, b.sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	if info.Expiration.IsZero() {
		return 0, nil
	}
	remaining := info.Expiration.Sub(b.now())
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

// Clear removes the bound session's info.
func (b *Binding) Clear(ctx context.Context) error {
	return b.store.Delete(ctx, b.sessionID)
}

// Revoker is the autologout.Submitter that drops a session's user info.
type Revoker struct {
	Store Store
}

var _ autologout.Submitter = Revoker{}

// SubmitLogout deletes the session's user info.
func (r Revoker) SubmitLogout(ctx context.Context, sessionID string) error {
	return r.Store.Delete(ctx, sessionID)
}
