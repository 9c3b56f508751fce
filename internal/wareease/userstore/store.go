// Package userstore keeps the signed-in user's info server-side, keyed by
// browser session ID, so the cookie never carries credentials or tokens.
package userstore

import (
	"context"
	"errors"

	"github.com/wareease/wareease-web/internal/wareease/signin"
)

// ErrNotFound is returned when no user info exists for the session.
var ErrNotFound = errors.New("userstore: not found")

// ErrUnavailable wraps backend failures.
var ErrUnavailable = errors.New("userstore: backend unavailable")

// Store persists UserInfo per session ID.
type Store interface {
	Put(ctx context.Context, sessionID string, info signin.UserInfo) error
	Get(ctx context.Context, sessionID string) (signin.UserInfo, error)
	Delete(ctx context.Context, sessionID string) error
}
