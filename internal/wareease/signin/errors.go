package signin

import (
	"errors"
)

// Kind classifies why a sign-in attempt stopped.
type Kind string

const (
	// KindEmptyField marks a blank email or password.
	KindEmptyField Kind = "empty_field"
	// KindWeakPassword marks a password outside the policy.
	KindWeakPassword Kind = "weak_password"
	// KindAuthRejected marks a non-200 reply from the auth service.
	KindAuthRejected Kind = "auth_rejected"
	// KindUnexpected marks any other failure; the form is cleared.
	KindUnexpected Kind = "unexpected_failure"
)

var (
	// ErrEmptyField matches *Error values of KindEmptyField.
	ErrEmptyField = errors.New("signin: empty field")
	// ErrWeakPassword matches *Error values of KindWeakPassword.
	ErrWeakPassword = errors.New("signin: weak password")
	// ErrAuthRejected matches *Error values of KindAuthRejected.
	ErrAuthRejected = errors.New("signin: rejected by auth service")
	// ErrUnexpected matches *Error values of KindUnexpected.
	ErrUnexpected = errors.New("signin: unexpected failure")
	// ErrTokenDecode is wrapped when the access token yields no claims.
	ErrTokenDecode = errors.New("signin: failed to decode token")
)

// Error is the single error type produced by the workflow.
type Error struct {
	Kind   Kind
	Field  string
	Notice string
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Field != "" {
		msg += " (" + e.Field + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrEmptyField:
		return e.Kind == KindEmptyField
	case ErrWeakPassword:
		return e.Kind == KindWeakPassword
	case ErrAuthRejected:
		return e.Kind == KindAuthRejected
	case ErrUnexpected:
		return e.Kind == KindUnexpected
	default:
		return false
	}
}

// KeepsInput reports whether the form should echo the entered values.
// Only unexpected failures clear it.
func (e *Error) KeepsInput() bool {
	return e.Kind != KindUnexpected
}

// KindOf returns the Kind carried by err, or "" when err is not a workflow error.
func KindOf(err error) Kind {
	var sErr *Error
	if errors.As(err, &sErr) {
		return sErr.Kind
	}
	return ""
}
