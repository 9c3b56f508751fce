package signin

import (
	"strings"
	"unicode/utf8"
)

const (
	NoticeEmailRequired    = "Email is required."
	NoticePasswordRequired = "Password is required."
	NoticeWeakPassword     = "Password must contain at least 6 characters, 1 capital letter, 1 number, and 1 special character."
	NoticeLoginFailed      = "Login failed: Incorrect credentials."
	NoticeLoginSucceeded   = "Login successful!"
)

const minPasswordLength = 6

// Validate checks the submitted credentials in order: email presence,
// password presence, password policy. The first failure is returned.
func Validate(creds Credentials) error {
	if strings.TrimSpace(creds.Email) == "" {
		return &Error{Kind: KindEmptyField, Field: "email", Notice: NoticeEmailRequired}
	}
	if strings.TrimSpace(creds.Password) == "" {
		return &Error{Kind: KindEmptyField, Field: "password", Notice: NoticePasswordRequired}
	}
	if !StrongPassword(creds.Password) {
		return &Error{Kind: KindWeakPassword, Field: "password", Notice: NoticeWeakPassword}
	}
	return nil
}

// StrongPassword reports whether pw has at least six characters, an ASCII
// upper case letter, an ASCII digit and a character outside [A-Za-z0-9].
// Non-ASCII letters and digits count as special characters.
func StrongPassword(pw string) bool {
	if utf8.RuneCountInString(pw) < minPasswordLength {
		return false
	}
	var upper, digit, special bool
	for _, r := range pw {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case r < 'a' || r > 'z':
			special = true
		}
	}
	return upper && digit && special
}
