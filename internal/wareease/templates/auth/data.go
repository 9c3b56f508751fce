package auth

import "github.com/wareease/wareease-web/internal/wareease/templates/partials"

// SignInPageData encapsulates rendering state for the sign-in screen.
type SignInPageData struct {
	Email              string
	Password           string
	Toast              partials.Toast
	InvalidField       string
	FormAction         string
	ForgotPasswordPath string
}

// ForgotPasswordPageData drives the static password help page.
type ForgotPasswordPageData struct {
	SignInPath string
}
