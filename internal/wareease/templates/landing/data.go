package landing

import (
	"time"

	"github.com/wareease/wareease-web/internal/wareease/templates/partials"
)

// PageData drives a role landing view.
type PageData struct {
	Title       string
	Heading     string
	Description string
	Toast       partials.Toast
	ExpiresAt   time.Time
	// AutoLogoutAfter is the time left on the token; the page posts to
	// LogoutPath once it elapses.
	AutoLogoutAfter  time.Duration
	LogoutPath       string
	ExpiredLogoutURL string
}
