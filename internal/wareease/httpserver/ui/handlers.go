package ui

import (
	"net/http"
	"time"

	"github.com/a-h/templ"

	custommw "github.com/wareease/wareease-web/internal/wareease/httpserver/middleware"
	"github.com/wareease/wareease-web/internal/wareease/templates/landing"
	"github.com/wareease/wareease-web/internal/wareease/templates/partials"
)

// Dependencies collects what the landing views need.
type Dependencies struct {
	LogoutPath string
	Now        func() time.Time
}

// Handlers exposes the role landing views.
type Handlers struct {
	logoutPath string
	now        func() time.Time
}

// NewHandlers wires the UI handler set.
func NewHandlers(deps Dependencies) *Handlers {
	if deps.LogoutPath == "" {
		deps.LogoutPath = "/auth/logout"
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Handlers{
		logoutPath: deps.LogoutPath,
		now:        deps.Now,
	}
}

// AdminAccounts renders the admin accounts view.
func (h *Handlers) AdminAccounts(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "Accounts", "Manage WareEase user accounts and their roles.")
}

// ManagerReports renders the manager reports view.
func (h *Handlers) ManagerReports(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "Reports", "Review stock movement and warehouse performance reports.")
}

// StaffProducts renders the staff products view.
func (h *Handlers) StaffProducts(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "Products", "Browse and update the product catalogue.")
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, heading, description string) {
	user, ok := custommw.UserFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var toast partials.Toast
	if sess, ok := custommw.SessionFromContext(r.Context()); ok {
		if flash, ok := sess.PopFlash(); ok {
			toast = partials.Toast{Level: flash.Level, Text: flash.Text}
		}
	}

	data := landing.PageData{
		Title:            heading + " | WareEase",
		Heading:          heading,
		Description:      description,
		Toast:            toast,
		ExpiresAt:        user.ExpiresAt,
		AutoLogoutAfter:  user.Remaining(h.now()),
		LogoutPath:       h.logoutPath,
		ExpiredLogoutURL: custommw.SignInURL(h.logoutPath, custommw.ReasonExpired),
	}
	templ.Handler(landing.Page(data)).ServeHTTP(w, r)
}
