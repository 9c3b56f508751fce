package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	custommw "github.com/wareease/wareease-web/internal/wareease/httpserver/middleware"
	"github.com/wareease/wareease-web/internal/wareease/observability"
	appsession "github.com/wareease/wareease-web/internal/wareease/session"
	"github.com/wareease/wareease-web/internal/wareease/signin"
	"github.com/wareease/wareease-web/internal/wareease/templates/auth"
	"github.com/wareease/wareease-web/internal/wareease/templates/partials"
	"github.com/wareease/wareease-web/internal/wareease/userstore"
)

const (
	signInPath         = "/auth/signin"
	logoutPath         = "/auth/logout"
	forgotPasswordPath = "/auth/forgot-password"
)

const (
	noticeSignedOut      = "You have been signed out."
	noticeSessionExpired = "Your session has expired. Please sign in again."
)

// SignInSubmitter runs one sign-in attempt.
type SignInSubmitter interface {
	Submit(ctx context.Context, sub signin.Submission) signin.Result
}

// LogoutCanceller releases a session's pending auto-logout.
type LogoutCanceller interface {
	Cancel(sessionID string)
}

type authHandlers struct {
	workflow SignInSubmitter
	users    userstore.Store
	timers   LogoutCanceller
	now      func() time.Time
}

func newAuthHandlers(workflow SignInSubmitter, users userstore.Store, timers LogoutCanceller, now func() time.Time) *authHandlers {
	if workflow == nil {
		panic("auth: sign-in workflow is required")
	}
	if users == nil {
		panic("auth: user store is required")
	}
	if timers == nil {
		panic("auth: logout canceller is required")
	}
	if now == nil {
		now = time.Now
	}
	return &authHandlers{
		workflow: workflow,
		users:    users,
		timers:   timers,
		now:      now,
	}
}

// SignInForm renders the sign-in page, or sends an already signed-in user
// to their landing view.
func (h *authHandlers) SignInForm(w http.ResponseWriter, r *http.Request) {
	sess, ok := custommw.SessionFromContext(r.Context())
	if ok {
		if target := h.activeLanding(r.Context(), sess); target != "" {
			http.Redirect(w, r, target, http.StatusFound)
			return
		}
	}

	data := h.pageData(signin.FormState{}, messageForQuery(r.URL.Query()), "")
	if ok {
		if flash, found := sess.PopFlash(); found {
			data.Toast = partials.Toast{Level: flash.Level, Text: flash.Text}
		}
	}
	h.render(w, r, data, http.StatusOK)
}

// SignInSubmit runs the sign-in workflow for the posted form.
func (h *authHandlers) SignInSubmit(w http.ResponseWriter, r *http.Request) {
	logger := observability.FromContext(r.Context())

	sess, ok := custommw.SessionFromContext(r.Context())
	if !ok {
		logger.Error("sign-in without session")
		h.render(w, r, h.pageData(signin.FormState{}, toastFor(signin.Notice{Level: signin.LevelError, Text: signin.NoticeLoginFailed}), ""), http.StatusInternalServerError)
		return
	}

	if err := r.ParseForm(); err != nil {
		logger.Warn("parse sign-in form failed", zap.Error(err))
		h.render(w, r, h.pageData(signin.FormState{}, toastFor(signin.Notice{Level: signin.LevelError, Text: signin.NoticeLoginFailed}), ""), http.StatusBadRequest)
		return
	}

	res := h.workflow.Submit(r.Context(), signin.Submission{
		SessionID: sess.ID(),
		Store:     userstore.Bind(h.users, sess.ID(), h.now),
		Credentials: signin.Credentials{
			Email:    r.PostFormValue("email"),
			Password: r.PostFormValue("password"),
		},
	})

	if !res.Succeeded() {
		invalid := ""
		var sErr *signin.Error
		if errors.As(res.Err, &sErr) {
			invalid = sErr.Field
		}
		h.render(w, r, h.pageData(res.Form, toastFor(res.Notice), invalid), statusFor(res.Err))
		return
	}

	user := &appsession.User{Email: r.PostFormValue("email"), Roles: res.Roles}
	if info, err := h.users.Get(r.Context(), sess.ID()); err == nil {
		user.Email = info.Email
		user.TokenExpiresAt = info.Expiration
	}
	sess.SetUser(user)

	if res.Redirect == "" {
		// Signed in, but no landing view matches the roles.
		h.render(w, r, h.pageData(res.Form, toastFor(res.Notice), ""), http.StatusOK)
		return
	}

	sess.SetFlash(string(res.Notice.Level), res.Notice.Text)
	custommw.Redirect(w, r, res.Redirect)
}

// Logout cancels the auto-logout timer, drops the stored user info and
// clears the cookie.
func (h *authHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	logger := observability.FromContext(r.Context())

	status := url.Values{"status": {"logged_out"}}
	if r.URL.Query().Get("reason") == custommw.ReasonExpired {
		status = url.Values{"reason": {custommw.ReasonExpired}}
	}

	if sess, ok := custommw.SessionFromContext(r.Context()); ok {
		h.timers.Cancel(sess.ID())
		if err := userstore.Bind(h.users, sess.ID(), h.now).Clear(r.Context()); err != nil {
			logger.Error("delete user info failed", zap.Error(err))
		}
		sess.Destroy()
	}

	custommw.Redirect(w, r, signInPath+"?"+status.Encode())
}

// ForgotPassword renders the static password help page.
func (h *authHandlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	templ.Handler(auth.ForgotPasswordPage(auth.ForgotPasswordPageData{SignInPath: signInPath})).ServeHTTP(w, r)
}

func (h *authHandlers) activeLanding(ctx context.Context, sess *appsession.Session) string {
	if sess.User() == nil {
		return ""
	}
	info, err := userstore.Bind(h.users, sess.ID(), h.now).UserInfo(ctx)
	if err != nil || info.Expired(h.now()) {
		return ""
	}
	return signin.LandingRoute(info.Roles)
}

func (h *authHandlers) pageData(form signin.FormState, toast partials.Toast, invalidField string) auth.SignInPageData {
	return auth.SignInPageData{
		Email:              form.Email,
		Password:           form.Password,
		Toast:              toast,
		InvalidField:       invalidField,
		FormAction:         signInPath,
		ForgotPasswordPath: forgotPasswordPath,
	}
}

// render swaps only the form for htmx requests. htmx ignores error
// responses, so those always get 200 and the outcome travels in the markup.
func (h *authHandlers) render(w http.ResponseWriter, r *http.Request, data auth.SignInPageData, status int) {
	component := auth.SignInPage(data)
	if custommw.IsHTMXRequest(r.Context()) {
		component = auth.SignInForm(data)
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := component.Render(r.Context(), w); err != nil {
		observability.FromContext(r.Context()).Error("render sign-in page failed", zap.Error(err))
	}
}

func toastFor(n signin.Notice) partials.Toast {
	return partials.Toast{Level: string(n.Level), Text: n.Text}
}

func messageForQuery(q url.Values) partials.Toast {
	if q.Get("reason") == custommw.ReasonExpired {
		return partials.Toast{Level: string(signin.LevelInfo), Text: noticeSessionExpired}
	}
	if q.Get("status") == "logged_out" {
		return partials.Toast{Level: string(signin.LevelInfo), Text: noticeSignedOut}
	}
	return partials.Toast{}
}

func statusFor(err error) int {
	switch signin.KindOf(err) {
	case signin.KindEmptyField, signin.KindWeakPassword:
		return http.StatusUnprocessableEntity
	case signin.KindAuthRejected:
		return http.StatusUnauthorized
	case "":
		return http.StatusOK
	default:
		return http.StatusBadGateway
	}
}
