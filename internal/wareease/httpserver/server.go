package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	custommw "github.com/wareease/wareease-web/internal/wareease/httpserver/middleware"
	"github.com/wareease/wareease-web/internal/wareease/httpserver/ui"
	"github.com/wareease/wareease-web/internal/wareease/observability"
	"github.com/wareease/wareease-web/internal/wareease/rbac"
	"github.com/wareease/wareease-web/internal/wareease/signin"
	"github.com/wareease/wareease-web/internal/wareease/userstore"
	"github.com/wareease/wareease-web/public"
)

// LogoutScheduler checks and cancels per-session auto-logout timers.
type LogoutScheduler interface {
	custommw.LogoutChecker
	LogoutCanceller
}

// Config holds runtime options for the WareEase HTTP server.
type Config struct {
	Address     string
	Environment string
	Logger      *zap.Logger
	Sessions    custommw.SessionStore
	Users       userstore.Store
	Workflow    SignInSubmitter
	Scheduler   LogoutScheduler
	Now         func() time.Time
}

// New constructs the HTTP server with middleware stack and embedded assets.
func New(cfg Config) *http.Server {
	return &http.Server{
		Addr:         cfg.Address,
		Handler:      NewRouter(cfg),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewRouter builds the chi router serving the sign-in flow and landing views.
func NewRouter(cfg Config) chi.Router {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(observability.InjectLogger(logger))
	router.Use(observability.RequestLogger())
	router.Use(chimw.Recoverer)
	router.Use(chimw.Timeout(60 * time.Second))

	staticContent, err := public.StaticFS()
	if err != nil {
		logger.Fatal("embed static", zap.Error(err))
	}
	router.Handle("/public/static/*", http.StripPrefix("/public/static/", http.FileServer(http.FS(staticContent))))

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, signInPath, http.StatusFound)
	})

	authH := newAuthHandlers(cfg.Workflow, cfg.Users, cfg.Scheduler, now)
	uiH := ui.NewHandlers(ui.Dependencies{LogoutPath: logoutPath, Now: now})

	router.Group(func(r chi.Router) {
		r.Use(custommw.HTMX())
		r.Use(custommw.NoStore())
		r.Use(custommw.Session(cfg.Sessions))
		r.Use(custommw.RequestInfoMiddleware())
		r.Use(custommw.Environment(cfg.Environment))

		r.Get(signInPath, authH.SignInForm)
		r.Post(signInPath, authH.SignInSubmit)
		r.Post(logoutPath, authH.Logout)
		r.Get(forgotPasswordPath, authH.ForgotPassword)

		r.Group(func(r chi.Router) {
			r.Use(custommw.Auth(custommw.AuthConfig{
				Store:      cfg.Users,
				Logout:     cfg.Scheduler,
				SignInPath: signInPath,
				Now:        now,
			}))

			r.With(custommw.RequireCapability(rbac.CapAccountsManage)).Get(signin.RouteAdminAccounts, uiH.AdminAccounts)
			r.With(custommw.RequireCapability(rbac.CapReportsView)).Get(signin.RouteManagerReports, uiH.ManagerReports)
			r.With(custommw.RequireCapability(rbac.CapProductsView)).Get(signin.RouteStaffProducts, uiH.StaffProducts)
		})
	})

	return router
}
