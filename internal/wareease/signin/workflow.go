package signin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/wareease/wareease-web/internal/wareease/authapi"
	"github.com/wareease/wareease-web/internal/wareease/autologout"
	"github.com/wareease/wareease-web/internal/wareease/observability"
	"github.com/wareease/wareease-web/internal/wareease/token"
)

const defaultTokenLifetime = time.Hour

const instrumentationName = "github.com/wareease/wareease-web/internal/wareease/signin"

var tracer = otel.Tracer(instrumentationName)

// Authenticator calls the remote authentication service.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*authapi.Response, error)
}

// TokenDecoder reads claims from an access token.
type TokenDecoder interface {
	Decode(raw string) (*token.Decoded, error)
}

// LogoutScheduler arms the auto-logout for a session.
type LogoutScheduler interface {
	Check(ctx context.Context, sessionID string, tokens autologout.TokenSource) (autologout.State, autologout.CancelFunc, error)
}

// Option customises a Workflow.
type Option func(*Workflow)

// WithClock overrides the clock used for expiration fallbacks.
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) {
		if now != nil {
			w.now = now
		}
	}
}

// WithDefaultTokenLifetime sets the lifetime assumed when neither the
// service reply nor the token carries an expiration.
func WithDefaultTokenLifetime(d time.Duration) Option {
	return func(w *Workflow) {
		if d > 0 {
			w.defaultLifetime = d
		}
	}
}

// WithMeter injects the meter used for attempt counters.
func WithMeter(m metric.Meter) Option {
	return func(w *Workflow) {
		if m != nil {
			w.meter = m
		}
	}
}

// Workflow runs one sign-in attempt end to end.
type Workflow struct {
	auth            Authenticator
	decoder         TokenDecoder
	scheduler       LogoutScheduler
	now             func() time.Time
	defaultLifetime time.Duration
	meter           metric.Meter
	attempts        metric.Int64Counter
}

// NewWorkflow wires the collaborators. All three are required.
func NewWorkflow(auth Authenticator, decoder TokenDecoder, scheduler LogoutScheduler, opts ...Option) *Workflow {
	if auth == nil {
		panic("signin: authenticator is required")
	}
	if decoder == nil {
		panic("signin: token decoder is required")
	}
	if scheduler == nil {
		panic("signin: logout scheduler is required")
	}
	w := &Workflow{
		auth:            auth,
		decoder:         decoder,
		scheduler:       scheduler,
		now:             time.Now,
		defaultLifetime: defaultTokenLifetime,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.meter == nil {
		w.meter = otel.GetMeterProvider().Meter(instrumentationName)
	}
	attempts, err := w.meter.Int64Counter(
		"wareease.signin.attempts",
		metric.WithDescription("Sign-in attempts by outcome"),
	)
	if err == nil {
		w.attempts = attempts
	}
	return w
}

// Submission is a single form post bound to a browser session.
type Submission struct {
	SessionID   string
	Store       SessionStore
	Credentials Credentials
}

// Result describes how the page should respond to an attempt.
type Result struct {
	AttemptID string
	Form      FormState
	Notice    Notice
	// Redirect is the landing route; empty means stay on the form.
	Redirect string
	Roles    []string
	// Err is nil on success and a *Error otherwise.
	Err error
	// CancelLogout releases the timer armed by this attempt.
	CancelLogout autologout.CancelFunc
}

// Succeeded reports whether the user is now signed in.
func (r Result) Succeeded() bool {
	return r.Err == nil
}

// Submit validates the credentials, calls the auth service and, on success,
// stores the session, picks the landing route and arms the auto-logout.
func (w *Workflow) Submit(ctx context.Context, sub Submission) Result {
	attemptID := ulid.Make().String()
	ctx, span := tracer.Start(ctx, "signin.Submit")
	defer span.End()
	span.SetAttributes(attribute.String("wareease.signin.attempt_id", attemptID))

	logger := observability.FromContext(ctx).With(
		zap.String("attemptID", attemptID),
		zap.String("email", observability.MaskEmail(sub.Credentials.Email)),
	)

	res := w.submit(observability.WithLogger(ctx, logger), sub)
	res.AttemptID = attemptID
	if res.CancelLogout == nil {
		res.CancelLogout = func() {}
	}

	kind := KindOf(res.Err)
	if w.attempts != nil {
		outcome := "success"
		if kind != "" {
			outcome = string(kind)
		}
		w.attempts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}

	switch kind {
	case "":
		span.SetStatus(codes.Ok, "")
		logger.Info("sign-in succeeded", zap.Strings("roles", res.Roles), zap.String("redirect", res.Redirect))
	case KindUnexpected:
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, string(kind))
		logger.Error("sign-in failed", zap.String("kind", string(kind)), zap.Error(res.Err))
	default:
		span.SetStatus(codes.Error, string(kind))
		logger.Info("sign-in rejected", zap.String("kind", string(kind)))
	}
	return res
}

func (w *Workflow) submit(ctx context.Context, sub Submission) Result {
	creds := sub.Credentials

	if err := Validate(creds); err != nil {
		return failure(creds, err)
	}
	if sub.Store == nil {
		return failure(creds, unexpected(errors.New("signin: session store is required")))
	}

	resp, err := w.auth.Login(ctx, creds.Email, creds.Password)
	if err != nil {
		return failure(creds, unexpected(err))
	}
	if resp == nil {
		return failure(creds, unexpected(errors.New("signin: empty auth response")))
	}
	if !resp.OK() {
		if len(resp.Errors) == 0 {
			return failure(creds, unexpected(fmt.Errorf("signin: auth service status %d without error payload", resp.StatusCode)))
		}
		text := resp.Errors[0].Text()
		return failure(creds, &Error{
			Kind:   KindAuthRejected,
			Notice: text,
			Err:    fmt.Errorf("auth service status %d", resp.StatusCode),
		})
	}

	info, err := w.userInfo(creds, resp.Result)
	if err != nil {
		return failure(creds, unexpected(err))
	}

	if err := sub.Store.SetUserInfo(ctx, info); err != nil {
		return failure(creds, unexpected(fmt.Errorf("signin: store user info: %w", err)))
	}

	redirect := LandingRoute(info.Roles)
	if redirect == "" {
		observability.FromContext(ctx).Warn("signed in without a known role", zap.Strings("roles", info.Roles))
	}

	state, cancel, err := w.scheduler.Check(ctx, sub.SessionID, sub.Store)
	if err != nil {
		observability.FromContext(ctx).Warn("auto logout check failed", zap.Error(err))
	} else {
		observability.FromContext(ctx).Debug("auto logout armed", zap.Stringer("state", state))
	}

	return Result{
		Form:         FormState{},
		Notice:       Notice{Level: LevelSuccess, Text: NoticeLoginSucceeded},
		Redirect:     redirect,
		Roles:        info.Roles,
		CancelLogout: cancel,
	}
}

func (w *Workflow) userInfo(creds Credentials, result *authapi.Result) (UserInfo, error) {
	if result == nil || strings.TrimSpace(result.Token) == "" {
		return UserInfo{}, fmt.Errorf("%w: no token in response", ErrTokenDecode)
	}
	decoded, err := w.decoder.Decode(result.Token)
	if err != nil {
		return UserInfo{}, fmt.Errorf("%w: %w", ErrTokenDecode, err)
	}
	if decoded == nil {
		return UserInfo{}, ErrTokenDecode
	}
	if !decoded.HasRoleClaim {
		return UserInfo{}, fmt.Errorf("%w: no role claim", ErrTokenDecode)
	}

	expiration := result.Expiration.Time
	if expiration.IsZero() {
		expiration = decoded.ExpiresAt
	}
	if expiration.IsZero() {
		expiration = w.now().Add(w.defaultLifetime)
	}

	return UserInfo{
		Email:      creds.Email,
		Password:   creds.Password,
		Roles:      decoded.Roles,
		Token:      result.Token,
		Expiration: expiration.UTC(),
	}, nil
}

func unexpected(err error) *Error {
	return &Error{Kind: KindUnexpected, Notice: NoticeLoginFailed, Err: err}
}

func failure(creds Credentials, err error) Result {
	res := Result{Err: err}
	var sErr *Error
	if errors.As(err, &sErr) {
		res.Notice = errorNotice(sErr.Notice)
		if sErr.KeepsInput() {
			res.Form = echoForm(creds)
		}
	}
	return res
}
