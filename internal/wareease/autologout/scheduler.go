package autologout

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wareease/wareease-web/internal/wareease/observability"
)

// ExpiredToken is the sentinel a TokenSource returns for a token that existed but has lapsed.
const ExpiredToken = "EXPIRED"

// rescheduleSlack keeps an existing timer when a recheck computes nearly the same deadline.
const rescheduleSlack = time.Second

// State is the outcome of a single auto-logout check.
type State int

const (
	StateNoToken State = iota
	StateExpiredToken
	StateActiveToken
)

func (s State) String() string {
	switch s {
	case StateNoToken:
		return "no_token"
	case StateExpiredToken:
		return "expired_token"
	case StateActiveToken:
		return "active_token"
	default:
		return "unknown"
	}
}

// TokenSource reads the stored token for one session.
type TokenSource interface {
	// AuthToken returns "", ExpiredToken or the token itself.
	AuthToken(ctx context.Context) (string, error)
	// AuthTokenDuration returns the time left until the token expires.
	AuthTokenDuration(ctx context.Context) (time.Duration, error)
}

// Submitter performs the logout action for a session.
type Submitter interface {
	SubmitLogout(ctx context.Context, sessionID string) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, sessionID string) error

// SubmitLogout implements Submitter.
func (f SubmitterFunc) SubmitLogout(ctx context.Context, sessionID string) error {
	return f(ctx, sessionID)
}

// CancelFunc releases a scheduled logout. It is safe to call more than once.
type CancelFunc func()

func noopCancel() {}

// Timer is the subset of *time.Timer the scheduler needs.
type Timer interface {
	Stop() bool
}

// AfterFunc starts a one-shot timer; time.AfterFunc satisfies it through an adapter.
type AfterFunc func(d time.Duration, f func()) Timer

func stdAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Option customises a Scheduler.
type Option func(*Scheduler)

// WithAfterFunc replaces the timer factory, mainly for tests.
func WithAfterFunc(fn AfterFunc) Option {
	return func(s *Scheduler) {
		if fn != nil {
			s.afterFunc = fn
		}
	}
}

// WithClock replaces the clock used to compute deadlines.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

type entry struct {
	timer    Timer
	deadline time.Time
	gen      uint64
}

// Scheduler keeps at most one pending logout timer per session.
type Scheduler struct {
	submitter Submitter
	afterFunc AfterFunc
	now       func() time.Time

	mu     sync.Mutex
	timers map[string]*entry
	gen    uint64
	closed bool
}

// NewScheduler constructs a Scheduler that calls submitter when a session's token lapses.
func NewScheduler(submitter Submitter, opts ...Option) *Scheduler {
	if submitter == nil {
		panic("autologout: submitter is required")
	}
	s := &Scheduler{
		submitter: submitter,
		afterFunc: stdAfterFunc,
		now:       time.Now,
		timers:    make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Check reads the session's token and acts on it: nothing for no token, an
// immediate logout for an expired one, a one-shot timer for an active one.
// The returned CancelFunc releases the timer scheduled by this call.
func (s *Scheduler) Check(ctx context.Context, sessionID string, tokens TokenSource) (State, CancelFunc, error) {
	if strings.TrimSpace(sessionID) == "" {
		return StateNoToken, noopCancel, errors.New("autologout: session id is required")
	}
	if tokens == nil {
		return StateNoToken, noopCancel, errors.New("autologout: token source is required")
	}

	token, err := tokens.AuthToken(ctx)
	if err != nil {
		return StateNoToken, noopCancel, err
	}

	switch token {
	case "":
		return StateNoToken, noopCancel, nil
	case ExpiredToken:
		return StateExpiredToken, noopCancel, s.expire(ctx, sessionID)
	}

	remaining, err := tokens.AuthTokenDuration(ctx)
	if err != nil {
		return StateActiveToken, noopCancel, err
	}
	if remaining <= 0 {
		return StateExpiredToken, noopCancel, s.expire(ctx, sessionID)
	}

	return StateActiveToken, s.schedule(ctx, sessionID, remaining), nil
}

// Cancel stops the pending timer for the session, if any.
func (s *Scheduler) Cancel(sessionID string) {
	s.mu.Lock()
	e, ok := s.timers[sessionID]
	if ok {
		delete(s.timers, sessionID)
	}
	s.mu.Unlock()
	if ok {
		e.timer.Stop()
	}
}

// Pending reports whether a timer is scheduled for the session.
func (s *Scheduler) Pending(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[sessionID]
	return ok
}

// Close stops every pending timer. Later checks never schedule.
func (s *Scheduler) Close() {
	s.mu.Lock()
	timers := s.timers
	s.timers = make(map[string]*entry)
	s.closed = true
	s.mu.Unlock()

	for _, e := range timers {
		e.timer.Stop()
	}
}

func (s *Scheduler) expire(ctx context.Context, sessionID string) error {
	s.Cancel(sessionID)
	if err := s.submitter.SubmitLogout(ctx, sessionID); err != nil {
		return err
	}
	return nil
}

func (s *Scheduler) schedule(ctx context.Context, sessionID string, remaining time.Duration) CancelFunc {
	deadline := s.now().Add(remaining)
	logger := observability.FromContext(ctx)
	// The timer outlives the request that scheduled it.
	fireCtx := context.WithoutCancel(ctx)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return noopCancel
	}
	if existing, ok := s.timers[sessionID]; ok {
		diff := existing.deadline.Sub(deadline)
		if diff < 0 {
			diff = -diff
		}
		if diff < rescheduleSlack {
			gen := existing.gen
			s.mu.Unlock()
			return s.cancelFor(sessionID, gen)
		}
		existing.timer.Stop()
		delete(s.timers, sessionID)
	}

	s.gen++
	gen := s.gen
	e := &entry{deadline: deadline, gen: gen}
	s.timers[sessionID] = e
	e.timer = s.afterFunc(remaining, func() {
		if !s.release(sessionID, gen) {
			return
		}
		if err := s.submitter.SubmitLogout(fireCtx, sessionID); err != nil {
			logger.Warn("auto logout failed", zap.Error(err))
			return
		}
		logger.Info("auto logout submitted")
	})
	s.mu.Unlock()

	return s.cancelFor(sessionID, gen)
}

// release removes the entry if it still belongs to generation gen.
func (s *Scheduler) release(sessionID string, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.timers[sessionID]
	if !ok || e.gen != gen {
		return false
	}
	delete(s.timers, sessionID)
	return true
}

func (s *Scheduler) cancelFor(sessionID string, gen uint64) CancelFunc {
	return func() {
		s.mu.Lock()
		e, ok := s.timers[sessionID]
		if !ok || e.gen != gen {
			s.mu.Unlock()
			return
		}
		delete(s.timers, sessionID)
		s.mu.Unlock()
		e.timer.Stop()
	}
}
