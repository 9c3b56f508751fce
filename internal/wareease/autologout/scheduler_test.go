package autologout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeTimer struct {
	d       time.Duration
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	wasActive := !t.stopped
	t.stopped = true
	return wasActive
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{d: d, fn: fn}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) last() *fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.timers) == 0 {
		return nil
	}
	return c.timers[len(c.timers)-1]
}

type recorder struct {
	mu       sync.Mutex
	sessions []string
	err      error
}

func (r *recorder) SubmitLogout(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, sessionID)
	return r.err
}

func (r *recorder) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sessions...)
}

type staticTokens struct {
	token     string
	remaining time.Duration
	err       error
}

func (s staticTokens) AuthToken(context.Context) (string, error) {
	return s.token, s.err
}

func (s staticTokens) AuthTokenDuration(context.Context) (time.Duration, error) {
	return s.remaining, nil
}

var baseTime = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

func newTestScheduler(rec *recorder, clock *fakeClock) *Scheduler {
	return NewScheduler(rec,
		WithAfterFunc(clock.AfterFunc),
		WithClock(func() time.Time { return baseTime }),
	)
}

func TestCheckNoTokenIsNoop(t *testing.T) {
	rec := &recorder{}
	clock := &fakeClock{}
	s := newTestScheduler(rec, clock)

	state, cancel, err := s.Check(context.Background(), "sess", staticTokens{})
	require.NoError(t, err)
	require.Equal(t, StateNoToken, state)
	require.NotNil(t, cancel)
	require.Empty(t, rec.calls())
	require.Nil(t, clock.last())
}

func TestCheckExpiredSentinelLogsOutImmediately(t *testing.T) {
	rec := &recorder{}
	clock := &fakeClock{}
	s := newTestScheduler(rec, clock)

	state, _, err := s.Check(context.Background(), "sess", staticTokens{token: ExpiredToken})
	require.NoError(t, err)
	require.Equal(t, StateExpiredToken, state)
	require.Equal(t, []string{"sess"}, rec.calls())
	require.Nil(t, clock.last(), "no timer is armed for an expired token")
}

func TestCheckNonPositiveDurationCountsAsExpired(t *testing.T) {
	rec := &recorder{}
	s := newTestScheduler(rec, &fakeClock{})

	state, _, err := s.Check(context.Background(), "sess", staticTokens{token: "tok", remaining: 0})
	require.NoError(t, err)
	require.Equal(t, StateExpiredToken, state)
	require.Equal(t, []string{"sess"}, rec.calls())
}

func TestCheckActiveTokenArmsTimer(t *testing.T) {
	rec := &recorder{}
	clock := &fakeClock{}
	s := newTestScheduler(rec, clock)

	state, _, err := s.Check(context.Background(), "sess", staticTokens{token: "tok", remaining: 5 * time.Minute})
	require.NoError(t, err)
	require.Equal(t, StateActiveToken, state)
	require.True(t, s.Pending("sess"))

	timer := clock.last()
	require.NotNil(t, timer)
	require.Equal(t, 5*time.Minute, timer.d)
	require.Empty(t, rec.calls())

	timer.fn()
	require.Equal(t, []string{"sess"}, rec.calls())
	require.False(t, s.Pending("sess"))
}

func TestCancelFuncReleasesTimer(t *testing.T) {
	rec := &recorder{}
	clock := &fakeClock{}
	s := newTestScheduler(rec, clock)

	_, cancel, err := s.Check(context.Background(), "sess", staticTokens{token: "tok", remaining: time.Minute})
	require.NoError(t, err)

	cancel()
	cancel()
	timer := clock.last()
	require.True(t, timer.stopped)
	require.False(t, s.Pending("sess"))

	// A callback racing the cancellation must not submit.
	timer.fn()
	require.Empty(t, rec.calls())
}

func TestRecheckReplacesTimer(t *testing.T) {
	rec := &recorder{}
	clock := &fakeClock{}
	s := newTestScheduler(rec, clock)

	_, staleCancel, err := s.Check(context.Background(), "sess", staticTokens{token: "tok", remaining: time.Minute})
	require.NoError(t, err)
	first := clock.last()

	_, _, err = s.Check(context.Background(), "sess", staticTokens{token: "tok2", remaining: time.Hour})
	require.NoError(t, err)
	second := clock.last()

	require.NotSame(t, first, second)
	require.True(t, first.stopped)
	require.False(t, second.stopped)

	// The superseded cancel func leaves the new timer alone.
	staleCancel()
	require.False(t, second.stopped)
	require.True(t, s.Pending("sess"))

	first.fn()
	require.Empty(t, rec.calls())
	second.fn()
	require.Equal(t, []string{"sess"}, rec.calls())
}

func TestRecheckWithSameDeadlineKeepsTimer(t *testing.T) {
	clock := &fakeClock{}
	s := newTestScheduler(&recorder{}, clock)

	_, _, err := s.Check(context.Background(), "sess", staticTokens{token: "tok", remaining: time.Minute})
	require.NoError(t, err)
	_, cancel, err := s.Check(context.Background(), "sess", staticTokens{token: "tok", remaining: time.Minute})
	require.NoError(t, err)

	require.Len(t, clock.timers, 1)
	cancel()
	require.True(t, clock.timers[0].stopped)
}

func TestSessionsAreIndependent(t *testing.T) {
	rec := &recorder{}
	clock := &fakeClock{}
	s := newTestScheduler(rec, clock)

	_, _, err := s.Check(context.Background(), "a", staticTokens{token: "tok", remaining: time.Minute})
	require.NoError(t, err)
	_, _, err = s.Check(context.Background(), "b", staticTokens{token: "tok", remaining: time.Minute})
	require.NoError(t, err)

	s.Cancel("a")
	require.False(t, s.Pending("a"))
	require.True(t, s.Pending("b"))
}

func TestCloseStopsEverythingAndRefusesNewTimers(t *testing.T) {
	clock := &fakeClock{}
	s := newTestScheduler(&recorder{}, clock)

	_, _, err := s.Check(context.Background(), "a", staticTokens{token: "tok", remaining: time.Minute})
	require.NoError(t, err)
	s.Close()
	require.True(t, clock.timers[0].stopped)

	state, _, err := s.Check(context.Background(), "b", staticTokens{token: "tok", remaining: time.Minute})
	require.NoError(t, err)
	require.Equal(t, StateActiveToken, state)
	require.Len(t, clock.timers, 1)
	require.False(t, s.Pending("b"))
}

func TestCheckPropagatesErrors(t *testing.T) {
	s := newTestScheduler(&recorder{err: errors.New("logout failed")}, &fakeClock{})

	_, _, err := s.Check(context.Background(), "sess", staticTokens{token: ExpiredToken})
	require.EqualError(t, err, "logout failed")

	_, _, err = s.Check(context.Background(), "sess", staticTokens{err: errors.New("store down")})
	require.EqualError(t, err, "store down")

	_, _, err = s.Check(context.Background(), "", staticTokens{})
	require.Error(t, err)

	_, _, err = s.Check(context.Background(), "sess", nil)
	require.Error(t, err)
}

func TestTimerFiresAfterRequestContextEnds(t *testing.T) {
	var got context.Context
	clock := &fakeClock{}
	s := NewScheduler(SubmitterFunc(func(ctx context.Context, _ string) error {
		got = ctx
		return nil
	}), WithAfterFunc(clock.AfterFunc))

	ctx, cancel := context.WithCancel(context.Background())
	_, _, err := s.Check(ctx, "sess", staticTokens{token: "tok", remaining: time.Second})
	require.NoError(t, err)
	cancel()

	clock.last().fn()
	require.NotNil(t, got)
	require.NoError(t, got.Err())
}

func TestRealTimerFires(t *testing.T) {
	done := make(chan string, 1)
	s := NewScheduler(SubmitterFunc(func(_ context.Context, id string) error {
		done <- id
		return nil
	}))
	t.Cleanup(s.Close)

	_, _, err := s.Check(context.Background(), "sess", staticTokens{token: "tok", remaining: 10 * time.Millisecond})
	require.NoError(t, err)

	select {
	case id := <-done:
		require.Equal(t, "sess", id)
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
}
