package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMaskEmail(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":                    "",
		"admin@wareease.test": "a***@wareease.test",
		"  x@y.z ":            "x***@y.z",
		"@wareease.test":      "***",
		"not-an-email":        "***",
	}
	for in, want := range cases {
		require.Equal(t, want, MaskEmail(in), "input %q", in)
	}
}

func TestFromContextDefaultsToNoop(t *testing.T) {
	t.Parallel()

	require.NotNil(t, FromContext(context.Background()))
	//nolint:staticcheck // nil context is part of the contract
	require.NotNil(t, FromContext(nil))

	logger := zap.NewExample()
	require.Same(t, logger, FromContext(WithLogger(context.Background(), logger)))
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	handler := middleware.RequestID(InjectLogger(zap.New(core))(RequestLogger()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).Info("inside handler")
		w.WriteHeader(http.StatusUnauthorized)
	}))))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/auth/signin", nil))

	inner := logs.FilterMessage("inside handler").All()
	require.Len(t, inner, 1)
	require.Equal(t, "/auth/signin", inner[0].ContextMap()["path"])
	require.NotEmpty(t, inner[0].ContextMap()["request_id"])

	done := logs.FilterMessage("request completed").All()
	require.Len(t, done, 1)
	require.Equal(t, zapcore.WarnLevel, done[0].Level)
	require.EqualValues(t, http.StatusUnauthorized, done[0].ContextMap()["status"])
}
