package authapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	client, err := NewClient(ts.URL, ts.Client())
	require.NoError(t, err)
	return client
}

func TestLoginSuccessEnvelope(t *testing.T) {
	var got loginRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/auth/login", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"statusCode":200,"result":{"token":"tok","expiration":"2026-10-18T13:00:00Z"}}`))
	})

	resp, err := client.Login(context.Background(), "admin@wareease.test", "Secret1!")
	require.NoError(t, err)
	require.True(t, resp.OK())
	require.Equal(t, "tok", resp.Result.Token)
	require.True(t, resp.Result.Expiration.Equal(time.Date(2026, 10, 18, 13, 0, 0, 0, time.UTC)))
	require.Equal(t, loginRequest{Email: "admin@wareease.test", Password: "Secret1!"}, got)
}

func TestLoginErrorArray(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`[{"message":"Invalid credentials"},"second"]`))
	})

	resp, err := client.Login(context.Background(), "a@b.test", "Secret1!")
	require.NoError(t, err)
	require.False(t, resp.OK())
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Len(t, resp.Errors, 2)
	require.Equal(t, "Invalid credentials", resp.Errors[0].Text())
	require.Equal(t, "second", resp.Errors[1].Text())
}

func TestLoginErrorArrayWithOKTransportIsNotSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`["Account locked"]`))
	})

	resp, err := client.Login(context.Background(), "a@b.test", "Secret1!")
	require.NoError(t, err)
	require.False(t, resp.OK())
	require.Zero(t, resp.StatusCode)
	require.Equal(t, "Account locked", resp.Errors[0].Text())
}

func TestLoginEnvelopeStatusWinsOverTransport(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"statusCode":401,"message":"Wrong password"}`))
	})

	resp, err := client.Login(context.Background(), "a@b.test", "Secret1!")
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Len(t, resp.Errors, 1)
	require.Equal(t, "Wrong password", resp.Errors[0].Text())
}

func TestLoginUnexpectedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	})

	_, err := client.Login(context.Background(), "a@b.test", "Secret1!")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnexpectedResponse))
}

func TestLoginTransportFailure(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	ts.Close()

	client, err := NewClient(ts.URL, nil)
	require.NoError(t, err)

	_, err = client.Login(context.Background(), "a@b.test", "Secret1!")
	require.Error(t, err)
}

func TestNewClientValidatesBaseURL(t *testing.T) {
	_, err := NewClient("", nil)
	require.Error(t, err)

	_, err = NewClient("/relative", nil)
	require.Error(t, err)
}

func TestResolveKeepsBasePath(t *testing.T) {
	client, err := NewClient("https://auth.example.com/v2/", nil)
	require.NoError(t, err)
	require.Equal(t, "https://auth.example.com/v2/api/auth/login", client.resolve(loginPath))
}

func TestErrorPayloadText(t *testing.T) {
	cases := map[string]string{
		`"plain"`:                          "plain",
		`{"description":"From description"}`: "From description",
		`{"code":7}`:                       `{"code":7}`,
		`"<b>Bold</b> & co"`:               "Bold & co",
		`42`:                               "42",
		`null`:                             "",
	}
	for raw, want := range cases {
		require.Equal(t, want, ErrorPayload(raw).Text(), raw)
	}
}

func TestExpirationFormats(t *testing.T) {
	want := time.Date(2026, 10, 18, 13, 0, 0, 0, time.UTC)
	for _, raw := range []string{
		`"2026-10-18T13:00:00Z"`,
		`"2026-10-18T13:00:00"`,
		`1792328400`,
		`1792328400000`,
		`"1792328400"`,
	} {
		var exp Expiration
		require.NoError(t, json.Unmarshal([]byte(raw), &exp), raw)
		require.True(t, exp.Equal(want), "%s decoded to %s", raw, exp.Time)
	}

	var exp Expiration
	require.Error(t, json.Unmarshal([]byte(`"tomorrow"`), &exp))
}
