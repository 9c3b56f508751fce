package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	loginPath       = "/api/auth/login"
	maxResponseBody = 1 << 20
)

// ErrUnexpectedResponse is returned when the auth service replies with a body
// that is neither a login envelope nor an error payload array.
var ErrUnexpectedResponse = errors.New("authapi: unexpected response")

var tracer = otel.Tracer("github.com/wareease/wareease-web/internal/wareease/authapi")

// HTTPClient matches the subset of http.Client used by Client.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Client calls the remote WareEase authentication service.
type Client struct {
	base   *url.URL
	client HTTPClient
}

// NewClient constructs a Client for the service rooted at baseURL.
func NewClient(baseURL string, client HTTPClient) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("authapi: base URL is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("authapi: parse base URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("authapi: base URL %q must be absolute", baseURL)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		base:   parsed,
		client: client,
	}, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Result     *Result         `json:"result"`
	Errors     []ErrorPayload  `json:"errors"`
	Message    json.RawMessage `json:"message"`
}

// Login submits the credentials and returns the decoded reply. Non-200
// replies are not errors: they come back as a Response carrying Errors.
func (c *Client) Login(ctx context.Context, email, password string) (*Response, error) {
	ctx, span := tracer.Start(ctx, "authapi.Login")
	defer span.End()

	req, err := c.newJSONRequest(ctx, http.MethodPost, loginPath, loginRequest{Email: email, Password: password})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build request")
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return nil, fmt.Errorf("authapi: login request: %w", err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read body")
		return nil, fmt.Errorf("authapi: read login response: %w", err)
	}

	out, err := decodeResponse(resp.StatusCode, body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode")
		return nil, err
	}
	span.SetAttributes(attribute.Int("wareease.auth.status_code", out.StatusCode))
	return out, nil
}

func decodeResponse(httpStatus int, body []byte) (*Response, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty body (status %d)", ErrUnexpectedResponse, httpStatus)
	}

	switch trimmed[0] {
	case '[':
		var payloads []ErrorPayload
		if err := json.Unmarshal(trimmed, &payloads); err != nil {
			return nil, fmt.Errorf("authapi: decode error payload: %w", err)
		}
		status := httpStatus
		if status >= 200 && status < 300 {
			// An error array never counts as success, whatever the transport said.
			status = 0
		}
		return &Response{StatusCode: status, Errors: payloads}, nil
	case '{':
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("authapi: decode login response: %w", err)
		}
		status := env.StatusCode
		if status == 0 {
			status = httpStatus
		}
		out := &Response{StatusCode: status, Result: env.Result, Errors: env.Errors}
		if len(out.Errors) == 0 && len(env.Message) > 0 && string(env.Message) != "null" {
			out.Errors = []ErrorPayload{ErrorPayload(env.Message)}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: status %d", ErrUnexpectedResponse, httpStatus)
	}
}

func (c *Client) newJSONRequest(ctx context.Context, method, endpoint string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("authapi: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.resolve(endpoint), &buf)
	if err != nil {
		return nil, fmt.Errorf("authapi: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) resolve(endpoint string) string {
	u := *c.base
	u.Path = path.Join("/", c.base.Path, endpoint)
	return u.String()
}
