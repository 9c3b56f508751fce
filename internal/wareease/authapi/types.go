package authapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

// plainText strips any markup the auth service may embed in error messages.
var plainText = bluemonday.StrictPolicy()

// Response is the decoded reply of the login endpoint.
type Response struct {
	// StatusCode is the envelope status, falling back to the HTTP status.
	// Zero means the service replied with a bare error array on a 2xx.
	StatusCode int
	Result     *Result
	Errors     []ErrorPayload
}

// OK reports whether the service accepted the credentials.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode == 200
}

// Result carries the issued access token.
type Result struct {
	Token      string     `json:"token"`
	Expiration Expiration `json:"expiration"`
}

// Expiration accepts RFC 3339 strings and unix timestamps in seconds or milliseconds.
type Expiration struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Expiration) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		e.Time = time.Time{}
		return nil
	}
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		parsed, err := parseExpiration(raw)
		if err != nil {
			return err
		}
		e.Time = parsed
		return nil
	}
	n, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("authapi: invalid expiration %s: %w", data, err)
	}
	e.Time = unixToTime(int64(n))
	return nil
}

func parseExpiration(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.9999999", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return unixToTime(n), nil
	}
	return time.Time{}, fmt.Errorf("authapi: invalid expiration %q", raw)
}

func unixToTime(n int64) time.Time {
	if n >= 1e12 {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}

// ErrorPayload is one element of the error array returned on rejection.
type ErrorPayload json.RawMessage

// MarshalJSON implements json.Marshaler.
func (p ErrorPayload) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return []byte("null"), nil
	}
	return p, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *ErrorPayload) UnmarshalJSON(data []byte) error {
	*p = append((*p)[:0], data...)
	return nil
}

// Text renders the payload as plain text: strings verbatim, objects by their
// message-like field, anything else as its JSON form.
func (p ErrorPayload) Text() string {
	raw := bytes.TrimSpace(p)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var text string
	switch raw[0] {
	case '"':
		_ = json.Unmarshal(raw, &text)
	case '{':
		var fields map[string]any
		if err := json.Unmarshal(raw, &fields); err == nil {
			for _, key := range []string{"message", "description", "error", "title"} {
				if s, ok := fields[key].(string); ok && strings.TrimSpace(s) != "" {
					text = s
					break
				}
			}
		}
		if text == "" {
			text = string(raw)
		}
	default:
		text = string(raw)
	}
	return strings.TrimSpace(html.UnescapeString(plainText.Sanitize(text)))
}
