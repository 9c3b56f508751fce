package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v4"
)

// RoleClaim is the namespaced claim the WareEase auth service uses for role membership.
const RoleClaim = "http://schemas.microsoft.com/ws/2008/06/identity/claims/role"

const emailClaim = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/emailaddress"

// ErrMalformed is returned when the token cannot be split or its payload decoded.
var ErrMalformed = errors.New("token: malformed")

// Decoded is the claims view of an access token. The signature is not verified.
type Decoded struct {
	Subject   string
	Email     string
	Roles     []string
	// HasRoleClaim is false when the role claim is absent or null, which
	// differs from a present but empty list.
	HasRoleClaim bool
	ExpiresAt    time.Time
	Claims    map[string]any
}

// Decoder reads access token claims without checking signatures.
type Decoder struct {
	parser *jwt.Parser
}

// NewDecoder constructs a Decoder.
func NewDecoder() *Decoder {
	return &Decoder{parser: jwt.NewParser()}
}

// Decode parses the token payload. It never returns a nil Decoded with a nil error.
func (d *Decoder) Decode(raw string) (*Decoded, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty token", ErrMalformed)
	}
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}

	claims := jwt.MapClaims{}
	if _, _, err := d.parser.ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	decoded := &Decoded{
		Subject: claimString(claims["sub"]),
		Email:   firstNonEmpty(claimString(claims[emailClaim]), claimString(claims["email"])),
		Roles:   claimStringSlice(claims[RoleClaim]),
		Claims:  map[string]any(claims),
	}
	if v, ok := claims[RoleClaim]; ok && v != nil {
		decoded.HasRoleClaim = true
	}
	if exp, ok := claimUnix(claims["exp"]); ok {
		decoded.ExpiresAt = exp
	}
	return decoded, nil
}

func claimString(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case *string:
		if v == nil {
			return ""
		}
		return strings.TrimSpace(*v)
	default:
		return ""
	}
}

// claimStringSlice accepts the role claim as a single string or an array;
// blanks and duplicates are dropped, order is preserved.
func claimStringSlice(values ...any) []string {
	seen := make(map[string]struct{})
	var result []string

	appendValue := func(val string) {
		val = strings.TrimSpace(val)
		if val == "" {
			return
		}
		if _, ok := seen[val]; !ok {
			seen[val] = struct{}{}
			result = append(result, val)
		}
	}

	for _, value := range values {
		switch v := value.(type) {
		case string:
			appendValue(v)
		case []string:
			for _, item := range v {
				appendValue(item)
			}
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok {
					appendValue(s)
				}
			}
		case nil:
			continue
		default:
			if s := claimString(v); s != "" {
				appendValue(s)
			}
		}
	}
	return result
}

func claimUnix(value any) (time.Time, bool) {
	switch v := value.(type) {
	case float64:
		return time.Unix(int64(v), 0).UTC(), true
	case int64:
		return time.Unix(v, 0).UTC(), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return time.Time{}, false
		}
		return time.Unix(n, 0).UTC(), true
	default:
		return time.Time{}, false
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
