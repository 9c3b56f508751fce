package helpers

import (
	"fmt"
	"strings"
	"time"
)

// Date formats the timestamp in the provided layout (defaults to 2006-01-02 15:04 MST).
func Date(ts time.Time, layout string) string {
	if ts.IsZero() {
		return ""
	}
	if layout == "" {
		layout = "2006-01-02 15:04 MST"
	}
	return ts.In(time.Local).Format(layout)
}

// DelaySeconds renders d as an htmx delay modifier value, rounded up so the
// browser never fires before the server considers the token expired.
func DelaySeconds(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	secs := int64((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%ds", secs)
}

// NavClass returns navigation link classes.
func NavClass(active bool) string {
	if active {
		return "nav-link nav-link--active"
	}
	return "nav-link"
}

// ToastClass maps notice levels to toast classes.
func ToastClass(level string) string {
	switch level {
	case "success":
		return "toast toast--success"
	case "error":
		return "toast toast--error"
	default:
		return "toast toast--info"
	}
}

// ToastRole returns the ARIA role for a notice; errors interrupt, the rest wait.
func ToastRole(level string) string {
	if level == "error" {
		return "alert"
	}
	return "status"
}

// EnvironmentBadge returns the short label shown outside production.
func EnvironmentBadge(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "prod", "production":
		return ""
	case "stg", "staging":
		return "STG"
	case "dev", "development", "local", "":
		return "DEV"
	default:
		return strings.ToUpper(env)
	}
}
