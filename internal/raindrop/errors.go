package raindrop

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrMissingToken = errors.New("raindrop API token not set")
	// ErrRejected means the API answered with result: false.
	ErrRejected = errors.New("raindrop API rejected the request")
	// ErrUnexpectedResponse means the envelope decoded but lacked the
	// expected items or item.
	ErrUnexpectedResponse = errors.New("unexpected raindrop API response")
)

// APIError is a transport failure that survived every retry attempt.
type APIError struct {
	Method     string
	URL        string
	StatusCode int // 0 when no response was received
	Body       string
	Err        error
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", e.Method, e.URL)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.Body != "" {
		fmt.Fprintf(&b, ": %s", truncate(e.Body, 200))
	}
	return b.String()
}

func (e *APIError) Unwrap() error { return e.Err }

// IsRateLimit reports whether the server refused the request for exceeding
// its rate limit.
func (e *APIError) IsRateLimit() bool {
	if e.StatusCode == http.StatusTooManyRequests {
		return true
	}
	if strings.Contains(strings.ToLower(e.Body), "rate limit") {
		return true
	}
	return e.Err != nil && strings.Contains(strings.ToLower(e.Err.Error()), "rate limit")
}

// truncate caps s at n characters.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
