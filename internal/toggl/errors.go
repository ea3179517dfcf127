package toggl

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind classifies a failed remote call.
type Kind int

const (
	// KindNetwork covers transport failures, undecodable bodies and any
	// unexpected non-2xx status.
	KindNetwork Kind = iota
	// KindUnauthorized means the credential was rejected (401/403).
	KindUnauthorized
	// KindRateLimited means the API refused the call for budget reasons
	// (429, and 402 which Toggl returns once the hourly plan quota is spent).
	KindRateLimited
	// KindServer covers 5xx responses and deadline-exceeded.
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindRateLimited:
		return "rate_limited"
	case KindServer:
		return "server"
	default:
		return "network"
	}
}

// Error is returned by every Client method on failure.
type Error struct {
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("toggl api: %s (HTTP %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("toggl api: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of a remote error, or KindNetwork when err is not
// an *Error.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindNetwork
}

// classifyStatus maps a non-2xx HTTP status to an *Error.
func classifyStatus(code int, body []byte) *Error {
	msg := errors.New(http.StatusText(code))
	if len(body) > 0 {
		msg = fmt.Errorf("%s: %s", http.StatusText(code), truncate(body, 200))
	}
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return &Error{Kind: KindUnauthorized, StatusCode: code, Err: msg}
	case code == http.StatusTooManyRequests || code == http.StatusPaymentRequired:
		return &Error{Kind: KindRateLimited, StatusCode: code, Err: msg}
	case code >= 500:
		return &Error{Kind: KindServer, StatusCode: code, Err: msg}
	default:
		return &Error{Kind: KindNetwork, StatusCode: code, Err: msg}
	}
}

// classifyTransport maps an error from http.Client.Do.
func classifyTransport(err error) *Error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return &Error{Kind: KindServer, Err: err}
	}
	return &Error{Kind: KindNetwork, Err: err}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "…"
}
