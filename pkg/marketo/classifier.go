package marketo

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
)

// Vendor codes that clear up on their own: token invalid/expired, rate and
// concurrency limits, temporarily unavailable backends.
var retryableCodes = map[string]struct{}{
	"601":  {},
	"602":  {},
	"604":  {},
	"606":  {},
	"608":  {},
	"611":  {},
	"615":  {},
	"713":  {},
	"1029": {},
}

// Codes after which the cached access token must not be reused.
var tokenCodes = map[string]struct{}{
	"601": {},
	"602": {},
}

// ShouldRetry reports whether another attempt could succeed. It looks only
// at err and holds no state.
func ShouldRetry(err error) bool {
	switch e := err.(type) {
	case *TransportError:
		return isTransientTransport(e.Err)
	case *HTTPStatusError:
		return e.StatusCode >= http.StatusInternalServerError
	case *APIError:
		for _, me := range e.Errors {
			if _, ok := retryableCodes[me.Code]; ok {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// isTransientTransport matches timeouts and premature end of stream, either
// directly or one wrapping level down.
func isTransientTransport(err error) bool {
	if isTransient(err) {
		return true
	}
	return isTransient(errors.Unwrap(err))
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	switch err {
	case io.EOF, io.ErrUnexpectedEOF, context.DeadlineExceeded, os.ErrDeadlineExceeded:
		return true
	}
	if t, ok := err.(interface{ Timeout() bool }); ok {
		return t.Timeout()
	}
	return false
}

// invalidatesToken reports whether err means the bearer token was refused.
func invalidatesToken(err error) bool {
	switch e := err.(type) {
	case *HTTPStatusError:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case *APIError:
		for _, me := range e.Errors {
			if _, ok := tokenCodes[me.Code]; ok {
				return true
			}
		}
	}
	return false
}
