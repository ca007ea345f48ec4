package marketo

import (
	"errors"
	"fmt"
	"strings"
)

// Error categories. Every failure returned by the client matches exactly one
// of them through errors.Is.
var (
	// ErrConfiguration means the credentials or identity endpoint are wrong;
	// retrying will not help.
	ErrConfiguration = errors.New("marketo: configuration error")

	// ErrDataProcessing means a data request failed for good.
	ErrDataProcessing = errors.New("marketo: data processing error")
)

// TransportError is a connectivity, timeout or stream failure.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("marketo: transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPStatusError is a non-2xx response. Body is kept for diagnostics.
type HTTPStatusError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPStatusError) Error() string {
	if desc := errorDescription(e.Body); desc != "" {
		return fmt.Sprintf("marketo: HTTP %d: %s", e.StatusCode, desc)
	}
	return fmt.Sprintf("marketo: HTTP %d", e.StatusCode)
}

// APIError is a 2xx response whose envelope lists vendor errors.
type APIError struct {
	Errors []Error
}

func (e *APIError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, me := range e.Errors {
		parts = append(parts, me.String())
	}
	return "marketo: api error: " + strings.Join(parts, "; ")
}

// HasCode reports whether any vendor error carries code.
func (e *APIError) HasCode(code string) bool {
	for _, me := range e.Errors {
		if me.Code == code {
			return true
		}
	}
	return false
}

// AuthError is a failed access token fetch. When the identity endpoint
// explained itself, the message is exactly its error_description.
type AuthError struct {
	Code        string
	Description string
	Err         error
}

func (e *AuthError) Error() string {
	if e.Description != "" {
		return e.Description
	}
	if e.Err != nil {
		return fmt.Sprintf("marketo: access token request failed: %v", e.Err)
	}
	return "marketo: access token request failed"
}

func (e *AuthError) Unwrap() error { return e.Err }

func (e *AuthError) Is(target error) bool { return target == ErrConfiguration }

// RetryExhaustedError wraps the last retryable failure once the attempt
// budget is spent.
type RetryExhaustedError struct {
	Attempts int
	Err      error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("marketo: giving up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error { return e.Err }

// DataError is how every non-configuration failure of a data request
// reaches the caller.
type DataError struct {
	Method string
	URL    string
	Err    error
}

func (e *DataError) Error() string {
	return fmt.Sprintf("marketo: %s %s failed: %v", e.Method, e.URL, e.Err)
}

func (e *DataError) Unwrap() error { return e.Err }

func (e *DataError) Is(target error) bool { return target == ErrDataProcessing }

// Errors returns the vendor errors carried anywhere in err's chain.
func Errors(err error) []Error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Errors
	}
	return nil
}
