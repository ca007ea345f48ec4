package marketo

import (
	"encoding/json"
	"fmt"
)

// Error is one vendor error record. Codes are strings ("601", "1029").
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e Error) String() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + " " + e.Message
}

// Warning is a non-fatal notice attached to an envelope.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Response is the standard REST envelope. A response with Success=false
// and a non-empty Errors list is an application failure even on HTTP 200.
type Response[T any] struct {
	RequestID     string    `json:"requestId"`
	Success       bool      `json:"success"`
	Result        T         `json:"result"`
	NextPageToken string    `json:"nextPageToken,omitempty"`
	MoreResult    bool      `json:"moreResult,omitempty"`
	Errors        []Error   `json:"errors,omitempty"`
	Warnings      []Warning `json:"warnings,omitempty"`
}

// APIErrors exposes the envelope's vendor errors to the executor.
func (r *Response[T]) APIErrors() []Error {
	if r == nil {
		return nil
	}
	return r.Errors
}

// ResponseReader turns a raw 2xx body into a typed value.
type ResponseReader[T any] interface {
	ReadResponse(body []byte) (T, error)
}

// ReaderFunc adapts a plain function to ResponseReader.
type ReaderFunc[T any] func(body []byte) (T, error)

func (f ReaderFunc[T]) ReadResponse(body []byte) (T, error) { return f(body) }

// StringReader returns the body verbatim.
type StringReader struct {
	MaxBytes int64
}

func (r StringReader) ReadResponse(body []byte) (string, error) {
	if err := checkSize(body, r.MaxBytes); err != nil {
		return "", err
	}
	return string(body), nil
}

// EnvelopeReader decodes the body into a Response[T].
type EnvelopeReader[T any] struct {
	MaxBytes int64
}

func (r EnvelopeReader[T]) ReadResponse(body []byte) (*Response[T], error) {
	if err := checkSize(body, r.MaxBytes); err != nil {
		return nil, err
	}
	var resp Response[T]
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response envelope: %w", err)
	}
	return &resp, nil
}

func checkSize(body []byte, max int64) error {
	if max > 0 && int64(len(body)) > max {
		return fmt.Errorf("response body is %d bytes, limit is %d", len(body), max)
	}
	return nil
}

// errorDescription pulls error_description out of an identity-style error
// body, or "" if the body is not one.
func errorDescription(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var e struct {
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	return e.ErrorDescription
}
