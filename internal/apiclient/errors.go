// ABOUTME: Typed API errors distinguishing transport, HTTP and decode failures
// ABOUTME: Extracts the server's {message} so callers never probe raw JSON

package apiclient

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// ErrorKind classifies an API failure
type ErrorKind int

const (
	// KindTransport means no response was received
	KindTransport ErrorKind = iota
	// KindCanceled means the caller's context was canceled
	KindCanceled
	// KindTimeout means the request or context deadline expired
	KindTimeout
	// KindHTTP means the server answered with a non-2xx status
	KindHTTP
	// KindDecode means a 2xx envelope did not have the expected shape
	KindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindCanceled:
		return "canceled"
	case KindTimeout:
		return "timeout"
	case KindHTTP:
		return "http"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is returned for every failed API call
type Error struct {
	Kind    ErrorKind
	Status  int
	Message string
	Body    []byte
	Err     error
}

func (e *Error) Error() string {
	if e.Kind == KindHTTP {
		return fmt.Sprintf("backend error (%d): %s", e.Status, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// newHTTPError builds an error from a non-2xx response body.
// The message comes from "message", then "error", then a generic status line.
func newHTTPError(status int, body []byte) *Error {
	msg := ""
	if gjson.ValidBytes(body) {
		parsed := gjson.ParseBytes(body)
		if m := parsed.Get("message"); m.Type == gjson.String && m.String() != "" {
			msg = m.String()
		} else if m := parsed.Get("error"); m.Type == gjson.String && m.String() != "" {
			msg = m.String()
		}
	}
	if msg == "" {
		msg = fmt.Sprintf("request failed with status %d", status)
	}
	return &Error{Kind: KindHTTP, Status: status, Message: msg, Body: body}
}

// AsError extracts an *Error from err's chain
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// StatusCode returns the HTTP status carried by err, or 0 when there is none
func StatusCode(err error) int {
	if apiErr, ok := AsError(err); ok {
		return apiErr.Status
	}
	return 0
}

// IsNotFound reports whether err is an HTTP 404 from the backend
func IsNotFound(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Kind == KindHTTP && apiErr.Status == http.StatusNotFound
}

// IsUnauthorized reports whether err is an HTTP 401 from the backend
func IsUnauthorized(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Kind == KindHTTP && apiErr.Status == http.StatusUnauthorized
}

// Message returns the server-provided message of an HTTP error, or fallback
// for any other failure (transport errors have no user-facing server message).
func Message(err error, fallback string) string {
	if apiErr, ok := AsError(err); ok && apiErr.Kind == KindHTTP && apiErr.Body != nil {
		if m := gjson.GetBytes(apiErr.Body, "message"); m.Type == gjson.String && m.String() != "" {
			return m.String()
		}
	}
	return fallback
}
