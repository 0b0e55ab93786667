package mxapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrNeedsAuthentication is returned when an endpoint requires
// authentication but the caller's token policy carries no token.
var ErrNeedsAuthentication = errors.New("endpoint requires authentication but no access token was provided")

// UnknownVersionError is returned when a version token is not recognized.
type UnknownVersionError struct {
	Token string
}

func (e *UnknownVersionError) Error() string {
	return fmt.Sprintf("unknown version %q", e.Token)
}

// NoMatchingPathError is returned when none of an endpoint's paths can be
// used with the given versions.
type NoMatchingPathError struct {
	Endpoint string
	Versions []Version
	// Removed is the endpoint's removal version, if it has one.
	Removed Version
}

func (e *NoMatchingPathError) Error() string {
	vs := make([]string, len(e.Versions))
	for i, v := range e.Versions {
		vs[i] = v.String()
	}
	msg := fmt.Sprintf("endpoint %s has no path for versions [%s]", e.Endpoint, strings.Join(vs, ", "))
	if !e.Removed.IsZero() {
		msg += fmt.Sprintf(" (removed in %s)", e.Removed)
	}
	return msg
}

// ErrorKind identifies which part of a message a conversion failed on.
type ErrorKind string

const (
	KindPath       ErrorKind = "path"
	KindQuery      ErrorKind = "query"
	KindHeader     ErrorKind = "header"
	KindBody       ErrorKind = "body"
	KindURL        ErrorKind = "url"
	KindAuth       ErrorKind = "auth"
	KindVersion    ErrorKind = "version"
	KindValidation ErrorKind = "validation"
)

// IntoHTTPError is returned when a typed request or response cannot be
// turned into an HTTP message.
type IntoHTTPError struct {
	Kind  ErrorKind
	Field string
	Err   error
}

func (e *IntoHTTPError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("building HTTP message: %s %q: %v", e.Kind, e.Field, e.Err)
	}
	return fmt.Sprintf("building HTTP message: %s: %v", e.Kind, e.Err)
}

func (e *IntoHTTPError) Unwrap() error { return e.Err }

// FromHTTPRequestError is returned when an incoming HTTP request cannot be
// decoded into a typed request.
type FromHTTPRequestError struct {
	Kind  ErrorKind
	Field string
	Err   error
}

func (e *FromHTTPRequestError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid request %s %q: %v", e.Kind, e.Field, e.Err)
	}
	return fmt.Sprintf("invalid request %s: %v", e.Kind, e.Err)
}

func (e *FromHTTPRequestError) Unwrap() error { return e.Err }

// ErrMissingField is wrapped by conversion errors for absent required fields.
var ErrMissingField = errors.New("missing required field")

// FromHTTPResponseError is returned when an HTTP response cannot be turned
// into a typed response. Err is one of *DeserializationError, *ServerError
// or *UnknownServerError.
type FromHTTPResponseError struct {
	Err error
}

func (e *FromHTTPResponseError) Error() string {
	return e.Err.Error()
}

func (e *FromHTTPResponseError) Unwrap() error { return e.Err }

// DeserializationError is returned when a successful response body does not
// match the endpoint's response type.
type DeserializationError struct {
	Kind  ErrorKind
	Field string
	Err   error
}

func (e *DeserializationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("deserializing response %s %q: %v", e.Kind, e.Field, e.Err)
	}
	return fmt.Sprintf("deserializing response %s: %v", e.Kind, e.Err)
}

func (e *DeserializationError) Unwrap() error { return e.Err }

// ServerError is a non-success response whose body was recognized as the
// endpoint's error type.
type ServerError struct {
	Status int
	Err    EndpointError
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server returned %d: %v", e.Status, e.Err)
}

func (e *ServerError) Unwrap() error { return e.Err }

// UnknownServerError is a non-success response whose body could not be
// recognized. The raw status, headers and body are kept.
type UnknownServerError struct {
	Status int
	Header http.Header
	Body   []byte
	Err    error
}

func (e *UnknownServerError) Error() string {
	body := string(e.Body)
	if len(body) > 256 {
		body = body[:256] + "..."
	}
	return fmt.Sprintf("unrecognized error response %d %q: %v", e.Status, body, e.Err)
}

func (e *UnknownServerError) Unwrap() error { return e.Err }

// EndpointError is the typed error body an endpoint returns on failure.
// ReadHTTPResponse populates the receiver from a non-success response and
// returns an error if the body is not recognized.
type EndpointError interface {
	error
	ReadHTTPResponse(status int, header http.Header, body []byte) error
}
