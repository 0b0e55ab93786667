package mxapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrorCode is the machine-readable errcode of a standard error response.
type ErrorCode string

const (
	CodeForbidden              ErrorCode = "M_FORBIDDEN"
	CodeUnknownToken           ErrorCode = "M_UNKNOWN_TOKEN"
	CodeMissingToken           ErrorCode = "M_MISSING_TOKEN"
	CodeBadJSON                ErrorCode = "M_BAD_JSON"
	CodeNotJSON                ErrorCode = "M_NOT_JSON"
	CodeNotFound               ErrorCode = "M_NOT_FOUND"
	CodeLimitExceeded          ErrorCode = "M_LIMIT_EXCEEDED"
	CodeUnknown                ErrorCode = "M_UNKNOWN"
	CodeUnrecognized           ErrorCode = "M_UNRECOGNIZED"
	CodeUnauthorized           ErrorCode = "M_UNAUTHORIZED"
	CodeUserDeactivated        ErrorCode = "M_USER_DEACTIVATED"
	CodeUserInUse              ErrorCode = "M_USER_IN_USE"
	CodeInvalidUsername        ErrorCode = "M_INVALID_USERNAME"
	CodeRoomInUse              ErrorCode = "M_ROOM_IN_USE"
	CodeMissingParam           ErrorCode = "M_MISSING_PARAM"
	CodeInvalidParam           ErrorCode = "M_INVALID_PARAM"
	CodeTooLarge               ErrorCode = "M_TOO_LARGE"
	CodeExclusive              ErrorCode = "M_EXCLUSIVE"
	CodeGuestAccessForbidden   ErrorCode = "M_GUEST_ACCESS_FORBIDDEN"
	CodeUnsupportedRoomVersion ErrorCode = "M_UNSUPPORTED_ROOM_VERSION"
)

// HTTPStatus maps an ErrorCode to its conventional HTTP status code.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case CodeForbidden, CodeGuestAccessForbidden, CodeUserDeactivated:
		return http.StatusForbidden
	case CodeUnknownToken, CodeMissingToken, CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeBadJSON, CodeNotJSON, CodeMissingParam, CodeInvalidParam,
		CodeUserInUse, CodeInvalidUsername, CodeRoomInUse, CodeExclusive,
		CodeUnsupportedRoomVersion:
		return http.StatusBadRequest
	case CodeNotFound, CodeUnrecognized:
		return http.StatusNotFound
	case CodeLimitExceeded:
		return http.StatusTooManyRequests
	case CodeTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// MatrixError is the standard JSON error body:
//
//	{"errcode": "M_FORBIDDEN", "error": "You are not invited to this room."}
//
// Fields other than errcode, error and retry_after_ms are kept in Details.
type MatrixError struct {
	Code         ErrorCode
	Message      string
	RetryAfterMs int64
	// Status is the HTTP status the error was received with or should be
	// sent with. Zero means the code's default status.
	Status  int
	Details map[string]any
}

func (e *MatrixError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError creates a new error.
func NewError(code ErrorCode, message string) *MatrixError {
	return &MatrixError{
		Code:    code,
		Message: message,
	}
}

// Errorf creates a new error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *MatrixError {
	return &MatrixError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithDetail returns a new MatrixError with the key-value pair added to details.
func (e *MatrixError) WithDetail(key string, value any) *MatrixError {
	out := e.clone(len(e.Details) + 1)
	out.Details[key] = value
	return out
}

// WithDetails returns a new MatrixError with the provided map merged into details.
func (e *MatrixError) WithDetails(details map[string]any) *MatrixError {
	if len(details) == 0 {
		return e
	}
	out := e.clone(len(e.Details) + len(details))
	for k, v := range details {
		out.Details[k] = v
	}
	return out
}

// WithStatus returns a new MatrixError sent with the given HTTP status.
func (e *MatrixError) WithStatus(status int) *MatrixError {
	out := e.clone(len(e.Details))
	out.Status = status
	return out
}

// WithRetryAfter returns a new MatrixError carrying a retry hint.
func (e *MatrixError) WithRetryAfter(d time.Duration) *MatrixError {
	out := e.clone(len(e.Details))
	out.RetryAfterMs = d.Milliseconds()
	return out
}

func (e *MatrixError) clone(detailCap int) *MatrixError {
	out := *e
	out.Details = make(map[string]any, detailCap)
	for k, v := range e.Details {
		out.Details[k] = v
	}
	return &out
}

// HTTPStatus returns the status the error should be sent with.
func (e *MatrixError) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	return e.Code.HTTPStatus()
}

// RetryAfter returns the retry hint, if any.
func (e *MatrixError) RetryAfter() (time.Duration, bool) {
	if e.RetryAfterMs <= 0 {
		return 0, false
	}
	return time.Duration(e.RetryAfterMs) * time.Millisecond, true
}

// MarshalJSON implements json.Marshaler.
func (e *MatrixError) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(e.Details)+3)
	for k, v := range e.Details {
		m[k] = v
	}
	m["errcode"] = e.Code
	m["error"] = e.Message
	if e.RetryAfterMs > 0 {
		m["retry_after_ms"] = e.RetryAfterMs
	}
	return json.Marshal(m)
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *MatrixError) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var out MatrixError
	if v, ok := raw["errcode"]; ok {
		if err := json.Unmarshal(v, &out.Code); err != nil {
			return fmt.Errorf("errcode: %w", err)
		}
		delete(raw, "errcode")
	}
	if v, ok := raw["error"]; ok {
		if err := json.Unmarshal(v, &out.Message); err != nil {
			return fmt.Errorf("error: %w", err)
		}
		delete(raw, "error")
	}
	if v, ok := raw["retry_after_ms"]; ok {
		if err := json.Unmarshal(v, &out.RetryAfterMs); err != nil {
			return fmt.Errorf("retry_after_ms: %w", err)
		}
		delete(raw, "retry_after_ms")
	}
	if len(raw) > 0 {
		out.Details = make(map[string]any, len(raw))
		for k, v := range raw {
			var val any
			if err := json.Unmarshal(v, &val); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
			out.Details[k] = val
		}
	}
	out.Status = e.Status
	*e = out
	return nil
}

var errNoErrcode = errors.New("error body has no errcode")

// ReadHTTPResponse implements EndpointError. The body must be a JSON object
// with an errcode. A Retry-After header fills in RetryAfterMs when the body
// has no retry hint.
func (e *MatrixError) ReadHTTPResponse(status int, header http.Header, body []byte) error {
	var parsed MatrixError
	if err := json.Unmarshal(body, &parsed); err != nil {
		return err
	}
	if parsed.Code == "" {
		return errNoErrcode
	}
	parsed.Status = status
	if parsed.RetryAfterMs == 0 {
		if secs, err := strconv.ParseInt(header.Get("Retry-After"), 10, 64); err == nil && secs > 0 {
			parsed.RetryAfterMs = secs * 1000
		}
	}
	*e = parsed
	return nil
}
