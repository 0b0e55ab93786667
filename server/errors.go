package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/broady/mxapi"
	"github.com/go-playground/validator/v10"
)

// StatusClientClosedRequest is sent when the client went away before the
// handler finished (Nginx convention).
const StatusClientClosedRequest = 499

// ErrorTransformer is a function that maps an application error to a Matrix error.
// If it returns nil, the default transformer logic should be applied.
type ErrorTransformer func(error) *mxapi.MatrixError

// DefaultErrorTransformer maps standard Go errors and request conversion
// errors to Matrix errors.
func DefaultErrorTransformer(err error) *mxapi.MatrixError {
	if err == nil {
		return nil
	}

	var mErr *mxapi.MatrixError
	if errors.As(err, &mErr) {
		return mErr
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return mxapi.Errorf(mxapi.CodeTooLarge, "request body exceeds %d bytes", tooLarge.Limit)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return mxapi.NewError(mxapi.CodeUnknown, "request timeout").WithStatus(http.StatusGatewayTimeout)
	}

	if errors.Is(err, context.Canceled) {
		return mxapi.NewError(mxapi.CodeUnknown, "context canceled").WithStatus(StatusClientClosedRequest)
	}

	var valErrs validator.ValidationErrors
	if errors.As(err, &valErrs) {
		details := make(map[string]any)
		messages := make([]string, 0, len(valErrs))
		for _, ve := range valErrs {
			msg := formatValidationError(ve)
			details[ve.Field()] = msg
			messages = append(messages, ve.Field()+": "+msg)
		}
		return mxapi.NewError(mxapi.CodeInvalidParam, strings.Join(messages, "; ")).WithDetails(details)
	}

	var reqErr *mxapi.FromHTTPRequestError
	if errors.As(err, &reqErr) {
		return requestError(reqErr)
	}

	// Handle multi-errors (errors.Join)
	if u, ok := err.(interface{ Unwrap() []error }); ok {
		errs := u.Unwrap()
		if len(errs) > 0 {
			first := DefaultErrorTransformer(errs[0])
			msgs := make([]string, len(errs))
			for i, e := range errs {
				msgs[i] = e.Error()
			}
			out := mxapi.NewError(first.Code, strings.Join(msgs, "; ")).WithDetails(first.Details)
			out.Status = first.Status
			return out
		}
	}

	return mxapi.NewError(mxapi.CodeUnknown, err.Error())
}

func requestError(err *mxapi.FromHTTPRequestError) *mxapi.MatrixError {
	if errors.Is(err, mxapi.ErrMissingField) {
		if err.Field == "" {
			return mxapi.Errorf(mxapi.CodeMissingParam, "missing %s", err.Kind)
		}
		return mxapi.Errorf(mxapi.CodeMissingParam, "missing %s parameter %q", err.Kind, err.Field)
	}

	switch err.Kind {
	case mxapi.KindBody:
		var syntax *json.SyntaxError
		if errors.As(err, &syntax) {
			return mxapi.Errorf(mxapi.CodeNotJSON, "request body is not valid JSON: %v", syntax)
		}
		return mxapi.Errorf(mxapi.CodeBadJSON, "%v", err.Err)
	default:
		out := mxapi.Errorf(mxapi.CodeInvalidParam, "%v", err.Err)
		if err.Field != "" {
			out = out.WithDetail("field", err.Field)
		}
		return out
	}
}

// formatValidationError converts a validator.FieldError to a human-readable message.
func formatValidationError(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return "required"
	case "min":
		return fmt.Sprintf("must be at least %s", ve.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", ve.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s long", ve.Param())
	case "eq":
		return fmt.Sprintf("must equal %s", ve.Param())
	case "ne":
		return fmt.Sprintf("must not equal %s", ve.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", ve.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", ve.Param())
	case "lt":
		return fmt.Sprintf("must be less than %s", ve.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", ve.Param())
	case "url":
		return "must be a valid URL"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", ve.Param())
	default:
		if ve.Param() != "" {
			return fmt.Sprintf("failed %s=%s validation", ve.Tag(), ve.Param())
		}
		return fmt.Sprintf("failed %s validation", ve.Tag())
	}
}

func writeError(w http.ResponseWriter, mErr *mxapi.MatrixError, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(mErr.HTTPStatus())
	if err := json.NewEncoder(w).Encode(mErr); err != nil {
		// Headers already sent, nothing we can do.
		logger.Error("failed to encode error response",
			slog.String("errcode", string(mErr.Code)),
			slog.String("message", mErr.Message),
			slog.Any("error", err))
	}
}
