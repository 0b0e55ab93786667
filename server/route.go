package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/broady/mxapi"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Route is an endpoint bound to its implementation.
// It is created with Unary and cannot be implemented outside this package.
type Route interface {
	// Describe returns the endpoint the route serves.
	Describe() mxapi.Describer
	serve(a *App, w http.ResponseWriter, r *http.Request, info *CallInfo, pathArgs []string)
}

// UnaryRoute serves one endpoint with a function from its request type to
// its response type.
type UnaryRoute[Req, Resp any] struct {
	ep           *mxapi.Endpoint[Req, Resp]
	fn           func(context.Context, Req) (Resp, error)
	interceptors []UnaryInterceptor
}

// Unary binds fn to ep.
func Unary[Req, Resp any](ep *mxapi.Endpoint[Req, Resp], fn func(context.Context, Req) (Resp, error)) *UnaryRoute[Req, Resp] {
	return &UnaryRoute[Req, Resp]{ep: ep, fn: fn}
}

// WithInterceptor adds an interceptor to this route.
// Route interceptors execute after global interceptors.
func (u *UnaryRoute[Req, Resp]) WithInterceptor(i UnaryInterceptor) *UnaryRoute[Req, Resp] {
	u.interceptors = append(u.interceptors, i)
	return u
}

// Describe implements Route.
func (u *UnaryRoute[Req, Resp]) Describe() mxapi.Describer { return u.ep }

func (u *UnaryRoute[Req, Resp]) serve(a *App, w http.ResponseWriter, r *http.Request, info *CallInfo, pathArgs []string) {
	ctx, span := a.tracer().Start(r.Context(), info.Endpoint,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("mxapi.endpoint", info.Endpoint),
			attribute.String("http.request.method", info.Method),
			attribute.String("http.route", info.Path),
		))
	defer span.End()

	fail := func(err error) {
		mErr := a.handleError(w, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(mErr.Code))
		span.SetAttributes(
			attribute.String("mxapi.errcode", string(mErr.Code)),
			attribute.Int("http.response.status_code", mErr.HTTPStatus()))
	}

	if meta := u.ep.Metadata(); !meta.Deprecated.IsZero() {
		a.getLogger().DebugContext(ctx, "deprecated endpoint called",
			slog.String("endpoint", info.Endpoint),
			slog.String("deprecated", meta.Deprecated.String()))
	}

	if info.Authentication != mxapi.AuthNone {
		token, ok := extractToken(r, info.Authentication)
		if !ok {
			fail(mxapi.NewError(mxapi.CodeMissingToken, "Missing access token"))
			return
		}
		if a.authenticator != nil {
			authCtx, err := a.authenticator(ctx, info.Authentication, token)
			if err != nil {
				var mErr *mxapi.MatrixError
				if !errors.As(err, &mErr) {
					mErr = mxapi.NewError(mxapi.CodeUnknownToken, "Unrecognised access token")
				}
				fail(mErr)
				return
			}
			if authCtx != nil {
				ctx = authCtx
			}
		}
		ctx = withAccessToken(ctx, token)
	}

	if a.maxRequestBodySize > 0 && r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, int64(a.maxRequestBodySize))
	}

	ctx = newContext(ctx, w, r, info)
	r = r.WithContext(ctx)

	req, err := u.ep.FromHTTPRequest(r, pathArgs)
	if err != nil {
		fail(err)
		return
	}

	interceptors := make([]UnaryInterceptor, 0, len(a.interceptors)+len(u.interceptors))
	interceptors = append(interceptors, a.interceptors...)
	interceptors = append(interceptors, u.interceptors...)
	chain := chainInterceptors(interceptors)

	finalHandler := func(ctx context.Context, reqAny any) (any, error) {
		reqTyped, ok := reqAny.(Req)
		if !ok {
			return nil, mxapi.NewError(mxapi.CodeUnknown, "interceptor modified request type incorrectly")
		}
		return u.fn(ctx, reqTyped)
	}

	var res any
	if chain != nil {
		res, err = chain(ctx, req, info, finalHandler)
	} else {
		res, err = finalHandler(ctx, req)
	}
	if err != nil {
		fail(err)
		return
	}

	resp, ok := res.(Resp)
	if !ok {
		fail(mxapi.NewError(mxapi.CodeUnknown, "interceptor modified response type incorrectly"))
		return
	}

	if err := u.ep.WriteResponse(w, resp); err != nil {
		var into *mxapi.IntoHTTPError
		if errors.As(err, &into) {
			fail(err)
			return
		}
		// Response may be partially written.
		a.getLogger().ErrorContext(ctx, "failed to write response",
			slog.String("endpoint", info.Endpoint),
			slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "write response")
		return
	}
	span.SetAttributes(attribute.Int("http.response.status_code", http.StatusOK))
}

// extractToken finds the credentials for scheme in r.
func extractToken(r *http.Request, scheme mxapi.AuthScheme) (string, bool) {
	authz := r.Header.Get("Authorization")
	switch scheme {
	case mxapi.AuthAccessToken:
		if tok, ok := strings.CutPrefix(authz, "Bearer "); ok && tok != "" {
			return tok, true
		}
		return queryToken(r)
	case mxapi.AuthQueryOnlyAccessToken:
		return queryToken(r)
	case mxapi.AuthServerSignatures:
		if params, ok := strings.CutPrefix(authz, "X-Matrix "); ok && params != "" {
			return params, true
		}
	}
	return "", false
}

func queryToken(r *http.Request) (string, bool) {
	tok := r.URL.Query().Get("access_token")
	return tok, tok != ""
}
