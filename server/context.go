package server

import (
	"context"
	"net/http"

	"github.com/broady/mxapi"
)

type contextKey struct {
	name string
}

var (
	requestKey  = &contextKey{"request"}
	writerKey   = &contextKey{"writer"}
	callInfoKey = &contextKey{"call_info"}
	tokenKey    = &contextKey{"access_token"}
)

// CallInfo describes the endpoint handling the current request.
type CallInfo struct {
	// Endpoint is the endpoint name from its metadata.
	Endpoint string
	// Method is the HTTP method.
	Method string
	// Path is the path template the request was routed through.
	Path           string
	Stability      mxapi.Stability
	Authentication mxapi.AuthScheme
	RateLimited    bool
}

// RequestFromContext returns the HTTP request from the context.
func RequestFromContext(ctx context.Context) *http.Request {
	if r, ok := ctx.Value(requestKey).(*http.Request); ok {
		return r
	}
	return nil
}

// SetHeader sets an HTTP response header.
// It requires that the handler was called via the App.
func SetHeader(ctx context.Context, key, value string) {
	if w, ok := ctx.Value(writerKey).(http.ResponseWriter); ok {
		w.Header().Set(key, value)
	}
}

// CallInfoFromContext returns the endpoint handling the current request.
func CallInfoFromContext(ctx context.Context) (*CallInfo, bool) {
	info, ok := ctx.Value(callInfoKey).(*CallInfo)
	return info, ok
}

// AccessTokenFromContext returns the access token the request was
// authenticated with. For server signatures it is the full X-Matrix
// authorization parameters.
func AccessTokenFromContext(ctx context.Context) (string, bool) {
	tok, ok := ctx.Value(tokenKey).(string)
	return tok, ok
}

// NewContext returns ctx carrying info. It is how the App builds handler
// contexts, and is exported for testing interceptors.
func NewContext(ctx context.Context, info *CallInfo) context.Context {
	return context.WithValue(ctx, callInfoKey, info)
}

func newContext(ctx context.Context, w http.ResponseWriter, r *http.Request, info *CallInfo) context.Context {
	ctx = context.WithValue(ctx, writerKey, w)
	ctx = context.WithValue(ctx, requestKey, r)
	ctx = context.WithValue(ctx, callInfoKey, info)
	return ctx
}

func withAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}
