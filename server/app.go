// Package server serves mxapi endpoints over HTTP.
//
// Each endpoint is bound to its implementation with Unary and registered on
// an App. The App routes requests to every path the endpoint can be reached
// at, authenticates them according to the endpoint's AuthScheme, decodes
// them with FromHTTPRequest and writes the typed response or a Matrix error.
//
//	app := server.NewApp().WithLogger(logger)
//	app.Register(server.Unary(membership.JoinRoomByID, join))
//	http.ListenAndServe(":8008", app.Handler())
package server

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/broady/mxapi"
	"github.com/broady/mxapi/internal/pathenc"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/broady/mxapi/server"

// Authenticator checks an access token extracted from a request. It returns
// the context to serve the request with, typically carrying the caller's
// identity. A non-nil error rejects the request; errors that are not a
// *mxapi.MatrixError are reported as M_UNKNOWN_TOKEN.
type Authenticator func(ctx context.Context, scheme mxapi.AuthScheme, token string) (context.Context, error)

// App is the central router for endpoint implementations.
// It manages route registration, middleware, interceptors, and error handling.
// Use Handler() to get an http.Handler for use with http.ListenAndServe.
type App struct {
	mu                 sync.RWMutex
	routes             map[string]Route
	order              []string
	router             http.Handler
	errorTransformer   ErrorTransformer
	maskInternalErrors bool
	interceptors       []UnaryInterceptor
	middlewares        []func(http.Handler) http.Handler
	logger             *slog.Logger
	maxRequestBodySize uint64
	authenticator      Authenticator
	tracerProvider     trace.TracerProvider
}

func NewApp() *App {
	return &App{
		routes:             make(map[string]Route),
		maxRequestBodySize: 1 << 20, // 1MB default
	}
}

// WithErrorTransformer adds a custom error transformer.
// It returns the app for chaining.
func (a *App) WithErrorTransformer(fn ErrorTransformer) *App {
	a.errorTransformer = fn
	return a
}

// WithMaskInternalErrors enables masking of internal error messages.
// The original error is still available to interceptors and logging.
func (a *App) WithMaskInternalErrors() *App {
	a.maskInternalErrors = true
	return a
}

// WithInterceptor adds a global interceptor.
// Global interceptors are executed before route-level interceptors.
// Within each level, interceptors execute in the order they were added.
func (a *App) WithInterceptor(i UnaryInterceptor) *App {
	a.interceptors = append(a.interceptors, i)
	return a
}

// WithMiddleware adds an HTTP middleware to wrap the app.
// Middleware is applied in the order added (first added is outermost).
func (a *App) WithMiddleware(mw func(http.Handler) http.Handler) *App {
	a.middlewares = append(a.middlewares, mw)
	return a
}

// WithLogger sets a custom logger for the app.
// If not set, slog.Default() will be used.
func (a *App) WithLogger(logger *slog.Logger) *App {
	a.logger = logger
	return a
}

// WithMaxRequestBodySize sets the maximum request body size.
// A value of 0 means no limit. Default is 1MB (1 << 20).
func (a *App) WithMaxRequestBodySize(size uint64) *App {
	a.maxRequestBodySize = size
	return a
}

// WithAuthenticator sets the function that checks access tokens. Without
// one, any present token is accepted.
func (a *App) WithAuthenticator(fn Authenticator) *App {
	a.authenticator = fn
	return a
}

// WithTracerProvider sets the OpenTelemetry tracer provider used for
// server spans. The global provider is used by default.
func (a *App) WithTracerProvider(tp trace.TracerProvider) *App {
	a.tracerProvider = tp
	return a
}

func (a *App) getLogger() *slog.Logger {
	if a.logger == nil {
		return slog.Default()
	}
	return a.logger
}

func (a *App) tracer() trace.Tracer {
	tp := a.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer(tracerName)
}

// Register mounts route at every path its endpoint can be reached at.
// If a route with the same endpoint name is already registered, it is
// replaced and a warning is logged.
func (a *App) Register(route Route) {
	name := route.Describe().Metadata().Name

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.routes[name]; exists {
		a.getLogger().Warn("duplicate route registration",
			slog.String("endpoint", name))
	} else {
		a.order = append(a.order, name)
	}
	a.routes[name] = route
	a.router = nil
}

// Routes returns the registered routes in registration order.
func (a *App) Routes() []Route {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Route, 0, len(a.order))
	for _, name := range a.order {
		out = append(out, a.routes[name])
	}
	return out
}

// Handler returns an http.Handler for use with http.ListenAndServe or other
// HTTP servers. The returned handler includes all configured middleware.
func (a *App) Handler() http.Handler {
	var h http.Handler = http.HandlerFunc(a.serveHTTP)
	// Apply middleware in reverse order so first added is outermost
	for i := len(a.middlewares) - 1; i >= 0; i-- {
		h = a.middlewares[i](h)
	}
	return h
}

// ServeHTTP serves r without the configured middleware.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.serveHTTP(w, r)
}

func (a *App) serveHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			stack := debug.Stack()
			a.getLogger().Error("PANIC recovered",
				slog.Any("panic", rec),
				slog.String("stack", string(stack)))
			writeError(w, mxapi.Errorf(mxapi.CodeUnknown, "internal server error (panic): %v", rec), a.logger)
		}
	}()

	a.getRouter().ServeHTTP(w, r)
}

// getRouter returns the chi router for the current route set, building it
// after registrations.
func (a *App) getRouter() http.Handler {
	a.mu.RLock()
	router := a.router
	a.mu.RUnlock()
	if router != nil {
		return router
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.router == nil {
		a.router = a.buildRouter()
	}
	return a.router
}

func (a *App) buildRouter() http.Handler {
	mux := chi.NewRouter()
	// Route on the escaped path so encoded slashes stay inside a segment.
	mux.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				rctx.RoutePath = r.URL.EscapedPath()
			}
			next.ServeHTTP(w, r)
		})
	})
	mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, mxapi.NewError(mxapi.CodeUnrecognized, "Unrecognized request"), a.logger)
	})
	mux.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, mxapi.NewError(mxapi.CodeUnrecognized, "Unrecognized request").WithStatus(http.StatusMethodNotAllowed), a.logger)
	})

	for _, name := range a.order {
		route := a.routes[name]
		desc := route.Describe()
		meta := desc.Metadata()
		optional := desc.OptionalPathParams()
		for i, tpl := range desc.PathTemplates() {
			info := CallInfo{
				Endpoint:       meta.Name,
				Method:         meta.Method,
				Path:           tpl.String(),
				Stability:      meta.Paths[i].Stability,
				Authentication: meta.Authentication,
				RateLimited:    meta.RateLimited,
			}
			params := len(tpl.Params())
			for n := params - optional; n <= params; n++ {
				h := a.dispatch(route, info, tpl.Truncate(n).Params())
				mux.Method(meta.Method, chiPattern(tpl.Truncate(n)), h)
			}
		}
	}
	return mux
}

// chiPattern rewrites :name placeholders as chi's {name}.
func chiPattern(tpl mxapi.PathTemplate) string {
	segs := strings.Split(tpl.String(), "/")
	for i, s := range segs {
		if name, ok := strings.CutPrefix(s, ":"); ok {
			segs[i] = "{" + name + "}"
		}
	}
	return strings.Join(segs, "/")
}

func (a *App) dispatch(route Route, info CallInfo, params []string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		args := make([]string, len(params))
		for i, p := range params {
			v, err := pathenc.Unescape(chi.URLParam(r, p))
			if err != nil {
				writeError(w, mxapi.Errorf(mxapi.CodeInvalidParam, "invalid path parameter %q: %v", p, err), a.logger)
				return
			}
			args[i] = v
		}
		callInfo := info
		route.serve(a, w, r, &callInfo, args)
	})
}

func (a *App) handleError(w http.ResponseWriter, err error) *mxapi.MatrixError {
	var mErr *mxapi.MatrixError
	if a.errorTransformer != nil {
		mErr = a.errorTransformer(err)
	}
	if mErr == nil {
		mErr = DefaultErrorTransformer(err)
	}
	if a.maskInternalErrors && mErr.Code == mxapi.CodeUnknown && mErr.HTTPStatus() >= 500 {
		mErr = mxapi.NewError(mxapi.CodeUnknown, "internal server error").WithStatus(mErr.HTTPStatus())
	}
	writeError(w, mErr, a.logger)
	return mErr
}
