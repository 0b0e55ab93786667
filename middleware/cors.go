package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// CORSConfig configures the CORS middleware. Empty fields fall back to the
// values of DefaultCORSConfig.
type CORSConfig struct {
	// AllowOrigins lists origins allowed to call the API. "*" allows any.
	AllowOrigins []string
	AllowMethods []string
	AllowHeaders []string

	// ExposeHeaders lists response headers scripts may read, such as
	// Retry-After or Content-Disposition on media downloads.
	ExposeHeaders []string

	// AllowCredentials echoes the request origin instead of "*".
	AllowCredentials bool

	// MaxAge is how long in seconds browsers may cache a preflight answer.
	// Zero leaves the header unset.
	MaxAge int
}

var (
	defaultAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	defaultAllowHeaders = []string{"X-Requested-With", "Content-Type", "Authorization"}
)

// DefaultCORSConfig returns the configuration Matrix clients expect from a
// homeserver: any origin, the client-server API methods, and the headers
// browsers need to send JSON with an access token.
func DefaultCORSConfig() *CORSConfig {
	return &CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: slices.Clone(defaultAllowMethods),
		AllowHeaders: slices.Clone(defaultAllowHeaders),
	}
}

type corsPolicy struct {
	origins     []string
	wildcard    bool
	credentials bool
	expose      string
	preflight   http.Header
}

func newCORSPolicy(cfg *CORSConfig) *corsPolicy {
	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	methods := cfg.AllowMethods
	if len(methods) == 0 {
		methods = defaultAllowMethods
	}
	headers := cfg.AllowHeaders
	if len(headers) == 0 {
		headers = defaultAllowHeaders
	}

	p := &corsPolicy{
		origins:     origins,
		wildcard:    slices.Contains(origins, "*"),
		credentials: cfg.AllowCredentials,
		expose:      strings.Join(cfg.ExposeHeaders, ", "),
		preflight: http.Header{
			"Access-Control-Allow-Methods": {strings.Join(methods, ", ")},
			"Access-Control-Allow-Headers": {strings.Join(headers, ", ")},
		},
	}
	if cfg.MaxAge > 0 {
		p.preflight.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
	}
	return p
}

// allowOrigin returns the Access-Control-Allow-Origin value for origin.
// "*" cannot be combined with credentials, so the origin is echoed then.
func (p *corsPolicy) allowOrigin(origin string) (value string, echoed bool, ok bool) {
	switch {
	case p.wildcard && (origin == "" || !p.credentials):
		return "*", false, true
	case origin == "":
		return "", false, false
	case p.wildcard || slices.Contains(p.origins, origin):
		return origin, true, true
	}
	return "", false, false
}

// CORS returns an HTTP middleware that sets CORS headers and answers every
// OPTIONS request itself, as homeservers do for all API paths.
// A nil cfg uses DefaultCORSConfig.
func CORS(cfg *CORSConfig) func(http.Handler) http.Handler {
	if cfg == nil {
		cfg = DefaultCORSConfig()
	}
	p := newCORSPolicy(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if value, echoed, ok := p.allowOrigin(r.Header.Get("Origin")); ok {
				h.Set("Access-Control-Allow-Origin", value)
				if echoed {
					h.Add("Vary", "Origin")
				}
				if p.credentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
				if p.expose != "" {
					h.Set("Access-Control-Expose-Headers", p.expose)
				}
			}

			if r.Method == http.MethodOptions {
				for k, v := range p.preflight {
					h[k] = v
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
