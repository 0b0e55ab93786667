// Package client sends typed endpoint requests to a homeserver.
//
// A Client negotiates the versions the server supports on first use and
// caches them, so every later request picks its path from the same set:
//
//	c := client.New("https://matrix.example.org", client.WithAccessToken(token))
//	resp, err := client.Send(ctx, c, membership.JoinRoomByID, membership.JoinRoomByIDRequest{RoomID: room})
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/broady/mxapi"
	"github.com/broady/mxapi/clientapi/discovery"
	"github.com/broady/mxapi/id"
)

const tracerName = "github.com/broady/mxapi/client"

// ErrNoSupportedVersions is returned when the server advertises no version
// this package understands.
var ErrNoSupportedVersions = errors.New("server supports no known version")

// Client sends requests to one homeserver. It is safe for concurrent use.
type Client struct {
	baseURL          string
	httpClient       *http.Client
	accessToken      string
	appserviceUserID id.UserID
	logger           *slog.Logger
	tracerProvider   trace.TracerProvider

	mu       sync.RWMutex
	versions []mxapi.Version
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests. The default wraps
// http.DefaultTransport with OpenTelemetry instrumentation.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithAccessToken sets the token sent to endpoints that require
// authentication.
func WithAccessToken(token string) Option {
	return func(c *Client) { c.accessToken = token }
}

// WithVersions fixes the supported versions and skips negotiation.
func WithVersions(versions ...mxapi.Version) Option {
	return func(c *Client) { c.versions = append([]mxapi.Version(nil), versions...) }
}

// WithLogger sets the logger. slog.Default is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithAppserviceUserID makes every request assert userID, as an application
// service acting for one of its users.
func WithAppserviceUserID(userID id.UserID) Option {
	return func(c *Client) { c.appserviceUserID = userID }
}

// WithTracerProvider sets the tracer provider for client spans. The global
// provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) { c.tracerProvider = tp }
}

// New returns a client for the homeserver at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{baseURL: baseURL}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return c
}

func (c *Client) getLogger() *slog.Logger {
	if c.logger == nil {
		return slog.Default()
	}
	return c.logger
}

func (c *Client) tracer() trace.Tracer {
	tp := c.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer(tracerName)
}

func (c *Client) tokenPolicy() mxapi.SendAccessToken {
	if c.accessToken == "" {
		return mxapi.NeverSend()
	}
	return mxapi.SendIfRequired(c.accessToken)
}

// Versions returns the versions the server supports, asking it on the
// first call.
func (c *Client) Versions(ctx context.Context) ([]mxapi.Version, error) {
	c.mu.RLock()
	versions := c.versions
	c.mu.RUnlock()
	if versions != nil {
		return versions, nil
	}

	resp, err := send(ctx, c, discovery.GetSupportedVersions, discovery.GetSupportedVersionsRequest{}, discovery.Bootstrap)
	if err != nil {
		return nil, fmt.Errorf("negotiating versions: %w", err)
	}
	versions = resp.KnownVersions()
	if len(versions) == 0 {
		return nil, fmt.Errorf("%w: advertised %v", ErrNoSupportedVersions, resp.Versions)
	}
	c.getLogger().DebugContext(ctx, "negotiated versions",
		slog.String("homeserver", c.baseURL),
		slog.Any("versions", versions))

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.versions == nil {
		c.versions = versions
	}
	return c.versions, nil
}

// Send calls ep with req and decodes the response. Server errors are
// returned as *mxapi.FromHTTPResponseError wrapping either an
// *mxapi.ServerError or an *mxapi.UnknownServerError.
func Send[Req, Resp any](ctx context.Context, c *Client, ep *mxapi.Endpoint[Req, Resp], req Req) (Resp, error) {
	versions, err := c.Versions(ctx)
	if err != nil {
		var zero Resp
		return zero, err
	}
	return send(ctx, c, ep, req, versions)
}

func send[Req, Resp any](ctx context.Context, c *Client, ep *mxapi.Endpoint[Req, Resp], req Req, versions []mxapi.Version) (resp Resp, err error) {
	meta := ep.Metadata()
	ctx, span := c.tracer().Start(ctx, meta.Name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("mxapi.endpoint", meta.Name),
			attribute.String("http.request.method", meta.Method),
		))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if meta.IsDeprecatedFor(versions) {
		c.getLogger().WarnContext(ctx, "calling deprecated endpoint",
			slog.String("endpoint", meta.Name),
			slog.String("deprecated", meta.Deprecated.String()))
	}

	var httpReq *http.Request
	if c.appserviceUserID != "" {
		httpReq, err = ep.ToHTTPRequestWithUserID(ctx, req, c.baseURL, c.tokenPolicy(), versions, c.appserviceUserID)
	} else {
		httpReq, err = ep.ToHTTPRequest(ctx, req, c.baseURL, c.tokenPolicy(), versions)
	}
	if err != nil {
		return resp, err
	}
	span.SetAttributes(attribute.String("url.path", httpReq.URL.Path))

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return resp, fmt.Errorf("%s: %w", meta.Name, err)
	}
	defer func() { _ = httpResp.Body.Close() }()
	span.SetAttributes(attribute.Int("http.response.status_code", httpResp.StatusCode))

	return ep.FromHTTPResponse(httpResp)
}

// NewTransactionID returns a fresh transaction ID for endpoints that
// deduplicate retries, such as sending a message.
func NewTransactionID() string {
	return uuid.NewString()
}
