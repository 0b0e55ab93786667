// Package testutil provides testing helpers for HTTP handlers serving Matrix
// endpoints. It does not import the server package and can be used from any
// package.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/broady/mxapi/internal/pathenc"
)

// RequestBuilder constructs test requests against Matrix endpoints.
type RequestBuilder struct {
	method string
	path   string
	query  url.Values
	header http.Header
	body   []byte
}

// NewRequest creates a new request builder for GET /.
func NewRequest() *RequestBuilder {
	return &RequestBuilder{
		method: http.MethodGet,
		path:   "/",
		query:  url.Values{},
		header: http.Header{},
	}
}

// GET sets the method to GET.
func (b *RequestBuilder) GET(path string) *RequestBuilder { return b.Method(http.MethodGet, path) }

// POST sets the method to POST.
func (b *RequestBuilder) POST(path string) *RequestBuilder { return b.Method(http.MethodPost, path) }

// PUT sets the method to PUT.
func (b *RequestBuilder) PUT(path string) *RequestBuilder { return b.Method(http.MethodPut, path) }

// DELETE sets the method to DELETE.
func (b *RequestBuilder) DELETE(path string) *RequestBuilder {
	return b.Method(http.MethodDelete, path)
}

// Method sets an arbitrary method. The path is used as given, so it must
// already be percent-encoded; see Path.
func (b *RequestBuilder) Method(method, path string) *RequestBuilder {
	b.method = method
	b.path = path
	return b
}

// WithJSON sets the request body to the JSON encoding of v.
func (b *RequestBuilder) WithJSON(v any) *RequestBuilder {
	data, _ := json.Marshal(v)
	b.body = data
	b.header.Set("Content-Type", "application/json")
	return b
}

// WithBody sets the raw request body.
func (b *RequestBuilder) WithBody(body string) *RequestBuilder {
	b.body = []byte(body)
	return b
}

// WithHeader sets a request header.
func (b *RequestBuilder) WithHeader(key, value string) *RequestBuilder {
	b.header.Set(key, value)
	return b
}

// WithQuery adds a query parameter.
func (b *RequestBuilder) WithQuery(key, value string) *RequestBuilder {
	b.query.Add(key, value)
	return b
}

// WithAccessToken sends token in a bearer Authorization header.
func (b *RequestBuilder) WithAccessToken(token string) *RequestBuilder {
	return b.WithHeader("Authorization", "Bearer "+token)
}

// WithAccessTokenQuery sends token in the access_token query parameter.
func (b *RequestBuilder) WithAccessTokenQuery(token string) *RequestBuilder {
	return b.WithQuery("access_token", token)
}

// WithXMatrix sends federation credentials in an X-Matrix Authorization
// header.
func (b *RequestBuilder) WithXMatrix(origin, destination, key, sig string) *RequestBuilder {
	return b.WithHeader("Authorization", `X-Matrix origin="`+origin+`",destination="`+destination+`",key="`+key+`",sig="`+sig+`"`)
}

// WithUserID adds the user_id parameter an application service uses to
// act as one of its users.
func (b *RequestBuilder) WithUserID(userID string) *RequestBuilder {
	return b.WithQuery("user_id", userID)
}

// Build creates the request and a recorder for its response.
func (b *RequestBuilder) Build() (*http.Request, *httptest.ResponseRecorder) {
	target := b.path
	if len(b.query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + b.query.Encode()
	}

	var body *bytes.Reader
	if len(b.body) > 0 {
		body = bytes.NewReader(b.body)
	}
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(b.method, target, body)
	} else {
		req = httptest.NewRequest(b.method, target, nil)
	}
	for k, v := range b.header {
		req.Header[k] = v
	}
	return req, httptest.NewRecorder()
}

// Serve builds the request and serves it with h.
func (b *RequestBuilder) Serve(h http.Handler) *httptest.ResponseRecorder {
	req, w := b.Build()
	h.ServeHTTP(w, req)
	return w
}

// Path fills the :name placeholders of template with args in order,
// escaping each one the way clients do.
func Path(template string, args ...string) string {
	segs := strings.Split(template, "/")
	n := 0
	for i, s := range segs {
		if !strings.HasPrefix(s, ":") {
			continue
		}
		if n >= len(args) {
			panic("testutil: not enough arguments for " + template)
		}
		segs[i] = pathenc.Escape(args[n])
		n++
	}
	if n != len(args) {
		panic("testutil: too many arguments for " + template)
	}
	return strings.Join(segs, "/")
}

// AssertStatus checks that the response has the expected status code.
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int) {
	t.Helper()
	if w.Code != expectedStatus {
		t.Errorf("expected status %d, got %d\nBody: %s", expectedStatus, w.Code, w.Body.String())
	}
}

// AssertJSONResponse checks that the response is JSON equal to expected,
// ignoring formatting and key order.
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expected any) {
	t.Helper()

	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Errorf("expected Content-Type to contain application/json, got %s", ct)
	}

	want, err := normalizeJSON(expected)
	if err != nil {
		t.Fatalf("failed to encode expected value: %v", err)
	}
	var actual any
	if err := json.Unmarshal(w.Body.Bytes(), &actual); err != nil {
		t.Fatalf("response is not JSON: %v\nBody: %s", err, w.Body.String())
	}
	got, _ := json.MarshalIndent(actual, "", "  ")

	if !bytes.Equal(want, got) {
		t.Errorf("response mismatch:\nExpected:\n%s\nActual:\n%s", want, got)
	}
}

func normalizeJSON(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, err
	}
	return json.MarshalIndent(generic, "", "  ")
}

// ErrorResponse is a standard Matrix error body.
type ErrorResponse struct {
	Errcode      string `json:"errcode"`
	Error        string `json:"error"`
	RetryAfterMs int64  `json:"retry_after_ms,omitempty"`
}

// AssertMatrixError checks that the response is a Matrix error with the
// expected errcode.
func AssertMatrixError(t *testing.T, w *httptest.ResponseRecorder, expectedCode string) *ErrorResponse {
	t.Helper()

	var errResp ErrorResponse
	DecodeJSON(t, w, &errResp)
	if errResp.Errcode != expectedCode {
		t.Errorf("expected errcode %s, got %s (error: %s)", expectedCode, errResp.Errcode, errResp.Error)
	}
	return &errResp
}

// AssertRetryAfter checks that the response is M_LIMIT_EXCEEDED with the
// expected retry_after_ms.
func AssertRetryAfter(t *testing.T, w *httptest.ResponseRecorder, expectedMs int64) {
	t.Helper()
	AssertStatus(t, w, http.StatusTooManyRequests)
	if errResp := AssertMatrixError(t, w, "M_LIMIT_EXCEEDED"); errResp.RetryAfterMs != expectedMs {
		t.Errorf("expected retry_after_ms %d, got %d", expectedMs, errResp.RetryAfterMs)
	}
}

// AssertHeader checks that a response header has the expected value.
func AssertHeader(t *testing.T, w *httptest.ResponseRecorder, key, expectedValue string) {
	t.Helper()
	if actual := w.Header().Get(key); actual != expectedValue {
		t.Errorf("expected header %s=%s, got %s", key, expectedValue, actual)
	}
}

// DecodeJSON decodes the response body into v.
func DecodeJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response: %v\nBody: %s", err, w.Body.String())
	}
}
