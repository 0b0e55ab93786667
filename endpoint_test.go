package mxapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/broady/mxapi/id"
)

func ptr[T any](v T) *T { return &v }

type relationsRequest struct {
	RoomID    id.RoomID  `path:"room_id"`
	EventID   id.EventID `path:"event_id"`
	RelType   *string    `path:"rel_type"`
	EventType *string    `path:"event_type"`
	From      *string    `query:"from"`
	To        *string    `query:"to"`
	Limit     *uint      `query:"limit"`
}

type relationsResponse struct {
	Chunk     []json.RawMessage `json:"chunk"`
	NextBatch *string           `json:"next_batch,omitempty"`
	PrevBatch *string           `json:"prev_batch,omitempty"`
}

var relationsMeta = Metadata{
	Name:           "get_events_relating_to_event",
	Description:    "Get the related events for a given event, with optional filters.",
	Method:         http.MethodGet,
	Authentication: AuthAccessToken,
	Paths: []PathCandidate{
		StablePath("/_matrix/client/v1/rooms/:room_id/relations/:event_id/:rel_type/:event_type", V1_2),
		UnstablePath("/_matrix/client/unstable/rooms/:room_id/relations/:event_id/:rel_type/:event_type"),
	},
}

type joinRequest struct {
	RoomID id.RoomID `path:"room_id"`
	Reason string    `json:"reason,omitempty"`
}

type joinResponse struct {
	RoomID id.RoomID `json:"room_id"`
}

var joinMeta = Metadata{
	Name:           "join_room_by_id",
	Method:         http.MethodPost,
	RateLimited:    true,
	Authentication: AuthAccessToken,
	Paths: []PathCandidate{
		StablePath("/_matrix/client/v3/rooms/:room_id/join", V1_1),
		LegacyPath("/_matrix/client/r0/rooms/:room_id/join"),
	},
}

type sendRequest struct {
	RoomID    id.RoomID       `path:"room_id"`
	EventType string          `path:"event_type"`
	TxnID     string          `path:"txn_id"`
	Content   json.RawMessage `mxapi:"body"`
}

type sendResponse struct {
	EventID id.EventID `json:"event_id"`
}

var sendMeta = Metadata{
	Name:           "send_message_event",
	Method:         http.MethodPut,
	Authentication: AuthAccessToken,
	Paths:          []PathCandidate{StablePath("/_matrix/client/v3/rooms/:room_id/send/:event_type/:txn_id", V1_1)},
}

type uploadRequest struct {
	ContentType string  `header:"Content-Type"`
	Filename    *string `query:"filename"`
	File        []byte  `mxapi:"raw_body"`
}

type uploadResponse struct {
	ContentURI string `json:"content_uri"`
}

var uploadMeta = Metadata{
	Name:           "create_content",
	Method:         http.MethodPost,
	Authentication: AuthAccessToken,
	Paths:          []PathCandidate{StablePath("/_matrix/media/v3/upload", V1_1)},
}

type downloadRequest struct {
	ServerName id.ServerName `path:"server_name"`
	MediaID    string        `path:"media_id"`
}

type downloadResponse struct {
	ContentType        string  `header:"Content-Type"`
	ContentDisposition *string `header:"Content-Disposition"`
	File               []byte  `mxapi:"raw_body"`
}

var downloadMeta = Metadata{
	Name:   "get_content",
	Method: http.MethodGet,
	Paths:  []PathCandidate{StablePath("/_matrix/media/v3/download/:server_name/:media_id", V1_1)},
}

type searchRequest struct {
	Params map[string]string `mxapi:"query_map"`
}

type searchResponse struct{}

var searchMeta = Metadata{
	Name:           "search",
	Method:         http.MethodGet,
	Authentication: AuthQueryOnlyAccessToken,
	Paths:          []PathCandidate{StablePath("/_matrix/app/v1/search", V1_0)},
}

func TestToHTTPRequestRelations(t *testing.T) {
	ep := MustEndpoint[relationsRequest, relationsResponse](relationsMeta)

	req := relationsRequest{
		RoomID:  "!room:example.org",
		EventID: "$ev:example.org",
		RelType: ptr("m.reference"),
		From:    ptr("abc"),
		Limit:   ptr(uint(10)),
	}
	r, err := ep.ToHTTPRequest(context.Background(), req, "https://example.org/", SendIfRequired("tok"), []Version{V1_0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if r.Method != http.MethodGet {
		t.Errorf("expected GET, got %s", r.Method)
	}
	wantPath := "/_matrix/client/unstable/rooms/%21room%3Aexample%2Eorg/relations/%24ev%3Aexample%2Eorg/m%2Ereference"
	if got := r.URL.EscapedPath(); got != wantPath {
		t.Errorf("expected path %s, got %s", wantPath, got)
	}
	if r.URL.RawQuery != "from=abc&limit=10" {
		t.Errorf("expected query from=abc&limit=10, got %s", r.URL.RawQuery)
	}
	if got := r.Header.Get("Authorization"); got != "Bearer tok" {
		t.Errorf("expected bearer token, got %q", got)
	}
	if got := r.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("expected application/json, got %q", got)
	}
	if r.Body != nil && r.Body != http.NoBody {
		body, _ := io.ReadAll(r.Body)
		if len(body) != 0 {
			t.Errorf("expected empty body, got %s", body)
		}
	}
}

func TestToHTTPRequestStableWhenSupported(t *testing.T) {
	ep := MustEndpoint[relationsRequest, relationsResponse](relationsMeta)
	req := relationsRequest{RoomID: "!r:x", EventID: "$e"}
	r, err := ep.ToHTTPRequest(context.Background(), req, "https://example.org", SendIfRequired("tok"), []Version{V1_2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := r.URL.EscapedPath(); got != "/_matrix/client/v1/rooms/%21r%3Ax/relations/%24e" {
		t.Errorf("unexpected path %s", got)
	}
	if r.URL.RawQuery != "" {
		t.Errorf("expected no query, got %s", r.URL.RawQuery)
	}
}

func TestToHTTPRequestBody(t *testing.T) {
	ep := MustEndpoint[joinRequest, joinResponse](joinMeta)

	tests := []struct {
		name string
		req  joinRequest
		want string
	}{
		{"with reason", joinRequest{RoomID: "!r:x", Reason: "hello"}, `{"reason":"hello"}`},
		{"empty", joinRequest{RoomID: "!r:x"}, `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ep.ToHTTPRequest(context.Background(), tt.req, "https://example.org", SendIfRequired("tok"), []Version{V1_0})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := r.URL.EscapedPath(); got != "/_matrix/client/r0/rooms/%21r%3Ax/join" {
				t.Errorf("unexpected path %s", got)
			}
			body, _ := io.ReadAll(r.Body)
			if string(body) != tt.want {
				t.Errorf("expected body %s, got %s", tt.want, body)
			}
		})
	}
}

func TestToHTTPRequestNewtypeBody(t *testing.T) {
	ep := MustEndpoint[sendRequest, sendResponse](sendMeta)
	req := sendRequest{
		RoomID:    "!r:x",
		EventType: "m.room.message",
		TxnID:     "txn1",
		Content:   json.RawMessage(`{"body":"hi","msgtype":"m.text"}`),
	}
	r, err := ep.ToHTTPRequest(context.Background(), req, "https://example.org", AlwaysSend("tok"), []Version{V1_1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Method != http.MethodPut {
		t.Errorf("expected PUT, got %s", r.Method)
	}
	body, _ := io.ReadAll(r.Body)
	if string(body) != `{"body":"hi","msgtype":"m.text"}` {
		t.Errorf("unexpected body %s", body)
	}
}

func TestToHTTPRequestRawBody(t *testing.T) {
	ep := MustEndpoint[uploadRequest, uploadResponse](uploadMeta)
	req := uploadRequest{ContentType: "image/png", Filename: ptr("cat.png"), File: []byte{0x89, 'P', 'N', 'G'}}
	r, err := ep.ToHTTPRequest(context.Background(), req, "https://example.org", SendIfRequired("tok"), []Version{V1_1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := r.Header.Get("Content-Type"); got != "image/png" {
		t.Errorf("expected image/png, got %s", got)
	}
	if r.URL.RawQuery != "filename=cat.png" {
		t.Errorf("unexpected query %s", r.URL.RawQuery)
	}
	body, _ := io.ReadAll(r.Body)
	if string(body) != "\x89PNG" {
		t.Errorf("unexpected body %q", body)
	}
}

func TestToHTTPRequestInvalidHeader(t *testing.T) {
	ep := MustEndpoint[uploadRequest, uploadResponse](uploadMeta)
	req := uploadRequest{ContentType: "image/png\r\nX-Evil: 1"}
	_, err := ep.ToHTTPRequest(context.Background(), req, "https://example.org", SendIfRequired("tok"), []Version{V1_1})
	var into *IntoHTTPError
	if !errors.As(err, &into) {
		t.Fatalf("expected IntoHTTPError, got %v", err)
	}
	if into.Kind != KindHeader || into.Field != "Content-Type" {
		t.Errorf("expected header error for Content-Type, got %s %q", into.Kind, into.Field)
	}
}

func TestToHTTPRequestQueryMap(t *testing.T) {
	ep := MustEndpoint[searchRequest, searchResponse](searchMeta)
	req := searchRequest{Params: map[string]string{"fields": "name", "term": "a b"}}
	r, err := ep.ToHTTPRequest(context.Background(), req, "https://as.example.org", SendIfRequired("hs_token"), []Version{V1_0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.URL.RawQuery != "access_token=hs_token&fields=name&term=a+b" {
		t.Errorf("unexpected query %s", r.URL.RawQuery)
	}
	if r.Header.Get("Authorization") != "" {
		t.Errorf("expected no Authorization header, got %s", r.Header.Get("Authorization"))
	}
}

func TestToHTTPRequestAuthentication(t *testing.T) {
	policies := map[string]SendAccessToken{
		"always":      AlwaysSend("tok"),
		"if required": SendIfRequired("tok"),
		"never":       NeverSend(),
	}
	schemes := []AuthScheme{AuthNone, AuthAccessToken, AuthServerSignatures, AuthQueryOnlyAccessToken}

	for _, scheme := range schemes {
		for name, policy := range policies {
			t.Run(scheme.String()+"/"+name, func(t *testing.T) {
				meta := Metadata{
					Name:           "whoami",
					Method:         http.MethodGet,
					Authentication: scheme,
					Paths:          []PathCandidate{StablePath("/_matrix/client/v3/account/whoami", V1_0)},
				}
				ep := MustEndpoint[struct{}, struct{}](meta)
				r, err := ep.ToHTTPRequest(context.Background(), struct{}{}, "https://example.org", policy, []Version{V1_0})

				wantNeedsAuth := scheme != AuthNone && name == "never"
				if got := errors.Is(err, ErrNeedsAuthentication); got != wantNeedsAuth {
					t.Fatalf("expected NeedsAuthentication=%v, got error %v", wantNeedsAuth, err)
				}
				if wantNeedsAuth {
					return
				}
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}

				authz := r.Header.Get("Authorization")
				query := r.URL.Query().Get("access_token")
				switch scheme {
				case AuthNone:
					if authz != "" || query != "" {
						t.Errorf("expected no token, got header %q query %q", authz, query)
					}
				case AuthAccessToken:
					if authz != "Bearer tok" {
						t.Errorf("expected bearer header, got %q", authz)
					}
				case AuthServerSignatures:
					if authz != "X-Matrix tok" {
						t.Errorf("expected X-Matrix header, got %q", authz)
					}
				case AuthQueryOnlyAccessToken:
					if query != "tok" || authz != "" {
						t.Errorf("expected query token only, got header %q query %q", authz, query)
					}
				}
			})
		}
	}
}

func TestToHTTPRequestNoMatchingPath(t *testing.T) {
	meta := relationsMeta
	meta.Paths = meta.Paths[:1]
	ep := MustEndpoint[relationsRequest, relationsResponse](meta)
	_, err := ep.ToHTTPRequest(context.Background(), relationsRequest{RoomID: "!r:x", EventID: "$e"}, "https://example.org", SendIfRequired("tok"), []Version{V1_0})
	var noPath *NoMatchingPathError
	if !errors.As(err, &noPath) {
		t.Fatalf("expected NoMatchingPathError, got %v", err)
	}
}

func TestToHTTPRequestMissingPath(t *testing.T) {
	ep := MustEndpoint[joinRequest, joinResponse](joinMeta)
	_, err := ep.ToHTTPRequest(context.Background(), joinRequest{}, "https://example.org", SendIfRequired("tok"), []Version{V1_1})
	var into *IntoHTTPError
	if !errors.As(err, &into) || into.Kind != KindPath {
		t.Fatalf("expected path IntoHTTPError, got %v", err)
	}
}

func TestFromHTTPRequestRelations(t *testing.T) {
	ep := MustEndpoint[relationsRequest, relationsResponse](relationsMeta)

	r := httptest.NewRequest(http.MethodGet, "/ignored?from=abc&limit=10&unknown=x", nil)
	got, err := ep.FromHTTPRequest(r, []string{"!room:example.org", "$ev:example.org", "m.reference"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := relationsRequest{
		RoomID:  "!room:example.org",
		EventID: "$ev:example.org",
		RelType: ptr("m.reference"),
		From:    ptr("abc"),
		Limit:   ptr(uint(10)),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestFromHTTPRequestErrors(t *testing.T) {
	relations := MustEndpoint[relationsRequest, relationsResponse](relationsMeta)
	join := MustEndpoint[joinRequest, joinResponse](joinMeta)
	upload := MustEndpoint[uploadRequest, uploadResponse](uploadMeta)

	tests := []struct {
		name      string
		convert   func() error
		wantKind  ErrorKind
		wantField string
	}{
		{
			name: "too few path args",
			convert: func() error {
				_, err := relations.FromHTTPRequest(httptest.NewRequest("GET", "/", nil), []string{"!r:x"})
				return err
			},
			wantKind:  KindPath,
			wantField: "event_id",
		},
		{
			name: "too many path args",
			convert: func() error {
				_, err := relations.FromHTTPRequest(httptest.NewRequest("GET", "/", nil), []string{"a", "b", "c", "d", "e"})
				return err
			},
			wantKind: KindPath,
		},
		{
			name: "malformed query value",
			convert: func() error {
				_, err := relations.FromHTTPRequest(httptest.NewRequest("GET", "/?limit=lots", nil), []string{"!r:x", "$e"})
				return err
			},
			wantKind:  KindQuery,
			wantField: "limit",
		},
		{
			name: "malformed body",
			convert: func() error {
				_, err := join.FromHTTPRequest(httptest.NewRequest("POST", "/", strings.NewReader("{not json")), []string{"!r:x"})
				return err
			},
			wantKind: KindBody,
		},
		{
			name: "wrong body field type",
			convert: func() error {
				_, err := join.FromHTTPRequest(httptest.NewRequest("POST", "/", strings.NewReader(`{"reason":5}`)), []string{"!r:x"})
				return err
			},
			wantKind: KindBody,
		},
		{
			name: "missing header",
			convert: func() error {
				_, err := upload.FromHTTPRequest(httptest.NewRequest("POST", "/", strings.NewReader("data")), nil)
				return err
			},
			wantKind:  KindHeader,
			wantField: "Content-Type",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.convert()
			var reqErr *FromHTTPRequestError
			if !errors.As(err, &reqErr) {
				t.Fatalf("expected FromHTTPRequestError, got %v", err)
			}
			if reqErr.Kind != tt.wantKind {
				t.Errorf("expected kind %s, got %s", tt.wantKind, reqErr.Kind)
			}
			if tt.wantField != "" && reqErr.Field != tt.wantField {
				t.Errorf("expected field %s, got %s", tt.wantField, reqErr.Field)
			}
		})
	}
}

func TestFromHTTPRequestEmptyBody(t *testing.T) {
	ep := MustEndpoint[joinRequest, joinResponse](joinMeta)
	got, err := ep.FromHTTPRequest(httptest.NewRequest("POST", "/", nil), []string{"!r:x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.RoomID != "!r:x" || got.Reason != "" {
		t.Errorf("unexpected request %+v", got)
	}
}

func TestFromHTTPRequestValidation(t *testing.T) {
	type request struct {
		Limit int `query:"limit" validate:"min=1,max=100"`
	}
	ep := MustEndpoint[request, struct{}](Metadata{
		Name:   "validated",
		Method: http.MethodGet,
		Paths:  []PathCandidate{StablePath("/v3/validated", V1_0)},
	})

	_, err := ep.FromHTTPRequest(httptest.NewRequest("GET", "/?limit=500", nil), nil)
	var reqErr *FromHTTPRequestError
	if !errors.As(err, &reqErr) || reqErr.Kind != KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = ep.FromHTTPRequest(httptest.NewRequest("GET", "/", nil), nil)
	if !errors.As(err, &reqErr) || reqErr.Kind != KindQuery || !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected missing query field, got %v", err)
	}
}

func TestFromHTTPRequestQueryMap(t *testing.T) {
	ep := MustEndpoint[searchRequest, searchResponse](searchMeta)
	r := httptest.NewRequest("GET", "/?access_token=secret&fields=name&term=a+b", nil)
	got, err := ep.FromHTTPRequest(r, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]string{"fields": "name", "term": "a b"}
	if !reflect.DeepEqual(got.Params, want) {
		t.Errorf("expected %v, got %v", want, got.Params)
	}
}

// roundTrip sends req through the outgoing conversion and back through the
// incoming one, extracting path arguments from the built URL.
func roundTrip[Req, Resp any](t *testing.T, ep *Endpoint[Req, Resp], req Req, versions []Version) Req {
	t.Helper()
	r, err := ep.ToHTTPRequest(context.Background(), req, "https://example.org", SendIfRequired("tok"), versions)
	if err != nil {
		t.Fatalf("ToHTTPRequest: %v", err)
	}
	var args []string
	matched := false
	for _, tpl := range ep.PathTemplates() {
		if args, matched = tpl.Match(r.URL.EscapedPath()); matched {
			break
		}
	}
	if !matched {
		t.Fatalf("no template matches %s", r.URL.EscapedPath())
	}
	got, err := ep.FromHTTPRequest(r, args)
	if err != nil {
		t.Fatalf("FromHTTPRequest: %v", err)
	}
	return got
}

func TestRequestRoundTrip(t *testing.T) {
	t.Run("relations", func(t *testing.T) {
		ep := MustEndpoint[relationsRequest, relationsResponse](relationsMeta)
		for _, req := range []relationsRequest{
			{RoomID: "!r:x", EventID: "$e"},
			{RoomID: "!r/slash:x", EventID: "$e?q", RelType: ptr("m.thread")},
			{RoomID: "!r:x", EventID: "$e", RelType: ptr("m.annotation"), EventType: ptr("m.reaction"), From: ptr("f"), To: ptr("t"), Limit: ptr(uint(0))},
		} {
			for _, versions := range [][]Version{{V1_0}, {V1_2}} {
				if got := roundTrip(t, ep, req, versions); !reflect.DeepEqual(got, req) {
					t.Errorf("expected %+v, got %+v", req, got)
				}
			}
		}
	})

	t.Run("join", func(t *testing.T) {
		ep := MustEndpoint[joinRequest, joinResponse](joinMeta)
		req := joinRequest{RoomID: "!r:x", Reason: "because"}
		if got := roundTrip(t, ep, req, []Version{V1_2}); !reflect.DeepEqual(got, req) {
			t.Errorf("expected %+v, got %+v", req, got)
		}
	})

	t.Run("send", func(t *testing.T) {
		ep := MustEndpoint[sendRequest, sendResponse](sendMeta)
		req := sendRequest{RoomID: "!r:x", EventType: "m.room.message", TxnID: "t/1", Content: json.RawMessage(`{"body":"hi"}`)}
		if got := roundTrip(t, ep, req, []Version{V1_1}); !reflect.DeepEqual(got, req) {
			t.Errorf("expected %+v, got %+v", req, got)
		}
	})

	t.Run("upload", func(t *testing.T) {
		ep := MustEndpoint[uploadRequest, uploadResponse](uploadMeta)
		req := uploadRequest{ContentType: "text/plain", Filename: ptr("a b.txt"), File: []byte("hello")}
		if got := roundTrip(t, ep, req, []Version{V1_1}); !reflect.DeepEqual(got, req) {
			t.Errorf("expected %+v, got %+v", req, got)
		}
	})
}

func TestNewEndpointRejectsInvalidTables(t *testing.T) {
	postMeta := func(paths ...PathCandidate) Metadata {
		return Metadata{Name: "bad", Method: http.MethodPost, Paths: paths}
	}
	simple := postMeta(StablePath("/v3/x/:id", V1_0))

	tests := []struct {
		name  string
		build func() error
	}{
		{"body and raw body", func() error {
			type req struct {
				ID   string `path:"id"`
				Name string `json:"name"`
				Raw  []byte `mxapi:"raw_body"`
			}
			_, err := NewEndpoint[req, struct{}](simple)
			return err
		}},
		{"two newtype bodies", func() error {
			type req struct {
				ID string         `path:"id"`
				A  map[string]any `mxapi:"body"`
				B  map[string]any `mxapi:"body"`
			}
			_, err := NewEndpoint[req, struct{}](simple)
			return err
		}},
		{"query map with query fields", func() error {
			type req struct {
				ID  string            `path:"id"`
				Q   string            `query:"q"`
				All map[string]string `mxapi:"query_map"`
			}
			_, err := NewEndpoint[req, struct{}](simple)
			return err
		}},
		{"path field missing", func() error {
			type req struct{}
			_, err := NewEndpoint[req, struct{}](simple)
			return err
		}},
		{"path field misnamed", func() error {
			type req struct {
				ID string `path:"identifier"`
			}
			_, err := NewEndpoint[req, struct{}](simple)
			return err
		}},
		{"optional before required path field", func() error {
			type req struct {
				A *string `path:"a"`
				B string  `path:"b"`
			}
			_, err := NewEndpoint[req, struct{}](postMeta(StablePath("/v3/:a/:b", V1_0)))
			return err
		}},
		{"embedded field", func() error {
			type Inner struct{ X string }
			type req struct {
				Inner
				ID string `path:"id"`
			}
			_, err := NewEndpoint[req, struct{}](simple)
			return err
		}},
		{"GET with body", func() error {
			type req struct {
				ID   string `path:"id"`
				Name string `json:"name"`
			}
			meta := simple
			meta.Method = http.MethodGet
			_, err := NewEndpoint[req, struct{}](meta)
			return err
		}},
		{"non-string header", func() error {
			type req struct {
				ID  string `path:"id"`
				Len int    `header:"Content-Length"`
			}
			_, err := NewEndpoint[req, struct{}](simple)
			return err
		}},
		{"response path field", func() error {
			type req struct {
				ID string `path:"id"`
			}
			type resp struct {
				ID string `path:"id"`
			}
			_, err := NewEndpoint[req, resp](simple)
			return err
		}},
		{"non-struct request", func() error {
			_, err := NewEndpoint[string, struct{}](postMeta(StablePath("/v3/x", V1_0)))
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.build(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestEndpointFields(t *testing.T) {
	ep := MustEndpoint[relationsRequest, relationsResponse](relationsMeta)
	infos := ep.RequestFields()
	if len(infos) != 7 {
		t.Fatalf("expected 7 fields, got %d", len(infos))
	}
	if infos[0].Name != "room_id" || infos[0].Location != InPath || infos[0].Optional {
		t.Errorf("unexpected first field %+v", infos[0])
	}
	if infos[2].Name != "rel_type" || !infos[2].Optional {
		t.Errorf("expected optional rel_type, got %+v", infos[2])
	}
	if ep.OptionalPathParams() != 2 {
		t.Errorf("expected 2 optional path params, got %d", ep.OptionalPathParams())
	}
	if ep.RequestBodyType() != nil {
		t.Errorf("expected no request body type, got %v", ep.RequestBodyType())
	}
	if bt := ep.ResponseBodyType(); bt == nil || bt.NumField() != 3 {
		t.Errorf("expected response body type with 3 fields, got %v", bt)
	}
}
