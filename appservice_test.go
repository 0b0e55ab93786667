package mxapi

import (
	"context"
	"net/http"
	"testing"
)

func TestWithUserID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"no query", "https://example.org/_matrix/client/v3/account/whoami", "user_id=%40bot%3Aexample.org"},
		{"existing query", "https://example.org/_matrix/client/v3/sync?since=s1", "since=s1&user_id=%40bot%3Aexample.org"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := http.NewRequest(http.MethodGet, tt.url, nil)
			if err != nil {
				t.Fatal(err)
			}
			out := WithUserID(r, "@bot:example.org")
			if out.URL.RawQuery != tt.want {
				t.Errorf("expected query %s, got %s", tt.want, out.URL.RawQuery)
			}
			if r.URL.RawQuery == out.URL.RawQuery {
				t.Error("expected original request to be left unchanged")
			}
		})
	}
}

func TestToHTTPRequestWithUserID(t *testing.T) {
	ep := MustEndpoint[relationsRequest, relationsResponse](relationsMeta)
	req := relationsRequest{RoomID: "!r:x", EventID: "$e", Limit: ptr(uint(5))}

	r, err := ep.ToHTTPRequestWithUserID(context.Background(), req, "https://example.org", SendIfRequired("as_token"), []Version{V1_2}, "@bot:example.org")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.URL.RawQuery != "limit=5&user_id=%40bot%3Aexample.org" {
		t.Errorf("unexpected query %s", r.URL.RawQuery)
	}
	if r.Header.Get("Authorization") != "Bearer as_token" {
		t.Errorf("expected bearer token, got %s", r.Header.Get("Authorization"))
	}

	_, err = ep.ToHTTPRequestWithUserID(context.Background(), req, "https://example.org", NeverSend(), []Version{V1_2}, "@bot:example.org")
	if err == nil {
		t.Error("expected the underlying conversion error")
	}
}
