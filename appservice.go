package mxapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/broady/mxapi/id"
)

// WithUserID returns a copy of r asserting the identity of userID, as an
// application service does on behalf of its virtual users. The user_id
// query parameter is appended to any existing query string.
func WithUserID(r *http.Request, userID id.UserID) *http.Request {
	out := r.Clone(r.Context())
	param := "user_id=" + url.QueryEscape(string(userID))
	if out.URL.RawQuery == "" {
		out.URL.RawQuery = param
	} else {
		out.URL.RawQuery += "&" + param
	}
	return out
}

// ToHTTPRequestWithUserID is ToHTTPRequest followed by WithUserID.
func (e *Endpoint[Req, Resp]) ToHTTPRequestWithUserID(ctx context.Context, req Req, baseURL string, tok SendAccessToken, versions []Version, userID id.UserID) (*http.Request, error) {
	r, err := e.ToHTTPRequest(ctx, req, baseURL, tok, versions)
	if err != nil {
		return nil, err
	}
	return WithUserID(r, userID), nil
}
