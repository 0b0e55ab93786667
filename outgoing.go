package mxapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"golang.org/x/net/http/httpguts"
)

const accessTokenParam = "access_token"

// ToHTTPRequest builds the HTTP request for req. The path is chosen from
// the endpoint's candidates with SelectPath over versions, and the access
// token is attached according to the endpoint's AuthScheme and tok.
func (e *Endpoint[Req, Resp]) ToHTTPRequest(ctx context.Context, req Req, baseURL string, tok SendAccessToken, versions []Version) (*http.Request, error) {
	i, err := selectCandidate(versions, e.meta)
	if err != nil {
		return nil, &IntoHTTPError{Kind: KindVersion, Err: err}
	}
	tpl := e.templates[i]

	v := reflect.ValueOf(req)

	args, ferr := encodePath(e.req, v)
	if ferr != nil {
		return nil, ferr.into()
	}

	query := url.Values{}
	if ferr := encodeQuery(e.req, v, query); ferr != nil {
		return nil, ferr.into()
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")

	if err := e.authenticate(tok, header, query); err != nil {
		return nil, err
	}

	// Header fields go last so an explicit Content-Type wins.
	if ferr := encodeHeaders(e.req, v, header); ferr != nil {
		return nil, ferr.into()
	}

	body, hasBody, ferr := encodeBody(e.req, v)
	if ferr != nil {
		return nil, ferr.into()
	}
	if !hasBody && e.meta.AllowsBody() {
		body = []byte("{}")
	}

	target := strings.TrimSuffix(baseURL, "/") + tpl.Expand(args)
	if q := query.Encode(); q != "" {
		target += "?" + q
	}

	var r io.Reader
	if len(body) > 0 {
		r = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, e.meta.Method, target, r)
	if err != nil {
		return nil, &IntoHTTPError{Kind: KindURL, Err: err}
	}
	httpReq.Header = header
	return httpReq, nil
}

func (e *Endpoint[Req, Resp]) authenticate(tok SendAccessToken, header http.Header, query url.Values) error {
	if e.meta.Authentication == AuthNone {
		return nil
	}
	token, ok := tok.RequiredForEndpoint()
	if !ok {
		return &IntoHTTPError{Kind: KindAuth, Err: ErrNeedsAuthentication}
	}

	switch e.meta.Authentication {
	case AuthAccessToken:
		return setAuthorization(header, "Bearer "+token)
	case AuthServerSignatures:
		return setAuthorization(header, "X-Matrix "+token)
	case AuthQueryOnlyAccessToken:
		query.Set(accessTokenParam, token)
		return nil
	default:
		return &IntoHTTPError{Kind: KindAuth, Err: fmt.Errorf("unsupported auth scheme %s", e.meta.Authentication)}
	}
}

func setAuthorization(header http.Header, value string) error {
	if !httpguts.ValidHeaderFieldValue(value) {
		return &IntoHTTPError{Kind: KindHeader, Field: "Authorization", Err: fmt.Errorf("invalid access token")}
	}
	header.Set("Authorization", value)
	return nil
}
