package mxapi

import (
	"io"
	"net/http"
	"net/url"
	"reflect"
)

// FromHTTPRequest decodes an incoming request. pathArgs are the values of
// the path placeholders, already percent-decoded and in template order;
// trailing optional placeholders may be left out. Unknown query parameters
// are ignored. After decoding, validate struct tags on Req are checked.
//
// On failure the zero Req is returned with a *FromHTTPRequestError.
func (e *Endpoint[Req, Resp]) FromHTTPRequest(r *http.Request, pathArgs []string) (Req, error) {
	var zero Req
	out := reflect.New(e.req.Type).Elem()

	if ferr := decodePath(e.req, out, pathArgs); ferr != nil {
		return zero, ferr.fromRequest()
	}

	query, err := url.ParseQuery(r.URL.RawQuery)
	if err != nil {
		return zero, &FromHTTPRequestError{Kind: KindQuery, Err: err}
	}
	if ferr := decodeQuery(e.req, out, query); ferr != nil {
		return zero, ferr.fromRequest()
	}

	if ferr := decodeHeaders(e.req, out, r.Header); ferr != nil {
		return zero, ferr.fromRequest()
	}

	if e.req.HasBody() {
		var data []byte
		if r.Body != nil {
			data, err = io.ReadAll(r.Body)
			if err != nil {
				return zero, &FromHTTPRequestError{Kind: KindBody, Err: err}
			}
		}
		if ferr := decodeBody(e.req, out, data); ferr != nil {
			return zero, ferr.fromRequest()
		}
	}

	req := out.Interface().(Req)
	if err := validate.Struct(req); err != nil {
		return zero, &FromHTTPRequestError{Kind: KindValidation, Err: err}
	}
	return req, nil
}
