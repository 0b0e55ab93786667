package mxapi

import (
	"bytes"
	"io"
	"net/http"
	"reflect"
	"strconv"
)

// ToHTTPResponse builds a 200 OK response for resp. A response without
// body fields is sent as an empty JSON object.
func (e *Endpoint[Req, Resp]) ToHTTPResponse(resp Resp) (*http.Response, error) {
	header, body, err := e.encodeResponse(resp)
	if err != nil {
		return nil, err
	}
	return &http.Response{
		Status:        "200 OK",
		StatusCode:    http.StatusOK,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
	}, nil
}

// WriteResponse writes resp to w with status 200 OK.
func (e *Endpoint[Req, Resp]) WriteResponse(w http.ResponseWriter, resp Resp) error {
	header, body, err := e.encodeResponse(resp)
	if err != nil {
		return err
	}
	for k, vs := range header {
		w.Header()[k] = vs
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(body)
	return err
}

func (e *Endpoint[Req, Resp]) encodeResponse(resp Resp) (http.Header, []byte, error) {
	v := reflect.ValueOf(resp)
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	if ferr := encodeHeaders(e.resp, v, header); ferr != nil {
		return nil, nil, ferr.into()
	}
	body, ok, ferr := encodeBody(e.resp, v)
	if ferr != nil {
		return nil, nil, ferr.into()
	}
	if !ok {
		body = []byte("{}")
	}
	return header, body, nil
}

// FromHTTPResponse decodes a response and closes its body.
//
// A 2xx response is decoded into Resp. Any other status is decoded into
// the endpoint's error type and returned as a *ServerError; if the body is
// not a recognizable error, a *UnknownServerError keeps the raw status,
// headers and body. All failures are wrapped in *FromHTTPResponseError.
func (e *Endpoint[Req, Resp]) FromHTTPResponse(r *http.Response) (Resp, error) {
	var zero Resp
	var body []byte
	if r.Body != nil {
		defer r.Body.Close()
		var err error
		body, err = io.ReadAll(r.Body)
		if err != nil {
			return zero, &FromHTTPResponseError{Err: &DeserializationError{Kind: KindBody, Err: err}}
		}
	}

	if r.StatusCode < 200 || r.StatusCode > 299 {
		epErr := e.newError()
		if err := epErr.ReadHTTPResponse(r.StatusCode, r.Header, body); err != nil {
			return zero, &FromHTTPResponseError{Err: &UnknownServerError{
				Status: r.StatusCode,
				Header: r.Header.Clone(),
				Body:   body,
				Err:    err,
			}}
		}
		return zero, &FromHTTPResponseError{Err: &ServerError{Status: r.StatusCode, Err: epErr}}
	}

	out := reflect.New(e.resp.Type).Elem()
	if ferr := decodeHeaders(e.resp, out, r.Header); ferr != nil {
		return zero, &FromHTTPResponseError{Err: ferr.deserialization()}
	}
	if ferr := decodeBody(e.resp, out, body); ferr != nil {
		return zero, &FromHTTPResponseError{Err: ferr.deserialization()}
	}
	return out.Interface().(Resp), nil
}
