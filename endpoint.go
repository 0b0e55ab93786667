package mxapi

import (
	"fmt"
	"reflect"

	"github.com/broady/mxapi/internal/fields"
	"golang.org/x/net/http/httpguts"
)

// Endpoint converts between the typed request and response of one API
// operation and HTTP messages. Req and Resp are struct types whose fields
// are tagged with their location in the message:
//
//	type Request struct {
//	    RoomID  id.RoomID `path:"room_id"`
//	    From    *string   `query:"from"`
//	    Reason  string    `json:"reason,omitempty"`
//	}
//
// Fields tagged path, query or header are carried in the URL or headers.
// Fields tagged mxapi:"body" or mxapi:"raw_body" are the entire body. All
// other exported fields are members of a JSON body object. Optional path
// fields must be pointers and come last.
//
// An Endpoint is immutable and safe for concurrent use.
type Endpoint[Req, Resp any] struct {
	meta      Metadata
	templates []PathTemplate
	req       *fields.Table
	resp      *fields.Table
	newError  func() EndpointError
}

// EndpointOption configures an Endpoint.
type EndpointOption func(*endpointOptions)

type endpointOptions struct {
	newError func() EndpointError
}

// WithEndpointError sets the constructor for the endpoint's error type.
// The default is *MatrixError.
func WithEndpointError(fn func() EndpointError) EndpointOption {
	return func(o *endpointOptions) {
		o.newError = fn
	}
}

// NewEndpoint validates meta and the field tags of Req and Resp and returns
// an Endpoint implementing all four conversions.
func NewEndpoint[Req, Resp any](meta Metadata, opts ...EndpointOption) (*Endpoint[Req, Resp], error) {
	o := endpointOptions{
		newError: func() EndpointError { return &MatrixError{} },
	}
	for _, opt := range opts {
		opt(&o)
	}

	if err := meta.Validate(); err != nil {
		return nil, err
	}

	templates := make([]PathTemplate, len(meta.Paths))
	for i, c := range meta.Paths {
		t, err := ParsePathTemplate(c.Template)
		if err != nil {
			return nil, err
		}
		templates[i] = t
	}

	reqTbl, err := fields.Build(reflect.TypeFor[Req]())
	if err != nil {
		return nil, fmt.Errorf("endpoint %s: request: %w", meta.Name, err)
	}
	if err := reqTbl.CheckPath(templates[0].Params()); err != nil {
		return nil, fmt.Errorf("endpoint %s: request: %w", meta.Name, err)
	}
	if reqTbl.HasBody() && !meta.AllowsBody() {
		return nil, fmt.Errorf("endpoint %s: %s requests cannot have body fields", meta.Name, meta.Method)
	}

	respTbl, err := fields.Build(reflect.TypeFor[Resp]())
	if err != nil {
		return nil, fmt.Errorf("endpoint %s: response: %w", meta.Name, err)
	}
	if len(respTbl.Path) > 0 || len(respTbl.Query) > 0 || respTbl.QueryMap != nil {
		return nil, fmt.Errorf("endpoint %s: response: path and query fields are not allowed", meta.Name)
	}

	for _, tbl := range []*fields.Table{reqTbl, respTbl} {
		for _, f := range tbl.Header {
			if !httpguts.ValidHeaderFieldName(f.Name) {
				return nil, fmt.Errorf("endpoint %s: %s.%s: invalid header name %q", meta.Name, tbl.Type, f.GoName, f.Name)
			}
		}
	}

	meta.Paths = append([]PathCandidate(nil), meta.Paths...)
	return &Endpoint[Req, Resp]{
		meta:      meta,
		templates: templates,
		req:       reqTbl,
		resp:      respTbl,
		newError:  o.newError,
	}, nil
}

// MustEndpoint is like NewEndpoint but panics on error. It is intended for
// package-level endpoint declarations.
func MustEndpoint[Req, Resp any](meta Metadata, opts ...EndpointOption) *Endpoint[Req, Resp] {
	ep, err := NewEndpoint[Req, Resp](meta, opts...)
	if err != nil {
		panic(err)
	}
	return ep
}

// Metadata returns a copy of the endpoint's metadata.
func (e *Endpoint[Req, Resp]) Metadata() Metadata {
	m := e.meta
	m.Paths = append([]PathCandidate(nil), e.meta.Paths...)
	return m
}

// Name returns the endpoint name.
func (e *Endpoint[Req, Resp]) Name() string { return e.meta.Name }

// PathTemplates returns the parsed path templates in candidate order.
func (e *Endpoint[Req, Resp]) PathTemplates() []PathTemplate {
	return append([]PathTemplate(nil), e.templates...)
}

// OptionalPathParams returns how many trailing path placeholders may be omitted.
func (e *Endpoint[Req, Resp]) OptionalPathParams() int {
	return len(e.req.Path) - e.req.RequiredPath()
}

// RequestType returns the request struct type.
func (e *Endpoint[Req, Resp]) RequestType() reflect.Type { return e.req.Type }

// ResponseType returns the response struct type.
func (e *Endpoint[Req, Resp]) ResponseType() reflect.Type { return e.resp.Type }

// RequestFields describes the request's fields.
func (e *Endpoint[Req, Resp]) RequestFields() []FieldInfo { return fieldInfos(e.req) }

// ResponseFields describes the response's fields.
func (e *Endpoint[Req, Resp]) ResponseFields() []FieldInfo { return fieldInfos(e.resp) }

// RequestBodyType returns a struct type holding the named JSON body fields
// of the request, the newtype body's type, or nil.
func (e *Endpoint[Req, Resp]) RequestBodyType() reflect.Type { return bodyType(e.req) }

// ResponseBodyType is like RequestBodyType for the response.
func (e *Endpoint[Req, Resp]) ResponseBodyType() reflect.Type { return bodyType(e.resp) }

// NewEndpointError returns a fresh value of the endpoint's error type.
func (e *Endpoint[Req, Resp]) NewEndpointError() EndpointError { return e.newError() }

// Describer is the type-erased view of an Endpoint used by routers,
// documentation generators and tools.
type Describer interface {
	Metadata() Metadata
	PathTemplates() []PathTemplate
	OptionalPathParams() int
	RequestType() reflect.Type
	ResponseType() reflect.Type
	RequestFields() []FieldInfo
	ResponseFields() []FieldInfo
	RequestBodyType() reflect.Type
	ResponseBodyType() reflect.Type
}

var _ Describer = (*Endpoint[struct{}, struct{}])(nil)

// FieldLocation is where a field is carried in an HTTP message.
type FieldLocation string

const (
	InPath     FieldLocation = "path"
	InQuery    FieldLocation = "query"
	InQueryMap FieldLocation = "query_map"
	InHeader   FieldLocation = "header"
	InBody     FieldLocation = "body"
	AsBody     FieldLocation = "newtype_body"
	AsRawBody  FieldLocation = "raw_body"
)

// FieldInfo describes a request or response field.
type FieldInfo struct {
	Name     string
	GoName   string
	Location FieldLocation
	Type     reflect.Type
	Optional bool
}

var locations = map[fields.Kind]FieldLocation{
	fields.Path:        InPath,
	fields.Query:       InQuery,
	fields.QueryMap:    InQueryMap,
	fields.Header:      InHeader,
	fields.Body:        InBody,
	fields.NewtypeBody: AsBody,
	fields.RawBody:     AsRawBody,
}

func fieldInfos(t *fields.Table) []FieldInfo {
	var all []fields.Field
	all = append(all, t.Path...)
	all = append(all, t.Query...)
	if t.QueryMap != nil {
		all = append(all, *t.QueryMap)
	}
	all = append(all, t.Header...)
	all = append(all, t.Body...)
	if t.Newtype != nil {
		all = append(all, *t.Newtype)
	}
	if t.Raw != nil {
		all = append(all, *t.Raw)
	}
	out := make([]FieldInfo, len(all))
	for i, f := range all {
		out[i] = FieldInfo{
			Name:     f.Name,
			GoName:   f.GoName,
			Location: locations[f.Kind],
			Type:     f.Type,
			Optional: f.Optional,
		}
	}
	return out
}

func bodyType(t *fields.Table) reflect.Type {
	if t.Newtype != nil {
		return t.Newtype.Type
	}
	return t.BodyType()
}
