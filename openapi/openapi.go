// Package openapi describes endpoints as an OpenAPI 3.0 document.
package openapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/swaggest/jsonschema-go"
	"github.com/swaggest/openapi-go/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/broady/mxapi"
)

// Security scheme names used in the document.
const (
	SchemeBearer     = "accessToken"
	SchemeQueryToken = "accessTokenQuery"
	SchemeXMatrix    = "serverSignatures"
)

var rawMessageType = reflect.TypeOf(json.RawMessage(nil))

// errorBody is the schema of a standard error response.
type errorBody struct {
	Errcode      string `json:"errcode" required:"true" example:"M_FORBIDDEN"`
	Error        string `json:"error" description:"Human readable message"`
	RetryAfterMs int64  `json:"retry_after_ms,omitempty" description:"Set on M_LIMIT_EXCEEDED"`
}

// Build returns a document with one operation per path an endpoint can be
// reached at. Endpoints with optional trailing path parameters get one
// operation per accepted length, since OpenAPI path parameters are always
// required.
func Build(title, version string, eps ...mxapi.Describer) (*openapi3.Spec, error) {
	spec := &openapi3.Spec{
		Openapi: "3.0.3",
		Info: openapi3.Info{
			Title:   title,
			Version: version,
		},
	}

	errResp, err := jsonResponse("Error", reflect.TypeOf(errorBody{}))
	if err != nil {
		return nil, err
	}

	for _, ep := range eps {
		meta := ep.Metadata()
		if err := addSecurityScheme(spec, meta.Authentication); err != nil {
			return nil, err
		}

		for i, tpl := range ep.PathTemplates() {
			params := len(tpl.Params())
			for n := params - ep.OptionalPathParams(); n <= params; n++ {
				op, err := operation(ep, meta.Paths[i], n, params)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", meta.Name, err)
				}
				op.Responses.Default = &errResp
				path := openAPIPath(tpl.Truncate(n))
				if err := spec.AddOperation(meta.Method, path, op); err != nil {
					return nil, fmt.Errorf("%s %s: %w", meta.Method, path, err)
				}
			}
		}
	}
	return spec, nil
}

func operation(ep mxapi.Describer, candidate mxapi.PathCandidate, n, params int) (openapi3.Operation, error) {
	meta := ep.Metadata()

	opID := meta.Name + "_" + candidate.Stability.String()
	if n < params {
		opID += "_" + strconv.Itoa(n)
	}

	var op openapi3.Operation
	op.WithID(opID)
	op.WithTags(candidate.Stability.String())
	if meta.Description != "" {
		op.WithSummary(meta.Description)
	}
	if !meta.Deprecated.IsZero() || candidate.Stability == mxapi.Legacy {
		op.WithDeprecated(true)
	}
	if sec := security(meta.Authentication); sec != nil {
		op.WithSecurity(sec)
	}

	pathSeen := 0
	for _, f := range ep.RequestFields() {
		var in openapi3.ParameterIn
		switch f.Location {
		case mxapi.InPath:
			if pathSeen >= n {
				continue
			}
			pathSeen++
			in = openapi3.ParameterInPath
		case mxapi.InQuery, mxapi.InQueryMap:
			in = openapi3.ParameterInQuery
		case mxapi.InHeader:
			in = openapi3.ParameterInHeader
		default:
			continue
		}
		p, err := parameter(f, in)
		if err != nil {
			return op, err
		}
		op.Parameters = append(op.Parameters, openapi3.ParameterOrRef{Parameter: p})
	}

	body, err := requestBody(ep)
	if err != nil {
		return op, err
	}
	op.RequestBody = body

	resp, err := response(ep)
	if err != nil {
		return op, err
	}
	op.Responses.WithMapOfResponseOrRefValuesItem(strconv.Itoa(http.StatusOK), resp)

	return op, nil
}

func parameter(f mxapi.FieldInfo, in openapi3.ParameterIn) (*openapi3.Parameter, error) {
	name := f.Name
	if name == "" {
		name = f.GoName
	}
	schema, err := schemaFor(f.Type)
	if err != nil {
		return nil, fmt.Errorf("parameter %s: %w", name, err)
	}
	p := &openapi3.Parameter{
		Name:   name,
		In:     in,
		Schema: &schema,
	}
	if in == openapi3.ParameterInPath || !f.Optional {
		p.WithRequired(true)
	}
	return p, nil
}

func requestBody(ep mxapi.Describer) (*openapi3.RequestBodyOrRef, error) {
	for _, f := range ep.RequestFields() {
		if f.Location == mxapi.AsRawBody {
			return &openapi3.RequestBodyOrRef{RequestBody: &openapi3.RequestBody{
				Required: ptr(true),
				Content:  map[string]openapi3.MediaType{"application/octet-stream": binaryMedia()},
			}}, nil
		}
	}

	t := ep.RequestBodyType()
	if t == nil {
		return nil, nil
	}
	schema, err := schemaFor(t)
	if err != nil {
		return nil, fmt.Errorf("request body: %w", err)
	}
	return &openapi3.RequestBodyOrRef{RequestBody: &openapi3.RequestBody{
		Required: ptr(true),
		Content:  map[string]openapi3.MediaType{"application/json": {Schema: &schema}},
	}}, nil
}

func response(ep mxapi.Describer) (openapi3.ResponseOrRef, error) {
	for _, f := range ep.ResponseFields() {
		if f.Location == mxapi.AsRawBody {
			return openapi3.ResponseOrRef{Response: &openapi3.Response{
				Description: http.StatusText(http.StatusOK),
				Content:     map[string]openapi3.MediaType{"application/octet-stream": binaryMedia()},
			}}, nil
		}
	}

	t := ep.ResponseBodyType()
	if t == nil {
		t = reflect.TypeOf(struct{}{})
	}
	return jsonResponse(http.StatusText(http.StatusOK), t)
}

func jsonResponse(description string, t reflect.Type) (openapi3.ResponseOrRef, error) {
	schema, err := schemaFor(t)
	if err != nil {
		return openapi3.ResponseOrRef{}, fmt.Errorf("response body: %w", err)
	}
	return openapi3.ResponseOrRef{Response: &openapi3.Response{
		Description: description,
		Content:     map[string]openapi3.MediaType{"application/json": {Schema: &schema}},
	}}, nil
}

func schemaFor(t reflect.Type) (openapi3.SchemaOrRef, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	var schemaOrRef openapi3.SchemaOrRef
	if t == rawMessageType {
		schemaOrRef.Schema = &openapi3.Schema{}
		return schemaOrRef, nil
	}

	var reflector jsonschema.Reflector
	jsonSchema, err := reflector.Reflect(reflect.New(t).Elem().Interface(), jsonschema.InlineRefs)
	if err != nil {
		return schemaOrRef, err
	}
	schemaOrRef.FromJSONSchema(jsonSchema.ToSchemaOrBool())
	return schemaOrRef, nil
}

func binaryMedia() openapi3.MediaType {
	schema := (&openapi3.Schema{}).WithType(openapi3.SchemaTypeString).WithFormat("binary")
	return openapi3.MediaType{Schema: &openapi3.SchemaOrRef{Schema: schema}}
}

func security(scheme mxapi.AuthScheme) map[string][]string {
	switch scheme {
	case mxapi.AuthAccessToken:
		return map[string][]string{SchemeBearer: {}}
	case mxapi.AuthQueryOnlyAccessToken:
		return map[string][]string{SchemeQueryToken: {}}
	case mxapi.AuthServerSignatures:
		return map[string][]string{SchemeXMatrix: {}}
	default:
		return nil
	}
}

func addSecurityScheme(spec *openapi3.Spec, scheme mxapi.AuthScheme) error {
	var name string
	var s openapi3.SecurityScheme
	switch scheme {
	case mxapi.AuthNone:
		return nil
	case mxapi.AuthAccessToken:
		name = SchemeBearer
		s.HTTPSecurityScheme = &openapi3.HTTPSecurityScheme{Scheme: "bearer"}
	case mxapi.AuthQueryOnlyAccessToken:
		name = SchemeQueryToken
		s.APIKeySecurityScheme = &openapi3.APIKeySecurityScheme{
			Name: "access_token",
			In:   openapi3.APIKeySecuritySchemeInQuery,
		}
	case mxapi.AuthServerSignatures:
		name = SchemeXMatrix
		s.APIKeySecurityScheme = &openapi3.APIKeySecurityScheme{
			Name:        "Authorization",
			In:          openapi3.APIKeySecuritySchemeInHeader,
			Description: ptr("X-Matrix request signature"),
		}
	default:
		return fmt.Errorf("unsupported auth scheme %s", scheme)
	}
	spec.ComponentsEns().SecuritySchemesEns().WithMapOfSecuritySchemeOrRefValuesItem(
		name,
		openapi3.SecuritySchemeOrRef{SecurityScheme: &s},
	)
	return nil
}

// openAPIPath rewrites :name placeholders as {name}.
func openAPIPath(tpl mxapi.PathTemplate) string {
	segs := strings.Split(tpl.String(), "/")
	for i, s := range segs {
		if name, ok := strings.CutPrefix(s, ":"); ok {
			segs[i] = "{" + name + "}"
		}
	}
	return strings.Join(segs, "/")
}

// Format is an output encoding for Write.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// Write encodes spec to w in the given format.
func Write(w io.Writer, spec *openapi3.Spec, format Format) error {
	data, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return err
	}

	switch format {
	case JSON, "":
		_, err = w.Write(append(data, '\n'))
		return err
	case YAML:
		// JSON is a subset of YAML, so the node tree keeps the key order.
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return err
		}
		clearStyle(&node)
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(&node); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// clearStyle drops the flow and quoting styles the JSON input implies.
func clearStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		clearStyle(c)
	}
}

func ptr[T any](v T) *T { return &v }
