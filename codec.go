package mxapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"sort"

	"github.com/broady/mxapi/internal/fields"
	"github.com/gorilla/schema"
	"golang.org/x/net/http/httpguts"
)

var (
	pathEncoder  = newEncoder("path")
	queryEncoder = newEncoder("query")
	pathDecoder  = newDecoder("path")
	queryDecoder = newDecoder("query")
)

func newEncoder(tag string) *schema.Encoder {
	e := schema.NewEncoder()
	e.SetAliasTag(tag)
	return e
}

func newDecoder(tag string) *schema.Decoder {
	d := schema.NewDecoder()
	d.SetAliasTag(tag)
	d.IgnoreUnknownKeys(true)
	return d
}

// fieldError is a conversion failure tied to one field.
type fieldError struct {
	kind  ErrorKind
	field string
	err   error
}

func missing(kind ErrorKind, name string) *fieldError {
	return &fieldError{kind: kind, field: name, err: ErrMissingField}
}

func (e *fieldError) into() error {
	return &IntoHTTPError{Kind: e.kind, Field: e.field, Err: e.err}
}

func (e *fieldError) fromRequest() error {
	return &FromHTTPRequestError{Kind: e.kind, Field: e.field, Err: e.err}
}

func (e *fieldError) deserialization() error {
	return &DeserializationError{Kind: e.kind, Field: e.field, Err: e.err}
}

// schemaError picks the field name out of a gorilla/schema error.
func schemaError(kind ErrorKind, err error) *fieldError {
	var multi schema.MultiError
	if errors.As(err, &multi) && len(multi) > 0 {
		keys := make([]string, 0, len(multi))
		for k := range multi {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return &fieldError{kind: kind, field: keys[0], err: multi[keys[0]]}
	}
	var conv schema.ConversionError
	if errors.As(err, &conv) {
		return &fieldError{kind: kind, field: conv.Key, err: conv.Err}
	}
	return &fieldError{kind: kind, err: err}
}

// encodePath returns the string form of each path field, in template order,
// stopping at the first absent optional field.
func encodePath(tbl *fields.Table, v reflect.Value) ([]string, *fieldError) {
	if len(tbl.Path) == 0 {
		return nil, nil
	}
	vals := make(map[string][]string, len(tbl.Path))
	proj := fields.Extract(v, tbl.Path, tbl.PathType())
	if err := pathEncoder.Encode(proj.Interface(), vals); err != nil {
		return nil, schemaError(KindPath, err)
	}
	args := make([]string, 0, len(tbl.Path))
	for _, f := range tbl.Path {
		vs := vals[f.Name]
		if len(vs) == 0 {
			if f.Optional {
				break
			}
			return nil, missing(KindPath, f.Name)
		}
		if vs[0] == "" {
			return nil, &fieldError{kind: KindPath, field: f.Name, err: errors.New("empty path segment")}
		}
		args = append(args, vs[0])
	}
	return args, nil
}

// decodePath sets path fields from positional, already-decoded arguments.
func decodePath(tbl *fields.Table, dst reflect.Value, args []string) *fieldError {
	if len(args) > len(tbl.Path) {
		return &fieldError{kind: KindPath, err: fmt.Errorf("got %d path arguments, want at most %d", len(args), len(tbl.Path))}
	}
	if req := tbl.RequiredPath(); len(args) < req {
		return missing(KindPath, tbl.Path[len(args)].Name)
	}
	if len(tbl.Path) == 0 {
		return nil
	}
	vals := make(map[string][]string, len(args))
	for i, a := range args {
		if a == "" {
			return &fieldError{kind: KindPath, field: tbl.Path[i].Name, err: errors.New("empty path segment")}
		}
		vals[tbl.Path[i].Name] = []string{a}
	}
	proj := reflect.New(tbl.PathType())
	if err := pathDecoder.Decode(proj.Interface(), vals); err != nil {
		return schemaError(KindPath, err)
	}
	fields.Inject(dst, tbl.Path, proj.Elem())
	return nil
}

// encodeQuery adds query fields and query map pairs of v to q.
func encodeQuery(tbl *fields.Table, v reflect.Value, q url.Values) *fieldError {
	if len(tbl.Query) > 0 {
		proj := fields.Extract(v, tbl.Query, tbl.QueryType())
		if err := queryEncoder.Encode(proj.Interface(), q); err != nil {
			return schemaError(KindQuery, err)
		}
	}
	if tbl.QueryMap != nil {
		switch m := v.Field(tbl.QueryMap.Index).Interface().(type) {
		case map[string]string:
			for k, val := range m {
				q.Add(k, val)
			}
		case map[string][]string:
			for k, vs := range m {
				for _, val := range vs {
					q.Add(k, val)
				}
			}
		}
	}
	return nil
}

// decodeQuery sets query fields of dst from q. Unknown keys are ignored.
func decodeQuery(tbl *fields.Table, dst reflect.Value, q url.Values) *fieldError {
	if len(tbl.Query) > 0 {
		for _, f := range tbl.Query {
			if _, ok := q[f.Name]; !ok && !f.Optional {
				return missing(KindQuery, f.Name)
			}
		}
		proj := reflect.New(tbl.QueryType())
		if err := queryDecoder.Decode(proj.Interface(), q); err != nil {
			return schemaError(KindQuery, err)
		}
		fields.Inject(dst, tbl.Query, proj.Elem())
	}
	if tbl.QueryMap != nil {
		field := dst.Field(tbl.QueryMap.Index)
		switch field.Interface().(type) {
		case map[string]string:
			m := make(map[string]string, len(q))
			for k, vs := range q {
				if k == accessTokenParam || len(vs) == 0 {
					continue
				}
				m[k] = vs[0]
			}
			field.Set(reflect.ValueOf(m))
		case map[string][]string:
			m := make(map[string][]string, len(q))
			for k, vs := range q {
				if k == accessTokenParam {
					continue
				}
				m[k] = append([]string(nil), vs...)
			}
			field.Set(reflect.ValueOf(m))
		}
	}
	return nil
}

// encodeHeaders sets header fields of v on h.
func encodeHeaders(tbl *fields.Table, v reflect.Value, h http.Header) *fieldError {
	for _, f := range tbl.Header {
		fv := v.Field(f.Index)
		if fv.Kind() == reflect.Pointer {
			if fv.IsNil() {
				continue
			}
			fv = fv.Elem()
		}
		s := fv.String()
		if s == "" && !f.Optional {
			return missing(KindHeader, f.Name)
		}
		if !httpguts.ValidHeaderFieldValue(s) {
			return &fieldError{kind: KindHeader, field: f.Name, err: fmt.Errorf("invalid header value %q", s)}
		}
		h.Set(f.Name, s)
	}
	return nil
}

// decodeHeaders sets header fields of dst from h.
func decodeHeaders(tbl *fields.Table, dst reflect.Value, h http.Header) *fieldError {
	for _, f := range tbl.Header {
		vs := h.Values(f.Name)
		if len(vs) == 0 {
			if f.Optional {
				continue
			}
			return missing(KindHeader, f.Name)
		}
		fv := dst.Field(f.Index)
		if fv.Kind() == reflect.Pointer {
			p := reflect.New(fv.Type().Elem())
			p.Elem().SetString(vs[0])
			fv.Set(p)
			continue
		}
		fv.SetString(vs[0])
	}
	return nil
}

// encodeBody serializes the body fields of v. ok is false when the type
// has no body fields.
func encodeBody(tbl *fields.Table, v reflect.Value) (body []byte, ok bool, ferr *fieldError) {
	switch {
	case tbl.Raw != nil:
		return v.Field(tbl.Raw.Index).Bytes(), true, nil
	case tbl.Newtype != nil:
		b, err := json.Marshal(v.Field(tbl.Newtype.Index).Interface())
		if err != nil {
			return nil, true, &fieldError{kind: KindBody, field: tbl.Newtype.GoName, err: err}
		}
		return b, true, nil
	case len(tbl.Body) > 0:
		proj := fields.Extract(v, tbl.Body, tbl.BodyType())
		b, err := json.Marshal(proj.Interface())
		if err != nil {
			return nil, true, &fieldError{kind: KindBody, err: err}
		}
		return b, true, nil
	default:
		return nil, false, nil
	}
}

// decodeBody sets body fields of dst from data. An empty body is read as an
// empty JSON object.
func decodeBody(tbl *fields.Table, dst reflect.Value, data []byte) *fieldError {
	switch {
	case tbl.Raw != nil:
		dst.Field(tbl.Raw.Index).SetBytes(append([]byte(nil), data...))
	case tbl.Newtype != nil:
		if len(data) == 0 {
			if tbl.Newtype.Optional {
				return nil
			}
			return missing(KindBody, tbl.Newtype.GoName)
		}
		p := reflect.New(tbl.Newtype.Type)
		if err := json.Unmarshal(data, p.Interface()); err != nil {
			return &fieldError{kind: KindBody, err: err}
		}
		dst.Field(tbl.Newtype.Index).Set(p.Elem())
	case len(tbl.Body) > 0:
		if len(data) == 0 {
			data = []byte("{}")
		}
		var present map[string]json.RawMessage
		if err := json.Unmarshal(data, &present); err != nil {
			return &fieldError{kind: KindBody, err: err}
		}
		for _, f := range tbl.Body {
			if _, ok := present[f.Name]; !ok && !f.Optional {
				return missing(KindBody, f.Name)
			}
		}
		proj := reflect.New(tbl.BodyType())
		if err := json.Unmarshal(data, proj.Interface()); err != nil {
			return &fieldError{kind: KindBody, err: err}
		}
		fields.Inject(dst, tbl.Body, proj.Elem())
	}
	return nil
}
