// Package fields classifies the fields of request and response structs by
// where they live in an HTTP message.
//
// Struct tags:
//
//	path:"room_id"           path segment for placeholder :room_id
//	query:"from,omitempty"   query parameter
//	header:"Content-Type"    header value (string or *string)
//	mxapi:"query_map"        every query pair (map[string]string or map[string][]string)
//	mxapi:"body"             the whole JSON body
//	mxapi:"raw_body"         the whole body as bytes ([]byte)
//
// Any other exported field is a member of the JSON body object, named by its
// json tag.
package fields

import (
	"fmt"
	"reflect"
	"strings"
)

// Kind is where a field is carried.
type Kind int

const (
	Path Kind = iota
	Query
	QueryMap
	Header
	Body
	NewtypeBody
	RawBody
)

func (k Kind) String() string {
	switch k {
	case Path:
		return "path"
	case Query:
		return "query"
	case QueryMap:
		return "query_map"
	case Header:
		return "header"
	case Body:
		return "body"
	case NewtypeBody:
		return "newtype body"
	case RawBody:
		return "raw body"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Field is one classified struct field.
type Field struct {
	// Name is the wire name: placeholder, query key, header name or JSON key.
	Name   string
	GoName string
	Index  int
	Kind   Kind
	Type   reflect.Type
	// Optional fields may be absent on the wire.
	Optional bool
	// tag is the original struct tag, reused for projections.
	tag reflect.StructTag
}

// Table is the classification of a struct type.
type Table struct {
	Type     reflect.Type
	Path     []Field
	Query    []Field
	QueryMap *Field
	Header   []Field
	Body     []Field
	Newtype  *Field
	Raw      *Field

	pathType  reflect.Type
	queryType reflect.Type
	bodyType  reflect.Type
}

var (
	bytesType          = reflect.TypeOf([]byte(nil))
	stringMapType      = reflect.TypeOf(map[string]string(nil))
	stringSliceMapType = reflect.TypeOf(map[string][]string(nil))
)

// Build classifies the fields of t, which must be a struct type.
func Build(t reflect.Type) (*Table, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%s: must be a struct, got %s", t, t.Kind())
	}
	tbl := &Table{Type: t}

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		if sf.Anonymous {
			return nil, fmt.Errorf("%s.%s: embedded fields are not supported", t, sf.Name)
		}
		f, skip, err := classify(sf, i)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t, sf.Name, err)
		}
		if skip {
			continue
		}
		switch f.Kind {
		case Path:
			tbl.Path = append(tbl.Path, f)
		case Query:
			tbl.Query = append(tbl.Query, f)
		case QueryMap:
			if tbl.QueryMap != nil {
				return nil, fmt.Errorf("%s: more than one query_map field", t)
			}
			tbl.QueryMap = &f
		case Header:
			tbl.Header = append(tbl.Header, f)
		case Body:
			tbl.Body = append(tbl.Body, f)
		case NewtypeBody:
			if tbl.Newtype != nil {
				return nil, fmt.Errorf("%s: more than one body field", t)
			}
			tbl.Newtype = &f
		case RawBody:
			if tbl.Raw != nil {
				return nil, fmt.Errorf("%s: more than one raw_body field", t)
			}
			tbl.Raw = &f
		}
	}

	if err := tbl.check(); err != nil {
		return nil, err
	}

	tbl.pathType = project(tbl.Path, "path", true)
	tbl.queryType = project(tbl.Query, "query", true)
	tbl.bodyType = project(tbl.Body, "", false)
	return tbl, nil
}

func classify(sf reflect.StructField, index int) (Field, bool, error) {
	f := Field{GoName: sf.Name, Index: index, Type: sf.Type, tag: sf.Tag}

	if special, ok := sf.Tag.Lookup("mxapi"); ok {
		switch special {
		case "query_map":
			if sf.Type != stringMapType && sf.Type != stringSliceMapType {
				return f, false, fmt.Errorf("query_map must be map[string]string or map[string][]string, got %s", sf.Type)
			}
			f.Kind, f.Optional = QueryMap, true
		case "body":
			f.Kind = NewtypeBody
			f.Optional = isNillable(sf.Type)
		case "raw_body":
			if sf.Type != bytesType {
				return f, false, fmt.Errorf("raw_body must be []byte, got %s", sf.Type)
			}
			f.Kind, f.Optional = RawBody, true
		default:
			return f, false, fmt.Errorf("unknown mxapi tag %q", special)
		}
		return f, false, nil
	}

	if name, ok := sf.Tag.Lookup("path"); ok {
		f.Kind, f.Name = Path, name
		f.Optional = sf.Type.Kind() == reflect.Pointer
		if name == "" {
			return f, false, fmt.Errorf("empty path tag")
		}
		return f, false, nil
	}

	if tag, ok := sf.Tag.Lookup("query"); ok {
		name, opts, _ := strings.Cut(tag, ",")
		if name == "" || name == "-" {
			return f, true, nil
		}
		f.Kind, f.Name = Query, name
		f.Optional = isNillable(sf.Type) || strings.Contains(opts, "omitempty")
		return f, false, nil
	}

	if name, ok := sf.Tag.Lookup("header"); ok {
		f.Kind, f.Name = Header, name
		switch {
		case sf.Type.Kind() == reflect.String:
		case sf.Type.Kind() == reflect.Pointer && sf.Type.Elem().Kind() == reflect.String:
			f.Optional = true
		default:
			return f, false, fmt.Errorf("header fields must be string or *string, got %s", sf.Type)
		}
		if name == "" {
			return f, false, fmt.Errorf("empty header tag")
		}
		return f, false, nil
	}

	tag := sf.Tag.Get("json")
	name, opts, _ := strings.Cut(tag, ",")
	if name == "-" && opts == "" {
		return f, true, nil
	}
	if name == "" {
		name = sf.Name
	}
	f.Kind, f.Name = Body, name
	f.Optional = isNillable(sf.Type) || strings.Contains(opts, "omitempty")
	return f, false, nil
}

func isNillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
		return true
	default:
		return false
	}
}

func (t *Table) check() error {
	bodies := 0
	if len(t.Body) > 0 {
		bodies++
	}
	if t.Newtype != nil {
		bodies++
	}
	if t.Raw != nil {
		bodies++
	}
	if bodies > 1 {
		return fmt.Errorf("%s: body, raw_body and named body fields are mutually exclusive", t.Type)
	}
	if t.QueryMap != nil && len(t.Query) > 0 {
		return fmt.Errorf("%s: query_map cannot be combined with query fields", t.Type)
	}
	seenOptional := false
	for _, f := range t.Path {
		if f.Optional {
			seenOptional = true
		} else if seenOptional {
			return fmt.Errorf("%s.%s: required path field after optional one", t.Type, f.GoName)
		}
	}
	return nil
}

// CheckPath verifies that the path fields cover exactly the placeholders of
// a template, in order.
func (t *Table) CheckPath(params []string) error {
	if len(params) != len(t.Path) {
		return fmt.Errorf("%s: %d path fields for %d placeholders %v", t.Type, len(t.Path), len(params), params)
	}
	for i, p := range params {
		if t.Path[i].Name != p {
			return fmt.Errorf("%s.%s: path field %q does not match placeholder %q at position %d",
				t.Type, t.Path[i].GoName, t.Path[i].Name, p, i)
		}
	}
	return nil
}

// HasJSONBody reports whether the body is JSON, either named fields or a
// newtype body.
func (t *Table) HasJSONBody() bool {
	return len(t.Body) > 0 || t.Newtype != nil
}

// HasBody reports whether any field is carried in the body.
func (t *Table) HasBody() bool {
	return t.HasJSONBody() || t.Raw != nil
}

// RequiredPath returns the number of leading required path fields.
func (t *Table) RequiredPath() int {
	n := 0
	for _, f := range t.Path {
		if f.Optional {
			break
		}
		n++
	}
	return n
}

// BodyType returns a struct type holding only the named body fields, with
// their original tags. It is nil when there are none.
func (t *Table) BodyType() reflect.Type { return t.bodyType }

// QueryType returns a struct type holding only the query fields.
func (t *Table) QueryType() reflect.Type { return t.queryType }

// PathType returns a struct type holding only the path fields.
func (t *Table) PathType() reflect.Type { return t.pathType }

// project builds a struct type with the given fields. When aliasTag is set,
// the projection carries only that tag, and optional fields gain omitempty
// so that nil pointers are left out when encoding.
func project(fs []Field, aliasTag string, forceOmitEmpty bool) reflect.Type {
	if len(fs) == 0 {
		return nil
	}
	sfs := make([]reflect.StructField, len(fs))
	for i, f := range fs {
		tag := f.tag
		if aliasTag != "" {
			name := f.Name
			if forceOmitEmpty && f.Optional {
				name += ",omitempty"
			}
			tag = reflect.StructTag(fmt.Sprintf(`%s:%q`, aliasTag, name))
		}
		sfs[i] = reflect.StructField{Name: f.GoName, Type: f.Type, Tag: tag}
	}
	return reflect.StructOf(sfs)
}

// Extract copies the given fields of src, a value of the table's type, into
// a new value of the projection type proj and returns a pointer to it.
func Extract(src reflect.Value, fs []Field, proj reflect.Type) reflect.Value {
	out := reflect.New(proj)
	for i, f := range fs {
		out.Elem().Field(i).Set(src.Field(f.Index))
	}
	return out
}

// Inject copies the fields of proj, a projection value, back into dst.
func Inject(dst reflect.Value, fs []Field, proj reflect.Value) {
	for i, f := range fs {
		dst.Field(f.Index).Set(proj.Field(i))
	}
}
