package mxapi

import (
	"fmt"
	"strings"

	"github.com/broady/mxapi/internal/pathenc"
)

// PathTemplate is a parsed URL template such as
// "/_matrix/client/v3/rooms/:room_id/join". Placeholders occupy whole
// segments and start with a colon.
type PathTemplate struct {
	raw      string
	segments []segment
	params   []string
}

type segment struct {
	literal string
	param   string
}

// ParsePathTemplate parses and checks a path template.
func ParsePathTemplate(s string) (PathTemplate, error) {
	if !strings.HasPrefix(s, "/") {
		return PathTemplate{}, fmt.Errorf("path template %q: must start with /", s)
	}
	t := PathTemplate{raw: s}
	seen := make(map[string]bool)
	for _, part := range strings.Split(s[1:], "/") {
		if name, ok := strings.CutPrefix(part, ":"); ok {
			if !validParamName(name) {
				return PathTemplate{}, fmt.Errorf("path template %q: invalid placeholder %q", s, part)
			}
			if seen[name] {
				return PathTemplate{}, fmt.Errorf("path template %q: duplicate placeholder %q", s, name)
			}
			seen[name] = true
			t.segments = append(t.segments, segment{param: name})
			t.params = append(t.params, name)
			continue
		}
		if strings.ContainsAny(part, ":?#") {
			return PathTemplate{}, fmt.Errorf("path template %q: invalid segment %q", s, part)
		}
		t.segments = append(t.segments, segment{literal: part})
	}
	return t, nil
}

// MustParsePathTemplate is like ParsePathTemplate but panics on error.
func MustParsePathTemplate(s string) PathTemplate {
	t, err := ParsePathTemplate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func validParamName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if !('a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' || c == '_') {
			return false
		}
	}
	return true
}

func (t PathTemplate) String() string { return t.raw }

// Params returns placeholder names in template order.
func (t PathTemplate) Params() []string {
	return append([]string(nil), t.params...)
}

// Truncate returns the template cut just before the placeholder at index n.
// It is used to build the shorter forms of paths with optional trailing
// placeholders.
func (t PathTemplate) Truncate(n int) PathTemplate {
	if n >= len(t.params) {
		return t
	}
	out := PathTemplate{}
	var b strings.Builder
	for _, seg := range t.segments {
		if seg.param != "" && len(out.params) == n {
			break
		}
		out.segments = append(out.segments, seg)
		if seg.param != "" {
			out.params = append(out.params, seg.param)
			b.WriteString("/:" + seg.param)
		} else {
			b.WriteString("/" + seg.literal)
		}
	}
	out.raw = b.String()
	return out
}

// Expand substitutes args, in placeholder order, into the template. Each
// value is percent-encoded as a single segment. When fewer args than
// placeholders are given, the path ends before the first missing one.
func (t PathTemplate) Expand(args []string) string {
	var b strings.Builder
	i := 0
	for _, seg := range t.segments {
		if seg.param == "" {
			b.WriteByte('/')
			b.WriteString(seg.literal)
			continue
		}
		if i >= len(args) {
			break
		}
		b.WriteByte('/')
		b.WriteString(pathenc.Escape(args[i]))
		i++
	}
	return b.String()
}

// Match extracts decoded placeholder values from an escaped request path.
// Paths that stop before trailing placeholders match with fewer values.
func (t PathTemplate) Match(escapedPath string) ([]string, bool) {
	if !strings.HasPrefix(escapedPath, "/") {
		return nil, false
	}
	parts := strings.Split(escapedPath[1:], "/")
	if len(parts) > len(t.segments) {
		return nil, false
	}
	if len(parts) < len(t.segments) && t.segments[len(parts)].param == "" {
		return nil, false
	}
	args := make([]string, 0, len(t.params))
	for i, part := range parts {
		seg := t.segments[i]
		if seg.param == "" {
			if part != seg.literal {
				return nil, false
			}
			continue
		}
		v, err := pathenc.Unescape(part)
		if err != nil {
			return nil, false
		}
		args = append(args, v)
	}
	return args, true
}

// SelectPath picks the path template to use for a request to a server that
// supports versions. Candidates are tried in order and the first usable one
// wins, so a stable path is preferred over a legacy one even when both match.
//
// A candidate is usable when some supported version includes the version
// the candidate was added in (candidates without an added version are
// always usable) and that version does not include the endpoint's removal.
// With no versions at all, only unrestricted candidates of endpoints that
// were never removed are usable.
func SelectPath(versions []Version, meta Metadata) (string, error) {
	i, err := selectCandidate(versions, meta)
	if err != nil {
		return "", err
	}
	return meta.Paths[i].Template, nil
}

func selectCandidate(versions []Version, meta Metadata) (int, error) {
	for i, c := range meta.Paths {
		if candidateMatches(c, versions, meta.Removed) {
			return i, nil
		}
	}
	return -1, &NoMatchingPathError{
		Endpoint: meta.Name,
		Versions: append([]Version(nil), versions...),
		Removed:  meta.Removed,
	}
}

func candidateMatches(c PathCandidate, versions []Version, removed Version) bool {
	if len(versions) == 0 {
		return c.Added.IsZero() && removed.IsZero()
	}
	for _, v := range versions {
		if !c.Added.IsZero() && !v.IsSupersetOf(c.Added) {
			continue
		}
		if !removed.IsZero() && v.IsSupersetOf(removed) {
			continue
		}
		return true
	}
	return false
}
