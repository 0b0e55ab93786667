// Package pathenc percent-encodes individual path segments.
//
// Segment values are escaped with the NON_ALPHANUMERIC set: every byte other
// than an ASCII letter or digit is encoded. This is stricter than
// url.PathEscape, which leaves sub-delimiters such as ':' and '@' alone and
// would make identifiers like "@alice:example.org" ambiguous.
package pathenc

import (
	"net/url"
	"strings"
)

const upperhex = "0123456789ABCDEF"

// Escape encodes s for use as a single path segment.
func Escape(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !isAlnum(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isAlnum(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

// Unescape decodes a single escaped path segment.
func Unescape(s string) (string, error) {
	return url.PathUnescape(s)
}

func isAlnum(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9'
}
