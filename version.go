package mxapi

import (
	"fmt"
	"strconv"
)

// Version is a released version of the Matrix protocol.
// The zero value means "unset" and is used by Metadata for absent
// deprecation or removal points.
type Version struct {
	major uint8
	minor uint8
}

// Known versions.
var (
	V1_0 = Version{major: 1, minor: 0}
	V1_1 = Version{major: 1, minor: 1}
	V1_2 = Version{major: 1, minor: 2}
)

// KnownVersions lists every version the package understands, oldest first.
var KnownVersions = []Version{V1_0, V1_1, V1_2}

// legacyAliases maps pre-1.0 release tokens onto the canonical version they
// were folded into.
var legacyAliases = map[string]Version{
	"r0.5.0": V1_0,
	"r0.6.0": V1_0,
	"r0.6.1": V1_0,
}

// ParseVersion converts a wire token such as "v1.1" or "r0.6.1" into a Version.
func ParseVersion(s string) (Version, error) {
	if v, ok := legacyAliases[s]; ok {
		return v, nil
	}
	for _, v := range KnownVersions {
		if v.String() == s {
			return v, nil
		}
	}
	return Version{}, &UnknownVersionError{Token: s}
}

// MustParseVersion is like ParseVersion but panics on unknown tokens.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// ParseVersions parses the version list advertised by a server.
// Unknown tokens and duplicates are skipped.
func ParseVersions(tokens []string) []Version {
	out := make([]Version, 0, len(tokens))
	seen := make(map[Version]bool, len(tokens))
	for _, t := range tokens {
		v, err := ParseVersion(t)
		if err != nil || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// Major returns the major component.
func (v Version) Major() uint8 { return v.major }

// Minor returns the minor component.
func (v Version) Minor() uint8 { return v.minor }

// IsZero reports whether v is unset.
func (v Version) IsZero() bool { return v == Version{} }

// String returns the canonical wire form, "vX.Y".
func (v Version) String() string {
	if v.IsZero() {
		return ""
	}
	return "v" + strconv.Itoa(int(v.major)) + "." + strconv.Itoa(int(v.minor))
}

// IsSupersetOf reports whether every feature of other is also available in v.
// Versions of different major releases are never supersets of each other.
func (v Version) IsSupersetOf(other Version) bool {
	switch Compare(v, other) {
	case Greater, Equal:
		return true
	default:
		return false
	}
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := ParseVersion(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Ordering is the result of comparing two versions.
type Ordering int

const (
	Incomparable Ordering = iota
	Less
	Equal
	Greater
)

func (o Ordering) String() string {
	switch o {
	case Less:
		return "less"
	case Equal:
		return "equal"
	case Greater:
		return "greater"
	case Incomparable:
		return "incomparable"
	default:
		return fmt.Sprintf("Ordering(%d)", int(o))
	}
}

// Compare orders two versions. Versions are only ordered within the same
// major release; across majors the result is Incomparable.
func Compare(a, b Version) Ordering {
	if a.major != b.major {
		return Incomparable
	}
	switch {
	case a.minor < b.minor:
		return Less
	case a.minor > b.minor:
		return Greater
	default:
		return Equal
	}
}
