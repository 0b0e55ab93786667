package mxapi

import (
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Stability classifies a path candidate.
type Stability int

const (
	// Stable paths were introduced by a released version.
	Stable Stability = iota
	// Legacy paths predate the versioned path scheme (the r0 prefix).
	Legacy
	// Unstable paths are usable against any server before the feature is
	// part of a released version.
	Unstable
)

func (s Stability) String() string {
	switch s {
	case Stable:
		return "stable"
	case Legacy:
		return "legacy"
	case Unstable:
		return "unstable"
	default:
		return fmt.Sprintf("Stability(%d)", int(s))
	}
}

// PathCandidate is one of the URL templates an endpoint is reachable under.
type PathCandidate struct {
	Template  string `validate:"required,startswith=/"`
	Stability Stability
	// Added is the first version this path is valid for. The zero value
	// means the path is not tied to a version.
	Added Version
}

// StablePath returns a stable candidate introduced in added.
func StablePath(template string, added Version) PathCandidate {
	return PathCandidate{Template: template, Stability: Stable, Added: added}
}

// LegacyPath returns a legacy candidate, valid for every 1.x version.
func LegacyPath(template string) PathCandidate {
	return PathCandidate{Template: template, Stability: Legacy, Added: V1_0}
}

// UnstablePath returns an unstable candidate. It matches any version.
func UnstablePath(template string) PathCandidate {
	return PathCandidate{Template: template, Stability: Unstable}
}

// Metadata describes an endpoint: its identity, HTTP method, authentication
// and the paths it can be reached at.
type Metadata struct {
	Name           string `validate:"required"`
	Description    string
	Method         string `validate:"required,oneof=GET POST PUT DELETE PATCH HEAD OPTIONS"`
	RateLimited    bool
	Authentication AuthScheme
	Added          Version
	Deprecated     Version
	Removed        Version
	// Paths lists candidates in priority order: stable, then legacy, then
	// unstable.
	Paths []PathCandidate `validate:"required,min=1,dive"`
}

// Validate checks the metadata for consistency.
func (m Metadata) Validate() error {
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("metadata %q: %w", m.Name, err)
	}

	var errs []error
	var params []string
	seen := make(map[Stability]bool, len(m.Paths))
	for i, c := range m.Paths {
		tpl, err := ParsePathTemplate(c.Template)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if seen[c.Stability] {
			errs = append(errs, fmt.Errorf("more than one %s path", c.Stability))
		}
		seen[c.Stability] = true
		if i > 0 && c.Stability < m.Paths[i-1].Stability {
			errs = append(errs, fmt.Errorf("%s path %q listed after %s path", c.Stability, c.Template, m.Paths[i-1].Stability))
		}
		if c.Stability != Unstable && c.Added.IsZero() {
			errs = append(errs, fmt.Errorf("%s path %q has no added version", c.Stability, c.Template))
		}
		if i == 0 {
			params = tpl.Params()
		} else if !slices.Equal(params, tpl.Params()) {
			errs = append(errs, fmt.Errorf("path %q has parameters %v, want %v", c.Template, tpl.Params(), params))
		}
	}

	if !m.Removed.IsZero() && !m.Added.IsZero() && Compare(m.Removed, m.Added) != Greater {
		errs = append(errs, fmt.Errorf("removed in %s, not after added %s", m.Removed, m.Added))
	}
	if !m.Deprecated.IsZero() && !m.Removed.IsZero() && Compare(m.Removed, m.Deprecated) == Less {
		errs = append(errs, fmt.Errorf("removed in %s, before deprecated %s", m.Removed, m.Deprecated))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("metadata %q: %w", m.Name, err)
	}
	return nil
}

// IsDeprecatedFor reports whether any of versions is at or past the
// deprecation point.
func (m Metadata) IsDeprecatedFor(versions []Version) bool {
	return reached(m.Deprecated, versions)
}

// IsRemovedFor reports whether every one of versions is at or past the
// removal point.
func (m Metadata) IsRemovedFor(versions []Version) bool {
	if m.Removed.IsZero() || len(versions) == 0 {
		return false
	}
	for _, v := range versions {
		if !v.IsSupersetOf(m.Removed) {
			return false
		}
	}
	return true
}

// AllowsBody reports whether requests with this method may carry a body.
func (m Metadata) AllowsBody() bool {
	switch m.Method {
	case http.MethodGet, http.MethodHead:
		return false
	default:
		return true
	}
}

func reached(point Version, versions []Version) bool {
	if point.IsZero() {
		return false
	}
	for _, v := range versions {
		if v.IsSupersetOf(point) {
			return true
		}
	}
	return false
}
