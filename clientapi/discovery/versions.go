// Package discovery holds the endpoints a client calls before it knows
// anything about a homeserver.
package discovery

import (
	"net/http"

	"github.com/broady/mxapi"
)

// GetSupportedVersionsRequest has no fields.
type GetSupportedVersionsRequest struct{}

// GetSupportedVersionsResponse lists the versions and unstable features a
// server advertises.
type GetSupportedVersionsResponse struct {
	Versions         []string        `json:"versions"`
	UnstableFeatures map[string]bool `json:"unstable_features,omitempty"`
}

// KnownVersions returns the advertised versions this package understands,
// skipping unknown tokens.
func (r GetSupportedVersionsResponse) KnownVersions() []mxapi.Version {
	return mxapi.ParseVersions(r.Versions)
}

// Bootstrap is the version set used to call GetSupportedVersions before
// the server's versions are known.
var Bootstrap = []mxapi.Version{mxapi.V1_0}

// GetSupportedVersions is GET /_matrix/client/versions.
var GetSupportedVersions = mxapi.MustEndpoint[GetSupportedVersionsRequest, GetSupportedVersionsResponse](mxapi.Metadata{
	Name:           "get_supported_versions",
	Description:    "Get the Matrix versions supported by the server.",
	Method:         http.MethodGet,
	Authentication: mxapi.AuthNone,
	Paths: []mxapi.PathCandidate{
		mxapi.StablePath("/_matrix/client/versions", mxapi.V1_0),
	},
})
