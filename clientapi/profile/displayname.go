// Package profile implements user profile endpoints.
package profile

import (
	"net/http"

	"github.com/broady/mxapi"
	"github.com/broady/mxapi/id"
)

type GetDisplayNameRequest struct {
	UserID id.UserID `path:"user_id"`
}

type GetDisplayNameResponse struct {
	DisplayName *string `json:"displayname,omitempty"`
}

// GetDisplayName is GET /_matrix/client/v3/profile/:user_id/displayname.
var GetDisplayName = mxapi.MustEndpoint[GetDisplayNameRequest, GetDisplayNameResponse](mxapi.Metadata{
	Name:           "get_display_name",
	Description:    "Get the display name of a user.",
	Method:         http.MethodGet,
	Authentication: mxapi.AuthNone,
	Paths: []mxapi.PathCandidate{
		mxapi.StablePath("/_matrix/client/v3/profile/:user_id/displayname", mxapi.V1_1),
		mxapi.LegacyPath("/_matrix/client/r0/profile/:user_id/displayname"),
	},
})

// SetDisplayNameRequest sets the display name of UserID. A nil
// DisplayName removes it.
type SetDisplayNameRequest struct {
	UserID      id.UserID `path:"user_id"`
	DisplayName *string   `json:"displayname,omitempty" validate:"omitempty,max=256"`
}

type SetDisplayNameResponse struct{}

// SetDisplayName is PUT /_matrix/client/v3/profile/:user_id/displayname.
var SetDisplayName = mxapi.MustEndpoint[SetDisplayNameRequest, SetDisplayNameResponse](mxapi.Metadata{
	Name:           "set_display_name",
	Description:    "Set the display name of the user.",
	Method:         http.MethodPut,
	RateLimited:    true,
	Authentication: mxapi.AuthAccessToken,
	Paths: []mxapi.PathCandidate{
		mxapi.StablePath("/_matrix/client/v3/profile/:user_id/displayname", mxapi.V1_1),
		mxapi.LegacyPath("/_matrix/client/r0/profile/:user_id/displayname"),
	},
})
