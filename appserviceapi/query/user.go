// Package query implements the endpoints a homeserver calls on an
// application service to ask whether it owns a user or room alias.
package query

import (
	"net/http"

	"github.com/broady/mxapi"
	"github.com/broady/mxapi/id"
)

type QueryUserIDRequest struct {
	UserID id.UserID `path:"user_id"`
}

// QueryUserIDResponse is empty; a 200 means the user exists.
type QueryUserIDResponse struct{}

// QueryUserID is GET /_matrix/app/v1/users/:user_id. The homeserver token is
// carried in the access_token query parameter.
var QueryUserID = mxapi.MustEndpoint[QueryUserIDRequest, QueryUserIDResponse](mxapi.Metadata{
	Name:           "query_user_id",
	Description:    "Query whether the application service has a given user.",
	Method:         http.MethodGet,
	Authentication: mxapi.AuthQueryOnlyAccessToken,
	Paths: []mxapi.PathCandidate{
		mxapi.StablePath("/_matrix/app/v1/users/:user_id", mxapi.V1_0),
		mxapi.LegacyPath("/users/:user_id"),
	},
})

type QueryRoomAliasRequest struct {
	RoomAlias id.RoomAlias `path:"room_alias"`
}

type QueryRoomAliasResponse struct{}

// QueryRoomAlias is GET /_matrix/app/v1/rooms/:room_alias.
var QueryRoomAlias = mxapi.MustEndpoint[QueryRoomAliasRequest, QueryRoomAliasResponse](mxapi.Metadata{
	Name:           "query_room_alias",
	Description:    "Query whether the application service has a given room alias.",
	Method:         http.MethodGet,
	Authentication: mxapi.AuthQueryOnlyAccessToken,
	Paths: []mxapi.PathCandidate{
		mxapi.StablePath("/_matrix/app/v1/rooms/:room_alias", mxapi.V1_0),
		mxapi.LegacyPath("/rooms/:room_alias"),
	},
})
