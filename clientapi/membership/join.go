// Package membership implements room membership endpoints.
package membership

import (
	"net/http"

	"github.com/broady/mxapi"
	"github.com/broady/mxapi/id"
)

// JoinRoomByIDRequest joins RoomID, optionally giving a reason shown to
// other members.
type JoinRoomByIDRequest struct {
	RoomID id.RoomID `path:"room_id"`
	Reason string    `json:"reason,omitempty"`
}

// JoinRoomByIDResponse carries the joined room.
type JoinRoomByIDResponse struct {
	RoomID id.RoomID `json:"room_id"`
}

// JoinRoomByID is POST /_matrix/client/v3/rooms/:room_id/join.
var JoinRoomByID = mxapi.MustEndpoint[JoinRoomByIDRequest, JoinRoomByIDResponse](mxapi.Metadata{
	Name:           "join_room_by_id",
	Description:    "Start the requesting user participating in a particular room.",
	Method:         http.MethodPost,
	RateLimited:    true,
	Authentication: mxapi.AuthAccessToken,
	Paths: []mxapi.PathCandidate{
		mxapi.StablePath("/_matrix/client/v3/rooms/:room_id/join", mxapi.V1_1),
		mxapi.LegacyPath("/_matrix/client/r0/rooms/:room_id/join"),
	},
})
