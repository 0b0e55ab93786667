// Package relations implements the event relationship endpoints.
package relations

import (
	"encoding/json"
	"net/http"

	"github.com/broady/mxapi"
	"github.com/broady/mxapi/id"
)

// Request selects the events relating to EventID. RelType and EventType
// narrow the result; EventType may only be set together with RelType.
type Request struct {
	RoomID    id.RoomID  `path:"room_id"`
	EventID   id.EventID `path:"event_id"`
	RelType   *string    `path:"rel_type"`
	EventType *string    `path:"event_type"`
	From      *string    `query:"from"`
	To        *string    `query:"to"`
	Limit     *uint      `query:"limit" validate:"omitempty,min=1"`
}

// Response is one page of related events.
type Response struct {
	Chunk     []json.RawMessage `json:"chunk"`
	NextBatch *string           `json:"next_batch,omitempty"`
	PrevBatch *string           `json:"prev_batch,omitempty"`
}

// GetEventsRelatingToEvent is
// GET /_matrix/client/v1/rooms/:room_id/relations/:event_id/:rel_type/:event_type.
var GetEventsRelatingToEvent = mxapi.MustEndpoint[Request, Response](mxapi.Metadata{
	Name:           "get_relating_events",
	Description:    "Retrieve the child events for a given parent event, optionally filtered by relation and event type.",
	Method:         http.MethodGet,
	Authentication: mxapi.AuthAccessToken,
	Paths: []mxapi.PathCandidate{
		mxapi.StablePath("/_matrix/client/v1/rooms/:room_id/relations/:event_id/:rel_type/:event_type", mxapi.V1_1),
		mxapi.UnstablePath("/_matrix/client/unstable/rooms/:room_id/relations/:event_id/:rel_type/:event_type"),
	},
})
