// Package message implements sending room events.
package message

import (
	"encoding/json"
	"net/http"

	"github.com/broady/mxapi"
	"github.com/broady/mxapi/id"
)

// SendMessageEventRequest sends Content as an event of EventType. TxnID
// makes retries idempotent.
type SendMessageEventRequest struct {
	RoomID    id.RoomID       `path:"room_id"`
	EventType string          `path:"event_type"`
	TxnID     string          `path:"txn_id"`
	Content   json.RawMessage `mxapi:"body"`
}

type SendMessageEventResponse struct {
	EventID id.EventID `json:"event_id"`
}

// SendMessageEvent is PUT /_matrix/client/v3/rooms/:room_id/send/:event_type/:txn_id.
var SendMessageEvent = mxapi.MustEndpoint[SendMessageEventRequest, SendMessageEventResponse](mxapi.Metadata{
	Name:           "send_message_event",
	Description:    "Send a message event to a room.",
	Method:         http.MethodPut,
	Authentication: mxapi.AuthAccessToken,
	Paths: []mxapi.PathCandidate{
		mxapi.StablePath("/_matrix/client/v3/rooms/:room_id/send/:event_type/:txn_id", mxapi.V1_1),
		mxapi.LegacyPath("/_matrix/client/r0/rooms/:room_id/send/:event_type/:txn_id"),
	},
})

// NewTextMessage returns a request sending an m.text message with body.
func NewTextMessage(roomID id.RoomID, txnID, body string) (SendMessageEventRequest, error) {
	content, err := json.Marshal(map[string]string{"msgtype": "m.text", "body": body})
	if err != nil {
		return SendMessageEventRequest{}, err
	}
	return SendMessageEventRequest{
		RoomID:    roomID,
		EventType: "m.room.message",
		TxnID:     txnID,
		Content:   content,
	}, nil
}
