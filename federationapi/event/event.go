// Package event implements server-server event retrieval.
package event

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/broady/mxapi"
	"github.com/broady/mxapi/id"
)

type GetEventRequest struct {
	EventID id.EventID `path:"event_id"`
}

// GetEventResponse is a transaction holding the single requested PDU.
type GetEventResponse struct {
	Origin         id.ServerName     `json:"origin"`
	OriginServerTS int64             `json:"origin_server_ts"`
	PDUs           []json.RawMessage `json:"pdus"`
}

// GetEvent is GET /_matrix/federation/v1/event/:event_id.
var GetEvent = mxapi.MustEndpoint[GetEventRequest, GetEventResponse](mxapi.Metadata{
	Name:           "get_event",
	Description:    "Retrieves a single event.",
	Method:         http.MethodGet,
	Authentication: mxapi.AuthServerSignatures,
	Paths: []mxapi.PathCandidate{
		mxapi.StablePath("/_matrix/federation/v1/event/:event_id", mxapi.V1_0),
	},
})

// XMatrix holds the parameters of an "Authorization: X-Matrix" header.
type XMatrix struct {
	Origin      id.ServerName
	Destination id.ServerName
	Key         string
	Signature   string
}

// String formats the parameters as the header value after the scheme.
// It is the token to pass to mxapi.SendIfRequired for federation endpoints.
func (x XMatrix) String() string {
	parts := []string{
		fmt.Sprintf("origin=%q", x.Origin),
	}
	if x.Destination != "" {
		parts = append(parts, fmt.Sprintf("destination=%q", x.Destination))
	}
	parts = append(parts,
		fmt.Sprintf("key=%q", x.Key),
		fmt.Sprintf("sig=%q", x.Signature),
	)
	return strings.Join(parts, ",")
}

// ParseXMatrix parses the parameters of an X-Matrix header, without the
// scheme. Origin, key and sig are required.
func ParseXMatrix(s string) (XMatrix, error) {
	var x XMatrix
	for _, param := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(param), "=")
		if !ok {
			return XMatrix{}, fmt.Errorf("malformed X-Matrix parameter %q", param)
		}
		v = strings.Trim(v, `"`)
		switch strings.ToLower(k) {
		case "origin":
			x.Origin = id.ServerName(v)
		case "destination":
			x.Destination = id.ServerName(v)
		case "key":
			x.Key = v
		case "sig":
			x.Signature = v
		}
	}
	if x.Origin == "" || x.Key == "" || x.Signature == "" {
		return XMatrix{}, fmt.Errorf("X-Matrix header needs origin, key and sig")
	}
	return x, nil
}
