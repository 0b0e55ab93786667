// Package search implements server-side search.
package search

import (
	"encoding/json"
	"net/http"

	"github.com/broady/mxapi"
)

// Request runs the searches in Categories. Params is forwarded verbatim as
// the query string, which carries next_batch and any server-specific
// filters.
type Request struct {
	Params     map[string]string `mxapi:"query_map"`
	Categories Categories        `json:"search_categories"`
}

// NextBatch returns a copy of r asking for the page after token.
func (r Request) NextBatch(token string) Request {
	params := make(map[string]string, len(r.Params)+1)
	for k, v := range r.Params {
		params[k] = v
	}
	params["next_batch"] = token
	r.Params = params
	return r
}

type Categories struct {
	RoomEvents *RoomEventsCriteria `json:"room_events,omitempty"`
}

type RoomEventsCriteria struct {
	SearchTerm string          `json:"search_term" validate:"required"`
	Keys       []string        `json:"keys,omitempty"`
	Filter     json.RawMessage `json:"filter,omitempty"`
	OrderBy    string          `json:"order_by,omitempty" validate:"omitempty,oneof=recent rank"`
}

type Response struct {
	Categories ResultCategories `json:"search_categories"`
}

type ResultCategories struct {
	RoomEvents *RoomEventsResults `json:"room_events,omitempty"`
}

type RoomEventsResults struct {
	Count      *uint64           `json:"count,omitempty"`
	Highlights []string          `json:"highlights,omitempty"`
	NextBatch  *string           `json:"next_batch,omitempty"`
	Results    []json.RawMessage `json:"results,omitempty"`
}

// Search is POST /_matrix/client/v3/search.
var Search = mxapi.MustEndpoint[Request, Response](mxapi.Metadata{
	Name:           "search",
	Description:    "Perform a server-side search.",
	Method:         http.MethodPost,
	RateLimited:    true,
	Authentication: mxapi.AuthAccessToken,
	Paths: []mxapi.PathCandidate{
		mxapi.StablePath("/_matrix/client/v3/search", mxapi.V1_1),
		mxapi.LegacyPath("/_matrix/client/r0/search"),
	},
})
