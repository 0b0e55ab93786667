// Package clientapi groups the client-server endpoints.
package clientapi

import (
	"github.com/broady/mxapi"
	"github.com/broady/mxapi/clientapi/discovery"
	"github.com/broady/mxapi/clientapi/media"
	"github.com/broady/mxapi/clientapi/membership"
	"github.com/broady/mxapi/clientapi/message"
	"github.com/broady/mxapi/clientapi/profile"
	"github.com/broady/mxapi/clientapi/relations"
	"github.com/broady/mxapi/clientapi/search"
)

// Catalog returns every client-server endpoint, in a stable order.
func Catalog() []mxapi.Describer {
	return []mxapi.Describer{
		discovery.GetSupportedVersions,
		membership.JoinRoomByID,
		message.SendMessageEvent,
		relations.GetEventsRelatingToEvent,
		profile.GetDisplayName,
		profile.SetDisplayName,
		media.CreateContent,
		media.GetContent,
		search.Search,
	}
}
