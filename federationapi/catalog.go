// Package federationapi groups the server-server endpoints.
package federationapi

import (
	"github.com/broady/mxapi"
	"github.com/broady/mxapi/federationapi/event"
)

// Catalog returns every server-server endpoint.
func Catalog() []mxapi.Describer {
	return []mxapi.Describer{
		event.GetEvent,
	}
}
