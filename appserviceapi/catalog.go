// Package appserviceapi groups the endpoints served by application services.
package appserviceapi

import (
	"github.com/broady/mxapi"
	"github.com/broady/mxapi/appserviceapi/query"
)

// Catalog returns every application service endpoint.
func Catalog() []mxapi.Describer {
	return []mxapi.Describer{
		query.QueryUserID,
		query.QueryRoomAlias,
	}
}
