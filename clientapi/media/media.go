// Package media implements the content repository endpoints. Both carry
// their payload as raw bytes rather than JSON.
package media

import (
	"net/http"

	"github.com/broady/mxapi"
	"github.com/broady/mxapi/id"
)

// CreateContentRequest uploads File.
type CreateContentRequest struct {
	ContentType string  `header:"Content-Type"`
	Filename    *string `query:"filename"`
	File        []byte  `mxapi:"raw_body"`
}

type CreateContentResponse struct {
	ContentURI string `json:"content_uri"`
}

// CreateContent is POST /_matrix/media/v3/upload.
var CreateContent = mxapi.MustEndpoint[CreateContentRequest, CreateContentResponse](mxapi.Metadata{
	Name:           "create_content",
	Description:    "Upload content to the media store.",
	Method:         http.MethodPost,
	RateLimited:    true,
	Authentication: mxapi.AuthAccessToken,
	Paths: []mxapi.PathCandidate{
		mxapi.StablePath("/_matrix/media/v3/upload", mxapi.V1_1),
		mxapi.LegacyPath("/_matrix/media/r0/upload"),
	},
})

// GetContentRequest addresses a piece of content by its mxc:// parts.
type GetContentRequest struct {
	ServerName  id.ServerName `path:"server_name"`
	MediaID     string        `path:"media_id"`
	AllowRemote *bool         `query:"allow_remote"`
}

// GetContentResponse is the stored content with the headers describing it.
type GetContentResponse struct {
	ContentType        string  `header:"Content-Type"`
	ContentDisposition *string `header:"Content-Disposition"`
	File               []byte  `mxapi:"raw_body"`
}

// GetContent is GET /_matrix/media/v3/download/:server_name/:media_id.
var GetContent = mxapi.MustEndpoint[GetContentRequest, GetContentResponse](mxapi.Metadata{
	Name:           "get_content",
	Description:    "Retrieve content from the media store.",
	Method:         http.MethodGet,
	Authentication: mxapi.AuthNone,
	Deprecated:     mxapi.V1_2,
	Paths: []mxapi.PathCandidate{
		mxapi.StablePath("/_matrix/media/v3/download/:server_name/:media_id", mxapi.V1_1),
		mxapi.LegacyPath("/_matrix/media/r0/download/:server_name/:media_id"),
	},
})
