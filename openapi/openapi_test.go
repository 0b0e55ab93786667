package openapi

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/broady/mxapi/appserviceapi"
	"github.com/broady/mxapi/clientapi"
	"github.com/broady/mxapi/clientapi/media"
	"github.com/broady/mxapi/clientapi/membership"
	"github.com/broady/mxapi/clientapi/relations"
	"github.com/broady/mxapi/federationapi"
	"github.com/broady/mxapi/federationapi/event"
)

func buildDoc(t *testing.T, spec any) map[string]any {
	t.Helper()
	data, err := json.Marshal(spec)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}

func operationAt(t *testing.T, doc map[string]any, path, method string) map[string]any {
	t.Helper()
	paths, ok := doc["paths"].(map[string]any)
	require.True(t, ok, "document has no paths")
	item, ok := paths[path].(map[string]any)
	require.True(t, ok, "missing path %s", path)
	op, ok := item[method].(map[string]any)
	require.True(t, ok, "missing %s %s", method, path)
	return op
}

func paramNames(op map[string]any) []string {
	var names []string
	params, _ := op["parameters"].([]any)
	for _, p := range params {
		names = append(names, p.(map[string]any)["name"].(string))
	}
	return names
}

func TestBuildPathsPerCandidate(t *testing.T) {
	spec, err := Build("Test", "1.0", membership.JoinRoomByID)
	require.NoError(t, err)
	doc := buildDoc(t, spec)

	assert.Equal(t, "Test", doc["info"].(map[string]any)["title"])

	stable := operationAt(t, doc, "/_matrix/client/v3/rooms/{room_id}/join", "post")
	assert.Equal(t, "join_room_by_id_stable", stable["operationId"])
	assert.Nil(t, stable["deprecated"])
	assert.Equal(t, []string{"room_id"}, paramNames(stable))
	assert.Contains(t, stable, "requestBody")
	assert.Equal(t, []any{map[string]any{SchemeBearer: []any{}}}, stable["security"])

	legacy := operationAt(t, doc, "/_matrix/client/r0/rooms/{room_id}/join", "post")
	assert.Equal(t, true, legacy["deprecated"])
	assert.Equal(t, []any{"legacy"}, legacy["tags"])

	responses := stable["responses"].(map[string]any)
	assert.Contains(t, responses, "200")
	assert.Contains(t, responses, "default")
}

func TestBuildOptionalPathParams(t *testing.T) {
	spec, err := Build("Test", "1.0", relations.GetEventsRelatingToEvent)
	require.NoError(t, err)
	doc := buildDoc(t, spec)

	base := "/_matrix/client/v1/rooms/{room_id}/relations/{event_id}"
	tests := []struct {
		path   string
		id     string
		params []string
	}{
		{base, "get_relating_events_stable_2", []string{"room_id", "event_id", "from", "to", "limit"}},
		{base + "/{rel_type}", "get_relating_events_stable_3", []string{"room_id", "event_id", "rel_type", "from", "to", "limit"}},
		{base + "/{rel_type}/{event_type}", "get_relating_events_stable", []string{"room_id", "event_id", "rel_type", "event_type", "from", "to", "limit"}},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			op := operationAt(t, doc, tt.path, "get")
			assert.Equal(t, tt.id, op["operationId"])
			assert.Equal(t, tt.params, paramNames(op))
			assert.NotContains(t, op, "requestBody")
		})
	}

	operationAt(t, doc, "/_matrix/client/unstable/rooms/{room_id}/relations/{event_id}", "get")
}

func TestBuildParameters(t *testing.T) {
	spec, err := Build("Test", "1.0", media.CreateContent, media.GetContent)
	require.NoError(t, err)
	doc := buildDoc(t, spec)

	upload := operationAt(t, doc, "/_matrix/media/v3/upload", "post")
	params := upload["parameters"].([]any)
	require.Len(t, params, 2)
	filename := params[0].(map[string]any)
	assert.Equal(t, "filename", filename["name"])
	assert.Equal(t, "query", filename["in"])
	assert.Nil(t, filename["required"])
	contentType := params[1].(map[string]any)
	assert.Equal(t, "Content-Type", contentType["name"])
	assert.Equal(t, "header", contentType["in"])
	assert.Equal(t, true, contentType["required"])

	body := upload["requestBody"].(map[string]any)["content"].(map[string]any)
	assert.Contains(t, body, "application/octet-stream")

	download := operationAt(t, doc, "/_matrix/media/v3/download/{server_name}/{media_id}", "get")
	assert.Equal(t, true, download["deprecated"])
	assert.Nil(t, download["security"])
	ok := download["responses"].(map[string]any)["200"].(map[string]any)
	assert.Contains(t, ok["content"], "application/octet-stream")
}

func TestBuildSecuritySchemes(t *testing.T) {
	eps := append(clientapi.Catalog(), federationapi.Catalog()...)
	eps = append(eps, appserviceapi.Catalog()...)
	spec, err := Build("Matrix", "v1.2", eps...)
	require.NoError(t, err)
	doc := buildDoc(t, spec)

	schemes := doc["components"].(map[string]any)["securitySchemes"].(map[string]any)
	assert.Equal(t, "bearer", schemes[SchemeBearer].(map[string]any)["scheme"])
	assert.Equal(t, "query", schemes[SchemeQueryToken].(map[string]any)["in"])
	assert.Equal(t, "Authorization", schemes[SchemeXMatrix].(map[string]any)["name"])

	op := operationAt(t, doc, "/_matrix/federation/v1/event/{event_id}", "get")
	assert.Equal(t, "get_event_stable", op["operationId"])
	assert.Equal(t, event.GetEvent.Metadata().Description, op["summary"])
}

func TestWrite(t *testing.T) {
	spec, err := Build("Test", "1.0", membership.JoinRoomByID)
	require.NoError(t, err)

	var jsonBuf bytes.Buffer
	require.NoError(t, Write(&jsonBuf, spec, JSON))
	var fromJSON map[string]any
	require.NoError(t, json.Unmarshal(jsonBuf.Bytes(), &fromJSON))

	var yamlBuf bytes.Buffer
	require.NoError(t, Write(&yamlBuf, spec, YAML))
	assert.Contains(t, yamlBuf.String(), "openapi: 3.0.3")
	assert.Contains(t, yamlBuf.String(), `"200":`)
	var fromYAML map[string]any
	require.NoError(t, yaml.Unmarshal(yamlBuf.Bytes(), &fromYAML))

	assert.Contains(t, fromJSON["paths"], "/_matrix/client/v3/rooms/{room_id}/join")
	assert.Contains(t, fromYAML["paths"], "/_matrix/client/v3/rooms/{room_id}/join")

	assert.Error(t, Write(&bytes.Buffer{}, spec, Format("toml")))
}
