package mxapi

import (
	"net/http"
	"testing"
)

func TestMetadataValidate(t *testing.T) {
	valid := func() Metadata {
		return Metadata{
			Name:   "join_room_by_id",
			Method: http.MethodPost,
			Paths: []PathCandidate{
				StablePath("/_matrix/client/v3/rooms/:room_id/join", V1_1),
				LegacyPath("/_matrix/client/r0/rooms/:room_id/join"),
				UnstablePath("/_matrix/client/unstable/rooms/:room_id/join"),
			},
		}
	}
	if err := valid().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name   string
		modify func(*Metadata)
	}{
		{"no name", func(m *Metadata) { m.Name = "" }},
		{"bad method", func(m *Metadata) { m.Method = "FETCH" }},
		{"no paths", func(m *Metadata) { m.Paths = nil }},
		{"relative template", func(m *Metadata) { m.Paths[0].Template = "rooms/:room_id/join" }},
		{"malformed template", func(m *Metadata) { m.Paths[0].Template = "/rooms/:/join" }},
		{"two stable paths", func(m *Metadata) {
			m.Paths = append(m.Paths[:1], StablePath("/_matrix/client/v4/rooms/:room_id/join", V1_2))
		}},
		{"out of order", func(m *Metadata) { m.Paths[0], m.Paths[2] = m.Paths[2], m.Paths[0] }},
		{"stable without added", func(m *Metadata) { m.Paths[0].Added = Version{} }},
		{"mismatched params", func(m *Metadata) { m.Paths[2].Template = "/_matrix/client/unstable/rooms/:room/join" }},
		{"removed before added", func(m *Metadata) { m.Added, m.Removed = V1_1, V1_0 }},
		{"removed equals added", func(m *Metadata) { m.Added, m.Removed = V1_1, V1_1 }},
		{"removed before deprecated", func(m *Metadata) { m.Deprecated, m.Removed = V1_2, V1_1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := valid()
			tt.modify(&m)
			if err := m.Validate(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestMetadataLifecycle(t *testing.T) {
	m := Metadata{
		Name:       "old",
		Method:     http.MethodGet,
		Added:      V1_0,
		Deprecated: V1_1,
		Removed:    V1_2,
		Paths:      []PathCandidate{StablePath("/v3/old", V1_0)},
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		versions       []Version
		wantDeprecated bool
		wantRemoved    bool
	}{
		{nil, false, false},
		{[]Version{V1_0}, false, false},
		{[]Version{V1_1}, true, false},
		{[]Version{V1_0, V1_2}, true, false},
		{[]Version{V1_2}, true, true},
	}
	for _, tt := range tests {
		if got := m.IsDeprecatedFor(tt.versions); got != tt.wantDeprecated {
			t.Errorf("IsDeprecatedFor(%v): expected %v, got %v", tt.versions, tt.wantDeprecated, got)
		}
		if got := m.IsRemovedFor(tt.versions); got != tt.wantRemoved {
			t.Errorf("IsRemovedFor(%v): expected %v, got %v", tt.versions, tt.wantRemoved, got)
		}
	}
}

func TestMetadataAllowsBody(t *testing.T) {
	for method, want := range map[string]bool{
		http.MethodGet:    false,
		http.MethodHead:   false,
		http.MethodPost:   true,
		http.MethodPut:    true,
		http.MethodDelete: true,
	} {
		if got := (Metadata{Method: method}).AllowsBody(); got != want {
			t.Errorf("%s: expected %v, got %v", method, want, got)
		}
	}
}

func TestSendAccessToken(t *testing.T) {
	tests := []struct {
		name   string
		policy SendAccessToken
		want   string
		wantOK bool
	}{
		{"always", AlwaysSend("a"), "a", true},
		{"if required", SendIfRequired("b"), "b", true},
		{"never", NeverSend(), "", false},
		{"zero value", SendAccessToken{}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.policy.RequiredForEndpoint()
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("expected (%q, %v), got (%q, %v)", tt.want, tt.wantOK, got, ok)
			}
		})
	}
}
