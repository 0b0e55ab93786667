// Package id holds the identifier types used in endpoint requests and
// responses. Identifiers are opaque strings; Parse functions check their
// grammar.
package id

import (
	"errors"
	"fmt"
	"strings"
)

// MaxLength is the maximum length of any identifier, in bytes.
const MaxLength = 255

var (
	ErrEmpty         = errors.New("identifier is empty")
	ErrTooLong       = fmt.Errorf("identifier is longer than %d bytes", MaxLength)
	ErrMissingSigil  = errors.New("identifier has the wrong sigil")
	ErrMissingServer = errors.New("identifier has no server name")
	ErrInvalidServer = errors.New("invalid server name")
)

// RoomID identifies a room, e.g. "!abc:example.org".
type RoomID string

// EventID identifies an event, e.g. "$abc:example.org" or "$abc".
type EventID string

// UserID identifies a user, e.g. "@alice:example.org".
type UserID string

// RoomAlias is a human-readable room address, e.g. "#room:example.org".
type RoomAlias string

// ServerName is the host and optional port of a homeserver.
type ServerName string

func (r RoomID) String() string     { return string(r) }
func (e EventID) String() string    { return string(e) }
func (u UserID) String() string     { return string(u) }
func (a RoomAlias) String() string  { return string(a) }
func (s ServerName) String() string { return string(s) }

// ParseRoomID checks and returns a room ID.
func ParseRoomID(s string) (RoomID, error) {
	if err := checkSigiled(s, '!', true); err != nil {
		return "", fmt.Errorf("room ID %q: %w", s, err)
	}
	return RoomID(s), nil
}

// ParseEventID checks and returns an event ID. Event IDs of newer room
// versions have no server name.
func ParseEventID(s string) (EventID, error) {
	if err := checkSigiled(s, '$', false); err != nil {
		return "", fmt.Errorf("event ID %q: %w", s, err)
	}
	return EventID(s), nil
}

// ParseUserID checks and returns a user ID.
func ParseUserID(s string) (UserID, error) {
	if err := checkSigiled(s, '@', true); err != nil {
		return "", fmt.Errorf("user ID %q: %w", s, err)
	}
	return UserID(s), nil
}

// ParseRoomAlias checks and returns a room alias.
func ParseRoomAlias(s string) (RoomAlias, error) {
	if err := checkSigiled(s, '#', true); err != nil {
		return "", fmt.Errorf("room alias %q: %w", s, err)
	}
	return RoomAlias(s), nil
}

// ParseServerName checks and returns a server name.
func ParseServerName(s string) (ServerName, error) {
	if err := checkServerName(s); err != nil {
		return "", fmt.Errorf("server name %q: %w", s, err)
	}
	return ServerName(s), nil
}

// Localpart returns the part of the user ID between the sigil and the colon.
func (u UserID) Localpart() string {
	local, _, _ := strings.Cut(strings.TrimPrefix(string(u), "@"), ":")
	return local
}

// ServerName returns the server the user ID belongs to.
func (u UserID) ServerName() ServerName {
	_, server, _ := strings.Cut(string(u), ":")
	return ServerName(server)
}

// ServerName returns the server the room ID was created on.
func (r RoomID) ServerName() ServerName {
	_, server, _ := strings.Cut(string(r), ":")
	return ServerName(server)
}

func checkSigiled(s string, sigil byte, needServer bool) error {
	switch {
	case s == "":
		return ErrEmpty
	case len(s) > MaxLength:
		return ErrTooLong
	case s[0] != sigil:
		return ErrMissingSigil
	}
	_, server, ok := strings.Cut(s[1:], ":")
	if !ok {
		if needServer {
			return ErrMissingServer
		}
		return nil
	}
	return checkServerName(server)
}

func checkServerName(s string) error {
	if s == "" {
		return ErrInvalidServer
	}
	host := s
	if strings.HasPrefix(s, "[") {
		end := strings.IndexByte(s, ']')
		if end < 0 {
			return ErrInvalidServer
		}
		host, s = s[1:end], s[end+1:]
		if host == "" {
			return ErrInvalidServer
		}
	} else if i := strings.LastIndexByte(s, ':'); i >= 0 {
		host, s = s[:i], s[i:]
	} else {
		s = ""
	}
	if s != "" {
		port := strings.TrimPrefix(s, ":")
		if port == s || port == "" || len(port) > 5 {
			return ErrInvalidServer
		}
		for i := 0; i < len(port); i++ {
			if port[i] < '0' || port[i] > '9' {
				return ErrInvalidServer
			}
		}
	}
	for i := 0; i < len(host); i++ {
		c := host[i]
		if !('a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' || c == '-' || c == '.' || c == ':') {
			return ErrInvalidServer
		}
	}
	if host == "" {
		return ErrInvalidServer
	}
	return nil
}
