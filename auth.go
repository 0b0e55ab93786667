package mxapi

// AuthScheme is the authentication an endpoint requires.
type AuthScheme int

const (
	// AuthNone means no authentication is required. Tokens are never attached.
	AuthNone AuthScheme = iota
	// AuthAccessToken sends the token in an "Authorization: Bearer" header.
	AuthAccessToken
	// AuthServerSignatures authenticates a server-to-server request with an
	// "Authorization: X-Matrix" header.
	AuthServerSignatures
	// AuthQueryOnlyAccessToken sends the token in the access_token query parameter.
	AuthQueryOnlyAccessToken
)

func (s AuthScheme) String() string {
	switch s {
	case AuthNone:
		return "none"
	case AuthAccessToken:
		return "access_token"
	case AuthServerSignatures:
		return "server_signatures"
	case AuthQueryOnlyAccessToken:
		return "query_only_access_token"
	default:
		return "unknown"
	}
}

type sendMode int

const (
	sendNever sendMode = iota
	sendIfRequired
	sendAlways
)

// SendAccessToken is the caller's policy for attaching an access token to an
// outgoing request. The zero value never sends a token.
type SendAccessToken struct {
	mode  sendMode
	token string
}

// SendIfRequired attaches token only to endpoints that require authentication.
func SendIfRequired(token string) SendAccessToken {
	return SendAccessToken{mode: sendIfRequired, token: token}
}

// AlwaysSend attaches token to every endpoint that has a place to put it,
// including endpoints where authentication is optional.
func AlwaysSend(token string) SendAccessToken {
	return SendAccessToken{mode: sendAlways, token: token}
}

// NeverSend sends no token.
func NeverSend() SendAccessToken {
	return SendAccessToken{}
}

// RequiredForEndpoint returns the token to use for an endpoint that requires
// authentication, if the policy carries one.
func (s SendAccessToken) RequiredForEndpoint() (string, bool) {
	if s.mode == sendNever {
		return "", false
	}
	return s.token, true
}

