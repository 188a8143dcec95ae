// Package oidc holds the principal token model and the userinfo fetcher for
// the SSO bridge. The upstream redirect/token-exchange flow is out of scope;
// it hands us a verified subject/issuer pair plus the raw token strings.
package oidc

import "strings"

// TokenMethod selects how the access token is presented to the userinfo
// endpoint.
type TokenMethod string

const (
	TokenMethodHeader TokenMethod = "HEADER"
	TokenMethodForm   TokenMethod = "FORM"
	TokenMethodQuery  TokenMethod = "QUERY"
)

// ParseTokenMethod is case-insensitive; anything unrecognized (including the
// empty string) falls back to the HEADER method.
func ParseTokenMethod(s string) TokenMethod {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FORM":
		return TokenMethodForm
	case "QUERY":
		return TokenMethodQuery
	default:
		return TokenMethodHeader
	}
}

// ServerConfig describes the endpoints of the external provider that issued
// the tokens. It rides on the carrier token only; once authentication
// succeeds no further provider calls are possible or needed.
type ServerConfig struct {
	Issuer      string      `json:"issuer"`
	UserInfoURI string      `json:"userinfo_uri"`
	TokenMethod TokenMethod `json:"userinfo_token_method"`
}

// CarrierToken is the unauthenticated form of the principal: a data shuttle
// from the upstream token exchange into the reconciliation provider. It
// carries no authorities and no claims.
type CarrierToken struct {
	Subject      string        `json:"sub"`
	Issuer       string        `json:"iss"`
	Server       *ServerConfig `json:"-"`
	IDToken      string        `json:"-"`
	AccessToken  string        `json:"-"`
	RefreshToken string        `json:"-"`
}

// AuthenticatedToken is the resolved form of the principal. It is always
// constructed fresh by the reconciliation provider, never by mutating a
// carrier. The server config is dropped, and the userinfo claims are kept
// off any serialized form since they can be large and are re-fetchable.
type AuthenticatedToken struct {
	Subject           string    `json:"sub"`
	Issuer            string    `json:"iss"`
	PreferredUsername string    `json:"preferred_username"`
	Authorities       []string  `json:"authorities"`
	UserInfo          *UserInfo `json:"-"`
	IDToken           string    `json:"-"`
	AccessToken       string    `json:"-"`
	RefreshToken      string    `json:"-"`
}

// NewAuthenticatedToken finalizes a successful attempt. The preferred
// username falls back to the subject when the provider did not supply one.
func NewAuthenticatedToken(carrier *CarrierToken, info *UserInfo, authorities []string) *AuthenticatedToken {
	preferred := carrier.Subject
	if info != nil && info.PreferredUsername != "" {
		preferred = info.PreferredUsername
	}
	return &AuthenticatedToken{
		Subject:           carrier.Subject,
		Issuer:            carrier.Issuer,
		PreferredUsername: preferred,
		Authorities:       authorities,
		UserInfo:          info,
		IDToken:           carrier.IDToken,
		AccessToken:       carrier.AccessToken,
		RefreshToken:      carrier.RefreshToken,
	}
}
