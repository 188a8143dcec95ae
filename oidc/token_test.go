package oidc

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTokenMethod(t *testing.T) {
	tests := []struct {
		in   string
		want TokenMethod
	}{
		{"", TokenMethodHeader},
		{"header", TokenMethodHeader},
		{"HEADER", TokenMethodHeader},
		{"form", TokenMethodForm},
		{"Query", TokenMethodQuery},
		{"something-else", TokenMethodHeader},
	}
	for _, tt := range tests {
		if got := ParseTokenMethod(tt.in); got != tt.want {
			t.Errorf("ParseTokenMethod(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewAuthenticatedToken(t *testing.T) {
	carrier := &CarrierToken{
		Subject:      "abc123",
		Issuer:       "https://sso.example.com",
		Server:       &ServerConfig{UserInfoURI: "https://sso.example.com/userinfo"},
		IDToken:      "id",
		AccessToken:  "access",
		RefreshToken: "refresh",
	}
	info := &UserInfo{Sub: "abc123", PreferredUsername: "jane"}

	tok := NewAuthenticatedToken(carrier, info, []string{"ROLE_USER"})
	assert.Equal(t, "abc123", tok.Subject)
	assert.Equal(t, "jane", tok.PreferredUsername)
	assert.Equal(t, []string{"ROLE_USER"}, tok.Authorities)
	assert.Equal(t, "refresh", tok.RefreshToken)

	// no preferred username falls back to the subject
	tok = NewAuthenticatedToken(carrier, &UserInfo{Sub: "abc123"}, nil)
	assert.Equal(t, "abc123", tok.PreferredUsername)
}

func TestAuthenticatedTokenSerializationExcludesClaimsAndTokens(t *testing.T) {
	carrier := &CarrierToken{Subject: "abc123", Issuer: "iss", IDToken: "id", AccessToken: "access"}
	tok := NewAuthenticatedToken(carrier, &UserInfo{Email: "jane@example.com"}, []string{"ROLE_USER"})

	data, err := json.Marshal(tok)
	if err != nil {
		t.Fatal(err)
	}
	for _, leaked := range []string{"jane@example.com", "access", `"id"`} {
		if strings.Contains(string(data), leaked) {
			t.Errorf("serialized token leaks %q: %s", leaked, data)
		}
	}
}

func TestUserInfoMissingRequired(t *testing.T) {
	full := UserInfo{GivenName: "Jane", FamilyName: "Doe", Email: "jane@example.com"}
	if missing := full.MissingRequired(); len(missing) != 0 {
		t.Fatalf("expected nothing missing, got %v", missing)
	}

	noEmail := UserInfo{GivenName: "Jane", FamilyName: "Doe", Email: "   "}
	assert.Equal(t, []string{"email"}, noEmail.MissingRequired())

	empty := UserInfo{}
	assert.Len(t, empty.MissingRequired(), 3)
}
