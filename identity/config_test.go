package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseProvider(t *testing.T) {
	tests := []struct {
		in      string
		want    Provider
		wantErr bool
	}{
		{"dummysso", ProviderDummySSO, false},
		{"DummySSO", ProviderDummySSO, false},
		{" DUMMYSSO ", ProviderDummySSO, false},
		{"keycloak", Provider("KEYCLOAK"), false},
		{"", "", true},
		{"   ", "", true},
	}
	for _, tt := range tests {
		got, err := ParseProvider(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		assert.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.Defaults()
	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, ProviderDummySSO.String(), cfg.SSOProvider)
	assert.Equal(t, "en", cfg.DefaultLangKey)
	assert.Equal(t, 3, cfg.SessionHours)
	assert.NotZero(t, cfg.PurgeEveryHours)
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{SSOIssuer: "https://sso.example.com", UserInfoURL: "https://sso.example.com/userinfo"}
	cfg.Defaults()
	assert.NoError(t, cfg.Validate())

	bad := Config{SSOIssuer: "not a url"}
	bad.Defaults()
	assert.Error(t, bad.Validate())
}
