package oidc

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/witcom-dev/ssobridge/apperr"
)

const userInfoBody = `{"sub":"abc123","given_name":"Jane","family_name":"Doe","email":"jane@example.com","preferred_username":"jane","picture":"ignored"}`

func testCarrier(server *ServerConfig) *CarrierToken {
	return &CarrierToken{
		Subject:     "abc123",
		Issuer:      "https://sso.example.com",
		Server:      server,
		IDToken:     "id-token",
		AccessToken: "access-token",
	}
}

func TestUserInfoFetcher_HeaderMethod(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer access-token" {
			t.Errorf("unexpected authorization header: %q", got)
		}
		w.Write([]byte(userInfoBody))
	}))
	defer ts.Close()

	f := NewUserInfoFetcher(0, logrus.New())
	info, err := f.Fetch(context.Background(), testCarrier(&ServerConfig{UserInfoURI: ts.URL}))
	assert.NoError(t, err)
	assert.Equal(t, "abc123", info.Sub)
	assert.Equal(t, "Jane", info.GivenName)
	assert.Equal(t, "Doe", info.FamilyName)
	assert.Equal(t, "jane@example.com", info.Email)
	assert.Equal(t, "jane", info.PreferredUsername)
}

func TestUserInfoFetcher_FormMethod(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if got := r.PostFormValue("access_token"); got != "access-token" {
			t.Errorf("unexpected form token: %q", got)
		}
		w.Write([]byte(userInfoBody))
	}))
	defer ts.Close()

	f := NewUserInfoFetcher(0, logrus.New())
	info, err := f.Fetch(context.Background(), testCarrier(&ServerConfig{UserInfoURI: ts.URL, TokenMethod: TokenMethodForm}))
	assert.NoError(t, err)
	assert.Equal(t, "abc123", info.Sub)
}

func TestUserInfoFetcher_QueryMethod(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("access_token"); got != "access-token" {
			t.Errorf("unexpected query token: %q", got)
		}
		w.Write([]byte(userInfoBody))
	}))
	defer ts.Close()

	f := NewUserInfoFetcher(0, logrus.New())
	info, err := f.Fetch(context.Background(), testCarrier(&ServerConfig{UserInfoURI: ts.URL, TokenMethod: TokenMethodQuery}))
	assert.NoError(t, err)
	assert.Equal(t, "abc123", info.Sub)
}

func TestUserInfoFetcher_Failures(t *testing.T) {
	errorServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer errorServer.Close()
	garbageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer garbageServer.Close()

	tests := []struct {
		name   string
		server *ServerConfig
	}{
		{"no server config", nil},
		{"no userinfo endpoint", &ServerConfig{}},
		{"non-2xx response", &ServerConfig{UserInfoURI: errorServer.URL}},
		{"unparseable body", &ServerConfig{UserInfoURI: garbageServer.URL}},
		{"unreachable endpoint", &ServerConfig{UserInfoURI: "http://127.0.0.1:1"}},
	}
	f := NewUserInfoFetcher(2*time.Second, logrus.New())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := f.Fetch(context.Background(), testCarrier(tt.server))
			if info != nil {
				t.Fatalf("expected no claims, got %+v", info)
			}
			if !errors.Is(err, apperr.ErrClaimsUnavailable) {
				t.Fatalf("expected claims_unavailable, got %v", err)
			}
		})
	}
}

func TestUserInfoFetcher_Timeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(userInfoBody))
	}))
	defer slow.Close()

	f := NewUserInfoFetcher(50*time.Millisecond, logrus.New())
	_, err := f.Fetch(context.Background(), testCarrier(&ServerConfig{UserInfoURI: slow.URL}))
	if !errors.Is(err, apperr.ErrClaimsUnavailable) {
		t.Fatalf("timeout should surface as claims_unavailable, got %v", err)
	}
}
