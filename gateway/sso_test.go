package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/witcom-dev/ssobridge/apperr"
	"github.com/witcom-dev/ssobridge/oidc"
)

type stubChain struct {
	token *oidc.AuthenticatedToken
	err   error
}

func (s *stubChain) Authenticate(ctx context.Context, token any) (*oidc.AuthenticatedToken, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.token, nil
}

func ssoRouter(chain *stubChain) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := &Service{
		Chain:  chain,
		Server: &oidc.ServerConfig{UserInfoURI: "https://sso.example.com/userinfo"},
		Auth:   &JWTAuth{Key: []byte("test-key"), SessionHours: 1},
		Logger: logrus.New(),
	}
	r := gin.New()
	r.Use(RequestID())
	r.POST("/auth/sso", svc.SSOLogin)
	return r
}

const validLoginBody = `{"sub":"abc123","iss":"https://sso.example.com","id_token":"id","access_token":"access"}`

func TestSSOLogin_Success(t *testing.T) {
	chain := &stubChain{token: &oidc.AuthenticatedToken{
		Subject:           "abc123",
		Issuer:            "https://sso.example.com",
		PreferredUsername: "jane",
		Authorities:       []string{"ROLE_USER"},
	}}
	router := ssoRouter(chain)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/auth/sso", strings.NewReader(validLoginBody))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("Authorization"))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	assert.NotEmpty(t, body["authorization"])
}

func TestSSOLogin_FailureIsGeneric(t *testing.T) {
	// whatever the reconciliation kind, the caller only ever learns
	// authentication_failed
	kinds := []*apperr.Error{
		apperr.ErrClaimsUnavailable,
		apperr.ErrSubjectMismatch,
		apperr.ErrNotActivated,
		apperr.ErrMissingClaims,
		apperr.ErrAlreadyLinked,
		apperr.ErrProvisioning,
		apperr.ErrNotApplicable,
	}
	for _, kind := range kinds {
		t.Run(kind.Code, func(t *testing.T) {
			router := ssoRouter(&stubChain{err: kind})
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodPost, "/auth/sso", strings.NewReader(validLoginBody))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), "authentication_failed")
			if strings.Contains(w.Body.String(), kind.Code) {
				t.Errorf("response leaks failure kind %q", kind.Code)
			}
		})
	}
}

func TestSSOLogin_BadRequest(t *testing.T) {
	router := ssoRouter(&stubChain{})

	// missing access_token
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/auth/sso", strings.NewReader(`{"sub":"abc123","iss":"https://sso.example.com","id_token":"id"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
