package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/witcom-dev/ssobridge/apperr"
	"github.com/witcom-dev/ssobridge/oidc"
	"github.com/witcom-dev/ssobridge/reconcile"
)

// Service wires the authentication chain to the HTTP surface.
type Service struct {
	Chain    reconcile.Authenticator
	Server   *oidc.ServerConfig
	Auth     *JWTAuth
	Attempts *Attempts
	Metrics  *Metrics
	Logger   *logrus.Logger
}

// ssoLoginRequest is the verified tuple the upstream token exchange hands
// over. The refresh token is optional; not every provider issues one.
type ssoLoginRequest struct {
	Subject      string `json:"sub" binding:"required"`
	Issuer       string `json:"iss" binding:"required"`
	IDToken      string `json:"id_token" binding:"required"`
	AccessToken  string `json:"access_token" binding:"required"`
	RefreshToken string `json:"refresh_token"`
}

// SSOLogin runs one authentication attempt and establishes a session on
// success. Every fatal reconciliation outcome collapses to a generic
// authentication_failed for the caller; the specific kind only reaches the
// logs, the outcome counter, and the per-subject attempt tracker.
func (s *Service) SSOLogin(c *gin.Context) {
	var req ssoLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr := apperr.Wrap(err, apperr.ErrBadRequest, "")
		c.JSON(apperr.Status(bindErr), apperr.Payload(bindErr))
		return
	}

	carrier := &oidc.CarrierToken{
		Subject:      req.Subject,
		Issuer:       req.Issuer,
		Server:       s.Server,
		IDToken:      req.IDToken,
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
	}

	token, err := s.Chain.Authenticate(c.Request.Context(), carrier)
	if err != nil {
		kind := apperr.Code(err)
		s.Metrics.Observe(kind)
		s.Attempts.Record(req.Subject)
		s.Logger.WithFields(logrus.Fields{
			"request_id": RequestIDFromCtx(c),
			"sub":        req.Subject,
			"iss":        req.Issuer,
			"kind":       kind,
		}).WithError(err).Warn("authentication failed")
		c.JSON(http.StatusUnauthorized, gin.H{"code": "authentication_failed", "message": "authentication failed"})
		return
	}

	session, err := s.Auth.GenerateJWT(token.PreferredUsername, token.Authorities)
	if err != nil {
		s.Metrics.Observe("session_error")
		s.Logger.WithError(err).Error("session token issuance failed")
		c.JSON(http.StatusInternalServerError, gin.H{"code": "jwt_failed", "message": "could not establish session"})
		return
	}

	s.Metrics.Observe("success")
	c.Header("Authorization", session)
	c.JSON(http.StatusOK, gin.H{"authorization": session, "principal": token})
}

// Me returns the current session principal.
func (s *Service) Me(c *gin.Context) {
	login := c.GetString("login")
	if login == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"code": "unauthorized", "message": "missing session"})
		return
	}
	authorities, _ := c.Get("authorities")
	c.JSON(http.StatusOK, gin.H{"login": login, "authorities": authorities})
}
