package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/witcom-dev/ssobridge/apperr"
)

const defaultFetchTimeout = 10 * time.Second

// UserInfoFetcher retrieves the provider's userinfo claims for a carrier
// token. It issues exactly one HTTP call per Fetch, using the token delivery
// method from the carrier's server config. Every failure mode — missing
// config, transport error, non-2xx status, unparseable body, timeout — comes
// back as apperr.ErrClaimsUnavailable; the caller decides what that means.
type UserInfoFetcher struct {
	Client *http.Client
	Logger *logrus.Logger
}

// NewUserInfoFetcher builds a fetcher with a bounded HTTP client. A zero
// timeout selects the 10s default.
func NewUserInfoFetcher(timeout time.Duration, logger *logrus.Logger) *UserInfoFetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &UserInfoFetcher{
		Client: &http.Client{Timeout: timeout},
		Logger: logger,
	}
}

// Fetch loads the userinfo claims for the given carrier token.
func (f *UserInfoFetcher) Fetch(ctx context.Context, token *CarrierToken) (*UserInfo, error) {
	if token == nil || token.Server == nil {
		return nil, apperr.Wrap(errors.New("no server configuration on token"), apperr.ErrClaimsUnavailable, "")
	}
	if strings.TrimSpace(token.Server.UserInfoURI) == "" {
		return nil, apperr.Wrap(errors.New("no userinfo endpoint configured"), apperr.ErrClaimsUnavailable, "")
	}

	req, err := f.buildRequest(ctx, token)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrClaimsUnavailable, "")
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrClaimsUnavailable, "")
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		f.Logger.WithFields(logrus.Fields{"status": resp.StatusCode, "endpoint": token.Server.UserInfoURI}).Warn("userinfo fetch failed")
		return nil, apperr.Wrap(fmt.Errorf("userinfo endpoint returned %d", resp.StatusCode), apperr.ErrClaimsUnavailable, "")
	}

	var info UserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, apperr.Wrap(fmt.Errorf("parse userinfo response: %w", err), apperr.ErrClaimsUnavailable, "")
	}
	return &info, nil
}

func (f *UserInfoFetcher) buildRequest(ctx context.Context, token *CarrierToken) (*http.Request, error) {
	endpoint := token.Server.UserInfoURI

	switch token.Server.TokenMethod {
	case TokenMethodForm:
		form := url.Values{}
		form.Set("access_token", token.AccessToken)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil

	case TokenMethodQuery:
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, err
		}
		q := u.Query()
		q.Set("access_token", token.AccessToken)
		u.RawQuery = q.Encode()
		return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)

	default:
		// HEADER, including an unset method
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token.AccessToken)
		return req, nil
	}
}
