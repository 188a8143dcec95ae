// Package reconcile converts a verified-but-unresolved carrier token into an
// authenticated principal backed by a local user account.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/witcom-dev/ssobridge/apperr"
	"github.com/witcom-dev/ssobridge/identity"
	"github.com/witcom-dev/ssobridge/oidc"
)

// ClaimsFetcher retrieves the provider's userinfo claims for a carrier
// token. A failed fetch must come back as an error, never as nil claims.
type ClaimsFetcher interface {
	Fetch(ctx context.Context, token *oidc.CarrierToken) (*oidc.UserInfo, error)
}

// IdentityStore is the slice of the persistence layer the provider needs.
type IdentityStore interface {
	FindUserByExternalAccount(ctx context.Context, provider identity.Provider, externalID string) (*identity.User, error)
	CreateUserWithExternalAccount(ctx context.Context, user *identity.User, provider identity.Provider, externalID string) (*identity.User, error)
}

// Authenticator is one provider in an authentication chain.
type Authenticator interface {
	Authenticate(ctx context.Context, token any) (*oidc.AuthenticatedToken, error)
}

// Provider reconciles carrier tokens from one external provider against the
// identity store: fetch claims, look up or provision the local user, derive
// authorities, and mint the authenticated token. All collaborators are
// injected; the provider keeps no state of its own.
type Provider struct {
	Name    identity.Provider
	Issuer  string
	Fetcher ClaimsFetcher
	Store   IdentityStore
	Logger  *logrus.Logger
	LangKey string
}

// Authenticate runs one authentication attempt. Tokens this provider does
// not handle return apperr.ErrNotApplicable so a chain can move on; every
// fatal condition returns its own apperr kind and never a partial token.
func (p *Provider) Authenticate(ctx context.Context, token any) (*oidc.AuthenticatedToken, error) {
	carrier, ok := token.(*oidc.CarrierToken)
	if !ok {
		return nil, apperr.ErrNotApplicable
	}
	if p.Issuer != "" && carrier.Issuer != p.Issuer {
		return nil, apperr.ErrNotApplicable
	}

	info, err := p.Fetcher.Fetch(ctx, carrier)
	if err != nil {
		p.Logger.WithError(err).WithField("sub", carrier.Subject).Warn("userinfo fetch failed, aborting authentication")
		if _, ok := apperr.As(err); ok {
			return nil, err
		}
		return nil, apperr.Wrap(err, apperr.ErrClaimsUnavailable, "")
	}
	if info == nil {
		return nil, apperr.Wrap(errors.New("fetcher returned no claims"), apperr.ErrClaimsUnavailable, "")
	}

	// The userinfo endpoint answering for a different identity than the one
	// the ID token vouched for is a security-relevant anomaly.
	if info.Sub != "" && info.Sub != carrier.Subject {
		p.Logger.WithFields(logrus.Fields{
			"token_sub":    carrier.Subject,
			"userinfo_sub": info.Sub,
			"issuer":       carrier.Issuer,
		}).Warn("subject mismatch between id token and userinfo")
		return nil, apperr.Wrap(fmt.Errorf("token sub %q, userinfo sub %q", carrier.Subject, info.Sub), apperr.ErrSubjectMismatch, "")
	}
	info.Sub = carrier.Subject

	user, err := p.Store.FindUserByExternalAccount(ctx, p.Name, carrier.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user, err = p.provision(ctx, carrier, info)
		if err != nil {
			return nil, err
		}
	}
	if !user.Activated {
		return nil, apperr.Wrap(fmt.Errorf("user %s is not activated", user.Login), apperr.ErrNotActivated, "")
	}

	authorities := user.AuthorityNames()
	p.Logger.WithFields(logrus.Fields{
		"login":       user.Login,
		"provider":    p.Name.String(),
		"authorities": authorities,
	}).Debug("authentication successful")

	return oidc.NewAuthenticatedToken(carrier, info, authorities), nil
}

// provision creates the local account on first login. The store re-checks
// the link inside its transaction, so a concurrent first login for the same
// identity leaves exactly one account; the loser sees ErrAlreadyLinked.
func (p *Provider) provision(ctx context.Context, carrier *oidc.CarrierToken, info *oidc.UserInfo) (*identity.User, error) {
	if missing := info.MissingRequired(); len(missing) > 0 {
		return nil, apperr.Wrap(
			fmt.Errorf("%s did not return: %s", p.Name, strings.Join(missing, ", ")),
			apperr.ErrMissingClaims, "")
	}

	login := strings.TrimSpace(info.PreferredUsername)
	if login == "" {
		login = carrier.Subject
	}
	langKey := p.LangKey
	if langKey == "" {
		langKey = "en"
	}

	user := &identity.User{
		Login:     login,
		FirstName: info.GivenName,
		LastName:  info.FamilyName,
		Email:     strings.ToLower(info.Email),
		LangKey:   langKey,
		Activated: true,
	}
	return p.Store.CreateUserWithExternalAccount(ctx, user, p.Name, carrier.Subject)
}

// Chain tries providers in order until one claims the token.
type Chain []Authenticator

func (c Chain) Authenticate(ctx context.Context, token any) (*oidc.AuthenticatedToken, error) {
	for _, a := range c {
		tok, err := a.Authenticate(ctx, token)
		if errors.Is(err, apperr.ErrNotApplicable) {
			continue
		}
		return tok, err
	}
	return nil, apperr.ErrNotApplicable
}
