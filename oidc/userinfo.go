package oidc

import "strings"

// UserInfo is the per-request claims payload fetched from the provider's
// userinfo endpoint. It is never persisted; only the subject and the
// identity fields feed provisioning. Unknown response fields are ignored.
type UserInfo struct {
	Sub               string `json:"sub"`
	GivenName         string `json:"given_name"`
	FamilyName        string `json:"family_name"`
	Email             string `json:"email"`
	PreferredUsername string `json:"preferred_username"`
}

// MissingRequired reports which of the claims needed for first-login
// provisioning are blank.
func (u *UserInfo) MissingRequired() []string {
	var missing []string
	if strings.TrimSpace(u.GivenName) == "" {
		missing = append(missing, "given_name")
	}
	if strings.TrimSpace(u.FamilyName) == "" {
		missing = append(missing, "family_name")
	}
	if strings.TrimSpace(u.Email) == "" {
		missing = append(missing, "email")
	}
	return missing
}
