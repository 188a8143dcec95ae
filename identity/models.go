package identity

import "gorm.io/gorm"

// DefaultAuthority is the role every provisioned user starts with.
const DefaultAuthority = "ROLE_USER"

// User is a locally stored account. SSO-provisioned users are activated
// immediately; the email-activation step only exists on the (separate)
// password signup path.
type User struct {
	gorm.Model
	Login            string            `json:"login" gorm:"size:100;not null;uniqueIndex"`
	FirstName        string            `json:"first_name" gorm:"size:100"`
	LastName         string            `json:"last_name" gorm:"size:100"`
	Email            string            `json:"email" gorm:"size:191;index"`
	LangKey          string            `json:"lang_key" gorm:"size:8"`
	Activated        bool              `json:"activated"`
	Authorities      []Authority       `json:"authorities" gorm:"many2many:user_authorities"`
	ExternalAccounts []ExternalAccount `json:"external_accounts" gorm:"constraint:OnDelete:CASCADE"`
}

// AuthorityNames flattens the user's authority rows to their names.
func (u *User) AuthorityNames() []string {
	names := make([]string, 0, len(u.Authorities))
	for _, a := range u.Authorities {
		names = append(names, a.Name)
	}
	return names
}

// Authority is a named role.
type Authority struct {
	Name string `json:"name" gorm:"primaryKey;size:50"`
}

// ExternalAccount links a user to an external identity provider. The pair
// (provider, external_id) is unique across the store and never mutated once
// written; the row goes away only when its user does.
type ExternalAccount struct {
	gorm.Model
	UserID     uint   `json:"user_id" gorm:"index;not null"`
	Provider   string `json:"provider" gorm:"size:32;not null;index:idx_provider_external,unique"`
	ExternalID string `json:"external_id" gorm:"size:191;not null;index:idx_provider_external,unique"`
}

// SameIdentity reports whether two links name the same external identity,
// regardless of which user owns them.
func (a ExternalAccount) SameIdentity(other ExternalAccount) bool {
	return a.Provider == other.Provider && a.ExternalID == other.ExternalID
}
