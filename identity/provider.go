// Package identity persists local users, their authorities, and their links
// to external identity providers.
package identity

import (
	"fmt"
	"strings"
)

// Provider names a configured external identity provider. Values are
// normalized to upper case so comparisons are case-insensitive; which
// providers are actually live is a configuration concern, not a code one.
type Provider string

// ProviderDummySSO is the single provider configured today.
const ProviderDummySSO Provider = "DUMMYSSO"

// ParseProvider normalizes a provider name. Blank names are rejected.
func ParseProvider(value string) (Provider, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("blank provider name")
	}
	return Provider(strings.ToUpper(value)), nil
}

func (p Provider) String() string {
	return string(p)
}
