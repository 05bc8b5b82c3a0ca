package entity

import "strings"

// ProviderType names an identity source that can own a ProviderLink.
type ProviderType string

const (
	ProviderTypeLine        ProviderType = "line"
	ProviderTypeWeChat      ProviderType = "wechat"
	ProviderTypeFacebook    ProviderType = "facebook"
	ProviderTypeCredentials ProviderType = "credentials"
)

func (p ProviderType) String() string {
	return string(p)
}

// IsValid checks if the ProviderType is a known value.
func (p ProviderType) IsValid() bool {
	switch p {
	case ProviderTypeLine, ProviderTypeWeChat, ProviderTypeFacebook, ProviderTypeCredentials:
		return true
	default:
		return false
	}
}

// SyntheticEmailDomain is the domain used when a provider withholds the email address.
// Every provider gets a distinct domain so synthesized addresses never collide across providers.
func (p ProviderType) SyntheticEmailDomain() string {
	switch p {
	case ProviderTypeWeChat:
		return "wechat.user"
	case ProviderTypeLine:
		return "line.local"
	case ProviderTypeFacebook:
		return "facebook.local"
	default:
		return strings.ToLower(string(p)) + ".local"
	}
}

// SyntheticEmail builds the placeholder address for a provider account.
func (p ProviderType) SyntheticEmail(providerAccountID string) string {
	return providerAccountID + "@" + p.SyntheticEmailDomain()
}

// IsSyntheticEmail reports whether email falls in a domain reserved for synthesized addresses.
func IsSyntheticEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}

	domain := strings.ToLower(email[at+1:])

	return domain == ProviderTypeWeChat.SyntheticEmailDomain() || strings.HasSuffix(domain, ".local")
}
