package entity

// SessionKind is the coarse provider shape exposed to the rest of the application.
type SessionKind string

const (
	SessionKindOAuth       SessionKind = "oauth"
	SessionKindTraditional SessionKind = "traditional"
)

// CurrentUserSource records which credential won the precedence contest.
type CurrentUserSource string

const (
	SourcePlatformSession CurrentUserSource = "platform_session"
	SourceBearer          CurrentUserSource = "bearer"
	SourceLegacy          CurrentUserSource = "legacy"
)

// CurrentUser is the merged identity view for one request. It is never persisted.
type CurrentUser struct {
	ID           int64             `json:"id"`
	Email        string            `json:"email"`
	Name         string            `json:"name"`
	Username     string            `json:"username,omitempty"`
	Provider     SessionKind       `json:"provider"`
	AuthProvider ProviderType      `json:"authProvider,omitempty"`
	Source       CurrentUserSource `json:"source"`
}

// CurrentUserFromUser maps a stored user to the oauth-shaped view.
func CurrentUserFromUser(user *User, authProvider ProviderType, source CurrentUserSource) *CurrentUser {
	return &CurrentUser{
		ID:           user.ID,
		Email:        user.Email,
		Name:         user.Name,
		Username:     user.DisplayUsername(),
		Provider:     SessionKindOAuth,
		AuthProvider: authProvider,
		Source:       source,
	}
}
