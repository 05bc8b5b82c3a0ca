package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProviderType_SyntheticEmail(t *testing.T) {
	tests := []struct {
		provider ProviderType
		id       string
		want     string
	}{
		{provider: ProviderTypeWeChat, id: "OPENID_1", want: "OPENID_1@wechat.user"},
		{provider: ProviderTypeLine, id: "U1234", want: "U1234@line.local"},
		{provider: ProviderTypeFacebook, id: "1029", want: "1029@facebook.local"},
		{provider: ProviderType("Kakao"), id: "k1", want: "k1@kakao.local"},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.provider.SyntheticEmail(tt.id))
		})
	}
}

func TestProviderType_SyntheticEmailsNeverCollideAcrossProviders(t *testing.T) {
	assert.NotEqual(t,
		ProviderTypeLine.SyntheticEmail("SAME"),
		ProviderTypeWeChat.SyntheticEmail("SAME"),
	)
}

func TestIsSyntheticEmail(t *testing.T) {
	assert.True(t, IsSyntheticEmail(ProviderTypeWeChat.SyntheticEmail("OPENID_1")))
	assert.True(t, IsSyntheticEmail("U1@LINE.local"))
	assert.True(t, IsSyntheticEmail("k1@kakao.local"))
	assert.False(t, IsSyntheticEmail("bob@example.com"))
	assert.False(t, IsSyntheticEmail("no-at-sign"))
}

func TestProviderType_IsValid(t *testing.T) {
	assert.True(t, ProviderTypeLine.IsValid())
	assert.True(t, ProviderTypeCredentials.IsValid())
	assert.False(t, ProviderType("google").IsValid())
}

func TestPlatformSession_IsExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	session := &PlatformSession{ExpiresAt: now.Add(time.Minute)}

	assert.False(t, session.IsExpired(now))
	assert.True(t, session.IsExpired(now.Add(time.Minute)))
}

func TestCurrentUserFromUser(t *testing.T) {
	username := "mika"
	user := &User{ID: 7, Email: "m@example.com", Name: "Mika", Username: &username}

	current := CurrentUserFromUser(user, ProviderTypeLine, SourceBearer)

	assert.Equal(t, int64(7), current.ID)
	assert.Equal(t, SessionKindOAuth, current.Provider)
	assert.Equal(t, "mika", current.Username)
	assert.Equal(t, SourceBearer, current.Source)
}
