package silentlogin

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLineDriver(sdk *fakeLiff, exchanger *fakeExchanger, sessions *fakeSessions, local, visit KeyValueStore) *LineDriver {
	return NewLineDriver(LineDriverParams{
		SDK:         sdk,
		LiffID:      "1650000000-abcd",
		RedirectURI: "https://shop.example/p/1",
		Exchanger:   exchanger,
		Sessions:    sessions,
		Local:       local,
		Visit:       visit,
	})
}

func TestLineDriver_ExchangesAndAdopts(t *testing.T) {
	sdk := &fakeLiff{loggedIn: true, idToken: "liff-id-token"}
	exchanger := &fakeExchanger{}
	sessions := &fakeSessions{}

	err := newTestLineDriver(sdk, exchanger, sessions, NewMemoryStore(), NewMemoryStore()).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"liff-id-token"}, exchanger.lineCalls)
	assert.Equal(t, []string{"line-bearer"}, sessions.adopted)
}

func TestLineDriver_RedirectsAtMostOncePerVisit(t *testing.T) {
	sdk := &fakeLiff{}
	visit := NewMemoryStore()
	driver := newTestLineDriver(sdk, &fakeExchanger{}, &fakeSessions{}, NewMemoryStore(), visit)

	assert.ErrorIs(t, driver.Run(context.Background()), ErrRedirected)
	assert.ErrorIs(t, driver.Run(context.Background()), ErrNoCredential)
	assert.Equal(t, []string{"https://shop.example/p/1"}, sdk.loginCalls)
}

func TestLineDriver_ShortCircuits(t *testing.T) {
	t.Run("before network", func(t *testing.T) {
		exchanger := &fakeExchanger{}
		sessions := &fakeSessions{}
		sessions.signIn(1)

		err := newTestLineDriver(&fakeLiff{loggedIn: true, idToken: "t"}, exchanger, sessions, NewMemoryStore(), NewMemoryStore()).
			Run(context.Background())

		assert.ErrorIs(t, err, ErrSessionExists)
		assert.Empty(t, exchanger.lineCalls)
	})

	t.Run("before adopting", func(t *testing.T) {
		sessions := &fakeSessions{}
		exchanger := &fakeExchanger{duringCall: func() { sessions.signIn(2) }}

		err := newTestLineDriver(&fakeLiff{loggedIn: true, idToken: "t"}, exchanger, sessions, NewMemoryStore(), NewMemoryStore()).
			Run(context.Background())

		assert.ErrorIs(t, err, ErrSessionExists)
		assert.Zero(t, sessions.adoptCount())
	})
}

func TestLineDriver_PurgesExpiredTokenCache(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		exp        time.Time
		wantPurged bool
	}{
		{name: "expired", exp: now.Add(-time.Minute), wantPurged: true},
		{name: "still valid", exp: now.Add(time.Hour), wantPurged: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			local := NewMemoryStore()
			local.Set("LIFF_STORE:1650000000-abcd:decodedIDToken", `{"exp":`+strconv.FormatInt(tt.exp.Unix(), 10)+`}`)
			local.Set("LIFF_STORE:1650000000-abcd:IDToken", "old")
			local.Set("bazaar.bearer", "keep")

			driver := newTestLineDriver(&fakeLiff{loggedIn: true, idToken: "t"}, &fakeExchanger{}, &fakeSessions{}, local, NewMemoryStore())
			driver.now = func() time.Time { return now }
			require.NoError(t, driver.Run(context.Background()))

			if tt.wantPurged {
				assert.Equal(t, []string{"bazaar.bearer"}, local.Keys())
			} else {
				assert.Len(t, local.Keys(), 3)
			}
		})
	}
}

func TestLineDriver_IgnoresUnreadableCache(t *testing.T) {
	local := NewMemoryStore()
	local.Set("LIFF_STORE:1650000000-abcd:decodedIDToken", "{not json")

	driver := newTestLineDriver(&fakeLiff{loggedIn: true, idToken: "t"}, &fakeExchanger{}, &fakeSessions{}, local, NewMemoryStore())

	require.NoError(t, driver.Run(context.Background()))
	assert.Len(t, local.Keys(), 1)
}
