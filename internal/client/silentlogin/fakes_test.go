package silentlogin

import (
	"context"
	"sync"

	"bazaar/internal/domain/entity"
	"bazaar/internal/errors"
)

const (
	lineUA     = "Mozilla/5.0 (iPhone) AppleWebKit Line/13.1.0"
	wechatUA   = "Mozilla/5.0 (iPhone) MicroMessenger/8.0.40 miniProgram"
	facebookUA = "Mozilla/5.0 (iPhone) [FBAN/FBIOS;FBAV/400.0]"
	browserUA  = "Mozilla/5.0 (Macintosh) Safari/605.1.15"
)

type fakeSessions struct {
	mu      sync.Mutex
	user    *entity.CurrentUser
	adopted []string

	adoptErr error
}

func (s *fakeSessions) IsLoggedIn() bool { return s.Current() != nil }

func (s *fakeSessions) Current() *entity.CurrentUser {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.user
}

func (s *fakeSessions) Adopt(_ context.Context, token string) (*entity.CurrentUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.adoptErr != nil {
		return nil, s.adoptErr
	}
	s.adopted = append(s.adopted, token)
	s.user = &entity.CurrentUser{ID: 77, Provider: entity.SessionKindOAuth, Source: entity.SourcePlatformSession}

	return s.user, nil
}

func (s *fakeSessions) signIn(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = &entity.CurrentUser{ID: id, Provider: entity.SessionKindOAuth}
}

func (s *fakeSessions) adoptCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.adopted)
}

type fakeExchanger struct {
	mu         sync.Mutex
	lineCalls  []string
	codeCalls  []string
	err        error
	block      bool
	duringCall func()
}

func (e *fakeExchanger) ExchangeLine(ctx context.Context, idToken string) (string, error) {
	e.mu.Lock()
	e.lineCalls = append(e.lineCalls, idToken)
	e.mu.Unlock()

	return e.respond(ctx, "line-bearer")
}

func (e *fakeExchanger) ExchangeWeChat(ctx context.Context, code string) (string, error) {
	e.mu.Lock()
	e.codeCalls = append(e.codeCalls, code)
	e.mu.Unlock()

	return e.respond(ctx, "wechat-bearer")
}

func (e *fakeExchanger) respond(ctx context.Context, token string) (string, error) {
	if e.duringCall != nil {
		e.duringCall()
	}
	if e.block {
		<-ctx.Done()

		return "", errors.Wrap(ctx.Err(), "provider timeout")
	}
	if e.err != nil {
		return "", e.err
	}

	return token, nil
}

type fakeLiff struct {
	loggedIn   bool
	idToken    string
	initErr    error
	loginCalls []string
}

func (f *fakeLiff) Init(context.Context, string) error { return f.initErr }

func (f *fakeLiff) IsLoggedIn() bool { return f.loggedIn }

func (f *fakeLiff) Login(redirectURI string) error {
	f.loginCalls = append(f.loginCalls, redirectURI)

	return nil
}

func (f *fakeLiff) GetIDToken() string { return f.idToken }

type recordingNavigator struct {
	urls []string
}

func (n *recordingNavigator) Navigate(url string) error {
	n.urls = append(n.urls, url)

	return nil
}

type staticSignIn struct{}

func (staticSignIn) SignInURL(provider entity.ProviderType, callbackURL string) string {
	return "https://shop.example/auth/signin/" + provider.String() + "?callbackUrl=" + callbackURL
}
