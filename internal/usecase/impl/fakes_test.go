package impl

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"bazaar/config"
	"bazaar/internal/domain/entity"
	"bazaar/internal/domain/repository"
	"bazaar/internal/domain/service"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig() *config.Config {
	return &config.Config{
		Session: &config.SessionConfig{SessionTTL: 24 * time.Hour},
		WeChat:  &config.WeChatConfig{CodeCacheTTL: 5 * time.Minute},
	}
}

// memoryStore is an in-memory stand-in for the relational store. Unique constraints on
// users.email, users.username and provider_links(provider, provider_account_id) are enforced.
// Rows written inside a transaction stay invisible to others until it commits, and an insert
// that collides with another open transaction's key waits for it to end.
type memoryStore struct {
	mu            sync.Mutex
	nextID        int64
	users         map[int64]*entity.User
	links         []*entity.ProviderLink
	sessions      map[uuid.UUID]*entity.PlatformSession
	notifications []*entity.Notification
	locationLogs  []*entity.LocationLog

	// keys maps each unique key to the open transaction holding it, or nil once committed.
	keys map[string]*memoryTx
	// pending maps uncommitted row ids to their transaction.
	pending   map[int64]*memoryTx
	conflicts int

	// beforeLinkCreate runs inside Create before the uniqueness check. It plays a concurrent
	// request that commits independently of the open transaction.
	beforeLinkCreate func()
	// afterLinkMiss runs when a link lookup inside a transaction finds nothing.
	afterLinkMiss func()
}

// memoryTx is one open transaction.
type memoryTx struct {
	undo []func()
	keys []string
	rows []int64
	done chan struct{}
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:    map[int64]*entity.User{},
		sessions: map[uuid.UUID]*entity.PlatformSession{},
		keys:     map[string]*memoryTx{},
		pending:  map[int64]*memoryTx{},
	}
}

// claim reserves unique keys for tx. Caller holds s.mu, which is released while waiting on
// another open transaction that holds one of the keys.
func (s *memoryStore) claim(tx *memoryTx, keys ...string) error {
	for owner := s.pendingOwner(tx, keys); owner != nil; owner = s.pendingOwner(tx, keys) {
		s.mu.Unlock()
		<-owner.done
		s.mu.Lock()
	}

	for _, key := range keys {
		if _, taken := s.keys[key]; taken {
			s.conflicts++

			return repository.ErrConflict
		}
	}

	for _, key := range keys {
		s.keys[key] = tx
	}
	if tx != nil {
		tx.keys = append(tx.keys, keys...)
		tx.undo = append(tx.undo, func() {
			for _, key := range keys {
				delete(s.keys, key)
			}
		})
	}

	return nil
}

func (s *memoryStore) pendingOwner(tx *memoryTx, keys []string) *memoryTx {
	for _, key := range keys {
		if owner := s.keys[key]; owner != nil && owner != tx {
			return owner
		}
	}

	return nil
}

// insert hides row id from other transactions until tx ends and journals its removal.
// Caller holds s.mu.
func (s *memoryStore) insert(tx *memoryTx, id int64, remove func()) {
	if tx == nil {
		return
	}

	s.pending[id] = tx
	tx.rows = append(tx.rows, id)
	tx.undo = append(tx.undo, remove)
}

// visible reports whether a reader in tx sees row id. Caller holds s.mu.
func (s *memoryStore) visible(tx *memoryTx, id int64) bool {
	owner, pending := s.pending[id]

	return !pending || owner == tx
}

// finish commits or rolls back tx and wakes its waiters.
func (s *memoryStore) finish(tx *memoryTx, commit bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if commit {
		for _, key := range tx.keys {
			s.keys[key] = nil
		}
	} else {
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
	}

	for _, id := range tx.rows {
		delete(s.pending, id)
	}
	close(tx.done)
}

func (s *memoryStore) linkCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.links)
}

func (s *memoryStore) userCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.users)
}

func (s *memoryStore) notificationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.notifications)
}

func (s *memoryStore) conflictCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.conflicts
}

// --- users ---

// memoryUserRepo reads and writes inside tx, or autocommits when tx is nil.
type memoryUserRepo struct {
	s  *memoryStore
	tx *memoryTx
}

func (r memoryUserRepo) FindByID(_ context.Context, id int64) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if u, ok := r.s.users[id]; ok && r.s.visible(r.tx, id) {
		clone := *u

		return &clone, nil
	}

	return nil, repository.ErrUserNotFound
}

func (r memoryUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == email && r.s.visible(r.tx, u.ID) {
			clone := *u

			return &clone, nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r memoryUserRepo) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Username != nil && *u.Username == username && r.s.visible(r.tx, u.ID) {
			clone := *u

			return &clone, nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r memoryUserRepo) Create(_ context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	keys := []string{"users.email:" + user.Email}
	if user.Username != nil {
		keys = append(keys, "users.username:"+*user.Username)
	}
	if err := r.s.claim(r.tx, keys...); err != nil {
		return err
	}

	r.s.nextID++
	user.ID = r.s.nextID
	user.CreatedAt = time.Now()
	clone := *user
	r.s.users[user.ID] = &clone
	id := user.ID
	r.s.insert(r.tx, id, func() { delete(r.s.users, id) })

	return nil
}

// --- links ---

type memoryLinkRepo struct {
	s  *memoryStore
	tx *memoryTx
}

func linkKey(provider entity.ProviderType, providerAccountID string) string {
	return "provider_links:" + provider.String() + "/" + providerAccountID
}

func (r memoryLinkRepo) Create(_ context.Context, link *entity.ProviderLink) error {
	r.s.mu.Lock()
	hook := r.s.beforeLinkCreate
	r.s.beforeLinkCreate = nil
	r.s.mu.Unlock()

	if hook != nil {
		hook()
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.claim(r.tx, linkKey(link.Provider, link.ProviderAccountID)); err != nil {
		return err
	}

	r.s.nextID++
	link.ID = r.s.nextID
	clone := *link
	r.s.links = append(r.s.links, &clone)
	r.s.insert(r.tx, clone.ID, func() { r.s.links = removeLink(r.s.links, clone.ID) })

	return nil
}

func (r memoryLinkRepo) Find(_ context.Context, provider entity.ProviderType, providerAccountID string) (*entity.ProviderLink, error) {
	r.s.mu.Lock()
	for _, l := range r.s.links {
		if l.Provider == provider && l.ProviderAccountID == providerAccountID && r.s.visible(r.tx, l.ID) {
			clone := *l
			r.s.mu.Unlock()

			return &clone, nil
		}
	}
	hook := r.s.afterLinkMiss
	r.s.mu.Unlock()

	if hook != nil && r.tx != nil {
		hook()
	}

	return nil, repository.ErrLinkNotFound
}

func (r memoryLinkRepo) FindByUserAndProvider(_ context.Context, userID int64, provider entity.ProviderType) (*entity.ProviderLink, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, l := range r.s.links {
		if l.UserID == userID && l.Provider == provider && r.s.visible(r.tx, l.ID) {
			clone := *l

			return &clone, nil
		}
	}

	return nil, repository.ErrLinkNotFound
}

// --- notifications, sessions, location logs ---

type memoryNotificationRepo struct {
	s  *memoryStore
	tx *memoryTx
}

func (r memoryNotificationRepo) Create(_ context.Context, n *entity.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextID++
	n.ID = r.s.nextID
	r.s.notifications = append(r.s.notifications, n)
	id := n.ID
	r.s.insert(r.tx, id, func() { r.s.notifications = removeNotification(r.s.notifications, id) })

	return nil
}

func (r memoryNotificationRepo) ListByUser(_ context.Context, userID int64, _ int) ([]*entity.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*entity.Notification
	for _, n := range r.s.notifications {
		if n.UserID == userID && r.s.visible(r.tx, n.ID) {
			out = append(out, n)
		}
	}

	return out, nil
}

type memorySessionRepo struct{ s *memoryStore }

func (r memorySessionRepo) Create(_ context.Context, session *entity.PlatformSession) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	clone := *session
	r.s.sessions[session.ID] = &clone

	return nil
}

func (r memorySessionRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.PlatformSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if session, ok := r.s.sessions[id]; ok {
		clone := *session

		return &clone, nil
	}

	return nil, repository.ErrSessionNotFound
}

func (r memorySessionRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.sessions, id)

	return nil
}

type memoryLocationLogRepo struct{ s *memoryStore }

func (r memoryLocationLogRepo) Create(_ context.Context, log *entity.LocationLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	r.s.locationLogs = append(r.s.locationLogs, log)

	return nil
}

func removeLink(links []*entity.ProviderLink, id int64) []*entity.ProviderLink {
	out := links[:0:0]
	for _, l := range links {
		if l.ID != id {
			out = append(out, l)
		}
	}

	return out
}

func removeNotification(notifications []*entity.Notification, id int64) []*entity.Notification {
	out := notifications[:0:0]
	for _, n := range notifications {
		if n.ID != id {
			out = append(out, n)
		}
	}

	return out
}

// memoryTxManager runs each transaction against its own journal; transactions interleave freely.
type memoryTxManager struct {
	s *memoryStore
}

type memoryRepoFactory struct {
	s  *memoryStore
	tx *memoryTx
}

func (f memoryRepoFactory) UserRepo() repository.UserRepository { return memoryUserRepo(f) }

func (f memoryRepoFactory) LinkRepo() repository.ProviderLinkRepository { return memoryLinkRepo(f) }

func (f memoryRepoFactory) NotificationRepo() repository.NotificationRepository {
	return memoryNotificationRepo(f)
}

func (tm *memoryTxManager) Execute(_ context.Context, fn func(repository.RepositoryFactory) error) error {
	tx := &memoryTx{done: make(chan struct{})}

	err := fn(memoryRepoFactory{s: tm.s, tx: tx})
	tm.s.finish(tx, err == nil)

	return err
}

// --- services ---

type recordingPublisher struct {
	mu     sync.Mutex
	events []*service.AccountLinkedEvent
	err    error
}

func (p *recordingPublisher) PublishAccountLinked(_ context.Context, event *service.AccountLinkedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)

	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.events)
}

type recordingMetrics struct {
	mu        sync.Mutex
	exchanges map[string]int
	links     map[string]int
	sources   map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		exchanges: map[string]int{},
		links:     map[string]int{},
		sources:   map[string]int{},
	}
}

func (m *recordingMetrics) RecordExchange(provider, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exchanges[provider+"/"+outcome]++
}

func (m *recordingMetrics) RecordLinkCreated(provider string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[provider]++
}

func (m *recordingMetrics) RecordCurrentUser(source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources[source]++
}

type mockLineVerifier struct{ mock.Mock }

func (m *mockLineVerifier) VerifyIDToken(ctx context.Context, idToken string) (*entity.ProviderIdentity, error) {
	args := m.Called(ctx, idToken)
	if identity, ok := args.Get(0).(*entity.ProviderIdentity); ok {
		return identity, args.Error(1)
	}

	return nil, args.Error(1)
}

type mockWeChatExchanger struct{ mock.Mock }

func (m *mockWeChatExchanger) ExchangeCode(ctx context.Context, code string) (*entity.ProviderIdentity, error) {
	args := m.Called(ctx, code)
	if identity, ok := args.Get(0).(*entity.ProviderIdentity); ok {
		return identity, args.Error(1)
	}

	return nil, args.Error(1)
}

type staticDevResolver map[string]*entity.ProviderIdentity

func (r staticDevResolver) Resolve(idToken string) (*entity.ProviderIdentity, bool) {
	identity, ok := r[idToken]

	return identity, ok
}

type mapCodeCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func newMapCodeCache() *mapCodeCache {
	return &mapCodeCache{entries: map[string]string{}}
}

func (c *mapCodeCache) Get(_ context.Context, code string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.entries[code]

	return v, ok, nil
}

func (c *mapCodeCache) Set(_ context.Context, code, accountID string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[code] = accountID

	return nil
}

// fakeTokens issues opaque tokens of the form "bearer:<id>" / "session:<sid>".
type fakeTokens struct {
	mu       sync.Mutex
	bearers  map[string]*entity.BearerClaims
	sessions map[string]*entity.SessionClaims
	seq      int
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{
		bearers:  map[string]*entity.BearerClaims{},
		sessions: map[string]*entity.SessionClaims{},
	}
}

func (f *fakeTokens) IssueBearer(userID int64, email string, provider entity.ProviderType) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	token := "bearer:" + uuid.NewString()
	f.bearers[token] = &entity.BearerClaims{UserID: userID, Email: email, Provider: provider}

	return token, nil
}

func (f *fakeTokens) VerifyBearer(token string) (*entity.BearerClaims, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if claims, ok := f.bearers[token]; ok {
		return claims, nil
	}

	return nil, service.ErrTokenInvalid
}

func (f *fakeTokens) IssueSession(sessionID uuid.UUID, userID int64, expiresAt time.Time) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	token := "session:" + sessionID.String()
	f.sessions[token] = &entity.SessionClaims{SessionID: sessionID, UserID: userID, ExpiresAt: expiresAt}

	return token, nil
}

func (f *fakeTokens) VerifySession(token string) (*entity.SessionClaims, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if claims, ok := f.sessions[token]; ok {
		return claims, nil
	}

	return nil, service.ErrTokenInvalid
}

func (f *fakeTokens) BearerTTL() time.Duration { return 7 * 24 * time.Hour }
