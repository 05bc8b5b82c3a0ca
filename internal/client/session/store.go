// Package session holds the client-side view of the merged current user.
package session

import (
	"context"
	"sync"
	"sync/atomic"

	"bazaar/internal/client/eventbus"
	"bazaar/internal/domain/entity"
	"bazaar/internal/errors"
)

// Backend is the subset of the API client the store needs.
type Backend interface {
	Me(ctx context.Context) (*entity.CurrentUser, error)
	AdoptSession(ctx context.Context, token string) (*entity.CurrentUser, error)
	Logout(ctx context.Context) error
}

// Store caches the last resolved CurrentUser. A nil user is a guest.
type Store struct {
	backend Backend
	changes *eventbus.Bus[*entity.CurrentUser]

	mu      sync.RWMutex
	current *entity.CurrentUser

	inflight atomic.Int32
}

func New(backend Backend) *Store {
	return &Store{
		backend: backend,
		changes: eventbus.New[*entity.CurrentUser](),
	}
}

// Changes publishes the user after every Refresh, Adopt and Logout.
func (s *Store) Changes() *eventbus.Bus[*entity.CurrentUser] {
	return s.changes
}

func (s *Store) Current() *entity.CurrentUser {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.current
}

func (s *Store) IsLoggedIn() bool {
	return s.Current() != nil
}

// IsLoading is true while any Refresh, Adopt or Logout is in flight.
func (s *Store) IsLoading() bool {
	return s.inflight.Load() > 0
}

// Refresh asks the server who the caller is. On failure the cached user is kept.
func (s *Store) Refresh(ctx context.Context) (*entity.CurrentUser, error) {
	s.inflight.Add(1)
	defer s.inflight.Add(-1)

	user, err := s.backend.Me(ctx)
	if err != nil {
		return s.Current(), errors.Wrap(err, "failed to resolve current user")
	}

	s.set(ctx, user)

	return user, nil
}

// Adopt signs in with a bearer token obtained from a silent login.
func (s *Store) Adopt(ctx context.Context, token string) (*entity.CurrentUser, error) {
	s.inflight.Add(1)
	defer s.inflight.Add(-1)

	if _, err := s.backend.AdoptSession(ctx, token); err != nil {
		return nil, errors.Wrap(err, "failed to adopt session")
	}

	// Re-resolve so the store reflects the merged view, not just the adopted credential.
	user, err := s.backend.Me(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve adopted session")
	}

	s.set(ctx, user)

	return user, nil
}

// Logout forgets the user locally even when the server call fails.
func (s *Store) Logout(ctx context.Context) error {
	s.inflight.Add(1)
	defer s.inflight.Add(-1)

	err := s.backend.Logout(ctx)
	s.set(ctx, nil)

	return errors.Wrap(err, "failed to log out")
}

func (s *Store) set(ctx context.Context, user *entity.CurrentUser) {
	s.mu.Lock()
	s.current = user
	s.mu.Unlock()

	_ = s.changes.Publish(ctx, user)
}
