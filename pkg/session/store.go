package session

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/edmunds-dev/edmunds/pkg/cache"
)

// Store persists sessions by token.
type Store interface {
	// Get returns ErrNotFound or ErrExpired when the token is unusable.
	Get(ctx context.Context, token string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, token string) error
	// DeleteByUserID removes every session of a user.
	DeleteByUserID(ctx context.Context, userID string) error
}

// CacheStore keeps sessions in a cache.Cache, memory or Redis.
// A second cache indexes tokens by user for DeleteByUserID.
type CacheStore struct {
	sessions cache.Cache[*Session]
	users    cache.Cache[[]string]
	now      func() time.Time
	mu       sync.Mutex // serializes index updates in this process
}

// StoreOption configures a CacheStore.
type StoreOption func(*CacheStore)

// WithUserIndex enables DeleteByUserID. Without it DeleteByUserID is a no-op.
func WithUserIndex(users cache.Cache[[]string]) StoreOption {
	return func(s *CacheStore) { s.users = users }
}

// WithStoreClock replaces time.Now.
func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *CacheStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewCacheStore creates a store over sessions.
func NewCacheStore(sessions cache.Cache[*Session], opts ...StoreOption) *CacheStore {
	s := &CacheStore{sessions: sessions, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *CacheStore) Get(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	sess, err := s.sessions.Get(ctx, token)
	if errors.Is(err, cache.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if sess.ExpiredAt(s.now()) {
		_ = s.sessions.Delete(ctx, token)
		return nil, ErrExpired
	}
	return sess, nil
}

// Save writes s under its token until it expires and indexes its user.
func (s *CacheStore) Save(ctx context.Context, sess *Session) error {
	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return ErrExpired
	}
	if err := s.sessions.Set(ctx, sess.Token, sess, ttl); err != nil {
		return err
	}
	if sess.UserID == "" || s.users == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.users.Get(ctx, sess.UserID)
	if err != nil && !errors.Is(err, cache.ErrNotFound) {
		return err
	}
	if slices.Contains(tokens, sess.Token) {
		return nil
	}
	return s.users.Set(ctx, sess.UserID, append(tokens, sess.Token), ttl)
}

func (s *CacheStore) Delete(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

func (s *CacheStore) DeleteByUserID(ctx context.Context, userID string) error {
	if s.users == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.users.Get(ctx, userID)
	if errors.Is(err, cache.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	errs := make([]error, 0, len(tokens)+1)
	for _, t := range tokens {
		errs = append(errs, s.sessions.Delete(ctx, t))
	}
	errs = append(errs, s.users.Delete(ctx, userID))
	return errors.Join(errs...)
}

var _ Store = (*CacheStore)(nil)
