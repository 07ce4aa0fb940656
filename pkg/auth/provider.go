package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/edmunds-dev/edmunds/pkg/cache"
)

// StaticProvider is an in-memory user store for development and tests.
// Usernames are matched case-insensitively against Principal.Email.
type StaticProvider struct {
	byID     map[string]Principal
	byEmail  map[string]string // email -> id
	password map[string][]byte // id -> bcrypt hash
	mu       sync.RWMutex
}

// NewStaticProvider creates an empty provider.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{
		byID:     make(map[string]Principal),
		byEmail:  make(map[string]string),
		password: make(map[string][]byte),
	}
}

// Add stores p with a bcrypt hash of password. An empty password disables
// credential login for p.
func (s *StaticProvider) Add(p Principal, password string) error {
	var hash []byte
	if password != "" {
		var err error
		if hash, err = bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.byID[p.ID] = p
	if p.Email != "" {
		s.byEmail[strings.ToLower(p.Email)] = p.ID
	}
	if hash != nil {
		s.password[p.ID] = hash
	}
	return nil
}

func (s *StaticProvider) FindByID(_ context.Context, id string) (Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[id]
	if !ok {
		return Principal{}, ErrUserNotFound
	}
	return p, nil
}

func (s *StaticProvider) Verify(_ context.Context, username, password string) (Principal, error) {
	s.mu.RLock()
	id, ok := s.byEmail[strings.ToLower(username)]
	hash := s.password[id]
	p := s.byID[id]
	s.mu.RUnlock()

	if !ok || hash == nil {
		return Principal{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return Principal{}, ErrInvalidCredentials
	}
	return p, nil
}

// CachedProvider caches FindByID results.
type CachedProvider struct {
	next   UserProvider
	loader *cache.Loader[Principal]
	ttl    time.Duration
}

// NewCachedProvider wraps next. Misses are loaded once per key concurrently.
func NewCachedProvider(next UserProvider, c cache.Cache[Principal], ttl time.Duration) *CachedProvider {
	return &CachedProvider{next: next, loader: cache.NewLoader(c), ttl: ttl}
}

func (p *CachedProvider) FindByID(ctx context.Context, id string) (Principal, error) {
	return p.loader.Get(ctx, id, p.ttl, func(ctx context.Context) (Principal, error) {
		return p.next.FindByID(ctx, id)
	})
}

// Invalidate drops id, e.g. after its roles change.
func (p *CachedProvider) Invalidate(ctx context.Context, id string) error {
	err := p.loader.Forget(ctx, id)
	if errors.Is(err, cache.ErrNotFound) {
		return nil
	}
	return err
}

var (
	_ UserProvider       = (*StaticProvider)(nil)
	_ CredentialVerifier = (*StaticProvider)(nil)
	_ UserProvider       = (*CachedProvider)(nil)
)
