package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Fixed key names of the persisted credential pair.
const (
	tokenKey  = "buzzy_token"
	userIDKey = "buzzy_user_id"
)

// Credential is the bearer token + user id pair issued by login/register.
type Credential struct {
	Token  string
	UserID string
}

// Valid reports whether both halves are present; a half-written pair counts as logged out.
func (c Credential) Valid() bool {
	return strings.TrimSpace(c.Token) != "" && strings.TrimSpace(c.UserID) != ""
}

// CredentialStore persists the credential across restarts. It holds no
// network or validation logic.
type CredentialStore interface {
	// Get never fails; backend problems are reported as absence.
	Get(ctx context.Context) (Credential, bool)
	// Set overwrites any existing credential.
	Set(ctx context.Context, token, userID string) error
	// Clear removes both fields and is idempotent.
	Clear(ctx context.Context) error
}

// MemoryCredentialStore keeps the credential for the process lifetime only.
type MemoryCredentialStore struct {
	mu   sync.RWMutex
	cred Credential
}

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{}
}

func (s *MemoryCredentialStore) Get(_ context.Context) (Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred, s.cred.Valid()
}

func (s *MemoryCredentialStore) Set(_ context.Context, token, userID string) error {
	s.mu.Lock()
	s.cred = Credential{Token: token, UserID: userID}
	s.mu.Unlock()
	return nil
}

func (s *MemoryCredentialStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.cred = Credential{}
	s.mu.Unlock()
	return nil
}

// NewCredentialStore builds the backend selected by cfg.CredentialBackend.
// The returned closer releases backend connections and is never nil.
func NewCredentialStore(ctx context.Context, cfg Config) (CredentialStore, func(), error) {
	noop := func() {}
	switch cfg.CredentialBackend {
	case BackendMemory:
		return NewMemoryCredentialStore(), noop, nil
	case "", BackendFile:
		store, err := NewFileCredentialStore(cfg.CredentialPath, cfg.CredentialKey)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	case BackendRedis:
		client, err := NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, noop, fmt.Errorf("connect redis: %w", err)
		}
		return NewRedisCredentialStore(client, cfg.CredentialSlot), func() { _ = client.Close() }, nil
	case BackendPostgres:
		pool, err := Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, fmt.Errorf("connect database: %w", err)
		}
		store := NewPgCredentialStore(pool, cfg.CredentialSlot)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, noop, fmt.Errorf("ensure credential schema: %w", err)
		}
		return store, pool.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown credential backend %q", cfg.CredentialBackend)
	}
}
