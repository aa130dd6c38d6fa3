package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"polimata/pkg/crmclient"
	"polimata/pkg/domain"
)

// ErrNotAuthenticated is returned when an operation needs stored credentials and there are none.
var ErrNotAuthenticated = errors.New("not authenticated")

// ErrStoreUnavailable marks a failure of the credential store itself, as
// opposed to the store holding no credentials.
var ErrStoreUnavailable = errors.New("session store unavailable")

// Credentials is what survives between runs: the bearer token and the user it belongs to.
type Credentials struct {
	AccessToken string       `json:"access_token"`
	User        *domain.User `json:"user,omitempty"`
}

func (c Credentials) empty() bool {
	return strings.TrimSpace(c.AccessToken) == ""
}

// Store persists credentials. Every Store doubles as the client's token source,
// so a backend 401 clears it.
type Store interface {
	crmclient.TokenSource
	Load(ctx context.Context) (Credentials, bool, error)
	Save(ctx context.Context, creds Credentials) error
	Clear(ctx context.Context) error
}

type loader interface {
	Load(ctx context.Context) (Credentials, bool, error)
}

func tokenFrom(ctx context.Context, s loader) (string, error) {
	creds, ok, err := s.Load(ctx)
	if err != nil || !ok {
		return "", err
	}
	return creds.AccessToken, nil
}

// MemoryStore keeps credentials in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	creds Credentials
	set   bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(context.Context) (Credentials, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.set {
		return Credentials{}, false, nil
	}
	return m.creds, true, nil
}

func (m *MemoryStore) Save(_ context.Context, creds Credentials) error {
	if creds.empty() {
		return errors.New("access token required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = creds
	m.set = true
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = Credentials{}
	m.set = false
	return nil
}

func (m *MemoryStore) AccessToken(ctx context.Context) (string, error) { return tokenFrom(ctx, m) }
func (m *MemoryStore) Discard(ctx context.Context) error               { return m.Clear(ctx) }
