package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"polimata/pkg/crmclient"
	"polimata/pkg/domain"
)

// State is the authentication state a client renders from.
type State struct {
	User          *domain.User `json:"user"`
	Authenticated bool         `json:"authenticated"`
}

// Auth drives login, logout and session restore against the backend,
// persisting credentials in a Store.
type Auth struct {
	client *crmclient.Client
	store  Store
	now    func() time.Time
}

func NewAuth(client *crmclient.Client, store Store) *Auth {
	return &Auth{client: client, store: store, now: time.Now}
}

// Store returns the credential store backing this Auth.
func (a *Auth) Store() Store { return a.store }

// Client returns a backend client that sends the stored token and forgets it on 401.
func (a *Auth) Client() *crmclient.Client {
	return a.client.WithTokens(a.store)
}

// Login authenticates and stores the credentials only after the user profile
// is fetched too. On any failure the stored state is left as it was.
func (a *Auth) Login(ctx context.Context, email, password string) (State, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return State{}, errors.New("email and password required")
	}
	tok, err := a.client.Login(ctx, email, password)
	if err != nil {
		return State{}, err
	}
	if strings.TrimSpace(tok.AccessToken) == "" {
		return State{}, errors.New("backend returned an empty access token")
	}
	user, err := a.client.WithToken(tok.AccessToken).Me(ctx)
	if err != nil {
		return State{}, fmt.Errorf("fetch profile: %w", err)
	}
	if err := a.store.Save(ctx, Credentials{AccessToken: tok.AccessToken, User: &user}); err != nil {
		return State{}, err
	}
	return State{User: &user, Authenticated: true}, nil
}

// Register creates an account. The caller still has to log in.
func (a *Auth) Register(ctx context.Context, in domain.RegisterInput) (domain.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" || in.Password == "" {
		return domain.User{}, errors.New("email and password required")
	}
	return a.client.Register(ctx, in)
}

func (a *Auth) Logout(ctx context.Context) error {
	return a.store.Clear(ctx)
}

// IsAuthenticated reports whether a token is stored, without asking the backend.
func (a *Auth) IsAuthenticated(ctx context.Context) bool {
	creds, ok, err := a.store.Load(ctx)
	return err == nil && ok && !creds.empty()
}

// Bootstrap restores the session from the store and verifies it with the backend.
// Expired tokens are dropped locally. A rejected token is discarded; a transport
// failure keeps it and reports the session as logged out for this call.
func (a *Auth) Bootstrap(ctx context.Context) (State, error) {
	creds, ok, err := a.store.Load(ctx)
	if err != nil {
		return State{}, err
	}
	if !ok {
		return State{}, nil
	}
	if a.expired(creds.AccessToken) {
		return State{}, a.store.Clear(ctx)
	}
	user, err := a.client.WithTokens(a.store).Me(ctx)
	if err != nil {
		if crmclient.StatusOf(err) == 0 {
			return State{}, fmt.Errorf("verify session: %w", err)
		}
		if clearErr := a.store.Clear(ctx); clearErr != nil {
			return State{}, clearErr
		}
		return State{}, nil
	}
	creds.User = &user
	if err := a.store.Save(ctx, creds); err != nil {
		return State{}, err
	}
	return State{User: &user, Authenticated: true}, nil
}

// expired reads the exp claim without verifying the signature; the backend
// remains the authority. Opaque tokens are never treated as expired.
func (a *Auth) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(a.now())
}
