// Package sources defines the persistence and identity contracts the rest of
// notable depends on. Drivers live in the subpackages: supabase, psql and
// memory.
package sources

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"notable/notable/sources/models"
)

// Identity is the caller a store is opened for. UserID is empty for an
// anonymous caller; AccessToken is only used by drivers that delegate
// authorization to the backend (Supabase row-level security).
type Identity struct {
	UserID      string
	AccessToken string
}

func (i Identity) Authenticated() bool {
	return i.UserID != ""
}

// NoteStore is the persistence client for the notes of one identity.
type NoteStore interface {
	// List returns every note owned by the identity, most recently updated first.
	List(ctx context.Context) ([]models.Note, error)
	GetByID(ctx context.Context, id string) (*models.Note, error)
	// Create fails with an auth error when the identity is anonymous.
	Create(ctx context.Context, title, content string) (*models.Note, error)
	Update(ctx context.Context, id string, fields models.NoteUpdate) (*models.Note, error)
	// Delete fails with a not-found error when no owned note has the id,
	// including on a second delete of the same id.
	Delete(ctx context.Context, id string) error
}

// Opener binds a NoteStore to an identity.
type Opener interface {
	Open(identity Identity) NoteStore
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(identity Identity) NoteStore

func (f OpenerFunc) Open(identity Identity) NoteStore { return f(identity) }

// User is the identity provider's view of the signed-in account.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// AuthResult is what a successful sign-in or code exchange yields.
type AuthResult struct {
	User         User
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Authenticator is the identity provider contract.
type Authenticator interface {
	SignInWithPassword(ctx context.Context, email, password string) (*AuthResult, error)
	// AuthorizeURL starts the OAuth redirect flow. The returned verifier must be
	// kept by the caller and handed back to ExchangeCode.
	AuthorizeURL(ctx context.Context, provider, redirectTo string) (authURL, verifier string, err error)
	ExchangeCode(ctx context.Context, code, verifier string) (*AuthResult, error)
	// User resolves an access token issued by this provider.
	User(ctx context.Context, accessToken string) (*User, error)
	SignOut(ctx context.Context, accessToken string) error
}

// Tokens is the access token table of the local identity drivers.
type Tokens struct {
	mu      sync.Mutex
	byToken map[string]issued
	ttl     time.Duration
}

type issued struct {
	user      User
	expiresAt time.Time
}

func NewTokens(ttl time.Duration) *Tokens {
	return &Tokens{byToken: make(map[string]issued), ttl: ttl}
}

// Issue mints a random token for u.
func (t *Tokens) Issue(u User) *AuthResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	token := uuid.NewString()
	exp := time.Now().Add(t.ttl)
	t.byToken[token] = issued{user: u, expiresAt: exp}
	return &AuthResult{User: u, AccessToken: token, ExpiresAt: exp}
}

func (t *Tokens) Lookup(token string) (User, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	in, ok := t.byToken[token]
	if !ok {
		return User{}, false
	}
	if time.Now().After(in.expiresAt) {
		delete(t.byToken, token)
		return User{}, false
	}
	return in.user, true
}

func (t *Tokens) Revoke(token string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.byToken, token)
}
