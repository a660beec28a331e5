package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"notable/notable/sources"
	"notable/notable/utils/apperrors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type account struct {
	user sources.User
	hash []byte
}

// Auth is a password-only identity provider backed by a map.
type Auth struct {
	mu       sync.RWMutex
	accounts map[string]account
	tokens   *sources.Tokens
	cost     int
}

func NewAuth() *Auth {
	return &Auth{
		accounts: make(map[string]account),
		tokens:   sources.NewTokens(24 * time.Hour),
		cost:     bcrypt.DefaultCost,
	}
}

// NewAuthFromList seeds accounts from "email:password,email:password".
func NewAuthFromList(list string) (*Auth, error) {
	a := NewAuth()
	for _, pair := range strings.Split(list, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		email, password, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, apperrors.Config("memory.NewAuthFromList", "dev users must be email:password pairs")
		}
		if _, err := a.Register(email, password); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Register adds an account and returns its user.
func (a *Auth) Register(email, password string) (sources.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return sources.User{}, apperrors.Validation("memory.Register", "email and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return sources.User{}, err
	}
	u := sources.User{ID: uuid.NewString(), Email: email}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.accounts[email] = account{user: u, hash: hash}
	return u, nil
}

func (a *Auth) SignInWithPassword(ctx context.Context, email, password string) (*sources.AuthResult, error) {
	a.mu.RLock()
	acct, ok := a.accounts[strings.ToLower(strings.TrimSpace(email))]
	a.mu.RUnlock()
	if !ok || bcrypt.CompareHashAndPassword(acct.hash, []byte(password)) != nil {
		return nil, apperrors.Auth("memory.SignInWithPassword", "Invalid login credentials")
	}
	return a.tokens.Issue(acct.user), nil
}

func (a *Auth) User(ctx context.Context, accessToken string) (*sources.User, error) {
	u, ok := a.tokens.Lookup(accessToken)
	if !ok {
		return nil, apperrors.Auth("memory.User", "invalid or expired token")
	}
	return &u, nil
}

func (a *Auth) AuthorizeURL(ctx context.Context, provider, redirectTo string) (string, string, error) {
	return "", "", apperrors.Config("memory.AuthorizeURL", "OAuth sign-in is not available with the local identity provider")
}

func (a *Auth) ExchangeCode(ctx context.Context, code, verifier string) (*sources.AuthResult, error) {
	return nil, apperrors.Config("memory.ExchangeCode", "OAuth sign-in is not available with the local identity provider")
}

func (a *Auth) SignOut(ctx context.Context, accessToken string) error {
	a.tokens.Revoke(accessToken)
	return nil
}
