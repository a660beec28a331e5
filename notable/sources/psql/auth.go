package psql

import (
	"context"
	"strings"
	"time"

	"notable/notable/sources"
	"notable/notable/sources/models"
	"notable/notable/sources/psql/dao"
	"notable/notable/utils/apperrors"

	"golang.org/x/crypto/bcrypt"
)

// Auth signs users in against the users table with bcrypt password hashes.
type Auth struct {
	users  *dao.UserDAO
	tokens *sources.Tokens
	cost   int
}

func NewAuth(db *Database) *Auth {
	return &Auth{
		users:  dao.NewUserDAO(db.DB),
		tokens: sources.NewTokens(24 * time.Hour),
		cost:   bcrypt.DefaultCost,
	}
}

// Register creates an account. It is used by the CLI and the dev seeding.
func (a *Auth) Register(ctx context.Context, email, password string) (sources.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return sources.User{}, apperrors.Validation("psql.Register", "email and password are required")
	}
	existing, err := a.users.GetUserByEmail(ctx, email)
	if err != nil {
		return sources.User{}, apperrors.Store("psql.Register", err)
	}
	if existing != nil {
		return sources.User{}, apperrors.Validation("psql.Register", "User already registered")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return sources.User{}, err
	}
	u, err := a.users.CreateUser(ctx, email, string(hash), nil)
	if err != nil {
		return sources.User{}, apperrors.Store("psql.Register", err)
	}
	return toSourceUser(u), nil
}

func (a *Auth) SignInWithPassword(ctx context.Context, email, password string) (*sources.AuthResult, error) {
	u, err := a.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, apperrors.Store("psql.SignInWithPassword", err)
	}
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, apperrors.Auth("psql.SignInWithPassword", "Invalid login credentials")
	}
	return a.tokens.Issue(toSourceUser(u)), nil
}

func (a *Auth) User(ctx context.Context, accessToken string) (*sources.User, error) {
	u, ok := a.tokens.Lookup(accessToken)
	if !ok {
		return nil, apperrors.Auth("psql.User", "invalid or expired token")
	}
	// The account may have been removed since the token was issued.
	row, err := a.users.GetUserByID(ctx, u.ID)
	if err != nil {
		return nil, apperrors.Store("psql.User", err)
	}
	if row == nil {
		a.tokens.Revoke(accessToken)
		return nil, apperrors.Auth("psql.User", "invalid or expired token")
	}
	out := toSourceUser(row)
	return &out, nil
}

// SetPassword replaces the password hash of an existing account.
func (a *Auth) SetPassword(ctx context.Context, email, password string) error {
	if password == "" {
		return apperrors.Validation("psql.SetPassword", "password is required")
	}
	u, err := a.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return apperrors.Store("psql.SetPassword", err)
	}
	if u == nil {
		return apperrors.NotFound("psql.SetPassword", "user not found")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	if err := a.users.UpdateUser(ctx, u); err != nil {
		return apperrors.Store("psql.SetPassword", err)
	}
	return nil
}

func (a *Auth) AuthorizeURL(ctx context.Context, provider, redirectTo string) (string, string, error) {
	return "", "", apperrors.Config("psql.AuthorizeURL", "OAuth sign-in requires the supabase store driver")
}

func (a *Auth) ExchangeCode(ctx context.Context, code, verifier string) (*sources.AuthResult, error) {
	return nil, apperrors.Config("psql.ExchangeCode", "OAuth sign-in requires the supabase store driver")
}

func (a *Auth) SignOut(ctx context.Context, accessToken string) error {
	a.tokens.Revoke(accessToken)
	return nil
}

func toSourceUser(u *models.User) sources.User {
	out := sources.User{ID: u.ID, Email: u.Email}
	if u.ImageURL != nil {
		out.AvatarURL = *u.ImageURL
	}
	return out
}
