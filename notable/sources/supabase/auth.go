package supabase

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"notable/notable/sources"
	"notable/notable/utils/apperrors"
	"notable/notable/utils/logging"

	"github.com/supabase-community/gotrue-go/types"
	"go.uber.org/zap"
)

// Auth talks to the project's GoTrue server. gotrue-go calls take no
// context, so cancellation stops at the request boundary.
type Auth struct {
	cfg Config
}

func NewAuth(cfg Config) *Auth {
	return &Auth{cfg: cfg}
}

func (a *Auth) SignInWithPassword(ctx context.Context, email, password string) (*sources.AuthResult, error) {
	defer logging.LogDuration(ctx, "supabase_sign_in")()
	c, err := newClient(a.cfg, "")
	if err != nil {
		return nil, apperrors.Config("supabase.SignInWithPassword", err.Error())
	}
	resp, err := c.Auth.Token(types.TokenRequest{
		GrantType: "password",
		Email:     email,
		Password:  password,
	})
	if err != nil {
		logging.AppLogger.Info("password sign-in rejected", zap.String("email", email), zap.Error(err))
		return nil, apperrors.AuthWrap("supabase.SignInWithPassword", "Invalid login credentials", err)
	}
	return toResult(resp), nil
}

// AuthorizeURL requests a PKCE authorize URL and points its redirect at
// redirectTo, which is the app's /auth/callback.
func (a *Auth) AuthorizeURL(ctx context.Context, provider, redirectTo string) (string, string, error) {
	c, err := newClient(a.cfg, "")
	if err != nil {
		return "", "", apperrors.Config("supabase.AuthorizeURL", err.Error())
	}
	resp, err := c.Auth.Authorize(types.AuthorizeRequest{
		Provider: types.Provider(provider),
		FlowType: types.FlowPKCE,
	})
	if err != nil {
		return "", "", apperrors.AuthWrap("supabase.AuthorizeURL", "could not start sign-in", err)
	}
	u, err := url.Parse(resp.AuthorizationURL)
	if err != nil {
		return "", "", apperrors.AuthWrap("supabase.AuthorizeURL", "bad authorize url", err)
	}
	q := u.Query()
	q.Set("redirect_to", redirectTo)
	u.RawQuery = q.Encode()
	return u.String(), resp.Verifier, nil
}

func (a *Auth) ExchangeCode(ctx context.Context, code, verifier string) (*sources.AuthResult, error) {
	defer logging.LogDuration(ctx, "supabase_exchange_code")()
	if code == "" || verifier == "" {
		return nil, apperrors.Auth("supabase.ExchangeCode", "missing code or verifier")
	}
	c, err := newClient(a.cfg, "")
	if err != nil {
		return nil, apperrors.Config("supabase.ExchangeCode", err.Error())
	}
	resp, err := c.Auth.Token(types.TokenRequest{
		GrantType:    "pkce",
		Code:         code,
		CodeVerifier: verifier,
	})
	if err != nil {
		return nil, apperrors.AuthWrap("supabase.ExchangeCode", "code exchange failed", err)
	}
	return toResult(resp), nil
}

func (a *Auth) User(ctx context.Context, accessToken string) (*sources.User, error) {
	c, err := newClient(a.cfg, "")
	if err != nil {
		return nil, apperrors.Config("supabase.User", err.Error())
	}
	resp, err := c.Auth.WithToken(accessToken).GetUser()
	if err != nil {
		return nil, apperrors.AuthWrap("supabase.User", "invalid or expired token", err)
	}
	u := toUser(resp.User)
	return &u, nil
}

func (a *Auth) SignOut(ctx context.Context, accessToken string) error {
	c, err := newClient(a.cfg, "")
	if err != nil {
		return apperrors.Config("supabase.SignOut", err.Error())
	}
	if err := c.Auth.WithToken(accessToken).Logout(); err != nil {
		return fmt.Errorf("supabase logout: %w", err)
	}
	return nil
}

func toResult(resp *types.TokenResponse) *sources.AuthResult {
	res := &sources.AuthResult{
		User:         toUser(resp.User),
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}
	switch {
	case resp.ExpiresAt > 0:
		res.ExpiresAt = time.Unix(resp.ExpiresAt, 0)
	case resp.ExpiresIn > 0:
		res.ExpiresAt = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	return res
}

func toUser(u types.User) sources.User {
	out := sources.User{ID: u.ID.String(), Email: u.Email}
	if avatar, ok := u.UserMetadata["avatar_url"].(string); ok {
		out.AvatarURL = avatar
	}
	return out
}
