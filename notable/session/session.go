// Package session holds the per-request Session/Theme context and the signed
// cookie that carries a session between requests.
package session

import (
	"context"

	"notable/notable/sources"
)

type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// ParseTheme returns Light for anything that is not "dark".
func ParseTheme(s string) Theme {
	if Theme(s) == Dark {
		return Dark
	}
	return Light
}

func (t Theme) Toggle() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

type Session struct {
	User         sources.User
	AccessToken  string
	RefreshToken string
}

// Identity is what stores are opened with.
func (s *Session) Identity() sources.Identity {
	if s == nil {
		return sources.Identity{}
	}
	return sources.Identity{UserID: s.User.ID, AccessToken: s.AccessToken}
}

// Context is built by middleware before any handler runs and torn down on
// sign-out. Handlers receive it through the request context.
type Context struct {
	Session *Session
	Theme   Theme
	// Loading is true while the session is still being resolved.
	Loading bool
}

func (c *Context) SignedIn() bool {
	return c != nil && c.Session != nil && c.Session.User.ID != ""
}

func (c *Context) Identity() sources.Identity {
	if c == nil {
		return sources.Identity{}
	}
	return c.Session.Identity()
}

type ctxKey struct{}

func WithContext(ctx context.Context, sc *Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, sc)
}

// FromContext returns the request's Context, or an anonymous light-theme one
// when middleware did not run.
func FromContext(ctx context.Context) *Context {
	if sc, ok := ctx.Value(ctxKey{}).(*Context); ok && sc != nil {
		return sc
	}
	return &Context{Theme: Light}
}
