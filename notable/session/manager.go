package session

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"notable/notable/sources"

	"github.com/golang-jwt/jwt/v5"
)

const (
	CookieName      = "notable_session"
	ThemeCookieName = "notable_theme"
	DefaultTTL      = 7 * 24 * time.Hour
)

var ErrInvalidSession = errors.New("invalid session")

type claims struct {
	Email        string `json:"email"`
	AvatarURL    string `json:"avatar_url,omitempty"`
	AccessToken  string `json:"at,omitempty"`
	RefreshToken string `json:"rt,omitempty"`
	jwt.RegisteredClaims
}

// Manager signs sessions into HS256 JWTs and moves them in and out of
// cookies.
type Manager struct {
	secret []byte
	secure bool
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(secret string, secure bool) *Manager {
	return &Manager{secret: []byte(secret), secure: secure, ttl: DefaultTTL, now: time.Now}
}

// Issue signs s. The token expires at expiresAt, or after the default TTL
// when expiresAt is zero.
func (m *Manager) Issue(s *Session, expiresAt time.Time) (string, error) {
	now := m.now()
	if expiresAt.IsZero() {
		expiresAt = now.Add(m.ttl)
	}
	c := claims{
		Email:        s.User.Email,
		AvatarURL:    s.User.AvatarURL,
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.User.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(m.secret)
}

func (m *Manager) Parse(tokenStr string) (*Session, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenStr, &c, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !token.Valid || c.Subject == "" {
		return nil, ErrInvalidSession
	}
	return &Session{
		User:         sources.User{ID: c.Subject, Email: c.Email, AvatarURL: c.AvatarURL},
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
	}, nil
}

// Start issues a session for an auth result and sets the cookie. The signed
// token is returned for API clients.
func (m *Manager) Start(w http.ResponseWriter, res *sources.AuthResult) (string, error) {
	s := &Session{User: res.User, AccessToken: res.AccessToken, RefreshToken: res.RefreshToken}
	expires := res.ExpiresAt
	if expires.IsZero() {
		expires = m.now().Add(m.ttl)
	}
	token, err := m.Issue(s, expires)
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return token, nil
}

// Clear expires the session and theme cookies.
func (m *Manager) Clear(w http.ResponseWriter) {
	for _, name := range []string{CookieName, ThemeCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			Expires:  time.Unix(0, 0),
			HttpOnly: name == CookieName,
			Secure:   m.secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func (m *Manager) SetTheme(w http.ResponseWriter, t Theme) {
	http.SetCookie(w, &http.Cookie{
		Name:     ThemeCookieName,
		Value:    string(t),
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// BearerToken returns the token of an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Load builds the Context for r from the bearer header or the session
// cookie, and the theme cookie. The second return is the raw token that
// failed to verify as a session, if any, so callers can try the identity
// provider with it.
func (m *Manager) Load(r *http.Request) (*Context, string) {
	sc := &Context{Theme: Light}
	if c, err := r.Cookie(ThemeCookieName); err == nil {
		sc.Theme = ParseTheme(c.Value)
	}
	token := BearerToken(r)
	if token == "" {
		if c, err := r.Cookie(CookieName); err == nil {
			token = c.Value
		}
	}
	if token == "" {
		return sc, ""
	}
	s, err := m.Parse(token)
	if err != nil {
		return sc, token
	}
	sc.Session = s
	return sc, ""
}
