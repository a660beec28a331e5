package session

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	OAuthCookieName = "notable_oauth"
	oauthTTL        = 10 * time.Minute
)

// OAuthState is what survives the round trip through the identity provider.
type OAuthState struct {
	State    string
	Verifier string
	Next     string
}

type oauthClaims struct {
	Verifier string `json:"v"`
	Next     string `json:"next,omitempty"`
	jwt.RegisteredClaims
}

// NewState returns a fresh random state value.
func NewState() string {
	return uuid.NewString()
}

// BeginOAuth stores st in a short-lived signed cookie.
func (m *Manager) BeginOAuth(w http.ResponseWriter, st OAuthState) error {
	now := m.now()
	c := oauthClaims{
		Verifier: st.Verifier,
		Next:     st.Next,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        st.State,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(oauthTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     OAuthCookieName,
		Value:    token,
		Path:     "/auth",
		MaxAge:   int(oauthTTL.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// FinishOAuth reads and clears the OAuth cookie. It fails when the cookie is
// missing, forged, expired or was issued for another state.
func (m *Manager) FinishOAuth(w http.ResponseWriter, r *http.Request, state string) (*OAuthState, error) {
	http.SetCookie(w, &http.Cookie{
		Name:     OAuthCookieName,
		Value:    "",
		Path:     "/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	cookie, err := r.Cookie(OAuthCookieName)
	if err != nil || state == "" {
		return nil, ErrInvalidSession
	}
	var c oauthClaims
	token, err := jwt.ParseWithClaims(cookie.Value, &c, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !token.Valid || c.ID != state {
		return nil, ErrInvalidSession
	}
	return &OAuthState{State: c.ID, Verifier: c.Verifier, Next: c.Next}, nil
}
