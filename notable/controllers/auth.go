package controllers

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"notable/notable/session"
	"notable/notable/sources"
	"notable/notable/types"
	"notable/notable/utils/apperrors"
	"notable/notable/utils/logging"
	"notable/notable/utils/validate"
	"notable/notable/views"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const oauthFailedMessage = "Could not sign in with that provider. Please try again."

type AuthController struct {
	auth      sources.Authenticator
	sessions  *session.Manager
	views     *views.Renderer
	baseURL   string
	providers []string
}

func NewAuthController(auth sources.Authenticator, m *session.Manager, v *views.Renderer, baseURL string, providers []string) *AuthController {
	return &AuthController{
		auth:      auth,
		sessions:  m,
		views:     v,
		baseURL:   strings.TrimRight(baseURL, "/"),
		providers: providers,
	}
}

func (c *AuthController) renderSignIn(w http.ResponseWriter, r *http.Request, status int, data views.SignInData) {
	data.Providers = c.providers
	c.views.Render(w, status, "signin", newPage(r, "Sign in", data))
}

func (c *AuthController) SignInPage(w http.ResponseWriter, r *http.Request) {
	if session.FromContext(r.Context()).SignedIn() {
		http.Redirect(w, r, "/notes", http.StatusFound)
		return
	}
	data := views.SignInData{Next: localPath(r.URL.Query().Get("next"), "")}
	if r.URL.Query().Get("error") == "oauth" {
		data.Error = oauthFailedMessage
	}
	c.renderSignIn(w, r, http.StatusOK, data)
}

func (c *AuthController) SignIn(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		c.renderSignIn(w, r, http.StatusBadRequest, views.SignInData{Error: "Invalid form."})
		return
	}
	email := strings.TrimSpace(r.PostForm.Get("email"))
	res, err := c.auth.SignInWithPassword(r.Context(), email, r.PostForm.Get("password"))
	if err != nil {
		if !apperrors.IsAuth(err) {
			logFailure(r, "sign in failed", err)
		}
		msg := apperrors.PublicMessage(err)
		if apperrors.IsAuth(err) {
			msg = "Invalid login credentials"
		}
		next := localPath(r.URL.Query().Get("next"), "")
		c.renderSignIn(w, r, apperrors.HTTPStatus(err), views.SignInData{Email: email, Error: msg, Next: next})
		return
	}
	if _, err := c.sessions.Start(w, res); err != nil {
		logFailure(r, "session start failed", err)
		c.renderSignIn(w, r, http.StatusInternalServerError, views.SignInData{Email: email, Error: "Something went wrong"})
		return
	}
	logging.AppLogger.Info("signed in", zap.String("user_id", res.User.ID))
	http.Redirect(w, r, localPath(r.URL.Query().Get("next"), "/notes"), http.StatusSeeOther)
}

// BeginOAuth redirects to the identity provider. The state travels in the
// redirect URL and, together with the PKCE verifier, in a signed cookie.
func (c *AuthController) BeginOAuth(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	if !slices.Contains(c.providers, provider) {
		http.Redirect(w, r, "/signin?error=oauth", http.StatusFound)
		return
	}
	state := session.NewState()
	redirectTo := c.baseURL + "/auth/callback?state=" + url.QueryEscape(state)
	authURL, verifier, err := c.auth.AuthorizeURL(r.Context(), provider, redirectTo)
	if err == nil {
		err = c.sessions.BeginOAuth(w, session.OAuthState{
			State:    state,
			Verifier: verifier,
			Next:     localPath(r.URL.Query().Get("next"), ""),
		})
	}
	if err != nil {
		logFailure(r, "oauth start failed", err)
		http.Redirect(w, r, "/signin?error=oauth", http.StatusFound)
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback completes the OAuth flow. A missing code, a state that does not
// match the cookie, or a failed exchange all land on the sign-in page with
// error=oauth; the exchange is only attempted for a verified state.
func (c *AuthController) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	st, err := c.sessions.FinishOAuth(w, r, q.Get("state"))
	if err != nil || q.Get("code") == "" {
		logging.AppLogger.Warn("oauth callback rejected",
			zap.Bool("has_code", q.Get("code") != ""),
			zap.String("provider_error", q.Get("error_description")))
		http.Redirect(w, r, "/signin?error=oauth", http.StatusFound)
		return
	}
	res, err := c.auth.ExchangeCode(r.Context(), q.Get("code"), st.Verifier)
	if err == nil {
		_, err = c.sessions.Start(w, res)
	}
	if err != nil {
		logFailure(r, "oauth exchange failed", err)
		http.Redirect(w, r, "/signin?error=oauth", http.StatusFound)
		return
	}
	http.Redirect(w, r, localPath(st.Next, "/notes"), http.StatusFound)
}

// SignOut clears the cookies first; provider sign-out is best effort.
func (c *AuthController) SignOut(w http.ResponseWriter, r *http.Request) {
	sc := session.FromContext(r.Context())
	c.sessions.Clear(w)
	if sc.Session != nil && sc.Session.AccessToken != "" {
		if err := c.auth.SignOut(r.Context(), sc.Session.AccessToken); err != nil {
			logging.AppLogger.Warn("provider sign out failed", zap.Error(err))
		}
	}
	http.Redirect(w, r, "/signin", http.StatusSeeOther)
}

// Token signs in with a password and returns a session token for API
// clients such as the CLI.
func (c *AuthController) Token(ctx context.Context, req types.LoginRequest) (*types.TokenResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, apperrors.Validation("auth.Token", err.Error())
	}
	res, err := c.auth.SignInWithPassword(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	expires := res.ExpiresAt
	if expires.IsZero() {
		expires = time.Now().Add(session.DefaultTTL)
	}
	s := &session.Session{User: res.User, AccessToken: res.AccessToken, RefreshToken: res.RefreshToken}
	token, err := c.sessions.Issue(s, expires)
	if err != nil {
		return nil, err
	}
	return &types.TokenResponse{Token: token, ExpiresAt: expires, User: res.User}, nil
}
