package middlewares

import (
	"net/http"
	"net/url"

	"notable/notable/session"
	"notable/notable/sources"
	"notable/notable/utils/jsonutils"
	"notable/notable/utils/logging"

	"go.uber.org/zap"
)

// SessionMiddleware builds the session.Context before any handler runs. A
// bearer token that is not a session issued by m is checked against the
// identity provider, so API clients may also send a provider access token.
func SessionMiddleware(m *session.Manager, auth sources.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sc, rejected := m.Load(r)
			if rejected != "" && session.BearerToken(r) == rejected && auth != nil {
				if u, err := auth.User(r.Context(), rejected); err == nil {
					sc.Session = &session.Session{User: *u, AccessToken: rejected}
				} else {
					logging.AppLogger.Debug("bearer token rejected", zap.Error(err))
				}
			}
			sc.Loading = false
			next.ServeHTTP(w, r.WithContext(session.WithContext(r.Context(), sc)))
		})
	}
}

// RequirePage redirects anonymous visitors to the sign-in page.
func RequirePage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !session.FromContext(r.Context()).SignedIn() {
			target := "/signin"
			if r.Method == http.MethodGet && r.URL.Path != "/" {
				target += "?next=" + url.QueryEscape(r.URL.RequestURI())
			}
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAPI answers 401 for anonymous API calls.
func RequireAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !session.FromContext(r.Context()).SignedIn() {
			jsonutils.WriteError(w, http.StatusUnauthorized, "User not authenticated")
			return
		}
		next.ServeHTTP(w, r)
	})
}
