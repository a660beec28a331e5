package routes

import (
	"net/http"

	"notable/notable/controllers"
	"notable/notable/types"

	"github.com/go-chi/chi/v5"
)

// AuthRoutes is the OAuth redirect flow mounted at /auth.
func AuthRoutes(ctrl *controllers.AuthController) chi.Router {
	r := chi.NewRouter()
	r.Get("/oauth/{provider}", ctrl.BeginOAuth)
	r.Get("/callback", ctrl.Callback)
	return r
}

// TokenRoutes is the API sign-in mounted at /api/auth.
func TokenRoutes(ctrl *controllers.AuthController) chi.Router {
	r := chi.NewRouter()
	r.Post("/token", handleJSON(func(r *http.Request) (any, int, error) {
		var req types.LoginRequest
		if err := decode(r, &req); err != nil {
			return nil, 0, err
		}
		res, err := ctrl.Token(r.Context(), req)
		if err != nil {
			return nil, 0, err
		}
		return res, http.StatusOK, nil
	}))
	return r
}
