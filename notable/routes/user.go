package routes

import (
	"net/http"

	"notable/notable/controllers"
	"notable/notable/session"

	"github.com/go-chi/chi/v5"
)

func UserRoutes(ctrl *controllers.UserController) chi.Router {
	r := chi.NewRouter()
	r.Get("/", handleJSON(func(r *http.Request) (any, int, error) {
		u, err := ctrl.Me(session.FromContext(r.Context()))
		if err != nil {
			return nil, 0, err
		}
		return u, http.StatusOK, nil
	}))
	return r
}
