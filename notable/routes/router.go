package routes

import (
	"net/http"
	"time"

	"notable/notable/controllers"
	"notable/notable/events"
	"notable/notable/middlewares"
	"notable/notable/services/notes"
	"notable/notable/session"
	"notable/notable/sources"
	"notable/notable/utils/jsonutils"
	"notable/notable/utils/metrics"
	"notable/notable/views"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const requestTimeout = 60 * time.Second

// Deps is everything the HTTP layer needs. Archive, Metrics and Health are
// optional.
type Deps struct {
	BaseURL        string
	CORSOrigins    []string
	OAuthProviders []string

	Sessions   *session.Manager
	Auth       sources.Authenticator
	Notes      *notes.Service
	Summarizer notes.Summarizer
	Archive    controllers.Archiver
	Bus        *events.Bus
	Views      *views.Renderer
	Metrics    *metrics.Collector
	Health     map[string]controllers.Pinger
}

// NewRouter assembles the pages, the JSON API and the operational endpoints.
func NewRouter(d Deps) chi.Router {
	pages := controllers.NewPagesController(d.Notes, d.Views, d.Sessions)
	authCtrl := controllers.NewAuthController(d.Auth, d.Sessions, d.Views, d.BaseURL, d.OAuthProviders)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewares.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middlewares.Metrics(d.Metrics))
	r.Use(middlewares.SessionMiddleware(d.Sessions, d.Auth))
	r.NotFound(pages.NotFound)

	r.Mount("/health", HealthRoutes(controllers.NewHealthController(d.Health)))
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics.Handler())
	}

	r.Mount("/notes", NotePageRoutes(pages, controllers.NewEventsController(d.Bus, d.CORSOrigins), requestTimeout))
	r.Mount("/api", APIRoutes(d, authCtrl))

	r.Group(func(gr chi.Router) {
		gr.Use(middleware.Timeout(requestTimeout))
		gr.Get("/", pages.Home)
		gr.Get("/signin", authCtrl.SignInPage)
		gr.Post("/signin", authCtrl.SignIn)
		gr.Post("/signout", authCtrl.SignOut)
		gr.Post("/theme", pages.ToggleTheme)
		gr.Mount("/auth", AuthRoutes(authCtrl))
	})
	return r
}

// APIRoutes is the JSON API mounted at /api. Unknown paths answer JSON 404.
func APIRoutes(d Deps, authCtrl *controllers.AuthController) chi.Router {
	r := chi.NewRouter()
	r.Use(cors.Handler(corsOptions(d.CORSOrigins)))
	r.Use(middleware.Timeout(requestTimeout))
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		jsonutils.WriteError(w, http.StatusNotFound, "Not found")
	})

	r.Mount("/auth", TokenRoutes(authCtrl))
	r.Mount("/notes", NotesRoutes(controllers.NewNotesController(d.Notes, d.Archive)))
	r.Mount("/summarize", SummarizeRoutes(controllers.NewSummarizeController(d.Summarizer)))
	r.With(middlewares.RequireAPI).Mount("/me", UserRoutes(controllers.NewUserController()))
	return r
}

func corsOptions(origins []string) cors.Options {
	opts := cors.Options{
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}
	if len(origins) > 0 {
		opts.AllowedOrigins = origins
		opts.AllowCredentials = true
	}
	return opts
}
