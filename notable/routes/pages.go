package routes

import (
	"time"

	"notable/notable/controllers"
	"notable/notable/middlewares"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NotePageRoutes is the HTML note area mounted at /notes. The event stream
// is long-lived and sits outside the request timeout.
func NotePageRoutes(pages *controllers.PagesController, stream *controllers.EventsController, timeout time.Duration) chi.Router {
	r := chi.NewRouter()
	r.Get("/events", stream.Stream)
	r.Group(func(gr chi.Router) {
		gr.Use(middleware.Timeout(timeout))
		gr.Use(middlewares.RequirePage)

		gr.Get("/", pages.ListNotes)
		gr.Post("/", pages.CreateNote)
		gr.Get("/new", pages.NewNote)
		gr.Get("/{id}", pages.EditNote)
		gr.Post("/{id}", pages.UpdateNote)
		gr.Get("/{id}/delete", pages.ConfirmDelete)
		gr.Post("/{id}/delete", pages.DeleteNote)
	})
	return r
}
