package routes

import (
	"errors"
	"net/http"

	"notable/notable/controllers"
	"notable/notable/middlewares"
	"notable/notable/types"

	"github.com/go-chi/chi/v5"
)

// NotesRoutes is the JSON note API mounted at /api/notes.
func NotesRoutes(ctrl *controllers.NotesController) chi.Router {
	r := chi.NewRouter()
	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.RequireAPI)

		gr.Get("/", handleJSON(func(r *http.Request) (any, int, error) {
			list, err := ctrl.ListNotes(r.Context(), identity(r), r.URL.Query().Get("q"))
			if err != nil {
				return nil, 0, err
			}
			return list, http.StatusOK, nil
		}))

		gr.Post("/", handleJSON(func(r *http.Request) (any, int, error) {
			var req types.CreateNoteRequest
			if err := decode(r, &req); err != nil {
				return nil, 0, err
			}
			note, err := ctrl.CreateNote(r.Context(), identity(r), req)
			if err != nil {
				return nil, 0, err
			}
			return note, http.StatusCreated, nil
		}))

		gr.Get("/export", handleJSON(func(r *http.Request) (any, int, error) {
			snap, err := ctrl.Export(r.Context(), identity(r))
			if err != nil {
				return nil, 0, err
			}
			return snap, http.StatusOK, nil
		}))

		gr.Post("/archive", handleJSON(func(r *http.Request) (any, int, error) {
			res, err := ctrl.Archive(r.Context(), identity(r))
			if err != nil {
				return nil, 0, archiveError(err)
			}
			return res, http.StatusCreated, nil
		}))

		gr.Get("/archive", handleJSON(func(r *http.Request) (any, int, error) {
			res, err := ctrl.ListArchives(r.Context(), identity(r))
			if err != nil {
				return nil, 0, archiveError(err)
			}
			return res, http.StatusOK, nil
		}))

		gr.Get("/archive/{name}", handleJSON(func(r *http.Request) (any, int, error) {
			snap, err := ctrl.GetArchive(r.Context(), identity(r), chi.URLParam(r, "name"))
			if err != nil {
				return nil, 0, archiveError(err)
			}
			return snap, http.StatusOK, nil
		}))

		gr.Get("/{id}", handleJSON(func(r *http.Request) (any, int, error) {
			note, err := ctrl.GetNote(r.Context(), identity(r), chi.URLParam(r, "id"))
			if err != nil {
				return nil, 0, err
			}
			return note, http.StatusOK, nil
		}))

		update := handleJSON(func(r *http.Request) (any, int, error) {
			var req types.UpdateNoteRequest
			if err := decode(r, &req); err != nil {
				return nil, 0, err
			}
			note, err := ctrl.UpdateNote(r.Context(), identity(r), chi.URLParam(r, "id"), req)
			if err != nil {
				return nil, 0, err
			}
			return note, http.StatusOK, nil
		})
		gr.Patch("/{id}", update)
		gr.Put("/{id}", update)

		gr.Delete("/{id}", handleJSON(func(r *http.Request) (any, int, error) {
			if err := ctrl.DeleteNote(r.Context(), identity(r), chi.URLParam(r, "id")); err != nil {
				return nil, 0, err
			}
			return nil, http.StatusNoContent, nil
		}))

		gr.Post("/{id}/summarize", handleJSON(func(r *http.Request) (any, int, error) {
			note, err := ctrl.SummarizeNote(r.Context(), identity(r), chi.URLParam(r, "id"))
			if err != nil {
				return nil, 0, err
			}
			return note, http.StatusOK, nil
		}))
	})
	return r
}

func archiveError(err error) error {
	if errors.Is(err, controllers.ErrArchiveDisabled) {
		return withStatus(http.StatusServiceUnavailable, "Note archive is not configured", err)
	}
	return err
}
