package controllers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"notable/notable/services/notes"
	"notable/notable/session"
	"notable/notable/sources/models"
	"notable/notable/utils/apperrors"
	"notable/notable/utils/logging"
	"notable/notable/views"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// PagesController serves the HTML note pages. Every POST answers with a
// redirect on success and re-renders the form on failure.
type PagesController struct {
	svc      *notes.Service
	views    *views.Renderer
	sessions *session.Manager
}

func NewPagesController(svc *notes.Service, v *views.Renderer, m *session.Manager) *PagesController {
	return &PagesController{svc: svc, views: v, sessions: m}
}

func newPage(r *http.Request, title string, data interface{}) views.Page {
	sc := session.FromContext(r.Context())
	p := views.Page{
		Title:    title,
		Theme:    string(sc.Theme),
		SignedIn: sc.SignedIn(),
		Path:     r.URL.RequestURI(),
		Data:     data,
	}
	if sc.Session != nil {
		p.User = sc.Session.User
	}
	return p
}

func logFailure(r *http.Request, msg string, err error) {
	logging.ErrorLogger.Error(msg,
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
}

// localPath returns target when it is a path on this site, else fallback.
func localPath(target, fallback string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return fallback
	}
	return target
}

// renderError shows the not-found page for missing notes and the error page
// for everything else.
func (c *PagesController) renderError(w http.ResponseWriter, r *http.Request, err error) {
	if apperrors.IsNotFound(err) {
		c.NotFound(w, r)
		return
	}
	logFailure(r, "page failed", err)
	c.views.Render(w, apperrors.HTTPStatus(err), "error", newPage(r, "Error", apperrors.PublicMessage(err)))
}

func (c *PagesController) Home(w http.ResponseWriter, r *http.Request) {
	if session.FromContext(r.Context()).SignedIn() {
		http.Redirect(w, r, "/notes", http.StatusFound)
		return
	}
	http.Redirect(w, r, "/signin", http.StatusFound)
}

func (c *PagesController) NotFound(w http.ResponseWriter, r *http.Request) {
	c.views.Render(w, http.StatusNotFound, "notfound", newPage(r, "Not found", nil))
}

func (c *PagesController) ListNotes(w http.ResponseWriter, r *http.Request) {
	sc := session.FromContext(r.Context())
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	view := "grid"
	if r.URL.Query().Get("view") == "list" {
		view = "list"
	}
	list, err := c.svc.Search(r.Context(), sc.Identity(), query)
	if err != nil {
		c.renderError(w, r, err)
		return
	}
	p := newPage(r, "My notes", views.ListData{Notes: list, Query: query, View: view, Total: len(list)})
	p.Live = true
	c.views.Render(w, http.StatusOK, "notes", p)
}

func (c *PagesController) NewNote(w http.ResponseWriter, r *http.Request) {
	c.views.Render(w, http.StatusOK, "new", newPage(r, "New note", views.NoteFormData{}))
}

// CreateNote handles both Save and Save & Summarize. With action=summarize
// the content is summarized first, so a summarization failure creates
// nothing.
func (c *PagesController) CreateNote(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		c.renderError(w, r, apperrors.Validation("pages.CreateNote", "Invalid form."))
		return
	}
	sc := session.FromContext(r.Context())
	form := views.NoteFormData{Title: r.PostForm.Get("title"), Content: r.PostForm.Get("content")}
	rerender := func(status int, err error) {
		p := newPage(r, "New note", form)
		if apperrors.IsValidation(err) && !apperrors.Is(err, apperrors.KindSummarize) {
			form.Error = apperrors.PublicMessage(err)
			p.Data = form
		} else {
			logFailure(r, "create note failed", err)
			p.Flash = "Failed to create note: " + apperrors.PublicMessage(err)
		}
		c.views.Render(w, status, "new", p)
	}

	if strings.TrimSpace(form.Title) == "" || strings.TrimSpace(form.Content) == "" {
		rerender(http.StatusBadRequest, apperrors.Validation("pages.CreateNote", "Title and content are required."))
		return
	}

	var summary string
	if r.PostForm.Get("action") == "summarize" {
		out, err := c.svc.Summarize(r.Context(), form.Content)
		if err != nil {
			rerender(apperrors.HTTPStatus(err), err)
			return
		}
		summary = out
	}

	note, err := c.svc.CreateWithOptionalSummary(r.Context(), sc.Identity(), form.Title, form.Content, summary)
	var partial *notes.PartialCreateError
	if errors.As(err, &partial) {
		http.Redirect(w, r, "/notes/"+url.PathEscape(partial.Note.ID)+"?summary=failed", http.StatusSeeOther)
		return
	}
	if err != nil {
		rerender(apperrors.HTTPStatus(err), err)
		return
	}
	logging.AppLogger.Info("note created", zap.String("note_id", note.ID), zap.Bool("summarized", summary != ""))
	http.Redirect(w, r, "/notes", http.StatusSeeOther)
}

func formFor(note *models.Note, d notes.Draft) views.NoteFormData {
	return views.NoteFormData{ID: note.ID, Title: d.Title, Content: d.Content, Summary: d.Summary}
}

func (c *PagesController) EditNote(w http.ResponseWriter, r *http.Request) {
	sc := session.FromContext(r.Context())
	editor := notes.NewEditor(c.svc, sc.Identity(), chi.URLParam(r, "id"))
	if err := editor.Load(r.Context()); err != nil {
		c.renderError(w, r, err)
		return
	}
	form := formFor(editor.Note(), editor.Draft())
	form.Saved = r.URL.Query().Get("saved") == "1"
	p := newPage(r, "Edit note", form)
	if r.URL.Query().Get("summary") == "failed" {
		p.Flash = "Note saved, but the summary could not be attached."
	}
	c.views.Render(w, http.StatusOK, "edit", p)
}

// UpdateNote runs one editor action against the submitted draft:
// action=summarize fills in a draft summary, anything else saves.
func (c *PagesController) UpdateNote(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		c.renderError(w, r, apperrors.Validation("pages.UpdateNote", "Invalid form."))
		return
	}
	sc := session.FromContext(r.Context())
	editor := notes.NewEditor(c.svc, sc.Identity(), chi.URLParam(r, "id"))
	if err := editor.Load(r.Context()); err != nil {
		c.renderError(w, r, err)
		return
	}
	editor.SetDraft(r.PostForm.Get("title"), r.PostForm.Get("content"))
	editor.SetSummaryDraft(r.PostForm.Get("summary"))

	if r.PostForm.Get("action") == "summarize" {
		_, err := editor.Summarize(r.Context())
		p := newPage(r, "Edit note", formFor(editor.Note(), editor.Draft()))
		status := http.StatusOK
		if err != nil {
			logFailure(r, "generate summary failed", err)
			p.Flash = "Failed to generate summary: " + apperrors.PublicMessage(err)
			status = apperrors.HTTPStatus(err)
		}
		c.views.Render(w, status, "edit", p)
		return
	}

	note, err := editor.Save(r.Context())
	if err != nil {
		if apperrors.IsNotFound(err) {
			c.NotFound(w, r)
			return
		}
		form := formFor(editor.Note(), editor.Draft())
		p := newPage(r, "Edit note", form)
		if apperrors.IsValidation(err) {
			form.Error = apperrors.PublicMessage(err)
			p.Data = form
		} else {
			logFailure(r, "update note failed", err)
			p.Flash = "Failed to update note: " + apperrors.PublicMessage(err)
		}
		c.views.Render(w, apperrors.HTTPStatus(err), "edit", p)
		return
	}
	http.Redirect(w, r, "/notes/"+url.PathEscape(note.ID)+"?saved=1", http.StatusSeeOther)
}

func (c *PagesController) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	sc := session.FromContext(r.Context())
	note, err := c.svc.Get(r.Context(), sc.Identity(), chi.URLParam(r, "id"))
	if err != nil {
		c.renderError(w, r, err)
		return
	}
	back := "/notes"
	if ref, err := url.Parse(r.Referer()); err == nil && ref.Host == r.Host && ref.Path != r.URL.Path {
		back = localPath(ref.RequestURI(), back)
	}
	c.views.Render(w, http.StatusOK, "delete", newPage(r, "Delete note", views.DeleteData{Note: note, Back: back}))
}

func (c *PagesController) DeleteNote(w http.ResponseWriter, r *http.Request) {
	sc := session.FromContext(r.Context())
	editor := notes.NewEditor(c.svc, sc.Identity(), chi.URLParam(r, "id"))
	if err := editor.Load(r.Context()); err != nil {
		c.renderError(w, r, err)
		return
	}
	if err := editor.Delete(r.Context()); err != nil {
		c.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/notes", http.StatusSeeOther)
}

// ToggleTheme flips the theme cookie and sends the user back where they were.
func (c *PagesController) ToggleTheme(w http.ResponseWriter, r *http.Request) {
	sc := session.FromContext(r.Context())
	c.sessions.SetTheme(w, sc.Theme.Toggle())
	target := localPath(r.FormValue("redirect"), "/")
	http.Redirect(w, r, target, http.StatusSeeOther)
}
