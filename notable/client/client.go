// Package client talks to the notable JSON API. The CLI uses it, and the
// server uses it as a remote summarizer when SUMMARIZE_URL is set.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"notable/notable/sources"
	"notable/notable/sources/models"
	"notable/notable/sources/storage"
	"notable/notable/types"
	"notable/notable/utils/apperrors"
	httputils "notable/notable/utils/http"
	"notable/notable/utils/logging"
)

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New returns a client for the server at baseURL. token may be empty until
// Login is called.
func New(baseURL, token string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), token: token, http: hc}
}

func (c *Client) Token() string { return c.token }

func (c *Client) do(ctx context.Context, method, path string, body, resp interface{}) error {
	err := httputils.DoJSON(ctx, c.http, method, c.baseURL+path, c.token, body, resp)
	var se *httputils.StatusError
	if errors.As(err, &se) {
		return fromStatus(method+" "+path, se)
	}
	return err
}

// fromStatus turns an API error response back into a classified error.
func fromStatus(op string, se *httputils.StatusError) error {
	msg := se.Body
	var body types.ErrorResponse
	if json.Unmarshal([]byte(se.Body), &body) == nil && body.Error != "" {
		msg = body.Error
	}
	switch se.Status {
	case http.StatusBadRequest:
		return apperrors.Validation(op, msg)
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperrors.Auth(op, msg)
	case http.StatusNotFound:
		return apperrors.NotFound(op, msg)
	default:
		return apperrors.Upstream(op, se.Status, msg)
	}
}

// Login exchanges a password for a session token and keeps it for later
// calls.
func (c *Client) Login(ctx context.Context, email, password string) (*types.TokenResponse, error) {
	var res types.TokenResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/token", types.LoginRequest{Email: email, Password: password}, &res); err != nil {
		return nil, err
	}
	c.token = res.Token
	return &res, nil
}

func (c *Client) Me(ctx context.Context) (*sources.User, error) {
	var u sources.User
	if err := c.do(ctx, http.MethodGet, "/api/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) ListNotes(ctx context.Context, query string) ([]models.Note, error) {
	path := "/api/notes"
	if query != "" {
		path += "?q=" + url.QueryEscape(query)
	}
	var list []models.Note
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) GetNote(ctx context.Context, id string) (*models.Note, error) {
	var n models.Note
	if err := c.do(ctx, http.MethodGet, "/api/notes/"+url.PathEscape(id), nil, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (c *Client) CreateNote(ctx context.Context, req types.CreateNoteRequest) (*types.CreateNoteResponse, error) {
	var res types.CreateNoteResponse
	if err := c.do(ctx, http.MethodPost, "/api/notes", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) UpdateNote(ctx context.Context, id string, req types.UpdateNoteRequest) (*models.Note, error) {
	var n models.Note
	if err := c.do(ctx, http.MethodPatch, "/api/notes/"+url.PathEscape(id), req, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (c *Client) DeleteNote(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/notes/"+url.PathEscape(id), nil, nil)
}

func (c *Client) SummarizeNote(ctx context.Context, id string) (*models.Note, error) {
	var n models.Note
	if err := c.do(ctx, http.MethodPost, "/api/notes/"+url.PathEscape(id)+"/summarize", nil, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (c *Client) Export(ctx context.Context) (*storage.Snapshot, error) {
	var s storage.Snapshot
	if err := c.do(ctx, http.MethodGet, "/api/notes/export", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) Archive(ctx context.Context) (*types.ArchiveResponse, error) {
	var res types.ArchiveResponse
	if err := c.do(ctx, http.MethodPost, "/api/notes/archive", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) ListArchives(ctx context.Context) ([]string, error) {
	var res types.ArchiveList
	if err := c.do(ctx, http.MethodGet, "/api/notes/archive", nil, &res); err != nil {
		return nil, err
	}
	return res.Archives, nil
}

func (c *Client) GetArchive(ctx context.Context, name string) (*storage.Snapshot, error) {
	var s storage.Snapshot
	if err := c.do(ctx, http.MethodGet, "/api/notes/archive/"+url.PathEscape(name), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Summarize calls POST /api/summarize. It satisfies notes.Summarizer, so a
// server can delegate summarization to another instance.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	defer logging.LogDuration(ctx, "remote_summarize")()
	var res types.SummarizeResponse
	if err := c.do(ctx, http.MethodPost, "/api/summarize", types.SummarizeRequest{Text: text}, &res); err != nil {
		return "", err
	}
	return res.Summary, nil
}
