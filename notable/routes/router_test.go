package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"notable/notable/events"
	"notable/notable/services/notes"
	"notable/notable/session"
	"notable/notable/sources"
	"notable/notable/sources/memory"
	"notable/notable/sources/models"
	"notable/notable/sources/storage"
	"notable/notable/types"
	"notable/notable/utils/apperrors"
	"notable/notable/utils/metrics"
	"notable/notable/views"

	"github.com/PuerkitoBio/goquery"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/publicsuffix"
)

type stubSummarizer struct {
	out   string
	err   error
	calls int32
}

func (s *stubSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	atomic.AddInt32(&s.calls, 1)
	if strings.TrimSpace(text) == "" {
		return "", apperrors.Validation("stub", "Text is required")
	}
	if s.err != nil {
		return "", s.err
	}
	return s.out, nil
}

// oauthAuth adds a fake OAuth provider to the memory identity driver.
type oauthAuth struct {
	*memory.Auth
	exchanges int32
}

func (a *oauthAuth) AuthorizeURL(ctx context.Context, provider, redirectTo string) (string, string, error) {
	return "https://idp.example/authorize?provider=" + provider + "&redirect_to=" + url.QueryEscape(redirectTo), "verifier-1", nil
}

func (a *oauthAuth) ExchangeCode(ctx context.Context, code, verifier string) (*sources.AuthResult, error) {
	atomic.AddInt32(&a.exchanges, 1)
	if code != "good" || verifier != "verifier-1" {
		return nil, apperrors.Auth("oauthAuth.ExchangeCode", "invalid grant")
	}
	return a.SignInWithPassword(ctx, "ann@example.com", "hunter22")
}

type fixture struct {
	srv   *httptest.Server
	store *memory.Store
	sum   *stubSummarizer
	auth  *oauthAuth
	bus   *events.Bus
}

func newFixture(t *testing.T, opts ...func(*Deps)) *fixture {
	t.Helper()
	local, err := memory.NewAuthFromList("ann@example.com:hunter22,bob@example.com:hunter33")
	require.NoError(t, err)
	v, err := views.New()
	require.NoError(t, err)

	f := &fixture{
		store: memory.NewStore(),
		sum:   &stubSummarizer{out: "A short summary."},
		auth:  &oauthAuth{Auth: local},
		bus:   events.NewBus(16),
	}
	svc := notes.NewService(f.store, f.sum, f.bus, nil)

	f.srv = httptest.NewServer(nil)
	t.Cleanup(f.srv.Close)
	deps := Deps{
		BaseURL:        f.srv.URL,
		OAuthProviders: []string{"google"},
		Sessions:       session.NewManager("test-secret", false),
		Auth:           f.auth,
		Notes:          svc,
		Summarizer:     f.sum,
		Bus:            f.bus,
		Views:          v,
		Metrics:        metrics.NewCollector("test"),
	}
	for _, opt := range opts {
		opt(&deps)
	}
	f.srv.Config.Handler = NewRouter(deps)
	return f
}

// browser is a cookie-keeping client that does not follow redirects.
func (f *fixture) browser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (f *fixture) get(t *testing.T, c *http.Client, path string) *http.Response {
	t.Helper()
	res, err := c.Get(f.srv.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func (f *fixture) post(t *testing.T, c *http.Client, path string, form url.Values) *http.Response {
	t.Helper()
	res, err := c.PostForm(f.srv.URL+path, form)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func (f *fixture) signIn(t *testing.T, email, password string) *http.Client {
	t.Helper()
	c := f.browser(t)
	res := f.post(t, c, "/signin", url.Values{"email": {email}, "password": {password}})
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	return c
}

func (f *fixture) only(t *testing.T, userID string) models.Note {
	t.Helper()
	list, err := f.store.Open(sources.Identity{UserID: userID}).List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	return list[0]
}

func (f *fixture) userID(t *testing.T, email, password string) string {
	t.Helper()
	res, err := f.auth.SignInWithPassword(context.Background(), email, password)
	require.NoError(t, err)
	return res.User.ID
}

func parse(t *testing.T, res *http.Response) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(res.Body)
	require.NoError(t, err)
	return doc
}

func TestAnonymousPagesRedirectToSignIn(t *testing.T) {
	f := newFixture(t)
	c := f.browser(t)

	res := f.get(t, c, "/notes")
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/signin?next=%2Fnotes", res.Header.Get("Location"))

	res = f.get(t, c, "/")
	assert.Equal(t, http.StatusFound, res.StatusCode)
	assert.Equal(t, "/signin", res.Header.Get("Location"))
}

func TestSignInFailureKeepsEmail(t *testing.T) {
	f := newFixture(t)
	res := f.post(t, f.browser(t), "/signin", url.Values{"email": {"ann@example.com"}, "password": {"nope"}})

	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	doc := parse(t, res)
	assert.Equal(t, "Invalid login credentials", doc.Find("#signin-error").Text())
	assert.Equal(t, "ann@example.com", doc.Find("input[name=email]").AttrOr("value", ""))
}

func TestSignInShowsCurrentUser(t *testing.T) {
	f := newFixture(t)
	c := f.signIn(t, "ann@example.com", "hunter22")

	res := f.get(t, c, "/notes")
	require.Equal(t, http.StatusOK, res.StatusCode)
	doc := parse(t, res)
	assert.Equal(t, "ann@example.com", doc.Find("#current-user").Text())
	assert.Equal(t, 1, doc.Find("p.empty").Length())

	res = f.get(t, c, "/signin")
	assert.Equal(t, http.StatusFound, res.StatusCode)
	assert.Equal(t, "/notes", res.Header.Get("Location"))
}

func TestCreateNotePage(t *testing.T) {
	f := newFixture(t)
	c := f.signIn(t, "ann@example.com", "hunter22")

	res := f.post(t, c, "/notes", url.Values{"title": {"Groceries"}, "content": {"buy milk"}, "action": {"save"}})
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/notes", res.Header.Get("Location"))

	doc := parse(t, f.get(t, c, "/notes"))
	assert.Equal(t, 1, doc.Find("article.note").Length())
	assert.Equal(t, "Groceries", doc.Find("article.note h2").Text())
	assert.Equal(t, 0, doc.Find("article.note .summary").Length())
	assert.EqualValues(t, 0, atomic.LoadInt32(&f.sum.calls))
}

func TestCreateNoteValidation(t *testing.T) {
	f := newFixture(t)
	c := f.signIn(t, "ann@example.com", "hunter22")

	res := f.post(t, c, "/notes", url.Values{"title": {"  "}, "content": {"buy milk"}, "action": {"summarize"}})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	doc := parse(t, res)
	assert.Equal(t, "Title and content are required.", doc.Find("#form-error").Text())
	assert.Equal(t, "buy milk", doc.Find("textarea[name=content]").Text())
	assert.Equal(t, 0, f.store.Len())
	assert.EqualValues(t, 0, atomic.LoadInt32(&f.sum.calls))
}

func TestSaveAndSummarize(t *testing.T) {
	f := newFixture(t)
	c := f.signIn(t, "ann@example.com", "hunter22")

	res := f.post(t, c, "/notes", url.Values{"title": {"Meeting"}, "content": {"long notes"}, "action": {"summarize"}})
	require.Equal(t, http.StatusSeeOther, res.StatusCode)

	doc := parse(t, f.get(t, c, "/notes"))
	assert.Equal(t, "A short summary.", doc.Find("article.note .summary").Text())
}

func TestSaveAndSummarizeFailureCreatesNothing(t *testing.T) {
	f := newFixture(t)
	f.sum.err = apperrors.Upstream("groq", http.StatusTooManyRequests, "rate limited")
	c := f.signIn(t, "ann@example.com", "hunter22")

	res := f.post(t, c, "/notes", url.Values{"title": {"Meeting"}, "content": {"long notes"}, "action": {"summarize"}})
	assert.Equal(t, http.StatusTooManyRequests, res.StatusCode)
	doc := parse(t, res)
	assert.Equal(t, "Failed to create note: rate limited", doc.Find("div.flash").Text())
	assert.Equal(t, "Meeting", doc.Find("input[name=title]").AttrOr("value", ""))
	assert.Equal(t, 0, f.store.Len())
}

func TestSaveAndSummarizePartialFailure(t *testing.T) {
	f := newFixture(t)
	f.store.FailUpdates = errors.New("disk full")
	c := f.signIn(t, "ann@example.com", "hunter22")

	res := f.post(t, c, "/notes", url.Values{"title": {"Meeting"}, "content": {"long notes"}, "action": {"summarize"}})
	require.Equal(t, http.StatusSeeOther, res.StatusCode)

	note := f.only(t, f.userID(t, "ann@example.com", "hunter22"))
	assert.Nil(t, note.Summary)
	assert.Equal(t, "/notes/"+note.ID+"?summary=failed", res.Header.Get("Location"))

	doc := parse(t, f.get(t, c, res.Header.Get("Location")))
	assert.Contains(t, doc.Find("div.flash").Text(), "summary could not be attached")
}

func TestEditGenerateSummaryThenSave(t *testing.T) {
	f := newFixture(t)
	c := f.signIn(t, "ann@example.com", "hunter22")
	f.post(t, c, "/notes", url.Values{"title": {"Taxes"}, "content": {"file by april"}})
	note := f.only(t, f.userID(t, "ann@example.com", "hunter22"))
	path := "/notes/" + note.ID

	res := f.post(t, c, path, url.Values{"title": {"Taxes 2024"}, "content": {"file by april"}, "action": {"summarize"}})
	require.Equal(t, http.StatusOK, res.StatusCode)
	doc := parse(t, res)
	assert.Equal(t, "A short summary.", doc.Find("input[name=summary]").AttrOr("value", ""))
	assert.Equal(t, "Taxes 2024", doc.Find("input[name=title]").AttrOr("value", ""))
	assert.Nil(t, f.only(t, note.UserID).Summary, "generated summary is a draft until saved")

	res = f.post(t, c, path, url.Values{
		"title": {"Taxes 2024"}, "content": {"file by april"}, "summary": {"A short summary."}, "action": {"save"},
	})
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, path+"?saved=1", res.Header.Get("Location"))

	saved := f.only(t, note.UserID)
	assert.Equal(t, "Taxes 2024", saved.Title)
	assert.Equal(t, "A short summary.", saved.SummaryText())

	doc = parse(t, f.get(t, c, res.Header.Get("Location")))
	assert.Equal(t, 1, doc.Find("#form-saved").Length())
}

func TestEditValidation(t *testing.T) {
	f := newFixture(t)
	c := f.signIn(t, "ann@example.com", "hunter22")
	f.post(t, c, "/notes", url.Values{"title": {"Taxes"}, "content": {"file by april"}})
	note := f.only(t, f.userID(t, "ann@example.com", "hunter22"))

	res := f.post(t, c, "/notes/"+note.ID, url.Values{"title": {""}, "content": {"x"}, "action": {"save"}})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "Title and content are required.", parse(t, res).Find("#form-error").Text())
	assert.Equal(t, "Taxes", f.only(t, note.UserID).Title)
}

func TestOtherUsersNoteIsNotFound(t *testing.T) {
	f := newFixture(t)
	ann := f.signIn(t, "ann@example.com", "hunter22")
	f.post(t, ann, "/notes", url.Values{"title": {"Private"}, "content": {"secret"}})
	note := f.only(t, f.userID(t, "ann@example.com", "hunter22"))

	bob := f.signIn(t, "bob@example.com", "hunter33")
	res := f.get(t, bob, "/notes/"+note.ID)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "Page not found", parse(t, res).Find("h1").Text())

	res = f.post(t, bob, "/notes/"+note.ID+"/delete", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, 1, f.store.Len())
}

func TestDeleteFlow(t *testing.T) {
	f := newFixture(t)
	c := f.signIn(t, "ann@example.com", "hunter22")
	f.post(t, c, "/notes", url.Values{"title": {"Old"}, "content": {"stale"}})
	note := f.only(t, f.userID(t, "ann@example.com", "hunter22"))

	doc := parse(t, f.get(t, c, "/notes/"+note.ID+"/delete"))
	assert.Equal(t, "/notes/"+note.ID+"/delete", doc.Find("form").Last().AttrOr("action", ""))

	res := f.post(t, c, "/notes/"+note.ID+"/delete", nil)
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, 0, f.store.Len())

	res = f.post(t, c, "/notes/"+note.ID+"/delete", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestSearchAndView(t *testing.T) {
	f := newFixture(t)
	c := f.signIn(t, "ann@example.com", "hunter22")
	f.post(t, c, "/notes", url.Values{"title": {"Groceries"}, "content": {"buy MILK"}})
	f.post(t, c, "/notes", url.Values{"title": {"Taxes"}, "content": {"file forms"}})

	doc := parse(t, f.get(t, c, "/notes?q=milk&view=list"))
	assert.Equal(t, 1, doc.Find("article.note").Length())
	assert.True(t, doc.Find("#notes").HasClass("list"))
	assert.Equal(t, "milk", doc.Find("input[name=q]").AttrOr("value", ""))

	doc = parse(t, f.get(t, c, "/notes?q=zebra"))
	assert.Contains(t, doc.Find("p.empty").Text(), "zebra")
}

func TestThemeToggleAndSignOut(t *testing.T) {
	f := newFixture(t)
	c := f.signIn(t, "ann@example.com", "hunter22")

	res := f.post(t, c, "/theme", url.Values{"redirect": {"/notes"}})
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/notes", res.Header.Get("Location"))
	assert.Equal(t, "dark", parse(t, f.get(t, c, "/notes")).Find("html").AttrOr("data-theme", ""))

	res = f.post(t, c, "/theme", url.Values{"redirect": {"//evil.example"}})
	assert.Equal(t, "/", res.Header.Get("Location"))

	res = f.post(t, c, "/signout", nil)
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/signin", res.Header.Get("Location"))

	res = f.get(t, c, "/notes")
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "light", parse(t, f.get(t, c, "/signin")).Find("html").AttrOr("data-theme", ""))
}

func beginOAuth(t *testing.T, f *fixture, c *http.Client) string {
	t.Helper()
	res := f.get(t, c, "/auth/oauth/google")
	require.Equal(t, http.StatusFound, res.StatusCode)
	loc, err := url.Parse(res.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "idp.example", loc.Host)
	back, err := url.Parse(loc.Query().Get("redirect_to"))
	require.NoError(t, err)
	assert.Equal(t, "/auth/callback", back.Path)
	return back.Query().Get("state")
}

func TestOAuthCallback(t *testing.T) {
	f := newFixture(t)
	c := f.browser(t)
	state := beginOAuth(t, f, c)
	require.NotEmpty(t, state)

	res := f.get(t, c, "/auth/callback?code=good&state="+url.QueryEscape(state))
	require.Equal(t, http.StatusFound, res.StatusCode)
	assert.Equal(t, "/notes", res.Header.Get("Location"))
	assert.EqualValues(t, 1, atomic.LoadInt32(&f.auth.exchanges))
	assert.Equal(t, http.StatusOK, f.get(t, c, "/notes").StatusCode)

	// The state cookie is single use.
	res = f.get(t, c, "/auth/callback?code=good&state="+url.QueryEscape(state))
	assert.Equal(t, "/signin?error=oauth", res.Header.Get("Location"))
	assert.EqualValues(t, 1, atomic.LoadInt32(&f.auth.exchanges))
}

func TestOAuthCallbackRejectsBadState(t *testing.T) {
	f := newFixture(t)
	c := f.browser(t)
	beginOAuth(t, f, c)

	res := f.get(t, c, "/auth/callback?code=good&state=forged")
	require.Equal(t, http.StatusFound, res.StatusCode)
	assert.Equal(t, "/signin?error=oauth", res.Header.Get("Location"))

	res = f.get(t, f.browser(t), "/auth/callback?code=good&state=anything")
	assert.Equal(t, "/signin?error=oauth", res.Header.Get("Location"))
	assert.EqualValues(t, 0, atomic.LoadInt32(&f.auth.exchanges))

	doc := parse(t, f.get(t, c, "/signin?error=oauth"))
	assert.NotEmpty(t, doc.Find("#signin-error").Text())
}

func TestOAuthExchangeFailure(t *testing.T) {
	f := newFixture(t)
	c := f.browser(t)
	state := beginOAuth(t, f, c)

	res := f.get(t, c, "/auth/callback?code=bad&state="+url.QueryEscape(state))
	assert.Equal(t, "/signin?error=oauth", res.Header.Get("Location"))
	assert.EqualValues(t, 1, atomic.LoadInt32(&f.auth.exchanges))
}

func TestUnknownOAuthProvider(t *testing.T) {
	f := newFixture(t)
	res := f.get(t, f.browser(t), "/auth/oauth/myspace")
	assert.Equal(t, "/signin?error=oauth", res.Header.Get("Location"))
}

func TestNotFoundPages(t *testing.T) {
	f := newFixture(t)
	res := f.get(t, f.browser(t), "/nope")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "Page not found", parse(t, res).Find("h1").Text())

	status, body := f.api(t, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Not found", body["error"])
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t)
	res := f.get(t, f.browser(t), "/health")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	res = f.get(t, f.browser(t), "/health/live")
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res = f.get(t, f.browser(t), "/metrics")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(res.Body)
	assert.Contains(t, buf.String(), "test_http_requests_total")
}

func TestNoteEventsStream(t *testing.T) {
	f := newFixture(t)
	c := f.signIn(t, "ann@example.com", "hunter22")

	u, err := url.Parse(f.srv.URL)
	require.NoError(t, err)
	header := http.Header{}
	for _, ck := range c.Jar.Cookies(u) {
		header.Add("Cookie", ck.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(f.srv.URL, "http")+"/notes/events", &websocket.DialOptions{HTTPHeader: header})
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	// The subscription is registered right after the handshake.
	require.Eventually(t, func() bool { return f.bus.Subscribers() == 1 }, time.Second, 10*time.Millisecond)
	f.post(t, c, "/notes", url.Values{"title": {"Live"}, "content": {"update"}})

	var e events.Event
	require.NoError(t, wsjson.Read(ctx, conn, &e))
	assert.Equal(t, events.CollectionChanged, e.Kind)
	assert.Equal(t, f.userID(t, "ann@example.com", "hunter22"), e.UserID)
}

func TestNoteEventsRequireSession(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, res, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(f.srv.URL, "http")+"/notes/events", nil)
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

// api sends a JSON request and decodes a JSON object response.
func (f *fixture) api(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, f.srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	out := map[string]any{}
	if res.StatusCode != http.StatusNoContent {
		_ = json.NewDecoder(res.Body).Decode(&out)
	}
	return res.StatusCode, out
}

func (f *fixture) token(t *testing.T, email, password string) string {
	t.Helper()
	status, body := f.api(t, http.MethodPost, "/api/auth/token", "", types.LoginRequest{Email: email, Password: password})
	require.Equal(t, http.StatusOK, status)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestAPIToken(t *testing.T) {
	f := newFixture(t)
	status, body := f.api(t, http.MethodPost, "/api/auth/token", "", types.LoginRequest{Email: "ann@example.com", Password: "bad"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid login credentials", body["error"])

	status, body = f.api(t, http.MethodPost, "/api/auth/token", "", types.LoginRequest{Email: "not-an-email", Password: "x"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["error"], "email")

	token := f.token(t, "ann@example.com", "hunter22")
	status, body = f.api(t, http.MethodGet, "/api/me", token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ann@example.com", body["email"])
}

func TestAPIRequiresAuth(t *testing.T) {
	f := newFixture(t)
	status, body := f.api(t, http.MethodGet, "/api/notes", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "User not authenticated", body["error"])

	status, _ = f.api(t, http.MethodGet, "/api/me", "forged.token.value", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAPIProviderAccessToken(t *testing.T) {
	f := newFixture(t)
	res, err := f.auth.SignInWithPassword(context.Background(), "ann@example.com", "hunter22")
	require.NoError(t, err)

	status, body := f.api(t, http.MethodGet, "/api/me", res.AccessToken, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ann@example.com", body["email"])
}

func TestAPINotesCRUD(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, "ann@example.com", "hunter22")

	status, body := f.api(t, http.MethodPost, "/api/notes", token, types.CreateNoteRequest{Title: "", Content: "x"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Title and content are required.", body["error"])

	status, body = f.api(t, http.MethodPost, "/api/notes", token, types.CreateNoteRequest{Title: "Groceries", Content: "buy milk"})
	require.Equal(t, http.StatusCreated, status)
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)
	assert.Nil(t, body["summary"])

	status, body = f.api(t, http.MethodPatch, "/api/notes/"+id, token, map[string]string{"summary": "dairy"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "dairy", body["summary"])
	assert.Equal(t, "Groceries", body["title"])

	status, _ = f.api(t, http.MethodPatch, "/api/notes/"+id, token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = f.api(t, http.MethodGet, "/api/notes/"+id, token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "buy milk", body["content"])

	bob := f.token(t, "bob@example.com", "hunter33")
	status, _ = f.api(t, http.MethodGet, "/api/notes/"+id, bob, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = f.api(t, http.MethodDelete, "/api/notes/"+id, token, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, body = f.api(t, http.MethodDelete, "/api/notes/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "note not found", body["error"])
}

func TestAPISearch(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, "ann@example.com", "hunter22")
	for _, n := range []types.CreateNoteRequest{
		{Title: "Groceries", Content: "buy milk"},
		{Title: "Taxes", Content: "forms"},
		{Title: "Breakfast", Content: "eggs", Summary: "Milk and eggs"},
	} {
		status, _ := f.api(t, http.MethodPost, "/api/notes", token, n)
		require.Equal(t, http.StatusCreated, status)
	}

	req, err := http.NewRequest(http.MethodGet, f.srv.URL+"/api/notes?q=MILK", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	var list []models.Note
	require.NoError(t, json.NewDecoder(res.Body).Decode(&list))
	require.Len(t, list, 2)
	assert.Equal(t, "Breakfast", list[0].Title)
	assert.Equal(t, "Groceries", list[1].Title)
}

func TestAPICreatePartialFailure(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, "ann@example.com", "hunter22")
	f.store.FailUpdates = errors.New("disk full")

	status, body := f.api(t, http.MethodPost, "/api/notes", token, types.CreateNoteRequest{Title: "T", Content: "C", Summary: "S"})
	assert.Equal(t, http.StatusCreated, status)
	assert.NotEmpty(t, body["summary_error"])
	assert.Nil(t, body["summary"])
	assert.Equal(t, 1, f.store.Len())
}

func TestAPISummarizeNoteAndExport(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, "ann@example.com", "hunter22")
	_, body := f.api(t, http.MethodPost, "/api/notes", token, types.CreateNoteRequest{Title: "T", Content: "long text"})
	id := body["id"].(string)

	status, body := f.api(t, http.MethodPost, "/api/notes/"+id+"/summarize", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "A short summary.", body["summary"])

	status, body = f.api(t, http.MethodGet, "/api/notes/export", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["count"])

	status, body = f.api(t, http.MethodPost, "/api/notes/archive", token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "Note archive is not configured", body["error"])
}

func TestAPISummarize(t *testing.T) {
	f := newFixture(t)

	status, body := f.api(t, http.MethodPost, "/api/summarize", "", types.SummarizeRequest{Text: "some long text"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "A short summary.", body["summary"])

	status, body = f.api(t, http.MethodPost, "/api/summarize", "", types.SummarizeRequest{Text: "  "})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Text is required", body["error"])

	f.sum.err = apperrors.Upstream("groq", http.StatusTooManyRequests, `{"error":{"message":"Rate limit reached"}}`)
	status, body = f.api(t, http.MethodPost, "/api/summarize", "", types.SummarizeRequest{Text: "x"})
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, `{"error":{"message":"Rate limit reached"}}`, body["error"])

	f.sum.err = apperrors.Config("groq", "Groq API key not configured")
	status, body = f.api(t, http.MethodPost, "/api/summarize", "", types.SummarizeRequest{Text: "x"})
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Groq API key not configured", body["error"])

	f.sum.err = errors.New("connection reset")
	status, body = f.api(t, http.MethodPost, "/api/summarize", "", types.SummarizeRequest{Text: "x"})
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Failed to summarize text", body["error"])
}

// memArchive keeps snapshots in a map keyed like the object store.
type memArchive struct {
	mu    sync.Mutex
	snaps map[string]storage.Snapshot
}

func (a *memArchive) UploadSnapshot(ctx context.Context, s storage.Snapshot) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	key := storage.SnapshotKey(s)
	a.snaps[key] = s
	return key, nil
}

func (a *memArchive) ListSnapshots(ctx context.Context, userID string) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	names := []string{}
	for key, s := range a.snaps {
		if s.UserID == userID {
			names = append(names, path.Base(key))
		}
	}
	sort.Strings(names)
	return names, nil
}

func (a *memArchive) GetSnapshot(ctx context.Context, userID, name string) (*storage.Snapshot, error) {
	key, err := storage.SnapshotPath(userID, name)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.snaps[key]
	if !ok {
		return nil, apperrors.NotFound("memArchive.GetSnapshot", "archive not found")
	}
	return &s, nil
}

func TestAPIArchive(t *testing.T) {
	archive := &memArchive{snaps: map[string]storage.Snapshot{}}
	f := newFixture(t, func(d *Deps) { d.Archive = archive })
	ann := f.token(t, "ann@example.com", "hunter22")
	bob := f.token(t, "bob@example.com", "hunter33")
	f.api(t, http.MethodPost, "/api/notes", ann, types.CreateNoteRequest{Title: "T", Content: "c"})

	status, body := f.api(t, http.MethodPost, "/api/notes/archive", ann, nil)
	require.Equal(t, http.StatusCreated, status)
	assert.EqualValues(t, 1, body["count"])
	key := body["key"].(string)

	status, body = f.api(t, http.MethodGet, "/api/notes/archive", ann, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{path.Base(key)}, body["archives"])

	status, body = f.api(t, http.MethodGet, "/api/notes/archive/"+path.Base(key), ann, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["count"])

	// Names resolve inside the caller's own prefix.
	status, body = f.api(t, http.MethodGet, "/api/notes/archive", bob, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{}, body["archives"])
	status, _ = f.api(t, http.MethodGet, "/api/notes/archive/"+path.Base(key), bob, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = f.api(t, http.MethodGet, "/api/notes/archive/notes.txt", ann, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid archive name", body["error"])
}
