// testing/integration/integration_test.go
package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ramen-directory/internal/config"
	handler "ramen-directory/internal/handler/http"
	"ramen-directory/internal/media"
	"ramen-directory/internal/models"
	"ramen-directory/internal/router"
	"ramen-directory/internal/session"
	"ramen-directory/internal/views"
	"ramen-directory/internal/workspace"
	"ramen-directory/testing/fixtures"
)

// fakeAPI plays the remote ramen API from the fixtures.
type fakeAPI struct {
	t     *testing.T
	token string

	mu          sync.Mutex
	calls       []string
	authHeaders map[string]string
	uploads     []string
	rejectAuth  bool
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	shop := int64(1)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, session.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "7", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		Username:         "kaiko",
		Role:             session.RoleShopOwner,
		ShopID:           &shop,
	}).SignedString([]byte("server-secret"))
	require.NoError(t, err)
	return &fakeAPI{t: t, token: token, authHeaders: map[string]string{}}
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/shops/1", f.fixture("shop.json"))
	mux.HandleFunc("GET /api/reviews/shop/1", f.fixture("reviews_page.json"))
	mux.HandleFunc("GET /api/reviews/1/replies", f.fixture("replies.json"))
	mux.HandleFunc("GET /api/shops/1/events", f.fixture("events_page.json"))
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds models.Credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds.Password != "noodles" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "bad credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    models.LoginResult{AccessToken: f.token, TokenType: "Bearer"},
		})
	})
	mux.HandleFunc("PUT /api/shops/1", f.authorized(func(w http.ResponseWriter, r *http.Request) {
		f.fixture("shop.json")(w, r)
	}))
	mux.HandleFunc("DELETE /api/shops/1/media/{mediaId}", f.authorized(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}))
	mux.HandleFunc("POST /api/shops/1/media", f.authorized(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": err.Error()})
			return
		}
		f.mu.Lock()
		for _, fh := range r.MultipartForm.File["files"] {
			f.uploads = append(f.uploads, fh.Filename)
		}
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		call := r.Method + " " + r.URL.Path
		f.calls = append(f.calls, call)
		f.authHeaders[call] = r.Header.Get("Authorization")
		f.mu.Unlock()
		mux.ServeHTTP(w, r)
	})
}

func (f *fakeAPI) fixture(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		data, err := fixtures.LoadFixture(name)
		if !assert.NoError(f.t, err) {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
	}
}

func (f *fakeAPI) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		reject := f.rejectAuth
		f.mu.Unlock()
		if reject || r.Header.Get("Authorization") != "Bearer "+f.token {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "token expired"})
			return
		}
		next(w, r)
	}
}

func (f *fakeAPI) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeAPI) uploaded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.uploads...)
}

func (f *fakeAPI) authHeader(call string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authHeaders[call]
}

func (f *fakeAPI) setRejectAuth(reject bool) {
	f.mu.Lock()
	f.rejectAuth = reject
	f.mu.Unlock()
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type testApp struct {
	api     *fakeAPI
	apiURL  string
	server  *httptest.Server
	client  *http.Client
	manager *workspace.Manager
}

func setupTestApp(t *testing.T) *testApp {
	t.Helper()
	api := newFakeAPI(t)
	apiServer := httptest.NewServer(api.handler())
	t.Cleanup(apiServer.Close)

	cfg := &config.Config{
		APIBaseURL:     apiServer.URL,
		APIPrefix:      "/api",
		UploadPath:     "/uploads",
		UserAgent:      "ramen-directory-test",
		MaxRetries:     1,
		RequestTimeout: 5 * time.Second,
		MaxUploadBytes: 1 << 20,
	}
	manager := workspace.NewManager(workspace.DirectoryBuilder(cfg), workspace.Options{
		Resolver: media.NewResolver(cfg.APIBaseURL, cfg.UploadPath),
		Limits:   views.DefaultLimits(),
	}, zap.NewNop())
	t.Cleanup(manager.Close)

	e := echo.New()
	router.NewRouter(e, manager, cfg, zap.NewNop())
	server := httptest.NewServer(e)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testApp{
		api:     api,
		apiURL:  apiServer.URL,
		server:  server,
		client:  &http.Client{Jar: jar, Timeout: 10 * time.Second},
		manager: manager,
	}
}

func (a *testApp) request(t *testing.T, method, path string, body io.Reader, contentType string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, a.server.URL+path, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := a.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func (a *testApp) requestJSON(t *testing.T, method, path string, body any) (int, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	return a.request(t, method, path, &buf, "application/json")
}

func (a *testApp) login(t *testing.T) {
	t.Helper()
	status, body := a.requestJSON(t, http.MethodPost, "/auth/login", models.Credentials{UsernameOrEmail: "kaiko", Password: "noodles"})
	require.Equal(t, http.StatusOK, status, string(body))
}

func decodeInto[T any](t *testing.T, data []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(data, &out), string(data))
	return out
}

func TestShopPageIntegration(t *testing.T) {
	app := setupTestApp(t)

	status, body := app.request(t, http.MethodGet, "/shops/1", nil, "")
	require.Equal(t, http.StatusOK, status, string(body))
	st := decodeInto[views.ShopDetailState](t, body)

	require.NotNil(t, st.Shop)
	assert.Equal(t, "Menya Kaiko", st.Shop.Name)
	require.Len(t, st.Shop.Media, 2)
	assert.Equal(t, app.apiURL+"/uploads/shops/1/front.jpg", st.Shop.Media[0].URL)
	require.Len(t, st.Reviews, 2)
	assert.Equal(t, 2, st.Reviews[0].ReplyCount)
	assert.Equal(t, app.apiURL+"/uploads/reviews/9.jpg", st.Reviews[0].Media[0].URL)
	assert.NotNil(t, st.Reviews[1].Media)
	assert.Equal(t, 1, st.TotalPages)
	require.Len(t, st.UpcomingEvents, 1)
	assert.Contains(t, st.UpcomingEvents[0].HTML, "<strong>this week</strong>")
	assert.False(t, st.CanReview)
	assert.Equal(t, 1, app.api.count("GET /api/shops/1"))

	status, body = app.request(t, http.MethodPost, "/shops/1/reviews/1/replies", nil, "")
	require.Equal(t, http.StatusOK, status, string(body))
	replies := decodeInto[views.RepliesView](t, body)
	assert.True(t, replies.Expanded)
	require.Len(t, replies.Items, 2)
	assert.Zero(t, replies.Items[1].ReplyCount)

	status, _ = app.request(t, http.MethodPost, "/shops/1/reviews/1/replies", nil, "")
	require.Equal(t, http.StatusOK, status)
	status, body = app.request(t, http.MethodPost, "/shops/1/reviews/1/replies", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.True(t, decodeInto[views.RepliesView](t, body).Expanded)
	assert.Equal(t, 1, app.api.count("GET /api/reviews/1/replies"))
	assert.Equal(t, 1, app.manager.Len())
}

func TestLoginFailureIntegration(t *testing.T) {
	app := setupTestApp(t)

	status, body := app.requestJSON(t, http.MethodPost, "/auth/login", models.Credentials{UsernameOrEmail: "kaiko", Password: "udon"})
	require.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, session.LoginPath, decodeInto[models.HTTPError](t, body).Redirect)

	status, body = app.request(t, http.MethodGet, "/auth/session", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.False(t, decodeInto[handler.SessionInfo](t, body).Authenticated)
}

func TestOwnerShopEditIntegration(t *testing.T) {
	app := setupTestApp(t)
	app.login(t)

	status, body := app.request(t, http.MethodGet, "/auth/session", nil, "")
	require.Equal(t, http.StatusOK, status)
	info := decodeInto[handler.SessionInfo](t, body)
	assert.Equal(t, session.RoleShopOwner, info.Role)

	status, body = app.request(t, http.MethodGet, "/owner/shop", nil, "")
	require.Equal(t, http.StatusOK, status, string(body))
	assert.True(t, decodeInto[views.ShopDetailState](t, body).CanReview)

	status, body = app.request(t, http.MethodPost, "/owner/shop/form", nil, "")
	require.Equal(t, http.StatusOK, status, string(body))
	form := decodeInto[views.FormView](t, body)
	require.Equal(t, "shop-1", form.Key)
	assert.Len(t, form.Existing, 2)

	status, body = app.request(t, http.MethodPost, "/forms/shop-1/media/5/toggle", nil, "")
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, []int64{5}, decodeInto[views.FormView](t, body).PendingIDs)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("files", "noodles.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("\xff\xd8\xff\xe0 jpeg bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	status, body = app.request(t, http.MethodPost, "/forms/shop-1/files", &buf, w.FormDataContentType())
	require.Equal(t, http.StatusOK, status, string(body))
	staged := decodeInto[views.FormView](t, body)
	require.Len(t, staged.StagedFiles, 1)

	status, body = app.request(t, http.MethodGet, staged.StagedFiles[0].PreviewURL, nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.True(t, bytes.HasPrefix(body, []byte("\xff\xd8")))

	status, body = app.requestJSON(t, http.MethodPut, "/owner/shop", models.ShopInput{Name: "Menya Kaiko", Address: "1-2-3 Ebisu, Shibuya"})
	require.Equal(t, http.StatusOK, status, string(body))
	out := decodeInto[views.ShopOutcome](t, body)
	assert.True(t, out.Report.Complete())
	assert.Equal(t, []int64{5}, out.Report.Deleted)
	assert.Equal(t, 1, out.Report.Uploaded)
	assert.Nil(t, out.Form)

	assert.Equal(t, 1, app.api.count("PUT /api/shops/1"))
	assert.Equal(t, 1, app.api.count("DELETE /api/shops/1/media/5"))
	assert.Equal(t, []string{"noodles.jpg"}, app.api.uploaded())
	assert.Equal(t, "Bearer "+app.api.token, app.api.authHeader("POST /api/shops/1/media"))

	status, _ = app.request(t, http.MethodGet, "/forms/shop-1", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestExpiredSessionIntegration(t *testing.T) {
	app := setupTestApp(t)
	app.login(t)

	status, body := app.request(t, http.MethodGet, "/owner/shop", nil, "")
	require.Equal(t, http.StatusOK, status, string(body))

	app.api.setRejectAuth(true)

	status, body = app.requestJSON(t, http.MethodPut, "/owner/shop", models.ShopInput{Name: "Menya Kaiko", Address: "Ebisu"})
	require.Equal(t, http.StatusUnauthorized, status, string(body))
	errBody := decodeInto[models.HTTPError](t, body)
	assert.Equal(t, session.LoginPath, errBody.Redirect)
	assert.Equal(t, "unauthorized", errBody.Kind)

	status, body = app.request(t, http.MethodGet, "/auth/session", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.False(t, decodeInto[handler.SessionInfo](t, body).Authenticated)

	status, _ = app.request(t, http.MethodGet, "/owner/shop", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestPreviewOfOtherWorkspaceIsHidden(t *testing.T) {
	app := setupTestApp(t)
	app.login(t)
	status, _ := app.request(t, http.MethodGet, "/owner/shop", nil, "")
	require.Equal(t, http.StatusOK, status)
	status, _ = app.request(t, http.MethodPost, "/owner/shop/form", nil, "")
	require.Equal(t, http.StatusOK, status)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("files", "bowl.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	status, body := app.request(t, http.MethodPost, "/forms/shop-1/files", &buf, w.FormDataContentType())
	require.Equal(t, http.StatusOK, status, string(body))
	previewURL := decodeInto[views.FormView](t, body).StagedFiles[0].PreviewURL

	resp, err := http.Get(app.server.URL + previewURL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.True(t, strings.HasPrefix(previewURL, "/previews/"), previewURL)
}
