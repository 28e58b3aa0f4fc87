package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kosench/linkpulse/internal/auth"
	"github.com/Kosench/linkpulse/internal/cache"
	"github.com/Kosench/linkpulse/internal/logger"
	"github.com/Kosench/linkpulse/internal/model"
	"github.com/Kosench/linkpulse/internal/repository"
	"github.com/Kosench/linkpulse/internal/service"
)

type testApp struct {
	router *gin.Engine
	store  *repository.MemoryStore
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.Discard()
	store := repository.NewMemoryStore()
	tokens := auth.NewTokenIssuer("test-secret", 12*time.Hour)
	links := service.NewLinkService(store.Links(), store.Clicks(), 7, 5, log)

	router, err := NewRouter(RouterConfig{
		TrustedProxies: []string{"127.0.0.1"},
		AllowedOrigins: []string{"*"},
		RateLimit:      1000,
		LoginRateLimit: 1000,
		RateWindow:     time.Minute,
	}, Dependencies{
		Resolver: links,
		Links:    links,
		Users:    service.NewUserService(store.Users(), tokens, log),
		Tokens:   tokens,
		Limiter:  cache.NewMemoryLimiter(),
		Keys:     cache.NewKeyBuilder("test"),
		Health:   NewHealthHandler("memory", nil, nil, nil),
		Log:      log,
	})
	require.NoError(t, err)

	return &testApp{router: router, store: store}
}

func (a *testApp) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// signup регистрирует пользователя и возвращает токен
func (a *testApp) signup(t *testing.T, email string) string {
	t.Helper()
	w := a.do(t, http.MethodPost, "/user/register",
		`{"username":"alice","email":"`+email+`","mobile":"5550100","password":"s3cret"}`, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(t, http.MethodPost, "/user/login", `{"email":"`+email+`","password":"s3cret"}`, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string                 `json:"token"`
		User  map[string]interface{} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	assert.NotContains(t, resp.User, "password")
	assert.NotContains(t, resp.User, "PasswordHash")
	return resp.Token
}

func (a *testApp) userID(t *testing.T, email string) uuid.UUID {
	t.Helper()
	user, err := a.store.Users().GetByEmail(context.Background(), email)
	require.NoError(t, err)
	return user.ID
}

func (a *testApp) seedLink(t *testing.T, owner uuid.UUID, code string, expire *time.Time) *model.Link {
	t.Helper()
	now := time.Now()
	link := &model.Link{
		ID:           uuid.New(),
		UserID:       owner,
		OriginalLink: "https://example.com",
		ShortLink:    code,
		Remark:       "seeded",
		ExpireDate:   expire,
		CreatedAt:    now,
	}
	link.Touch(now)
	require.NoError(t, a.store.Links().Create(context.Background(), link))
	return link
}

func TestRouter_MobileRedirectUpdatesCounters(t *testing.T) {
	app := newTestApp(t)
	app.signup(t, "alice@example.com")
	link := app.seedLink(t, app.userID(t, "alice@example.com"), "abc123", nil)

	req := httptest.NewRequest(http.MethodGet, "/abc123", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Mobile/15E148")
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://example.com", w.Header().Get("Location"))

	got, err := app.store.Links().GetByShortCode(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.TotalClicks)
	assert.Equal(t, int64(1), got.DeviceClicks.Mobile)
	assert.Equal(t, []model.DateClick{{Date: model.DayKey(time.Now()), Count: 1}}, got.DateClicks)

	n, err := app.store.Clicks().CountByLink(context.Background(), link.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRouter_ExpiredLinkIsGone(t *testing.T) {
	app := newTestApp(t)
	app.signup(t, "alice@example.com")
	yesterday := time.Now().Add(-24 * time.Hour)
	link := app.seedLink(t, app.userID(t, "alice@example.com"), "old123", &yesterday)

	w := app.do(t, http.MethodGet, "/old123", "", "")

	require.Equal(t, http.StatusGone, w.Code)
	assert.Equal(t, "This link has expired and is no longer active", decodeBody(t, w)["message"])

	n, err := app.store.Clicks().CountByLink(context.Background(), link.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRouter_AccountAndDashboardFlow(t *testing.T) {
	app := newTestApp(t)
	token := app.signup(t, "alice@example.com")

	// Без токена дашборд закрыт
	w := app.do(t, http.MethodGet, "/dashboard", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.do(t, http.MethodGet, "/dashboard/getClicks", "", token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do(t, http.MethodPost, "/dashboard/addlink", `{"originalLink":"https://example.com/promo","remark":"Spring promo"}`, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var created struct {
		Link model.Link `json:"link"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.Link.ShortLink)

	w = app.do(t, http.MethodGet, "/"+created.Link.ShortLink, "", "")
	require.Equal(t, http.StatusFound, w.Code)

	w = app.do(t, http.MethodGet, "/dashboard/links?search=SPRING", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeBody(t, w)["count"])

	w = app.do(t, http.MethodGet, "/dashboard", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeBody(t, w)["totalClicks"])

	w = app.do(t, http.MethodGet, "/dashboard/getClicks", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeBody(t, w)["count"])

	path := "/dashboard/" + created.Link.ID.String()
	w = app.do(t, http.MethodPatch, path, `{"expireDate":"2000-01-01T00:00:00Z"}`, token)
	require.Equal(t, http.StatusOK, w.Code)

	got, err := app.store.Links().GetByShortCode(context.Background(), created.Link.ShortLink)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInactive, got.ActiveStatus)

	w = app.do(t, http.MethodGet, "/"+created.Link.ShortLink, "", "")
	assert.Equal(t, http.StatusGone, w.Code)

	w = app.do(t, http.MethodPatch, path, `{"expireDate":null}`, token)
	require.Equal(t, http.StatusOK, w.Code)

	w = app.do(t, http.MethodGet, path, "", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decodeBody(t, w)["date"])

	// Чужой пользователь ссылку не видит
	other := app.signup(t, "bob@example.com")
	w = app.do(t, http.MethodDelete, path, "", other)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do(t, http.MethodDelete, path, "", token)
	require.Equal(t, http.StatusOK, w.Code)

	w = app.do(t, http.MethodGet, "/"+created.Link.ShortLink, "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_AccountEndpoints(t *testing.T) {
	app := newTestApp(t)
	token := app.signup(t, "alice@example.com")

	w := app.do(t, http.MethodPost, "/user/register",
		`{"username":"a","email":"alice@example.com","mobile":"1","password":"x"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "User Already Exist", decodeBody(t, w)["message"])

	w = app.do(t, http.MethodPost, "/user/register", `{"username":"a"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "All fields are Required", decodeBody(t, w)["message"])

	w = app.do(t, http.MethodPost, "/user/login", `{"email":"alice@example.com","password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.do(t, http.MethodPost, "/user/login", `{"email":"ghost@example.com","password":"x"}`, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User Not found! Please Register", decodeBody(t, w)["message"])

	w = app.do(t, http.MethodPatch, "/user/update", `{"mobile":"5550199"}`, token)
	require.Equal(t, http.StatusOK, w.Code)

	w = app.do(t, http.MethodGet, "/user/userget", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]interface{}{
		"username": "alice",
		"email":    "alice@example.com",
		"mobile":   "5550199",
	}, decodeBody(t, w))

	w = app.do(t, http.MethodDelete, "/user/delete", "", token)
	require.Equal(t, http.StatusOK, w.Code)

	w = app.do(t, http.MethodGet, "/user/userget", "", token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "memory", body["storage"])

	w = app.do(t, http.MethodGet, "/info", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decodeBody(t, w)["cache_enabled"])

	w = app.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestHealthHandler_Degraded(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHealthHandler("postgres",
		func(context.Context) error { return nil },
		func(context.Context) error { return context.DeadlineExceeded },
		func(context.Context) (string, error) { return "PostgreSQL 16.3", nil },
	)
	router := gin.New()
	router.GET("/health", h.Health)
	router.GET("/info", h.Info)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	services := decodeBody(t, w)["services"].(map[string]interface{})
	assert.Equal(t, "healthy", services["database"])
	assert.Equal(t, "unhealthy", services["cache"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/info", nil))
	info := decodeBody(t, w)
	assert.Equal(t, "PostgreSQL 16.3", info["database_version"])
	assert.Equal(t, "redis", info["cache_driver"])
}
