package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/storage"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

const (
	baseURL   = "http://testserver"
	testImage = "data:image/png;base64,iVBORw0KGgo="
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testAPI struct {
	router *gin.Engine
	db     *gorm.DB
	auth   *service.AuthService
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	db := testhelpers.NewSQLiteDB(t)

	images, err := storage.NewLocalStore(t.TempDir(), baseURL+"/media")
	require.NoError(t, err)
	cache, err := service.NewShortLinkCache(64)
	require.NoError(t, err)
	auth := service.NewAuthService(db, "test-secret", time.Hour)

	router := gin.New()
	api.RegisterRoutes(router, api.NewServices(db, images, cache, auth), api.Options{PublicBaseURL: baseURL})
	return &testAPI{router: router, db: db, auth: auth}
}

// token returns a valid auth header value for user
func (a *testAPI) token(t *testing.T, user *models.User) string {
	t.Helper()
	tok, err := a.auth.GenerateToken(user)
	require.NoError(t, err)
	return "Token " + tok
}

func (a *testAPI) do(t *testing.T, method, path, auth string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthHandler(t *testing.T) {
	router := gin.New()
	router.GET("/health", api.HealthHandler(map[string]api.HealthCheck{
		"database": func(ctx context.Context) error { return nil },
	}))
	router.GET("/broken", api.HealthHandler(map[string]api.HealthCheck{
		"redis": func(ctx context.Context) error { return errors.New("connection refused") },
	}))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"healthy","checks":{"database":"ok"}}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/broken", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.JSONEq(t, `{"status":"unhealthy","checks":{"redis":"connection refused"}}`, w.Body.String())
}
