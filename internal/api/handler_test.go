package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"marketplace/internal/models"
	"marketplace/internal/redisclient"
	"marketplace/internal/service"
	"marketplace/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	(&Handler{}).SetupRoutes(router)
	return router
}

func TestPreflightAnswersPermissiveCORS(t *testing.T) {
	router := newTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/products", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, PUT, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type, X-User-Token", w.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
}

func TestPreflightCountedInMetrics(t *testing.T) {
	router := newTestRouter()

	counter := util.HTTPRequestsTotal.WithLabelValues(http.MethodOptions, "", "200")
	before := testutil.ToFloat64(counter)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/orders", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestEveryResponseCarriesAllowOrigin(t *testing.T) {
	router := newTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnsupportedMethodMapping(t *testing.T) {
	router := newTestRouter()

	// The orders surface answers 400 to unexpected methods, the rest 405.
	cases := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodPut, "/api/v1/auth", http.StatusMethodNotAllowed},
		{http.MethodDelete, "/api/v1/products", http.StatusMethodNotAllowed},
		{http.MethodPut, "/api/v1/orders", http.StatusBadRequest},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(tc.method, tc.path, nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, tc.status, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestUnknownAuthActionAnswers405(t *testing.T) {
	router := newTestRouter()

	body := strings.NewReader(`{"action":"deactivate","email":"a@example.com","password":"pw"}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth", body)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestMutatingEndpointsRejectMissingToken(t *testing.T) {
	router := newTestRouter()

	for _, path := range []string{"/api/v1/products", "/api/v1/orders"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, path, nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestProductCreateRequiresAdminSession(t *testing.T) {
	t.Skip("Integration test - requires Redis")

	redis, err := redisclient.NewClient("localhost:6379", "", 0)
	require.NoError(t, err)
	defer redis.Close()

	ctx := context.Background()
	require.NoError(t, redis.SaveSession(ctx, "customer-token",
		models.Session{UserID: 7, IsAdmin: false}, time.Minute))

	authService := service.NewAuthService(nil, redis, time.Minute)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(authService, nil, nil).SetupRoutes(router)

	body := strings.NewReader(`{"name":"Gift Card","category":"cards","price":9.99}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Token", "customer-token")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
