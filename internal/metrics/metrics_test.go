package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Middleware())
	router.GET("/:shortCode", func(c *gin.Context) { c.Status(http.StatusFound) })

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/:shortCode", "302"))

	for _, code := range []string{"/abc123", "/xyz789"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, code, nil))
		require.Equal(t, http.StatusFound, w.Code)
	}

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/:shortCode", "302"))
	assert.Equal(t, 2.0, after-before)
}

func TestObserveCounters(t *testing.T) {
	before := testutil.ToFloat64(redirectsTotal.WithLabelValues(OutcomeExpired))
	ObserveRedirect(OutcomeExpired)
	assert.Equal(t, 1.0, testutil.ToFloat64(redirectsTotal.WithLabelValues(OutcomeExpired))-before)

	before = testutil.ToFloat64(clicksTotal.WithLabelValues("tablet"))
	ObserveClick("tablet")
	assert.Equal(t, 1.0, testutil.ToFloat64(clicksTotal.WithLabelValues("tablet"))-before)
}

func TestHandlerExposesMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/metrics", Handler())
	ObserveRedirect(OutcomeRedirected)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "linkpulse_redirects_total"))
}
