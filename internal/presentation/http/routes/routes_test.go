package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/sales-api/internal/config"
	"github.com/sangkips/sales-api/internal/metrics"
	"github.com/sangkips/sales-api/internal/presentation/http/dto/response"
	"github.com/sangkips/sales-api/internal/presentation/http/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	m := metrics.New()
	return Setup(&Handlers{
		Sale:   handler.NewSaleHandler(nil),
		Health: handler.NewHealthHandler("sales-api", m, nil),
	}, &Deps{
		Cfg:     &config.Config{},
		Metrics: m,
		Logger:  zaptest.NewLogger(t),
	})
}

func TestUnknownRouteAnswersWithEnvelope(t *testing.T) {
	r := newRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/customers", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body response.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "Resource not found", body.Message)
	require.NotNil(t, body.Meta)
	assert.NotEmpty(t, body.Meta.RequestID)
}

func TestMetricsEndpointIsMounted(t *testing.T) {
	r := newRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
