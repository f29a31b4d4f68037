package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newGinEngine(log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		c.Set("request_id", "req-99")
	})
	engine.Use(GinMiddleware(log))
	return engine
}

func TestGinMiddleware_LogsRequest(t *testing.T) {
	log, logs := newObservedLogger()
	engine := newGinEngine(log)
	engine.GET("/imports", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/imports?page=2", nil))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, "request completed", entries[0].Message)

	fields := entries[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/imports", fields["path"])
	assert.Equal(t, "req-99", fields["request_id"])
	assert.Equal(t, int64(http.StatusOK), fields["status"])
	assert.Equal(t, "page=2", fields["query"])
}

func TestGinMiddleware_PropagatesRequestID(t *testing.T) {
	log, _ := newObservedLogger()
	engine := newGinEngine(log)

	var seen string
	engine.GET("/imports", func(c *gin.Context) {
		seen = RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/imports", nil))

	assert.Equal(t, "req-99", seen)
}

func TestGinMiddleware_LogLevelByStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   string
	}{
		{name: "client error logs warn", status: http.StatusUnprocessableEntity, want: "warn"},
		{name: "server error logs error", status: http.StatusInternalServerError, want: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, logs := newObservedLogger()
			engine := newGinEngine(log)
			engine.POST("/imports", func(c *gin.Context) {
				c.Status(tt.status)
			})

			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/imports", nil))

			entries := logs.All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.want, entries[0].Level.String())
		})
	}
}

func TestRecovery(t *testing.T) {
	log, logs := newObservedLogger()

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(Recovery(log))
	engine.GET("/boom", func(c *gin.Context) {
		panic("barcode cache corrupted")
	})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "panic recovered", entries[0].Message)
	assert.Equal(t, "barcode cache corrupted", entries[0].ContextMap()["panic"])
}

func TestFromGin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	// Without the middleware a no-op logger comes back.
	require.NotNil(t, FromGin(c))

	log, _ := newObservedLogger()
	c.Set("logger", log)
	assert.Same(t, log, FromGin(c))
}
