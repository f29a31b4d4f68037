package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	return sr
}

func tracedRouter(t *testing.T, extra ...gin.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(TracingWithConfig(TracingConfig{ServiceName: "salesimport", Enabled: true}))
	for _, mw := range extra {
		router.Use(mw)
	}
	return router
}

func spanAttrValue(span sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracingDisabledIsPassThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sr := setupTestTracer(t)

	router := gin.New()
	router.Use(TracingWithConfig(TracingConfig{ServiceName: "salesimport", Enabled: false}))
	router.GET("/imports", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/imports", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, sr.Ended())
}

func TestTracingCreatesServerSpan(t *testing.T) {
	sr := setupTestTracer(t)

	router := tracedRouter(t)
	router.GET("/imports/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/imports/imp-1", nil)
	router.ServeHTTP(w, req)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Contains(t, spans[0].Name(), "/imports/:id")
}

func TestTracingRecordsRequestID(t *testing.T) {
	sr := setupTestTracer(t)

	router := tracedRouter(t)
	router.Use(func(c *gin.Context) {
		c.Set("request_id", "req-42")
		c.Next()
	})
	router.GET("/imports", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/imports", nil)
	router.ServeHTTP(w, req)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	v, found := spanAttrValue(spans[0], "request_id")
	require.True(t, found)
	assert.Equal(t, "req-42", v.AsString())
}

func TestTracingCapsHeaderRequestID(t *testing.T) {
	sr := setupTestTracer(t)

	router := tracedRouter(t)
	router.GET("/imports", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/imports", nil)
	req.Header.Set(RequestIDKey, strings.Repeat("x", 500))
	router.ServeHTTP(w, req)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	v, found := spanAttrValue(spans[0], "request_id")
	require.True(t, found)
	assert.Len(t, v.AsString(), maxRequestIDLength)
}

func TestTracingAttributeInjectorAddsUserID(t *testing.T) {
	sr := setupTestTracer(t)

	router := tracedRouter(t)
	router.Use(func(c *gin.Context) {
		c.Set(JWTUserIDKey, "user-7")
		c.Next()
	})
	router.Use(TracingAttributeInjector())
	router.GET("/imports", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/imports", nil)
	router.ServeHTTP(w, req)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	v, found := spanAttrValue(spans[0], "user_id")
	require.True(t, found)
	assert.Equal(t, "user-7", v.AsString())
}

func TestSpanErrorMarker(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		wantCode    codes.Code
		wantMessage string
	}{
		{"success stays unset", http.StatusOK, codes.Unset, ""},
		{"bad request", http.StatusBadRequest, codes.Error, "Client Error"},
		{"unauthorized", http.StatusUnauthorized, codes.Error, "Unauthorized"},
		{"forbidden", http.StatusForbidden, codes.Error, "Forbidden"},
		{"not found", http.StatusNotFound, codes.Error, "Not Found"},
		{"server error", http.StatusInternalServerError, codes.Error, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sr := setupTestTracer(t)

			router := tracedRouter(t, SpanErrorMarker())
			router.GET("/imports", func(c *gin.Context) { c.Status(tt.status) })

			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/imports", nil)
			router.ServeHTTP(w, req)

			spans := sr.Ended()
			require.Len(t, spans, 1)
			assert.Equal(t, tt.wantCode, spans[0].Status().Code)
			assert.Equal(t, tt.wantMessage, spans[0].Status().Description)
		})
	}
}

func TestSpanErrorMarkerWithoutSpan(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(SpanErrorMarker())
	router.GET("/imports", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/imports", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTeapot, w.Code)
}
