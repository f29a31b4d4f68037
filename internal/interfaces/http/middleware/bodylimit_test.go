package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erp/salesimport/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBodyLimitEngine(maxBytes int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(BodyLimit(maxBytes))
	engine.POST("/imports", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})
	return engine
}

func TestBodyLimit_DeclaredLengthTooLarge(t *testing.T) {
	engine := newBodyLimitEngine(16)

	body := strings.Repeat("x", 64)
	req := httptest.NewRequest(http.MethodPost, "/imports", strings.NewReader(body))
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeRequestTooLarge, resp.Error.Code)
}

func TestBodyLimit_StreamingBodyCapped(t *testing.T) {
	engine := newBodyLimitEngine(16)

	// No Content-Length header, so the limit has to apply while the
	// handler reads the body.
	req := httptest.NewRequest(http.MethodPost, "/imports", strings.NewReader(strings.Repeat("x", 64)))
	req.ContentLength = -1
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestBodyLimit_SmallBodyPasses(t *testing.T) {
	engine := newBodyLimitEngine(1024)

	req := httptest.NewRequest(http.MethodPost, "/imports", strings.NewReader(`{"ok":true}`))
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
