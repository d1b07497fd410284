package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nmo-web-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(RequestIDKey))
	})

	t.Run("Generates an id", func(t *testing.T) {
		w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
		id := w.Header().Get(RequestIDHeader)
		assert.Len(t, id, 36)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("Keeps a well-formed client id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "client-req-0001")
		w := serve(r, req)
		assert.Equal(t, "client-req-0001", w.Header().Get(RequestIDHeader))
	})

	t.Run("Replaces a malformed client id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "<script>")
		w := serve(r, req)
		assert.NotEqual(t, "<script>", w.Header().Get(RequestIDHeader))
		assert.Len(t, w.Header().Get(RequestIDHeader), 36)
	})
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://nmo.example"}))
	r.POST("/requests", func(c *gin.Context) { c.Status(http.StatusCreated) })

	t.Run("Same-origin requests pass", func(t *testing.T) {
		w := serve(r, httptest.NewRequest(http.MethodPost, "/requests", nil))
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "Origin", w.Header().Get("Vary"))
	})

	t.Run("Allowed origin gets headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/requests", nil)
		req.Header.Set("Origin", "https://nmo.example")
		w := serve(r, req)
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "https://nmo.example", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("Unknown origin gets no headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/requests", nil)
		req.Header.Set("Origin", "https://other.example")
		w := serve(r, req)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), ErrorHandler())
	r.GET("/app", func(c *gin.Context) {
		c.Error(apperror.BadGateway("upstream failed", errors.New("dial tcp: refused")).WithDetails(map[string]string{"hint": "retry"}))
	})
	r.GET("/plain", func(c *gin.Context) {
		c.Error(errors.New("boom"))
	})
	r.GET("/written", func(c *gin.Context) {
		c.String(http.StatusTeapot, "already")
		c.Error(errors.New("ignored"))
	})

	t.Run("AppError keeps its status and hides the cause", func(t *testing.T) {
		w := serve(r, httptest.NewRequest(http.MethodGet, "/app", nil))
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.NotContains(t, w.Body.String(), "refused")

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "upstream failed", body["message"])
		assert.Equal(t, map[string]any{"hint": "retry"}, body["error"])
		assert.Equal(t, w.Header().Get(RequestIDHeader), body["request_id"])
	})

	t.Run("Unknown errors become 500", func(t *testing.T) {
		w := serve(r, httptest.NewRequest(http.MethodGet, "/plain", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "boom")
	})

	t.Run("Written responses are left alone", func(t *testing.T) {
		w := serve(r, httptest.NewRequest(http.MethodGet, "/written", nil))
		assert.Equal(t, http.StatusTeapot, w.Code)
		assert.Equal(t, "already", w.Body.String())
	})
}

func TestRateLimitInMemory(t *testing.T) {
	cfg := RateLimitConfig{
		Limit:     2,
		Window:    time.Minute,
		KeyPrefix: "test:rl:memory:",
		KeyFunc:   func(c *gin.Context) string { return c.GetHeader("X-Client") },
	}
	r := gin.New()
	r.Use(RateLimitMiddleware(cfg))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	request := func(client string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Client", client)
		return serve(r, req)
	}

	w := request("a")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, http.StatusOK, request("a").Code)

	w = request("a")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// Separate key, separate budget
	assert.Equal(t, http.StatusOK, request("b").Code)
}

func TestCheckRateLimitInMemoryResetsAfterWindow(t *testing.T) {
	cfg := RateLimitConfig{Limit: 1, Window: time.Second}
	now := time.Now()

	count, _ := checkRateLimitInMemory("test:rl:reset", cfg, now)
	assert.Equal(t, 1, count)
	count, _ = checkRateLimitInMemory("test:rl:reset", cfg, now.Add(500*time.Millisecond))
	assert.Equal(t, 2, count)
	count, resetAt := checkRateLimitInMemory("test:rl:reset", cfg, now.Add(2*time.Second))
	assert.Equal(t, 1, count)
	assert.Equal(t, now.Add(3*time.Second), resetAt)
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeadersMiddleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}
