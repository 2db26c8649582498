package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/food-delivery-backend/internal/config"
	"github.com/your-org/food-delivery-backend/internal/pkg/auth"
	"github.com/your-org/food-delivery-backend/internal/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(generated)
	require.NoError(t, err)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "upstream-123")
	w = serve(r, req)
	assert.Equal(t, "upstream-123", w.Header().Get(RequestIDHeader))
}

func TestCartSession(t *testing.T) {
	r := gin.New()
	r.Use(CartSession(time.Hour))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetSessionIDFromContext(c)) })

	// New session is issued as header and cookie
	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	issued := w.Body.String()
	_, err := uuid.Parse(issued)
	require.NoError(t, err)
	assert.Equal(t, issued, w.Header().Get(SessionIDHeader))
	assert.Contains(t, w.Header().Get("Set-Cookie"), "session_id="+issued)

	// Cookie is honoured
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: issued})
	assert.Equal(t, issued, serve(r, req).Body.String())

	// Header wins over cookie
	other := uuid.New().String()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: issued})
	req.Header.Set(SessionIDHeader, other)
	assert.Equal(t, other, serve(r, req).Body.String())

	// Garbage is replaced
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(SessionIDHeader, "../../etc/passwd")
	got := serve(r, req).Body.String()
	assert.NotEqual(t, "../../etc/passwd", got)
	_, err = uuid.Parse(got)
	assert.NoError(t, err)
}

func TestIsOriginAllowed(t *testing.T) {
	allowed := []string{"http://localhost:3000", "*.example.com"}

	assert.True(t, IsOriginAllowed("http://localhost:3000", allowed))
	assert.True(t, IsOriginAllowed("https://shop.example.com", allowed))
	assert.False(t, IsOriginAllowed("https://evilexample.com", allowed))
	assert.False(t, IsOriginAllowed("http://localhost:4000", allowed))
	assert.True(t, IsOriginAllowed("https://anything.test", []string{"*"}))
}

func TestRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	r := gin.New()
	r.Use(RateLimit(2, client, logger.Discard()))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	w = serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// Window expiry resets the count
	mr.FastForward(time.Minute + time.Second)
	w = serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit_RedisDownAllows(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	r := gin.New()
	r.Use(RateLimit(1, client, logger.Discard()))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
}

func TestRequestSizeLimit(t *testing.T) {
	r := gin.New()
	r.Use(RequestSizeLimit(16))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 64)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{}"))
	assert.Equal(t, http.StatusOK, serve(r, req).Code)
}

func TestTimeout(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(20 * time.Millisecond))
	r.GET("/slow", func(c *gin.Context) { <-c.Request.Context().Done() })
	r.GET("/fast", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusRequestTimeout, serve(r, httptest.NewRequest(http.MethodGet, "/slow", nil)).Code)
	assert.Equal(t, http.StatusNoContent, serve(r, httptest.NewRequest(http.MethodGet, "/fast", nil)).Code)
}

func TestAuthMiddleware(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{
		Secret:            strings.Repeat("s", 32),
		AccessTokenExpiry: time.Hour,
	}}
	jwtManager := auth.NewJWTManager(cfg)

	customer, err := jwtManager.GenerateAccessToken(7, "ana@example.com", false)
	require.NoError(t, err)
	admin, err := jwtManager.GenerateAccessToken(1, "ops@example.com", true)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", AuthMiddleware(jwtManager), func(c *gin.Context) {
		userID, ok := GetUserIDFromContext(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})
	r.GET("/admin", AuthMiddleware(jwtManager), AdminMiddleware(), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/ws", AuthMiddleware(jwtManager), func(c *gin.Context) { c.Status(http.StatusOK) })

	request := func(path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return serve(r, req)
	}

	assert.Equal(t, http.StatusUnauthorized, request("/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, request("/me", "not-a-token").Code)

	w := request("/me", customer)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":7}`, w.Body.String())

	assert.Equal(t, http.StatusForbidden, request("/admin", customer).Code)
	assert.Equal(t, http.StatusOK, request("/admin", admin).Code)

	// Websocket handshakes may carry the token in the query string
	req := httptest.NewRequest(http.MethodGet, "/ws?access_token="+customer, nil)
	req.Header.Set("Upgrade", "websocket")
	assert.Equal(t, http.StatusOK, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/me?access_token="+customer, nil)
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)
}

func TestOptionalAuthMiddleware(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{
		Secret:            strings.Repeat("s", 32),
		AccessTokenExpiry: time.Hour,
	}}
	jwtManager := auth.NewJWTManager(cfg)
	token, err := jwtManager.GenerateAccessToken(7, "ana@example.com", false)
	require.NoError(t, err)

	r := gin.New()
	r.Use(OptionalAuthMiddleware(jwtManager))
	r.GET("/", func(c *gin.Context) {
		_, ok := GetUserIDFromContext(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": ok})
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.JSONEq(t, `{"authenticated":false}`, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	assert.JSONEq(t, `{"authenticated":true}`, serve(r, req).Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	assert.JSONEq(t, `{"authenticated":false}`, serve(r, req).Body.String())
}

func TestSecurityHeaders(t *testing.T) {
	newRouter := func(production bool) *gin.Engine {
		r := gin.New()
		r.Use(SecurityHeaders(production))
		ok := func(c *gin.Context) { c.Status(http.StatusOK) }
		r.GET("/api/v1/orders/:id", ok)
		r.GET("/api/v1/orders/:id/receipt", ok)
		r.GET("/api/v1/orders/:id/ws", ok)
		return r
	}

	r := newRouter(false)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/orders/o-1", nil))
	assert.Equal(t, "default-src 'none'; frame-ancestors 'none'", w.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))

	w = serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/orders/o-1/receipt", nil))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "object-src 'self'")
	assert.Equal(t, "SAMEORIGIN", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "private, no-store", w.Header().Get("Cache-Control"))

	w = serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/orders/o-1/ws", nil))
	assert.Empty(t, w.Header().Get("Content-Security-Policy"))
	assert.Empty(t, w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = serve(newRouter(true), httptest.NewRequest(http.MethodGet, "/api/v1/orders/o-1", nil))
	assert.Equal(t, "max-age=31536000; includeSubDomains", w.Header().Get("Strict-Transport-Security"))
}
