package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	auth "github.com/phillip/community-platform-go/auth"
	models "github.com/phillip/community-platform-go/models"
	store "github.com/phillip/community-platform-go/store"
	"github.com/phillip/community-platform-go/store/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	stores *store.Stores
	tokens *auth.TokenManager
	user   *models.User
	token  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	stores := memory.New()
	tokens := auth.NewTokenManager("test-secret", time.Hour)

	u := &models.User{Username: "amara", Email: "amara@example.com", PasswordHash: "hash", DateJoined: time.Now()}
	require.NoError(t, stores.Users.Create(context.Background(), u))
	tok, err := tokens.Issue(u.ID)
	require.NoError(t, err)

	return &fixture{stores: stores, tokens: tokens, user: u, token: tok}
}

func whoami(c *gin.Context) {
	u, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"anonymous": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": u.Username, "hash": u.PasswordHash, "user_id": c.GetString("user_id")})
}

func serve(r *gin.Engine, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMandatory(t *testing.T) {
	f := newFixture(t)
	r := gin.New()
	r.GET("/", Auth(f.tokens, f.stores.Users), whoami)

	expired := auth.NewTokenManager("test-secret", -time.Minute)
	expiredTok, err := expired.Issue(f.user.ID)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"bearer", "Bearer " + f.token, http.StatusOK, `"username":"amara"`},
		{"bare token", f.token, http.StatusOK, `"username":"amara"`},
		{"missing", "", http.StatusUnauthorized, "No token provided, authorization denied"},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized, "Invalid token, authorization denied"},
		{"expired", "Bearer " + expiredTok, http.StatusUnauthorized, "Token expired, please login again"},
		{"wrong scheme", "Basic abc def", http.StatusUnauthorized, "No token provided, authorization denied"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, tt.header)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestAuthUserGone(t *testing.T) {
	f := newFixture(t)
	tok, err := f.tokens.Issue(primitive.NewObjectID())
	require.NoError(t, err)

	r := gin.New()
	r.GET("/", Auth(f.tokens, f.stores.Users), whoami)

	w := serve(r, "Bearer "+tok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "User not found, authorization denied")
}

func TestAuthStripsPasswordHash(t *testing.T) {
	f := newFixture(t)
	r := gin.New()
	r.GET("/", Auth(f.tokens, f.stores.Users), whoami)

	w := serve(r, "Bearer "+f.token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"hash":""`)
	assert.Contains(t, w.Body.String(), f.user.ID.Hex())
}

func TestOptionalAuthFallsBackToAnonymous(t *testing.T) {
	f := newFixture(t)
	r := gin.New()
	r.GET("/", OptionalAuth(f.tokens, f.stores.Users), whoami)

	assert.Contains(t, serve(r, "").Body.String(), `"anonymous":true`)
	assert.Contains(t, serve(r, "Bearer junk").Body.String(), `"anonymous":true`)

	w := serve(r, "Bearer "+f.token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"amara"`)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(time.Hour, 2, "Too many requests", zap.NewNop())
	r := gin.New()
	r.GET("/", rl.Handler(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusNoContent, serve(r, "").Code)
	assert.Equal(t, http.StatusNoContent, serve(r, "").Code)

	w := serve(r, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "Too many requests")

	rl.Cleanup(0)
	assert.Equal(t, http.StatusNoContent, serve(r, "").Code)
}

func TestRequestLoggerEchoesID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(zap.NewNop()))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, RequestID(c)) })

	w := serve(r, "")
	generated := w.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(zap.NewNop()))
	r.GET("/", func(c *gin.Context) { panic("boom") })

	w := serve(r, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Something went wrong!")
}

func TestMetricsExposition(t *testing.T) {
	m := NewMetrics()
	r := gin.New()
	r.Use(m.Handler())
	r.GET("/api/posts/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", m.Exposition())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/posts/1", nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `community_http_requests_total{method="GET",route="/api/posts/:id",status="200"} 1`)
}

func TestSecurityHeadersAndBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders(), BodyLimit(8))
	r.POST("/", func(c *gin.Context) {
		var body map[string]interface{}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"far too long"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "cross-origin", w.Header().Get("Cross-Origin-Resource-Policy"))
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:3000"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	assert.Equal(t, http.StatusOK, serve(r, "").Code)
}
