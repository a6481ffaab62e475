package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/thingspace/thingspace-notes/pkg/app"
	"github.com/thingspace/thingspace-notes/pkg/limiter"
	"github.com/thingspace/thingspace-notes/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	uni, err := validator.NewTranslator(validator.NewCustomValidator())
	if err != nil {
		panic(err)
	}
	r := gin.New()
	r.Use(TraceMiddleware(""))
	r.Use(LangWithTranslator(uni))
	r.Use(mw...)
	r.GET("/whoami", func(c *gin.Context) {
		app.NewResponse(c).Ctx.JSON(http.StatusOK, gin.H{"uid": app.GetUserID(c)})
	})
	r.GET("/panic", func(c *gin.Context) { panic("kaboom") })
	r.NoRoute(NoFound(zap.NewNop()))
	return r
}

func do(r http.Handler, method, path string, header map[string]string) (*httptest.ResponseRecorder, map[string]interface{}) {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestUserAuthToken(t *testing.T) {
	tm := app.NewTokenManager(app.TokenConfig{SecretKey: "s3cret", Expiry: time.Hour})
	token, err := tm.Generate("alice", "Alice", "127.0.0.1")
	require.NoError(t, err)
	r := newEngine(UserAuthTokenWithConfig("s3cret"))

	w, body := do(r, http.MethodGet, "/whoami", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, body["error"])

	w, _ = do(r, http.MethodGet, "/whoami", map[string]string{"Authorization": "Bearer nonsense"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, body = do(r, http.MethodGet, "/whoami", map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", body["uid"])

	w, body = do(r, http.MethodGet, "/whoami?token="+token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", body["uid"])
}

func TestSimpleAuthToken(t *testing.T) {
	r := newEngine(SimpleAuthTokenWithConfig("ops"))

	w, _ := do(r, http.MethodGet, "/whoami", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = do(r, http.MethodGet, "/whoami", map[string]string{"Authorization": "ops"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNoFoundAndLang(t *testing.T) {
	r := newEngine()

	w, body := do(r, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "API not found", body["error"])
	assert.NotEmpty(t, body["traceId"])
	assert.Equal(t, body["traceId"], w.Header().Get(DefaultTraceIDHeader))

	_, body = do(r, http.MethodGet, "/nope", map[string]string{"Accept-Language": "zh-CN,zh;q=0.9"})
	assert.Equal(t, "接口不存在", body["error"])
}

func TestTraceIDFromHeader(t *testing.T) {
	r := newEngine()
	w, body := do(r, http.MethodGet, "/nope", map[string]string{DefaultTraceIDHeader: "abc-123"})
	assert.Equal(t, "abc-123", w.Header().Get(DefaultTraceIDHeader))
	assert.Equal(t, "abc-123", body["traceId"])
}

func TestRecovery(t *testing.T) {
	r := newEngine(RecoveryWithLogger(zap.NewNop()))
	w, body := do(r, http.MethodGet, "/panic", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", body["error"])
	assert.NotContains(t, w.Body.String(), "kaboom")
}

func TestRateLimiter(t *testing.T) {
	l := limiter.NewMethodLimiter().AddBuckets(limiter.BucketRule{
		Key: "GET /whoami", FillInterval: time.Hour, Capacity: 2, Quantum: 1,
	})
	r := newEngine(RateLimiter(l))

	for i := 0; i < 2; i++ {
		w, _ := do(r, http.MethodGet, "/whoami", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	}
	w, _ := do(r, http.MethodGet, "/whoami", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	// routes without a bucket are never limited
	w, _ = do(r, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestContextTimeoutAndAppInfo(t *testing.T) {
	var deadline bool
	r := gin.New()
	r.Use(AppInfo("notes", "1.2.3"), ContextTimeout(time.Second))
	r.GET("/deadline", func(c *gin.Context) {
		_, deadline = c.Request.Context().Deadline()
		c.Status(http.StatusNoContent)
	})

	w, _ := do(r, http.MethodGet, "/deadline", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, deadline)
	assert.Equal(t, "1.2.3", w.Header().Get(AppVersionHeader))

	r = gin.New()
	r.Use(ContextTimeout(0))
	r.GET("/deadline", func(c *gin.Context) {
		_, deadline = c.Request.Context().Deadline()
		c.Status(http.StatusNoContent)
	})
	do(r, http.MethodGet, "/deadline", nil)
	assert.False(t, deadline)
}

func TestCorsPreflight(t *testing.T) {
	r := newEngine(Cors(CorsConfig{AllowedOrigins: []string{"https://app.example.com"}, MaxAge: 60}))
	w, _ := do(r, http.MethodOptions, "/whoami", map[string]string{
		"Origin":                        "https://app.example.com",
		"Access-Control-Request-Method": "GET",
	})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}
