package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func init() { gin.SetMode(gin.TestMode) }

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return tok
}

func newAuthRouter(cfg AuthConfig, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append([]gin.HandlerFunc{JWTAuth(cfg)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id"), "role": c.GetString("role")})
	})
	r.GET("/x", handlers...)
	return r
}

func do(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	r := newAuthRouter(AuthConfig{Secret: testSecret, Issuer: "callassist"})

	w := do(r, signToken(t, jwt.MapClaims{"sub": "agent-1", "iss": "callassist", "exp": exp}))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"agent-1","role":"agent"}`, w.Body.String())

	w = do(r, signToken(t, jwt.MapClaims{"sub": "agent-1", "iss": "callassist", "exp": exp, "app_metadata": map[string]any{"role": "admin"}}))
	assert.JSONEq(t, `{"user_id":"agent-1","role":"admin"}`, w.Body.String())

	tests := []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"garbage", "not-a-jwt"},
		{"wrong issuer", signToken(t, jwt.MapClaims{"sub": "a", "iss": "other", "exp": exp})},
		{"expired", signToken(t, jwt.MapClaims{"sub": "a", "iss": "callassist", "exp": time.Now().Add(-time.Hour).Unix()})},
		{"no subject", signToken(t, jwt.MapClaims{"iss": "callassist", "exp": exp})},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, http.StatusUnauthorized, do(r, tc.token).Code)
		})
	}
}

func TestJWTAuth_NoSecret(t *testing.T) {
	w := do(newAuthRouter(AuthConfig{}), "x")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	r := newAuthRouter(AuthConfig{Secret: testSecret}, RequireAdmin())

	assert.Equal(t, http.StatusForbidden, do(r, signToken(t, jwt.MapClaims{"sub": "a", "exp": exp})).Code)
	assert.Equal(t, http.StatusOK, do(r, signToken(t, jwt.MapClaims{"sub": "a", "exp": exp, "role": "admin"})).Code)
}

func TestRequestLogger(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	r := gin.New()
	r.Use(RequestLogger(log))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/calls/:call_id", func(c *gin.Context) {
		c.Set("user_id", "agent-1")
		c.Status(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/calls/c-1", nil)
	req.Header.Set("X-Request-Id", "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-1", w.Header().Get("X-Request-Id"))
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "c-1", entry.Data["call_id"])
	assert.Equal(t, "agent-1", entry.Data["agent_id"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
	assert.Equal(t, logrus.DebugLevel, hook.LastEntry().Level)
}
