package app

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agency-scheduler/internal/config"
)

func authedRouter(cfg config.AuthConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(AuthMiddleware(cfg))
	router.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	return router
}

func get(router *gin.Engine, authHeader string) int {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Code
}

func TestAuthStaticTokens(t *testing.T) {
	router := authedRouter(config.AuthConfig{StaticTokens: []string{"sekret", " padded "}})

	assert.Equal(t, http.StatusUnauthorized, get(router, ""))
	assert.Equal(t, http.StatusUnauthorized, get(router, "sekret"))
	assert.Equal(t, http.StatusUnauthorized, get(router, "Bearer wrong"))
	assert.Equal(t, http.StatusOK, get(router, "Bearer sekret"))
	assert.Equal(t, http.StatusOK, get(router, "Bearer padded"))
	assert.Equal(t, http.StatusOK, get(router, "bearer sekret"), "scheme is case-insensitive")
}

func TestAuthJWT(t *testing.T) {
	const secret = "hmac-secret"
	router := authedRouter(config.AuthConfig{JWTSecret: secret})

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "scheduler",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, get(router, "Bearer "+signed))

	forged, err := token.SignedString([]byte("other-secret"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(router, "Bearer "+forged))

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	signedExpired, err := expired.SignedString([]byte(secret))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(router, "Bearer "+signedExpired))
}
