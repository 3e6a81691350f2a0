package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

func generateToken(secret string, claims jwt.MapClaims) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(secret))
	return tokenString
}

func TestBearerMiddlewareDisabledWhenSecretEmpty(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(BearerMiddleware(""))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBearerMiddlewareValidToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	secret := "test-secret"

	router := gin.New()
	router.Use(BearerMiddleware(secret))
	router.GET("/test", func(c *gin.Context) {
		caller, _ := c.Get("callerID")
		c.JSON(http.StatusOK, gin.H{"callerID": caller})
	})

	token := generateToken(secret, jwt.MapClaims{
		"sub": "client-42",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "client-42")
}

func TestBearerMiddlewareRejectsMissingHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(BearerMiddleware("test-secret"))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBearerMiddlewareRejectsMalformedHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(BearerMiddleware("test-secret"))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "NotBearer abc")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBearerMiddlewareRejectsExpiredToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	secret := "test-secret"

	router := gin.New()
	router.Use(BearerMiddleware(secret))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	token := generateToken(secret, jwt.MapClaims{
		"sub": "client-42",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBearerMiddlewareRejectsWrongSignature(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(BearerMiddleware("test-secret"))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	token := generateToken("different-secret", jwt.MapClaims{
		"sub": "client-42",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
