package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mailkeeper/mailkeeper/internal/config"
	"github.com/mailkeeper/mailkeeper/internal/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestLoginPlaintextConfig(t *testing.T) {
	svc, err := NewService(&config.AppConfig{Admin: config.AdminConfig{Password: "hunter2"}}, nil)
	require.NoError(t, err)

	token, err := svc.Login("hunter2")
	require.NoError(t, err)

	claims, err := jwt.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)

	_, err = svc.Login("wrong")
	require.Error(t, err)
}

func TestLoginBcryptConfig(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	svc, err := NewService(&config.AppConfig{Admin: config.AdminConfig{Password: string(hash)}}, nil)
	require.NoError(t, err)

	_, err = svc.Login("hunter2")
	require.NoError(t, err)
	_, err = svc.Login("wrong")
	require.Error(t, err)
}

func TestLoginDisabledWithoutPassword(t *testing.T) {
	svc, err := NewService(&config.AppConfig{}, nil)
	require.NoError(t, err)

	_, err = svc.Login("")
	require.Error(t, err)
	_, err = svc.Login("anything")
	require.Error(t, err)
}

func TestLoginHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, err := NewService(&config.AppConfig{Admin: config.AdminConfig{Password: "hunter2"}}, nil)
	require.NoError(t, err)

	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group("/api/v2"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v2/auth/login", strings.NewReader(`{"password":"hunter2"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "token")

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v2/auth/login", strings.NewReader(`{"password":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v2/auth/login", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
