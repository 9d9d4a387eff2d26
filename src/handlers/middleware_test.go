package handlers

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/cardfolio/backend/src/config"
	"github.com/username/cardfolio/backend/src/logger"
	"github.com/username/cardfolio/backend/src/security"
)

const testJWTSecret = "test-secret-key-that-is-at-least-32-bytes!"

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	config.Cfg = &config.AppConfig{
		JWTSecret:          testJWTSecret,
		AccessTokenExpiry:  time.Hour,
		MaxUploadSizeBytes: 10 * 1024 * 1024,
	}
	os.Exit(m.Run())
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	authService := security.NewAuthService(testJWTSecret)
	token, err := authService.GenerateToken("42")
	require.NoError(t, err)

	var gotUserID int64
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetUserIDFromContext(r.Context())
		require.True(t, ok)
		gotUserID = userID
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/imports", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	NewAuthHandler(authService).AuthMiddleware(next).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(42), gotUserID)
}

func TestAuthMiddlewareRejections(t *testing.T) {
	authService := security.NewAuthService(testJWTSecret)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	})
	handler := NewAuthHandler(authService).AuthMiddleware(next)

	cases := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"empty bearer", "Bearer ", http.StatusUnauthorized},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/imports", nil)
			if c.authHeader != "" {
				req.Header.Set("Authorization", c.authHeader)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, c.wantStatus, rec.Code)
		})
	}
}

func TestAuthMiddlewareRejectsForeignSecret(t *testing.T) {
	other := security.NewAuthService("another-secret-key-that-is-32-bytes!!!!")
	token, err := other.GenerateToken("42")
	require.NoError(t, err)

	handler := NewAuthHandler(security.NewAuthService(testJWTSecret)).AuthMiddleware(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("next handler must not run")
		}))

	req := httptest.NewRequest(http.MethodGet, "/api/imports", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
