package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/pulseboard/pulse/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signSession(t *testing.T, secret string, userID uint, username string) *http.Cookie {
	t.Helper()
	claims := &models.JwtCustomClaims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return &http.Cookie{Name: SessionCookieName, Value: signed}
}

func newSessionApp(secret string) *echo.Echo {
	e := echo.New()
	e.Use(SessionAuthMiddleware(secret))
	e.GET("/whoami", func(c echo.Context) error {
		return c.String(http.StatusOK, strconv.FormatUint(uint64(ActorID(c)), 10))
	})
	e.GET("/private", func(c echo.Context) error {
		return c.String(http.StatusOK, "in")
	}, RequireAuthMiddleware())
	return e
}

func TestSessionAuthUsesConfiguredSecret(t *testing.T) {
	// The verifying secret comes from configuration, the same value the auth
	// handler signs with, not from a process-global default.
	e := newSessionApp("configured-secret")

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(signSession(t, "configured-secret", 7, "ivan"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "7", rec.Body.String())
}

func TestSessionAuthRejectsForeignSignature(t *testing.T) {
	e := newSessionApp("configured-secret")

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(signSession(t, "some-other-secret", 7, "ivan"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Body.String(), "a badly signed cookie means anonymous")
}

func TestRequireAuthRedirectsAnonymous(t *testing.T) {
	e := newSessionApp("configured-secret")

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get(echo.HeaderLocation))

	req = httptest.NewRequest(http.MethodGet, "/private", nil)
	req.AddCookie(signSession(t, "configured-secret", 7, "ivan"))
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
