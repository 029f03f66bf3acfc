package middleware

import (
	"net/http"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/pulseboard/pulse/internal/models"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "session"

// ContextUserKey is where the middleware stores the session claims.
const ContextUserKey = "user"

// SessionAuthMiddleware parses the session cookie when present and stores the
// user claims on the context. The secret must be the one the auth handler
// signs with. Requests without a valid session pass through anonymously; page
// handlers decide whether login is required.
func SessionAuthMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				return next(c)
			}

			claims := &models.JwtCustomClaims{}
			token, err := jwt.ParseWithClaims(cookie.Value, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.NewHTTPError(http.StatusUnauthorized, "Unexpected signing method")
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				// Broken or expired cookie, treat the request as anonymous.
				return next(c)
			}

			c.Set(ContextUserKey, claims)
			return next(c)
		}
	}
}

// RequireAuthMiddleware redirects anonymous requests to the login page.
// It must run after SessionAuthMiddleware.
func RequireAuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := c.Get(ContextUserKey).(*models.JwtCustomClaims); !ok {
				return c.Redirect(http.StatusFound, "/auth/login")
			}
			return next(c)
		}
	}
}

// ActorID returns the authenticated user's id, or zero for anonymous requests.
func ActorID(c echo.Context) uint {
	if claims, ok := c.Get(ContextUserKey).(*models.JwtCustomClaims); ok {
		return claims.UserID
	}
	return 0
}

// ActorUsername returns the authenticated username, or "" for anonymous requests.
func ActorUsername(c echo.Context) string {
	if claims, ok := c.Get(ContextUserKey).(*models.JwtCustomClaims); ok {
		return claims.Username
	}
	return ""
}
