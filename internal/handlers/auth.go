package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/pulseboard/pulse/internal/apperrors"
	"github.com/pulseboard/pulse/internal/middleware"
	"github.com/pulseboard/pulse/internal/models"
	"github.com/pulseboard/pulse/internal/repositories"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler handles signup, login and logout.
type AuthHandler struct {
	userRepository repositories.UserRepository
	jwtSecret      string
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userRepo repositories.UserRepository, jwtSecret string) *AuthHandler {
	return &AuthHandler{
		userRepository: userRepo,
		jwtSecret:      jwtSecret,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.GET("/signup", h.SignupPage)
	g.POST("/signup", h.Signup)
	g.GET("/login", h.LoginPage)
	g.POST("/login", h.Login)
	g.POST("/logout", h.Logout)
}

type authPageData struct {
	CurrentUser string
	Error       string
}

// SignupPage renders the signup form.
func (h *AuthHandler) SignupPage(c echo.Context) error {
	return c.Render(http.StatusOK, "signup.html", authPageData{CurrentUser: middleware.ActorUsername(c)})
}

// Signup registers a new user and opens a session for them.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.SignupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return c.Render(http.StatusOK, "signup.html", authPageData{Error: "username and a password of at least 8 characters are required"})
	}

	// Check if user with this username already exists
	if _, err := h.userRepository.GetUserByUsername(req.Username); err == nil {
		return c.Render(http.StatusOK, "signup.html", authPageData{Error: "username already taken"})
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}

	user := &models.User{
		Username:     req.Username,
		PasswordHash: string(hashedPassword),
	}
	if err := h.userRepository.CreateUser(user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.setSessionCookie(c, user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token after signup")
	}
	return c.Redirect(http.StatusFound, "/")
}

// LoginPage renders the login form.
func (h *AuthHandler) LoginPage(c echo.Context) error {
	return c.Render(http.StatusOK, "login.html", authPageData{CurrentUser: middleware.ActorUsername(c)})
}

// Login verifies credentials and opens a session.
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return c.Render(http.StatusOK, "login.html", authPageData{Error: "username and password are required"})
	}

	user, err := h.userRepository.GetUserByUsername(req.Username)
	if err != nil {
		return c.Render(http.StatusOK, "login.html", authPageData{Error: "unknown username or wrong password"})
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return c.Render(http.StatusOK, "login.html", authPageData{Error: "unknown username or wrong password"})
	}

	if err := h.setSessionCookie(c, user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}
	return c.Redirect(http.StatusFound, "/")
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	return c.Redirect(http.StatusFound, "/")
}

// setSessionCookie signs a JWT for the user and stores it in the session cookie.
func (h *AuthHandler) setSessionCookie(c echo.Context, user *models.User) error {
	claims := &models.JwtCustomClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 72)), // Token expires in 72 hours
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(h.jwtSecret))
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    signed,
		Path:     "/",
		Expires:  time.Now().Add(time.Hour * 72),
		HttpOnly: true,
	})
	return nil
}
