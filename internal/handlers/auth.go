package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/anonto42/memomap/backend/internal/middleware"
	"github.com/anonto42/memomap/backend/internal/models"
	"github.com/anonto42/memomap/backend/internal/services"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	users     *services.UserService
	firebase  *middleware.FirebaseAuthenticator
	jwtSecret string
	logger    *logrus.Logger
}

// NewAuthHandler creates a new AuthHandler. firebase may be nil when Firebase
// is not configured; firebase-login then answers 503.
func NewAuthHandler(users *services.UserService, firebase *middleware.FirebaseAuthenticator, jwtSecret string, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{users: users, firebase: firebase, jwtSecret: jwtSecret, logger: logger}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/signup", h.Signup)
	g.POST("/signin", h.SignIn)
	g.POST("/firebase-login", h.FirebaseLogin)
}

func (h *AuthHandler) respondWithToken(c echo.Context, status int, user *models.User) error {
	token, err := middleware.GenerateToken(h.jwtSecret, user)
	if err != nil {
		h.logger.WithError(err).Error("failed to sign token")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}
	return c.JSON(status, echo.Map{"token": token, "user": user})
}

// Signup handles local user registration with email and password
func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.CreateLocalUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.users.Signup(c.Request().Context(), req)
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	return h.respondWithToken(c, http.StatusCreated, user)
}

// SignIn handles local user authentication with email and password
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req models.SignInRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.users.SignIn(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	return h.respondWithToken(c, http.StatusOK, user)
}

// FirebaseLoginRequest defines the request body for Firebase login
type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// FirebaseLogin exchanges a Firebase ID token for a local JWT
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	if h.firebase == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Firebase login is not configured")
	}
	var req FirebaseLoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	uid, email, name, err := h.firebase.Identity(ctx, req.IDToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Firebase ID token")
	}
	user, err := h.users.LoginFirebase(ctx, uid, email, name)
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	return h.respondWithToken(c, http.StatusOK, user)
}
