package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/anonto42/memomap/backend/internal/models"
	"github.com/anonto42/memomap/backend/internal/services"
)

// UserHandler handles HTTP requests related to users
type UserHandler struct {
	users   *services.UserService
	avatars *services.AvatarService
	follows *services.FollowService
	logger  *logrus.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users *services.UserService, avatars *services.AvatarService, follows *services.FollowService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{users: users, avatars: avatars, follows: follows, logger: logger}
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
	g.PUT("/profile", h.UpdateProfile)
	g.PUT("/profile/avatar", h.UploadAvatar)
	g.DELETE("/profile/avatar", h.DeleteAvatar)
	g.GET("/users/search", h.SearchUsers)
	g.GET("/users/:id", h.GetUser)
	g.GET("/users/:id/avatar", h.GetAvatar)
}

// profile is a user with follow counts attached.
type profile struct {
	*models.User
	Followers int64 `json:"followers"`
	Following int64 `json:"following"`
}

func (h *UserHandler) withCounts(c echo.Context, user *models.User) (profile, error) {
	counts, err := h.follows.Counts(c.Request().Context(), user.ID)
	if err != nil {
		return profile{}, err
	}
	return profile{User: user, Followers: counts.Followers, Following: counts.Following}, nil
}

// GetProfile retrieves the authenticated user's profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	user, err := h.users.Get(c.Request().Context(), userID)
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	p, err := h.withCounts(c, user)
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	return ok(c, http.StatusOK, p)
}

// UpdateProfile updates name and UI preferences
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req models.UpdateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.users.UpdateProfile(c.Request().Context(), userID, req)
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	return ok(c, http.StatusOK, user)
}

// GetUser returns another user's public profile, follower counts and
// whether the caller follows them
func (h *UserHandler) GetUser(c echo.Context) error {
	me, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}
	user, err := h.users.Get(c.Request().Context(), id)
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	counts, err := h.follows.Counts(c.Request().Context(), id)
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	following, err := h.follows.IsFollowing(c.Request().Context(), me, id)
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	return ok(c, http.StatusOK, echo.Map{
		"user":         user.ToCompact(),
		"followers":    counts.Followers,
		"following":    counts.Following,
		"is_following": following,
	})
}

// SearchUsers searches for users by name or email
func (h *UserHandler) SearchUsers(c echo.Context) error {
	if _, err := currentUser(c); err != nil {
		return err
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	users, err := h.users.Search(c.Request().Context(), c.QueryParam("q"), limit)
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	return ok(c, http.StatusOK, users)
}

// UploadAvatar reads the multipart "avatar" field and stores it
func (h *UserHandler) UploadAvatar(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	fh, err := c.FormFile("avatar")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing avatar file")
	}
	if fh.Size > h.avatars.MaxBytes() {
		return serviceError(h.logger, c, services.ErrAvatarTooLarge)
	}
	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Unreadable avatar file")
	}
	defer f.Close()

	// one extra byte so an oversized body still trips the size check
	data, err := io.ReadAll(io.LimitReader(f, h.avatars.MaxBytes()+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Unreadable avatar file")
	}

	user, err := h.avatars.Upload(c.Request().Context(), userID, data)
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	return ok(c, http.StatusOK, user)
}

// GetAvatar streams a user's avatar image
func (h *UserHandler) GetAvatar(c echo.Context) error {
	id, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}
	data, contentType, err := h.avatars.Get(c.Request().Context(), id)
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	c.Response().Header().Set("Cache-Control", "private, max-age=300")
	return c.Blob(http.StatusOK, contentType, data)
}

func (h *UserHandler) DeleteAvatar(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.avatars.Delete(c.Request().Context(), userID); err != nil {
		return serviceError(h.logger, c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
