package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/anonto42/memomap/backend/internal/services"
)

// FollowHandler handles follow/unfollow HTTP requests
type FollowHandler struct {
	follows *services.FollowService
	logger  *logrus.Logger
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(follows *services.FollowService, logger *logrus.Logger) *FollowHandler {
	return &FollowHandler{follows: follows, logger: logger}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.FollowUser)
	g.DELETE("/users/:id/follow", h.UnfollowUser)
	g.GET("/users/:id/followers", h.GetFollowers)
	g.GET("/users/:id/following", h.GetFollowing)
	g.GET("/follows/requests", h.GetPending)
	g.PUT("/follows/:id/accept", h.Accept)
	g.PUT("/follows/:id/reject", h.Reject)
}

// FollowUser asks to follow :id
func (h *FollowHandler) FollowUser(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	targetID, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}
	follow, err := h.follows.Follow(c.Request().Context(), userID, targetID)
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	return ok(c, http.StatusCreated, follow)
}

// UnfollowUser stops following :id or withdraws a pending request
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	targetID, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}
	if err := h.follows.Unfollow(c.Request().Context(), userID, targetID); err != nil {
		return serviceError(h.logger, c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Accept approves the pending follow request from :id
func (h *FollowHandler) Accept(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	followerID, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}
	follow, err := h.follows.Accept(c.Request().Context(), userID, followerID)
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	return ok(c, http.StatusOK, follow)
}

// Reject declines the pending follow request from :id
func (h *FollowHandler) Reject(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	followerID, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}
	follow, err := h.follows.Reject(c.Request().Context(), userID, followerID)
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	return ok(c, http.StatusOK, follow)
}

func (h *FollowHandler) GetPending(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	pending, err := h.follows.ListPending(c.Request().Context(), userID)
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	return ok(c, http.StatusOK, pending)
}

func (h *FollowHandler) GetFollowers(c echo.Context) error {
	if _, err := currentUser(c); err != nil {
		return err
	}
	id, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}
	users, err := h.follows.ListFollowers(c.Request().Context(), id)
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	return ok(c, http.StatusOK, users)
}

func (h *FollowHandler) GetFollowing(c echo.Context) error {
	if _, err := currentUser(c); err != nil {
		return err
	}
	id, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}
	users, err := h.follows.ListFollowing(c.Request().Context(), id)
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	return ok(c, http.StatusOK, users)
}
