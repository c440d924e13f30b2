package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/anonto42/memomap/backend/internal/services"
)

// FriendshipHandler drives the friend request state machine over HTTP.
// In every route :id is the other user.
type FriendshipHandler struct {
	friends *services.FriendService
	logger  *logrus.Logger
}

func NewFriendshipHandler(friends *services.FriendService, logger *logrus.Logger) *FriendshipHandler {
	return &FriendshipHandler{friends: friends, logger: logger}
}

func (h *FriendshipHandler) RegisterFriendshipRoutes(g *echo.Group) {
	g.GET("/friends", h.ListFriends)
	g.GET("/friends/requests/incoming", h.ListIncoming)
	g.GET("/friends/requests/outgoing", h.ListOutgoing)
	g.POST("/friends/:id", h.SendRequest)
	g.PUT("/friends/:id/accept", h.AcceptRequest)
	g.PUT("/friends/:id/reject", h.RejectRequest)
	g.DELETE("/friends/:id", h.RemoveFriend)
}

// SendRequest sends a request to :id, or accepts theirs if one is pending
func (h *FriendshipHandler) SendRequest(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	otherID, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}
	edge, outcome, err := h.friends.SendRequest(c.Request().Context(), userID, otherID)
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	status := http.StatusOK
	if outcome == services.FriendRequested {
		status = http.StatusCreated
	}
	return ok(c, status, echo.Map{"friend": edge, "outcome": outcome})
}

// AcceptRequest accepts the pending request :id sent to the caller
func (h *FriendshipHandler) AcceptRequest(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	fromID, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}
	edge, err := h.friends.AcceptRequest(c.Request().Context(), fromID, userID)
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	return ok(c, http.StatusOK, edge)
}

// RejectRequest rejects the pending request :id sent to the caller
func (h *FriendshipHandler) RejectRequest(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	fromID, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}
	edge, err := h.friends.RejectRequest(c.Request().Context(), fromID, userID)
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	return ok(c, http.StatusOK, edge)
}

// RemoveFriend unfriends :id or withdraws a request in either direction
func (h *FriendshipHandler) RemoveFriend(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	otherID, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}
	if err := h.friends.Remove(c.Request().Context(), userID, otherID); err != nil {
		return serviceError(h.logger, c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *FriendshipHandler) ListFriends(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	friends, err := h.friends.ListFriends(c.Request().Context(), userID)
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	return ok(c, http.StatusOK, friends)
}

func (h *FriendshipHandler) ListIncoming(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	reqs, err := h.friends.ListIncoming(c.Request().Context(), userID)
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	return ok(c, http.StatusOK, reqs)
}

func (h *FriendshipHandler) ListOutgoing(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	reqs, err := h.friends.ListOutgoing(c.Request().Context(), userID)
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	return ok(c, http.StatusOK, reqs)
}
