package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/anonto42/memomap/backend/internal/models"
	"github.com/anonto42/memomap/backend/internal/services"
)

// CommentHandler handles comment-related HTTP requests
type CommentHandler struct {
	comments *services.CommentService
	logger   *logrus.Logger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(comments *services.CommentService, logger *logrus.Logger) *CommentHandler {
	return &CommentHandler{comments: comments, logger: logger}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/memos/:id/comments", h.CreateComment)
	g.GET("/memos/:id/comments", h.GetComments)
	g.DELETE("/comments/:id", h.DeleteComment)
}

// CreateComment creates a comment on a memo
func (h *CommentHandler) CreateComment(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	memoID, err := parseID(c, "id", "memo")
	if err != nil {
		return err
	}
	var req models.CreateCommentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	comment, err := h.comments.Create(c.Request().Context(), memoID, userID, req.Content)
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	return ok(c, http.StatusCreated, comment)
}

// GetComments lists a memo's comments, oldest first
func (h *CommentHandler) GetComments(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	memoID, err := parseID(c, "id", "memo")
	if err != nil {
		return err
	}
	comments, err := h.comments.List(c.Request().Context(), memoID, userID)
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	return ok(c, http.StatusOK, comments)
}

// DeleteComment deletes a comment written by the caller
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	commentID, err := parseID(c, "id", "comment")
	if err != nil {
		return err
	}
	if err := h.comments.Delete(c.Request().Context(), commentID, userID); err != nil {
		return serviceError(h.logger, c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
