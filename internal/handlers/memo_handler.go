package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/anonto42/memomap/backend/internal/models"
	"github.com/anonto42/memomap/backend/internal/services"
)

// MemoHandler handles personal and group memos
type MemoHandler struct {
	memos  *services.MemoService
	logger *logrus.Logger
}

func NewMemoHandler(memos *services.MemoService, logger *logrus.Logger) *MemoHandler {
	return &MemoHandler{memos: memos, logger: logger}
}

func (h *MemoHandler) RegisterMemoRoutes(g *echo.Group) {
	g.POST("/memos", h.CreateMemo)
	g.GET("/memos", h.ListPersonal)
	g.GET("/memos/bounds", h.ListInBounds)
	g.GET("/memos/:id", h.GetMemo)
	g.PUT("/memos/:id", h.UpdateMemo)
	g.DELETE("/memos/:id", h.DeleteMemo)
	g.PUT("/memos/:id/complete", h.Complete)
	g.DELETE("/memos/:id/complete", h.Uncomplete)
	g.GET("/groups/:id/memos", h.ListForGroup)
}

func (h *MemoHandler) CreateMemo(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req models.MemoInput
	if err := bind(c, &req); err != nil {
		return err
	}
	memo, err := h.memos.Create(c.Request().Context(), userID, req)
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	return ok(c, http.StatusCreated, memo)
}

func (h *MemoHandler) ListPersonal(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	memos, err := h.memos.ListPersonal(c.Request().Context(), userID)
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	return ok(c, http.StatusOK, memos)
}

// ListInBounds takes south, west, north and east query parameters
func (h *MemoHandler) ListInBounds(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var b models.Bounds
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &b); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid bounds")
	}
	if err := c.Validate(&b); err != nil {
		return err
	}
	memos, err := h.memos.ListInBounds(c.Request().Context(), userID, b)
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	return ok(c, http.StatusOK, memos)
}

func (h *MemoHandler) ListForGroup(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	groupID, err := parseID(c, "id", "group")
	if err != nil {
		return err
	}
	memos, err := h.memos.ListForGroup(c.Request().Context(), groupID, userID)
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	return ok(c, http.StatusOK, memos)
}

func (h *MemoHandler) GetMemo(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	memoID, err := parseID(c, "id", "memo")
	if err != nil {
		return err
	}
	memo, err := h.memos.Get(c.Request().Context(), memoID, userID)
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	return ok(c, http.StatusOK, memo)
}

func (h *MemoHandler) UpdateMemo(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	memoID, err := parseID(c, "id", "memo")
	if err != nil {
		return err
	}
	var req models.UpdateMemoRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	memo, err := h.memos.Update(c.Request().Context(), memoID, userID, req)
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	return ok(c, http.StatusOK, memo)
}

func (h *MemoHandler) DeleteMemo(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	memoID, err := parseID(c, "id", "memo")
	if err != nil {
		return err
	}
	if err := h.memos.Delete(c.Request().Context(), memoID, userID); err != nil {
		return serviceError(h.logger, c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *MemoHandler) Complete(c echo.Context) error {
	return h.setCompleted(c, true)
}

func (h *MemoHandler) Uncomplete(c echo.Context) error {
	return h.setCompleted(c, false)
}

func (h *MemoHandler) setCompleted(c echo.Context, completed bool) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	memoID, err := parseID(c, "id", "memo")
	if err != nil {
		return err
	}
	memo, err := h.memos.SetCompleted(c.Request().Context(), memoID, userID, completed)
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	return ok(c, http.StatusOK, memo)
}
