package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/anonto42/memomap/backend/internal/models"
	"github.com/anonto42/memomap/backend/internal/services"
)

// GroupHandler exposes group lifecycle and membership management
type GroupHandler struct {
	groups *services.GroupService
	logger *logrus.Logger
}

func NewGroupHandler(groups *services.GroupService, logger *logrus.Logger) *GroupHandler {
	return &GroupHandler{groups: groups, logger: logger}
}

func (h *GroupHandler) RegisterGroupRoutes(g *echo.Group) {
	g.POST("/groups", h.CreateGroup)
	g.GET("/groups", h.ListGroups)
	g.GET("/groups/:id", h.GetGroup)
	g.PUT("/groups/:id", h.RenameGroup)
	g.DELETE("/groups/:id", h.DeleteGroup)
	g.GET("/groups/:id/members", h.ListMembers)
	g.POST("/groups/:id/members", h.AddMember)
	g.PUT("/groups/:id/members/:user_id/role", h.UpdateRole)
	g.DELETE("/groups/:id/members/:user_id", h.RemoveMember)
}

func (h *GroupHandler) CreateGroup(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req models.CreateGroupRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	group, err := h.groups.CreateGroup(c.Request().Context(), req.Name, userID, req.MemberIDs)
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	return ok(c, http.StatusCreated, group)
}

func (h *GroupHandler) ListGroups(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	groups, err := h.groups.ListGroups(c.Request().Context(), userID)
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	return ok(c, http.StatusOK, groups)
}

func (h *GroupHandler) GetGroup(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	groupID, err := parseID(c, "id", "group")
	if err != nil {
		return err
	}
	group, err := h.groups.GetGroup(c.Request().Context(), groupID, userID)
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	return ok(c, http.StatusOK, group)
}

func (h *GroupHandler) RenameGroup(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	groupID, err := parseID(c, "id", "group")
	if err != nil {
		return err
	}
	var req models.UpdateGroupRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	group, err := h.groups.RenameGroup(c.Request().Context(), groupID, userID, req.Name)
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	return ok(c, http.StatusOK, group)
}

func (h *GroupHandler) DeleteGroup(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	groupID, err := parseID(c, "id", "group")
	if err != nil {
		return err
	}
	if err := h.groups.DeleteGroup(c.Request().Context(), groupID, userID); err != nil {
		return serviceError(h.logger, c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *GroupHandler) ListMembers(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	groupID, err := parseID(c, "id", "group")
	if err != nil {
		return err
	}
	members, err := h.groups.ListMembers(c.Request().Context(), groupID, userID)
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	return ok(c, http.StatusOK, members)
}

func (h *GroupHandler) AddMember(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	groupID, err := parseID(c, "id", "group")
	if err != nil {
		return err
	}
	var req models.AddMemberRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	member, err := h.groups.AddMember(c.Request().Context(), groupID, userID, req.UserID)
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	return ok(c, http.StatusCreated, member)
}

func (h *GroupHandler) UpdateRole(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	groupID, err := parseID(c, "id", "group")
	if err != nil {
		return err
	}
	targetID, err := parseID(c, "user_id", "user")
	if err != nil {
		return err
	}
	var req models.UpdateRoleRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	member, err := h.groups.UpdateRole(c.Request().Context(), groupID, userID, targetID, models.NormalizeRole(req.Role))
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	return ok(c, http.StatusOK, member)
}

// RemoveMember removes a member, or lets the caller leave when user_id is
// their own id. The group is deleted when its owner leaves.
func (h *GroupHandler) RemoveMember(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	groupID, err := parseID(c, "id", "group")
	if err != nil {
		return err
	}
	targetID, err := parseID(c, "user_id", "user")
	if err != nil {
		return err
	}
	deleted, err := h.groups.RemoveMember(c.Request().Context(), groupID, userID, targetID)
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"group_deleted": deleted})
}
