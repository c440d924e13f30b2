package handlers

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/anonto42/memomap/backend/internal/models"
	"github.com/anonto42/memomap/backend/internal/services"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	notifications *services.NotificationService
	users         *services.UserService
	logger        *logrus.Logger
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifications *services.NotificationService, users *services.UserService, logger *logrus.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, users: users, logger: logger}
}

// RegisterNotificationRoutes registers notification and push routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/grouped", h.GetGroupedNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
	g.PUT("/notifications/read-all", h.MarkAllAsRead)

	g.POST("/push/subscriptions", h.Subscribe)
	g.DELETE("/push/subscriptions", h.Unsubscribe)
}

// RegisterPublicRoutes registers routes that need no authentication
func (h *NotificationHandler) RegisterPublicRoutes(g *echo.Group) {
	g.GET("/push/vapid-key", h.GetVAPIDKey)
}

// EnrichedNotification includes actor info
type EnrichedNotification struct {
	models.Notification
	Actor models.UserCompact `json:"actor"`
}

func (h *NotificationHandler) enrichNotifications(ctx context.Context, notifications []models.Notification) []EnrichedNotification {
	enriched := make([]EnrichedNotification, len(notifications))
	userCache := make(map[uint]models.UserCompact)

	for i, n := range notifications {
		enriched[i] = EnrichedNotification{Notification: n}
		if actor, ok := userCache[n.ActorID]; ok {
			enriched[i].Actor = actor
			continue
		}
		user, err := h.users.Get(ctx, n.ActorID)
		if err != nil {
			continue
		}
		compact := user.ToCompact()
		userCache[n.ActorID] = compact
		enriched[i].Actor = compact
	}
	return enriched
}

// GetNotifications returns paginated notifications
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	ctx := c.Request().Context()
	result, err := h.notifications.List(ctx, userID, page, limit)
	if err != nil {
		return serviceError(h.logger, c, err)
	}

	totalPages := int(math.Ceil(float64(result.Total) / float64(result.Limit)))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"notifications": h.enrichNotifications(ctx, result.Notifications),
		},
		"meta": echo.Map{
			"currentPage":     result.Page,
			"totalPages":      totalPages,
			"totalItems":      result.Total,
			"itemsPerPage":    result.Limit,
			"hasNextPage":     result.Page < totalPages,
			"hasPreviousPage": result.Page > 1,
		},
	})
}

// GetGroupedNotifications returns notifications grouped by time period
func (h *NotificationHandler) GetGroupedNotifications(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	grouped, err := h.notifications.Grouped(ctx, userID, time.Now())
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	unreadCount, err := h.notifications.UnreadCount(ctx, userID)
	if err != nil {
		return serviceError(h.logger, c, err)
	}

	return ok(c, http.StatusOK, echo.Map{
		"notifications": echo.Map{
			"today":     h.enrichNotifications(ctx, grouped.Today),
			"yesterday": h.enrichNotifications(ctx, grouped.Yesterday),
			"thisWeek":  h.enrichNotifications(ctx, grouped.ThisWeek),
			"older":     h.enrichNotifications(ctx, grouped.Older),
		},
		"unreadCount": unreadCount,
	})
}

// GetUnreadCount returns the unread notification count
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	count, err := h.notifications.UnreadCount(c.Request().Context(), userID)
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"count": count})
}

// MarkAsRead marks one of the caller's notifications as read
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	notifID, err := parseID(c, "id", "notification")
	if err != nil {
		return err
	}
	if err := h.notifications.MarkRead(c.Request().Context(), userID, notifID); err != nil {
		return serviceError(h.logger, c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"success": true})
}

// MarkAllAsRead marks all notifications as read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.notifications.MarkAllRead(c.Request().Context(), userID); err != nil {
		return serviceError(h.logger, c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"success": true})
}

// Subscribe registers the browser's push subscription
func (h *NotificationHandler) Subscribe(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req models.SubscribeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	sub, err := h.notifications.Subscribe(c.Request().Context(), userID, req)
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	return ok(c, http.StatusCreated, sub)
}

// Unsubscribe removes one of the caller's push subscriptions
func (h *NotificationHandler) Unsubscribe(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req models.UnsubscribeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.notifications.Unsubscribe(c.Request().Context(), userID, req.Endpoint); err != nil {
		return serviceError(h.logger, c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *NotificationHandler) GetVAPIDKey(c echo.Context) error {
	key := h.notifications.VAPIDPublicKey()
	if key == "" {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Push notifications are not configured")
	}
	return ok(c, http.StatusOK, echo.Map{"publicKey": key})
}
