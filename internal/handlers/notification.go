package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/taskflow-api/internal/errors"
	"github.com/yukikurage/taskflow-api/internal/middleware"
	"github.com/yukikurage/taskflow-api/internal/services"
)

type NotificationHandler struct {
	notifications *services.NotificationService
}

func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// ListNotifications returns the newest notifications and the unread count.
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	list, unread, err := h.notifications.List(userID)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch notifications")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": list,
		"unreadCount":   unread,
	})
}

// MarkRead marks the given notifications as read. An empty or missing ids
// list marks all of them.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	type MarkReadRequest struct {
		IDs []uint64 `json:"ids"`
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req MarkReadRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			apierrors.ValidationFailed(c, err)
			return
		}
	}

	updated, err := h.notifications.MarkRead(userID, req.IDs)
	if err != nil {
		apierrors.InternalError(c, "Failed to update notifications")
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": updated})
}
