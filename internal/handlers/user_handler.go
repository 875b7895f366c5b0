package handlers

import (
	"net/http"
	"strings"

	"laundry_manager/internal/models"
	"laundry_manager/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserHandler struct {
	users         services.UserService
	notifications services.NotificationService
	logger        *zap.Logger
}

func NewUserHandler(users services.UserService, notifications services.NotificationService, logger *zap.Logger) *UserHandler {
	return &UserHandler{users: users, notifications: notifications, logger: logger}
}

// CreateUser lets staff create accounts of any role.
func (h *UserHandler) CreateUser(c *gin.Context) {
	var input services.CreateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.users.CreateUser(c.Request.Context(), input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// ListUsers accepts ?role=driver,customer.
func (h *UserHandler) ListUsers(c *gin.Context) {
	var roles []string
	if raw := c.Query("role"); raw != "" {
		roles = strings.Split(raw, ",")
	}
	users, err := h.users.FindUsers(c.Request.Context(), roles...)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(users), "users": users})
}

func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.users.FindUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	var patch services.UserPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.users.UpdateUserDetails(c.Request.Context(), requester(c), c.Param("id"), patch)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *UserHandler) ListNotifications(c *gin.Context) {
	unread := c.Query("unread") == "true"
	notifications, err := h.notifications.List(c.Request.Context(), requester(c), unread)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(notifications), "notifications": notifications})
}

func (h *UserHandler) MarkNotificationRead(c *gin.Context) {
	if err := h.notifications.MarkRead(c.Request.Context(), requester(c), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

func (h *UserHandler) MarkAllNotificationsRead(c *gin.Context) {
	n, err := h.notifications.MarkAllRead(c.Request.Context(), requester(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}
