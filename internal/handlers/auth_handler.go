package handlers

import (
	"net/http"

	"laundry_manager/internal/middleware"
	"laundry_manager/internal/models"
	"laundry_manager/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	users  services.UserService
	auth   *middleware.Auth
	logger *zap.Logger
}

func NewAuthHandler(users services.UserService, auth *middleware.Auth, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, auth: auth, logger: logger}
}

// Register creates a customer account.
func (h *AuthHandler) Register(c *gin.Context) {
	var input services.CreateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	input.Role = string(models.RoleCustomer)

	user, err := h.users.CreateUser(c.Request.Context(), input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	token, err := h.auth.GenerateToken(user)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token, "user": user})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	token, err := h.auth.GenerateToken(user)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.users.FindUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
