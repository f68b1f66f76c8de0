package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/calebmorris/questdesk/internal/models"
	"github.com/calebmorris/questdesk/internal/services"
)

// UserHandler handles user-related endpoints
type UserHandler struct {
	userService services.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// CreateUserRequest represents the request body for creating a staff account
type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
	IsAdmin  bool   `json:"isAdmin"`
}

// ChangePasswordRequest represents the request body for a password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

// GetByEmail looks up a user by email, used by the allow-list editor
func (h *UserHandler) GetByEmail(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		respondError(c, http.StatusBadRequest, "email query parameter is required")
		return
	}

	user, err := h.userService.GetUserByEmail(c.Request.Context(), email)
	if err != nil {
		h.respondUserError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"id":    user.ID,
		"email": user.Email,
		"name":  user.Name,
	})
}

// CreateUser creates a new staff account (admin only)
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), req.Username, req.Email, req.Password, req.Name, req.IsAdmin)
	if err != nil {
		h.respondUserError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, user)
}

// ChangePassword changes the authenticated user's password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	userObj, exists := c.Get("user")
	if !exists {
		respondError(c, http.StatusUnauthorized, "User not found in context")
		return
	}
	user, ok := userObj.(*models.User)
	if !ok {
		respondError(c, http.StatusInternalServerError, "Invalid user type in context")
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.userService.ChangePassword(c.Request.Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		h.respondUserError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"changed": true})
}

// respondUserError maps user service errors to HTTP responses
func (h *UserHandler) respondUserError(c *gin.Context, err error) {
	switch err {
	case services.ErrUserNotFound:
		respondError(c, http.StatusNotFound, err.Error())
	case services.ErrUserAlreadyExists:
		respondError(c, http.StatusConflict, err.Error())
	case services.ErrInvalidEmail, services.ErrWeakPassword:
		respondError(c, http.StatusBadRequest, err.Error())
	case services.ErrInvalidCredentials:
		respondError(c, http.StatusUnauthorized, err.Error())
	default:
		log.Printf("UserHandler: %v", err)
		respondError(c, http.StatusInternalServerError, "Internal server error")
	}
}

// RegisterRoutes registers the user routes
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup, authMiddleware, adminMiddleware gin.HandlerFunc) {
	users := router.Group("/users")
	users.Use(authMiddleware)
	{
		users.GET("/by-email", h.GetByEmail)
		users.POST("", adminMiddleware, h.CreateUser)
		users.PUT("/password", h.ChangePassword)
	}
}
