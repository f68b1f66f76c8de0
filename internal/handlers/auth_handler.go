package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/calebmorris/questdesk/internal/models"
	"github.com/calebmorris/questdesk/internal/services"
)

// AuthHandler handles authentication-related endpoints
type AuthHandler struct {
	authService services.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// LoginRequest represents the request body for staff login
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest represents the request body for token refresh
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// LoginResponse represents the data payload for authentication endpoints
type LoginResponse struct {
	User   gin.H             `json:"user"`
	Tokens *models.TokenPair `json:"tokens"`
}

// Login handles staff login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	user, tokens, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if err == services.ErrInvalidCredentials {
			respondError(c, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		log.Printf("AuthHandler.Login: %v", err)
		respondError(c, http.StatusInternalServerError, "Login failed")
		return
	}

	respondOK(c, http.StatusOK, LoginResponse{
		User: gin.H{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
			"name":     user.Name,
			"isAdmin":  user.IsAdmin,
		},
		Tokens: tokens,
	})
}

// RefreshToken handles token refresh. The refresh token arrives in the
// JSON body, not a cookie; both tokens are rotated on success.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	tokens, err := h.authService.RefreshTokens(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if err == services.ErrInvalidToken {
			respondError(c, http.StatusUnauthorized, "Invalid refresh token")
			return
		}
		log.Printf("AuthHandler.RefreshToken: %v", err)
		respondError(c, http.StatusInternalServerError, "Token refresh failed")
		return
	}

	respondOK(c, http.StatusOK, tokens)
}

// RegisterRoutes registers the auth routes
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		auth.POST("/login", h.Login)
		auth.POST("/refresh-token", h.RefreshToken)
	}
}
