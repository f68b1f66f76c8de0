package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/calebmorris/questdesk/internal/database/repository"
	"github.com/calebmorris/questdesk/internal/models"
	"github.com/calebmorris/questdesk/internal/services"
)

// QuestHandler handles quest CRUD endpoints
type QuestHandler struct {
	questService services.QuestService
}

// NewQuestHandler creates a new QuestHandler
func NewQuestHandler(questService services.QuestService) *QuestHandler {
	return &QuestHandler{
		questService: questService,
	}
}

// QuestRequest represents the request body for creating or updating a quest
type QuestRequest struct {
	Title       string     `json:"title" binding:"required"`
	Slug        string     `json:"slug" binding:"required"`
	Description string     `json:"description"`
	Reward      int        `json:"reward"`
	Status      string     `json:"status"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
}

// AllowedEmailsRequest represents the request body for replacing an allow-list
type AllowedEmailsRequest struct {
	Emails []string `json:"emails" binding:"required,dive,email"`
}

// CreateQuest handles quest creation
func (h *QuestHandler) CreateQuest(c *gin.Context) {
	var req QuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	quest := models.NewQuest(req.Title, req.Slug, req.Description, req.Reward)
	quest.StartsAt = req.StartsAt
	quest.EndsAt = req.EndsAt
	if req.Status != "" {
		quest.Status = req.Status
	}

	created, err := h.questService.CreateQuest(c.Request.Context(), quest)
	if err != nil {
		h.respondQuestError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, created)
}

// GetQuest retrieves a quest by ID
func (h *QuestHandler) GetQuest(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid quest ID format")
		return
	}

	quest, err := h.questService.GetQuestByID(c.Request.Context(), id)
	if err != nil {
		h.respondQuestError(c, err)
		return
	}

	respondOK(c, http.StatusOK, quest)
}

// UpdateQuest updates an existing quest
func (h *QuestHandler) UpdateQuest(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid quest ID format")
		return
	}

	var req QuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	quest, err := h.questService.GetQuestByID(c.Request.Context(), id)
	if err != nil {
		h.respondQuestError(c, err)
		return
	}

	quest.Update(req.Title, req.Slug, req.Description, req.Reward, req.StartsAt, req.EndsAt)
	if req.Status != "" {
		quest.Status = req.Status
	}

	if err := h.questService.UpdateQuest(c.Request.Context(), quest); err != nil {
		h.respondQuestError(c, err)
		return
	}

	respondOK(c, http.StatusOK, quest)
}

// DeleteQuest soft-deletes a quest
func (h *QuestHandler) DeleteQuest(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid quest ID format")
		return
	}

	if err := h.questService.DeleteQuest(c.Request.Context(), id); err != nil {
		h.respondQuestError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"deleted": true})
}

// ListQuests retrieves a filtered, paginated quest list.
// Filters arrive as URL query parameters, mirroring the admin list screens.
func (h *QuestHandler) ListQuests(c *gin.Context) {
	page, pageSize := parsePagination(c)

	filter := repository.QuestFilter{
		Status: c.Query("status"),
		Title:  c.Query("title"),
	}

	quests, totalCount, err := h.questService.ListQuests(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		h.respondQuestError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"quests":      quests,
		"total_count": totalCount,
		"page":        page,
		"page_size":   pageSize,
	})
}

// ReplaceAllowedEmails replaces a quest's per-user email allow-list
func (h *QuestHandler) ReplaceAllowedEmails(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid quest ID format")
		return
	}

	var req AllowedEmailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.questService.ReplaceAllowedEmails(c.Request.Context(), id, req.Emails); err != nil {
		h.respondQuestError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"emails": req.Emails})
}

// respondQuestError maps quest service errors to HTTP responses
func (h *QuestHandler) respondQuestError(c *gin.Context, err error) {
	switch err {
	case services.ErrQuestNotFound:
		respondError(c, http.StatusNotFound, err.Error())
	case services.ErrSlugAlreadyExists:
		respondError(c, http.StatusConflict, err.Error())
	case services.ErrInvalidSlug, services.ErrInvalidStatus, services.ErrUnknownEmail:
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		log.Printf("QuestHandler: %v", err)
		respondError(c, http.StatusInternalServerError, "Internal server error")
	}
}

// parsePagination reads page/page_size query parameters with defaults
func parsePagination(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if err != nil || pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	return page, pageSize
}

// RegisterRoutes registers the quest routes
func (h *QuestHandler) RegisterRoutes(router *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	quests := router.Group("/quests")
	quests.Use(authMiddleware)
	{
		quests.GET("", h.ListQuests)
		quests.POST("", h.CreateQuest)
		quests.GET("/:id", h.GetQuest)
		quests.PUT("/:id", h.UpdateQuest)
		quests.DELETE("/:id", h.DeleteQuest)
		quests.PUT("/:id/allowed-emails", h.ReplaceAllowedEmails)
	}
}
