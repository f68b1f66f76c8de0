package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/calebmorris/questdesk/internal/services"
)

// Maximum attachment size (5MB)
const maxUploadSize = 5 * 1024 * 1024

// MediaHandler handles quest attachment uploads
type MediaHandler struct {
	questService   services.QuestService
	storageService services.StorageService
}

// NewMediaHandler creates a new MediaHandler
func NewMediaHandler(questService services.QuestService, storageService services.StorageService) *MediaHandler {
	return &MediaHandler{
		questService:   questService,
		storageService: storageService,
	}
}

// UploadFile uploads an attachment for a quest's rich-text description
func (h *MediaHandler) UploadFile(c *gin.Context) {
	questID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid quest ID format")
		return
	}

	// The quest must exist before anything is stored under its prefix
	if _, err := h.questService.GetQuestByID(c.Request.Context(), questID); err != nil {
		if err == services.ErrQuestNotFound {
			respondError(c, http.StatusNotFound, err.Error())
			return
		}
		log.Printf("MediaHandler.UploadFile: %v", err)
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		respondError(c, http.StatusBadRequest, "File too large (max 5MB)")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if !isAllowedFileType(contentType) {
		respondError(c, http.StatusBadRequest, "File type not allowed")
		return
	}

	info, err := h.storageService.UploadFile(c.Request.Context(), file, header.Filename, contentType, header.Size, questID)
	if err != nil {
		log.Printf("MediaHandler.UploadFile: %v", err)
		respondError(c, http.StatusInternalServerError, "Failed to store file")
		return
	}

	respondOK(c, http.StatusCreated, info)
}

// isAllowedFileType reports whether the content type may be attached to a quest
func isAllowedFileType(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	}
	return false
}

// RegisterRoutes registers the media routes
func (h *MediaHandler) RegisterRoutes(router *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	router.POST("/quests/:id/media", authMiddleware, h.UploadFile)
}
