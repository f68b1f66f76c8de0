package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/calebmorris/questdesk/internal/database/repository"
	"github.com/calebmorris/questdesk/internal/models"
	"github.com/calebmorris/questdesk/internal/services"
)

// QuestRequestHandler handles quest-request review endpoints
type QuestRequestHandler struct {
	requestService services.QuestRequestService
}

// NewQuestRequestHandler creates a new QuestRequestHandler
func NewQuestRequestHandler(requestService services.QuestRequestService) *QuestRequestHandler {
	return &QuestRequestHandler{
		requestService: requestService,
	}
}

// CreateRequestBody represents the request body for submitting a quest request
type CreateRequestBody struct {
	QuestTitle     string `json:"quest_title" binding:"required"`
	Description    string `json:"description"`
	RequesterEmail string `json:"requester_email" binding:"required,email"`
}

// ReviewBody represents the request body for approving or rejecting a request
type ReviewBody struct {
	Note string `json:"note"`
}

// CreateRequest records a new quest request as pending
func (h *QuestRequestHandler) CreateRequest(c *gin.Context) {
	var req CreateRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	request, err := h.requestService.CreateRequest(c.Request.Context(), req.QuestTitle, req.Description, req.RequesterEmail)
	if err != nil {
		h.respondRequestError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, request)
}

// GetRequest retrieves a quest request by ID
func (h *QuestRequestHandler) GetRequest(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request ID format")
		return
	}

	request, err := h.requestService.GetRequestByID(c.Request.Context(), id)
	if err != nil {
		h.respondRequestError(c, err)
		return
	}

	respondOK(c, http.StatusOK, request)
}

// SearchRequests retrieves a filtered, paginated list of quest requests
func (h *QuestRequestHandler) SearchRequests(c *gin.Context) {
	page, pageSize := parsePagination(c)

	filter := repository.RequestFilter{
		Status:         c.Query("status"),
		RequesterEmail: c.Query("requester_email"),
	}

	requests, totalCount, err := h.requestService.Search(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		h.respondRequestError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"requests":    requests,
		"total_count": totalCount,
		"page":        page,
		"page_size":   pageSize,
	})
}

// ApproveRequest approves a pending quest request and creates a draft quest
func (h *QuestRequestHandler) ApproveRequest(c *gin.Context) {
	id, reviewer, body, ok := h.bindReview(c)
	if !ok {
		return
	}

	request, quest, err := h.requestService.Approve(c.Request.Context(), id, reviewer.ID, body.Note)
	if err != nil {
		h.respondRequestError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"request": request,
		"quest":   quest,
	})
}

// RejectRequest rejects a pending quest request
func (h *QuestRequestHandler) RejectRequest(c *gin.Context) {
	id, reviewer, body, ok := h.bindReview(c)
	if !ok {
		return
	}

	request, err := h.requestService.Reject(c.Request.Context(), id, reviewer.ID, body.Note)
	if err != nil {
		h.respondRequestError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"request": request})
}

// bindReview extracts the request ID, reviewing user, and review body
func (h *QuestRequestHandler) bindReview(c *gin.Context) (uuid.UUID, *models.User, ReviewBody, bool) {
	var body ReviewBody

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request ID format")
		return uuid.Nil, nil, body, false
	}

	userObj, exists := c.Get("user")
	if !exists {
		respondError(c, http.StatusUnauthorized, "User not found in context")
		return uuid.Nil, nil, body, false
	}
	reviewer, ok := userObj.(*models.User)
	if !ok {
		respondError(c, http.StatusInternalServerError, "Invalid user type in context")
		return uuid.Nil, nil, body, false
	}

	// Review note is optional; an empty body is fine
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			respondError(c, http.StatusBadRequest, err.Error())
			return uuid.Nil, nil, body, false
		}
	}

	return id, reviewer, body, true
}

// respondRequestError maps quest-request service errors to HTTP responses
func (h *QuestRequestHandler) respondRequestError(c *gin.Context, err error) {
	switch err {
	case services.ErrRequestNotFound:
		respondError(c, http.StatusNotFound, err.Error())
	case services.ErrRequestAlreadyReviewed:
		respondError(c, http.StatusConflict, err.Error())
	case services.ErrUserNotFound:
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		log.Printf("QuestRequestHandler: %v", err)
		respondError(c, http.StatusInternalServerError, "Internal server error")
	}
}

// RegisterRoutes registers the quest-request routes.
// Approve/reject additionally require the admin middleware.
func (h *QuestRequestHandler) RegisterRoutes(router *gin.RouterGroup, authMiddleware, adminMiddleware gin.HandlerFunc) {
	requests := router.Group("/quest-requests")
	requests.Use(authMiddleware)
	{
		requests.GET("", h.SearchRequests)
		requests.POST("", h.CreateRequest)
		requests.GET("/:id", h.GetRequest)
		requests.POST("/:id/approve", adminMiddleware, h.ApproveRequest)
		requests.POST("/:id/reject", adminMiddleware, h.RejectRequest)
	}
}
