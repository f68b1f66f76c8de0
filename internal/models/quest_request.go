package models

import (
	"time"

	"github.com/google/uuid"
)

// Quest request status values
const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"
)

// QuestRequest represents a user-submitted request for a new quest,
// reviewed by staff and either approved (creating a draft quest) or rejected
type QuestRequest struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	QuestTitle     string     `json:"quest_title" db:"quest_title"`
	Description    string     `json:"description" db:"description"`
	RequesterEmail string     `json:"requester_email" db:"requester_email"`
	Status         string     `json:"status" db:"status"`
	ReviewerID     *uuid.UUID `json:"reviewer_id,omitempty" db:"reviewer_id"`
	ReviewNote     string     `json:"review_note" db:"review_note"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty" db:"reviewed_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// NewQuestRequest creates a new pending quest request
func NewQuestRequest(questTitle, description, requesterEmail string) *QuestRequest {
	now := time.Now()
	return &QuestRequest{
		ID:             uuid.New(),
		QuestTitle:     questTitle,
		Description:    description,
		RequesterEmail: requesterEmail,
		Status:         RequestStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// IsPending reports whether the request has not been reviewed yet
func (r *QuestRequest) IsPending() bool {
	return r.Status == RequestStatusPending
}

// Approve marks the request as approved by the given reviewer
func (r *QuestRequest) Approve(reviewerID uuid.UUID, note string) {
	now := time.Now()
	r.Status = RequestStatusApproved
	r.ReviewerID = &reviewerID
	r.ReviewNote = note
	r.ReviewedAt = &now
	r.UpdatedAt = now
}

// Reject marks the request as rejected by the given reviewer
func (r *QuestRequest) Reject(reviewerID uuid.UUID, note string) {
	now := time.Now()
	r.Status = RequestStatusRejected
	r.ReviewerID = &reviewerID
	r.ReviewNote = note
	r.ReviewedAt = &now
	r.UpdatedAt = now
}
