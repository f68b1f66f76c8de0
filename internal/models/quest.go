package models

import (
	"time"

	"github.com/google/uuid"
)

// Quest status values
const (
	QuestStatusDraft    = "draft"
	QuestStatusActive   = "active"
	QuestStatusArchived = "archived"
)

// Quest represents a quest record managed by back-office staff
type Quest struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Slug        string     `json:"slug" db:"slug"`
	Description string     `json:"description" db:"description"` // rich-text HTML
	Reward      int        `json:"reward" db:"reward"`
	Status      string     `json:"status" db:"status"`
	StartsAt    *time.Time `json:"starts_at,omitempty" db:"starts_at"`
	EndsAt      *time.Time `json:"ends_at,omitempty" db:"ends_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`

	// AllowedEmails is the per-quest email allow-list, loaded from the join
	// table. Empty means the quest is open to all users.
	AllowedEmails []string `json:"allowed_emails" db:"-"`
}

// NewQuest creates a new quest in draft status
func NewQuest(title, slug, description string, reward int) *Quest {
	now := time.Now()
	return &Quest{
		ID:          uuid.New(),
		Title:       title,
		Slug:        slug,
		Description: description,
		Reward:      reward,
		Status:      QuestStatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Activate transitions the quest to active status
func (q *Quest) Activate() {
	q.Status = QuestStatusActive
	q.UpdatedAt = time.Now()
}

// Archive transitions the quest to archived status
func (q *Quest) Archive() {
	q.Status = QuestStatusArchived
	q.UpdatedAt = time.Now()
}

// Update updates the quest's editable fields
func (q *Quest) Update(title, slug, description string, reward int, startsAt, endsAt *time.Time) {
	q.Title = title
	q.Slug = slug
	q.Description = description
	q.Reward = reward
	q.StartsAt = startsAt
	q.EndsAt = endsAt
	q.UpdatedAt = time.Now()
}

// SoftDelete marks the quest as deleted
func (q *Quest) SoftDelete() {
	now := time.Now()
	q.DeletedAt = &now
	q.UpdatedAt = now
}

// IsValidQuestStatus reports whether s is a known quest status
func IsValidQuestStatus(s string) bool {
	switch s {
	case QuestStatusDraft, QuestStatusActive, QuestStatusArchived:
		return true
	}
	return false
}
