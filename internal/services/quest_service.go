package services

import (
	"context"
	"errors"
	"regexp"

	"github.com/google/uuid"

	"github.com/calebmorris/questdesk/internal/database/repository"
	"github.com/calebmorris/questdesk/internal/models"
)

var (
	ErrQuestNotFound     = errors.New("quest not found")
	ErrSlugAlreadyExists = errors.New("quest with this slug already exists")
	ErrInvalidSlug       = errors.New("invalid slug format")
	ErrInvalidStatus     = errors.New("invalid quest status")
	ErrUnknownEmail      = errors.New("email does not belong to a known user")
)

// Slug validation regex: lowercase alphanumerics separated by single hyphens
var slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// QuestService handles quest-related business logic
type QuestService interface {
	CreateQuest(ctx context.Context, quest *models.Quest) (*models.Quest, error)
	GetQuestByID(ctx context.Context, id uuid.UUID) (*models.Quest, error)
	GetQuestBySlug(ctx context.Context, slug string) (*models.Quest, error)
	UpdateQuest(ctx context.Context, quest *models.Quest) error
	SetQuestStatus(ctx context.Context, id uuid.UUID, status string) (*models.Quest, error)
	DeleteQuest(ctx context.Context, id uuid.UUID) error
	ListQuests(ctx context.Context, filter repository.QuestFilter, page, pageSize int) ([]*models.Quest, int, error)
	ReplaceAllowedEmails(ctx context.Context, questID uuid.UUID, emails []string) error
}

type questService struct {
	questRepo repository.QuestRepository
	userRepo  repository.UserRepository
}

// NewQuestService creates a new QuestService
func NewQuestService(questRepo repository.QuestRepository, userRepo repository.UserRepository) QuestService {
	return &questService{
		questRepo: questRepo,
		userRepo:  userRepo,
	}
}

// CreateQuest creates a new quest after validating slug uniqueness
func (s *questService) CreateQuest(ctx context.Context, quest *models.Quest) (*models.Quest, error) {
	if !slugRegex.MatchString(quest.Slug) {
		return nil, ErrInvalidSlug
	}
	if quest.Status != "" && !models.IsValidQuestStatus(quest.Status) {
		return nil, ErrInvalidStatus
	}

	existing, err := s.questRepo.GetBySlug(ctx, quest.Slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrSlugAlreadyExists
	}

	if quest.Status == "" {
		quest.Status = models.QuestStatusDraft
	}

	if err := s.questRepo.Create(ctx, quest); err != nil {
		return nil, err
	}

	return quest, nil
}

// GetQuestByID retrieves a quest by ID, including its email allow-list
func (s *questService) GetQuestByID(ctx context.Context, id uuid.UUID) (*models.Quest, error) {
	quest, err := s.questRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if quest == nil {
		return nil, ErrQuestNotFound
	}

	return s.attachAllowedEmails(ctx, quest)
}

// GetQuestBySlug retrieves a quest by slug, including its email allow-list
func (s *questService) GetQuestBySlug(ctx context.Context, slug string) (*models.Quest, error) {
	quest, err := s.questRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if quest == nil {
		return nil, ErrQuestNotFound
	}

	return s.attachAllowedEmails(ctx, quest)
}

// UpdateQuest updates an existing quest
func (s *questService) UpdateQuest(ctx context.Context, quest *models.Quest) error {
	if !slugRegex.MatchString(quest.Slug) {
		return ErrInvalidSlug
	}
	if !models.IsValidQuestStatus(quest.Status) {
		return ErrInvalidStatus
	}

	existing, err := s.questRepo.GetByID(ctx, quest.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrQuestNotFound
	}

	// Slug may change, but never onto another quest's slug
	if quest.Slug != existing.Slug {
		conflict, err := s.questRepo.GetBySlug(ctx, quest.Slug)
		if err != nil {
			return err
		}
		if conflict != nil {
			return ErrSlugAlreadyExists
		}
	}

	return s.questRepo.Update(ctx, quest)
}

// SetQuestStatus transitions a quest to the given status
func (s *questService) SetQuestStatus(ctx context.Context, id uuid.UUID, status string) (*models.Quest, error) {
	if !models.IsValidQuestStatus(status) {
		return nil, ErrInvalidStatus
	}

	quest, err := s.questRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if quest == nil {
		return nil, ErrQuestNotFound
	}

	switch status {
	case models.QuestStatusActive:
		quest.Activate()
	case models.QuestStatusArchived:
		quest.Archive()
	default:
		quest.Status = status
	}

	if err := s.questRepo.Update(ctx, quest); err != nil {
		return nil, err
	}

	return quest, nil
}

// DeleteQuest soft-deletes a quest
func (s *questService) DeleteQuest(ctx context.Context, id uuid.UUID) error {
	quest, err := s.questRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if quest == nil {
		return ErrQuestNotFound
	}

	return s.questRepo.Delete(ctx, id)
}

// ListQuests retrieves a page of quests matching the filter
func (s *questService) ListQuests(ctx context.Context, filter repository.QuestFilter, page, pageSize int) ([]*models.Quest, int, error) {
	if filter.Status != "" && !models.IsValidQuestStatus(filter.Status) {
		return nil, 0, ErrInvalidStatus
	}

	offset := (page - 1) * pageSize

	quests, err := s.questRepo.List(ctx, filter, offset, pageSize)
	if err != nil {
		return nil, 0, err
	}

	totalCount, err := s.questRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return quests, totalCount, nil
}

// ReplaceAllowedEmails replaces a quest's email allow-list.
// Every email must belong to an existing user.
func (s *questService) ReplaceAllowedEmails(ctx context.Context, questID uuid.UUID, emails []string) error {
	quest, err := s.questRepo.GetByID(ctx, questID)
	if err != nil {
		return err
	}
	if quest == nil {
		return ErrQuestNotFound
	}

	for _, email := range emails {
		user, err := s.userRepo.GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUnknownEmail
		}
	}

	return s.questRepo.ReplaceAllowedEmails(ctx, questID, emails)
}

// attachAllowedEmails loads the allow-list onto the quest
func (s *questService) attachAllowedEmails(ctx context.Context, quest *models.Quest) (*models.Quest, error) {
	emails, err := s.questRepo.GetAllowedEmails(ctx, quest.ID)
	if err != nil {
		return nil, err
	}
	quest.AllowedEmails = emails
	return quest, nil
}
