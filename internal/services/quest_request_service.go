package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/calebmorris/questdesk/internal/database/repository"
	"github.com/calebmorris/questdesk/internal/models"
)

var (
	ErrRequestNotFound        = errors.New("quest request not found")
	ErrRequestAlreadyReviewed = errors.New("quest request has already been reviewed")
)

// QuestRequestService handles quest-request review business logic
type QuestRequestService interface {
	CreateRequest(ctx context.Context, questTitle, description, requesterEmail string) (*models.QuestRequest, error)
	GetRequestByID(ctx context.Context, id uuid.UUID) (*models.QuestRequest, error)
	Search(ctx context.Context, filter repository.RequestFilter, page, pageSize int) ([]*models.QuestRequest, int, error)
	Approve(ctx context.Context, id, reviewerID uuid.UUID, note string) (*models.QuestRequest, *models.Quest, error)
	Reject(ctx context.Context, id, reviewerID uuid.UUID, note string) (*models.QuestRequest, error)
}

type questRequestService struct {
	requestRepo repository.QuestRequestRepository
	questRepo   repository.QuestRepository
	userRepo    repository.UserRepository
}

// NewQuestRequestService creates a new QuestRequestService
func NewQuestRequestService(
	requestRepo repository.QuestRequestRepository,
	questRepo repository.QuestRepository,
	userRepo repository.UserRepository,
) QuestRequestService {
	return &questRequestService{
		requestRepo: requestRepo,
		questRepo:   questRepo,
		userRepo:    userRepo,
	}
}

// CreateRequest records a user-submitted quest request as pending
func (s *questRequestService) CreateRequest(ctx context.Context, questTitle, description, requesterEmail string) (*models.QuestRequest, error) {
	request := models.NewQuestRequest(questTitle, description, requesterEmail)
	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

// GetRequestByID retrieves a quest request by ID
func (s *questRequestService) GetRequestByID(ctx context.Context, id uuid.UUID) (*models.QuestRequest, error) {
	request, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, ErrRequestNotFound
	}
	return request, nil
}

// Search retrieves a page of quest requests matching the filter
func (s *questRequestService) Search(ctx context.Context, filter repository.RequestFilter, page, pageSize int) ([]*models.QuestRequest, int, error) {
	offset := (page - 1) * pageSize

	requests, err := s.requestRepo.Search(ctx, filter, offset, pageSize)
	if err != nil {
		return nil, 0, err
	}

	totalCount, err := s.requestRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return requests, totalCount, nil
}

// Approve marks a pending request as approved and creates a draft quest
// from it in the same transaction
func (s *questRequestService) Approve(ctx context.Context, id, reviewerID uuid.UUID, note string) (*models.QuestRequest, *models.Quest, error) {
	request, _, err := s.loadForReview(ctx, id, reviewerID)
	if err != nil {
		return nil, nil, err
	}

	request.Approve(reviewerID, note)

	quest := models.NewQuest(request.QuestTitle, s.uniqueSlug(ctx, request.QuestTitle), request.Description, 0)

	err = s.requestRepo.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.requestRepo.UpdateTx(ctx, tx, request); err != nil {
			return err
		}
		return s.questRepo.CreateTx(ctx, tx, quest)
	})
	if err != nil {
		return nil, nil, err
	}

	return request, quest, nil
}

// Reject marks a pending request as rejected
func (s *questRequestService) Reject(ctx context.Context, id, reviewerID uuid.UUID, note string) (*models.QuestRequest, error) {
	request, _, err := s.loadForReview(ctx, id, reviewerID)
	if err != nil {
		return nil, err
	}

	request.Reject(reviewerID, note)

	if err := s.requestRepo.Update(ctx, request); err != nil {
		return nil, err
	}

	return request, nil
}

// loadForReview fetches the request and reviewer, enforcing review preconditions
func (s *questRequestService) loadForReview(ctx context.Context, id, reviewerID uuid.UUID) (*models.QuestRequest, *models.User, error) {
	request, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if request == nil {
		return nil, nil, ErrRequestNotFound
	}
	if !request.IsPending() {
		return nil, nil, ErrRequestAlreadyReviewed
	}

	reviewer, err := s.userRepo.GetByID(ctx, reviewerID)
	if err != nil {
		return nil, nil, err
	}
	if reviewer == nil {
		return nil, nil, ErrUserNotFound
	}

	return request, reviewer, nil
}

// uniqueSlug derives a slug from the title, suffixing on collision
func (s *questRequestService) uniqueSlug(ctx context.Context, title string) string {
	slug := slugify(title)
	existing, err := s.questRepo.GetBySlug(ctx, slug)
	if err == nil && existing == nil {
		return slug
	}
	return slug + "-" + uuid.New().String()[:8]
}

// slugify lowercases the title and collapses non-alphanumerics to hyphens
func slugify(title string) string {
	var b strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
