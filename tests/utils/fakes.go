package utils

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/calebmorris/questdesk/internal/database/repository"
	"github.com/calebmorris/questdesk/internal/models"
)

// In-memory repository fakes. They satisfy the repository interfaces so the
// service suites run without a Postgres instance; Transaction runs the
// callback directly since there is nothing to roll back.

// FakeUserRepository is an in-memory UserRepository
type FakeUserRepository struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

// NewFakeUserRepository creates an empty fake user repository
func NewFakeUserRepository() *FakeUserRepository {
	return &FakeUserRepository{users: make(map[uuid.UUID]*models.User)}
}

func (r *FakeUserRepository) Transaction(ctx context.Context, fn func(*sqlx.Tx) error) error {
	return fn(nil)
}

func (r *FakeUserRepository) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *FakeUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok || user.DeletedAt != nil {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (r *FakeUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Username == username && user.DeletedAt == nil {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *FakeUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email && user.DeletedAt == nil {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *FakeUserRepository) Update(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *FakeUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		now := user.UpdatedAt
		user.DeletedAt = &now
	}
	return nil
}

func (r *FakeUserRepository) List(ctx context.Context, offset, limit int) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var users []*models.User
	for _, user := range r.users {
		if user.DeletedAt == nil {
			copied := *user
			users = append(users, &copied)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return paginate(users, offset, limit), nil
}

func (r *FakeUserRepository) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, user := range r.users {
		if user.DeletedAt == nil {
			count++
		}
	}
	return count, nil
}

// FakeQuestRepository is an in-memory QuestRepository
type FakeQuestRepository struct {
	mu      sync.Mutex
	quests  map[uuid.UUID]*models.Quest
	allowed map[uuid.UUID][]string
}

// NewFakeQuestRepository creates an empty fake quest repository
func NewFakeQuestRepository() *FakeQuestRepository {
	return &FakeQuestRepository{
		quests:  make(map[uuid.UUID]*models.Quest),
		allowed: make(map[uuid.UUID][]string),
	}
}

func (r *FakeQuestRepository) Transaction(ctx context.Context, fn func(*sqlx.Tx) error) error {
	return fn(nil)
}

func (r *FakeQuestRepository) Create(ctx context.Context, quest *models.Quest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *quest
	r.quests[quest.ID] = &copied
	return nil
}

func (r *FakeQuestRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, quest *models.Quest) error {
	return r.Create(ctx, quest)
}

func (r *FakeQuestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Quest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	quest, ok := r.quests[id]
	if !ok || quest.DeletedAt != nil {
		return nil, nil
	}
	copied := *quest
	return &copied, nil
}

func (r *FakeQuestRepository) GetBySlug(ctx context.Context, slug string) (*models.Quest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, quest := range r.quests {
		if quest.Slug == slug && quest.DeletedAt == nil {
			copied := *quest
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *FakeQuestRepository) Update(ctx context.Context, quest *models.Quest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *quest
	r.quests[quest.ID] = &copied
	return nil
}

func (r *FakeQuestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if quest, ok := r.quests[id]; ok {
		now := quest.UpdatedAt
		quest.DeletedAt = &now
	}
	return nil
}

func (r *FakeQuestRepository) matches(quest *models.Quest, filter repository.QuestFilter) bool {
	if quest.DeletedAt != nil {
		return false
	}
	if filter.Status != "" && quest.Status != filter.Status {
		return false
	}
	if filter.Title != "" && !strings.Contains(strings.ToLower(quest.Title), strings.ToLower(filter.Title)) {
		return false
	}
	return true
}

func (r *FakeQuestRepository) List(ctx context.Context, filter repository.QuestFilter, offset, limit int) ([]*models.Quest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var quests []*models.Quest
	for _, quest := range r.quests {
		if r.matches(quest, filter) {
			copied := *quest
			quests = append(quests, &copied)
		}
	}
	sort.Slice(quests, func(i, j int) bool { return quests[i].CreatedAt.After(quests[j].CreatedAt) })
	return paginate(quests, offset, limit), nil
}

func (r *FakeQuestRepository) Count(ctx context.Context, filter repository.QuestFilter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, quest := range r.quests {
		if r.matches(quest, filter) {
			count++
		}
	}
	return count, nil
}

func (r *FakeQuestRepository) GetAllowedEmails(ctx context.Context, questID uuid.UUID) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	emails := make([]string, len(r.allowed[questID]))
	copy(emails, r.allowed[questID])
	sort.Strings(emails)
	return emails, nil
}

func (r *FakeQuestRepository) ReplaceAllowedEmails(ctx context.Context, questID uuid.UUID, emails []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := make([]string, len(emails))
	copy(copied, emails)
	r.allowed[questID] = copied
	return nil
}

// FakeQuestRequestRepository is an in-memory QuestRequestRepository
type FakeQuestRequestRepository struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*models.QuestRequest
}

// NewFakeQuestRequestRepository creates an empty fake quest-request repository
func NewFakeQuestRequestRepository() *FakeQuestRequestRepository {
	return &FakeQuestRequestRepository{requests: make(map[uuid.UUID]*models.QuestRequest)}
}

func (r *FakeQuestRequestRepository) Transaction(ctx context.Context, fn func(*sqlx.Tx) error) error {
	return fn(nil)
}

func (r *FakeQuestRequestRepository) Create(ctx context.Context, request *models.QuestRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *request
	r.requests[request.ID] = &copied
	return nil
}

func (r *FakeQuestRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.QuestRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	request, ok := r.requests[id]
	if !ok {
		return nil, nil
	}
	copied := *request
	return &copied, nil
}

func (r *FakeQuestRequestRepository) Update(ctx context.Context, request *models.QuestRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *request
	r.requests[request.ID] = &copied
	return nil
}

func (r *FakeQuestRequestRepository) UpdateTx(ctx context.Context, tx *sqlx.Tx, request *models.QuestRequest) error {
	return r.Update(ctx, request)
}

func (r *FakeQuestRequestRepository) matches(request *models.QuestRequest, filter repository.RequestFilter) bool {
	if filter.Status != "" && request.Status != filter.Status {
		return false
	}
	if filter.RequesterEmail != "" && request.RequesterEmail != filter.RequesterEmail {
		return false
	}
	return true
}

func (r *FakeQuestRequestRepository) Search(ctx context.Context, filter repository.RequestFilter, offset, limit int) ([]*models.QuestRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var requests []*models.QuestRequest
	for _, request := range r.requests {
		if r.matches(request, filter) {
			copied := *request
			requests = append(requests, &copied)
		}
	}
	sort.Slice(requests, func(i, j int) bool { return requests[i].CreatedAt.After(requests[j].CreatedAt) })
	return paginate(requests, offset, limit), nil
}

func (r *FakeQuestRequestRepository) Count(ctx context.Context, filter repository.RequestFilter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, request := range r.requests {
		if r.matches(request, filter) {
			count++
		}
	}
	return count, nil
}

// paginate applies offset/limit to a sorted slice
func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
