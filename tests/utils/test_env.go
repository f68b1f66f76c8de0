package utils

import (
	"context"
	"testing"
	"time"

	"github.com/calebmorris/questdesk/internal/models"
	"github.com/calebmorris/questdesk/internal/services"
)

// TestPassword is the known password for users created through the env
const TestPassword = "password123"

// TestJWTSecret signs tokens in the test environment
const TestJWTSecret = "test-secret-key"

// TestEnv provides a complete hermetic test environment backed by the
// in-memory repository fakes
type TestEnv struct {
	T                   *testing.T
	Ctx                 context.Context
	UserRepository      *FakeUserRepository
	QuestRepository     *FakeQuestRepository
	RequestRepository   *FakeQuestRequestRepository
	AuthService         services.AuthService
	UserService         services.UserService
	QuestService        services.QuestService
	QuestRequestService services.QuestRequestService
}

// NewTestEnv creates a new test environment
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	userRepo := NewFakeUserRepository()
	questRepo := NewFakeQuestRepository()
	requestRepo := NewFakeQuestRequestRepository()

	return &TestEnv{
		T:                   t,
		Ctx:                 ctx,
		UserRepository:      userRepo,
		QuestRepository:     questRepo,
		RequestRepository:   requestRepo,
		AuthService:         services.NewAuthService(userRepo, TestJWTSecret, time.Hour, 7*24*time.Hour),
		UserService:         services.NewUserService(userRepo),
		QuestService:        services.NewQuestService(questRepo, userRepo),
		QuestRequestService: services.NewQuestRequestService(requestRepo, questRepo, userRepo),
	}
}

// CreateTestUser creates a user with the known test password
func (e *TestEnv) CreateTestUser(username string, isAdmin bool) *models.User {
	e.T.Helper()

	user, err := models.NewUser(username, username+"@example.com", TestPassword, "Test "+username)
	if err != nil {
		e.T.Fatalf("Failed to create test user: %v", err)
	}
	user.IsAdmin = isAdmin

	if err := e.UserRepository.Create(e.Ctx, user); err != nil {
		e.T.Fatalf("Failed to store test user: %v", err)
	}

	return user
}

// AccessTokenFor logs the user in and returns a valid access token
func (e *TestEnv) AccessTokenFor(user *models.User) string {
	e.T.Helper()

	_, tokens, err := e.AuthService.Login(e.Ctx, user.Username, TestPassword)
	if err != nil {
		e.T.Fatalf("Failed to log in test user: %v", err)
	}

	return tokens.AccessToken
}

// CreateTestQuest creates a draft quest with the given title and slug
func (e *TestEnv) CreateTestQuest(title, slug string) *models.Quest {
	e.T.Helper()

	quest, err := e.QuestService.CreateQuest(e.Ctx, models.NewQuest(title, slug, "<p>"+title+"</p>", 100))
	if err != nil {
		e.T.Fatalf("Failed to create test quest: %v", err)
	}

	return quest
}

// CreateTestRequest creates a pending quest request
func (e *TestEnv) CreateTestRequest(title, email string) *models.QuestRequest {
	e.T.Helper()

	request, err := e.QuestRequestService.CreateRequest(e.Ctx, title, "requested: "+title, email)
	if err != nil {
		e.T.Fatalf("Failed to create test quest request: %v", err)
	}

	return request
}
