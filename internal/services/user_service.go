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
	ErrUserAlreadyExists = errors.New("user with this username or email already exists")
	ErrInvalidEmail      = errors.New("invalid email format")
	ErrWeakPassword      = errors.New("password is too weak")
)

// Minimum password length
const MinPasswordLength = 8

// Email validation regex
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// UserService handles user-related business logic
type UserService interface {
	CreateUser(ctx context.Context, username, email, password, name string, isAdmin bool) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ChangePassword(ctx context.Context, id uuid.UUID, currentPassword, newPassword string) error
	ListUsers(ctx context.Context, page, pageSize int) ([]*models.User, int, error)
}

type userService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new UserService
func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{
		userRepo: userRepo,
	}
}

// CreateUser creates a new staff account
func (s *userService) CreateUser(ctx context.Context, username, email, password, name string, isAdmin bool) (*models.User, error) {
	if !emailRegex.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	existing, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		existing, err = s.userRepo.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
	}
	if existing != nil {
		return nil, ErrUserAlreadyExists
	}

	user, err := models.NewUser(username, email, password, name)
	if err != nil {
		return nil, err
	}
	user.IsAdmin = isAdmin

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email (allow-list lookup)
func (s *userService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// ChangePassword verifies the current password and sets a new one
func (s *userService) ChangePassword(ctx context.Context, id uuid.UUID, currentPassword, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return ErrWeakPassword
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	if !user.CheckPassword(currentPassword) {
		return ErrInvalidCredentials
	}

	if err := user.UpdatePassword(newPassword); err != nil {
		return err
	}

	return s.userRepo.Update(ctx, user)
}

// ListUsers retrieves a page of users
func (s *userService) ListUsers(ctx context.Context, page, pageSize int) ([]*models.User, int, error) {
	offset := (page - 1) * pageSize

	users, err := s.userRepo.List(ctx, offset, pageSize)
	if err != nil {
		return nil, 0, err
	}

	totalCount, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	return users, totalCount, nil
}
