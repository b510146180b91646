package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"social-feed/internal/auth"
	"social-feed/internal/domain"
	"social-feed/internal/repository"
)

var (
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrValidation indicates a field failed its minimum-shape constraints.
	ErrValidation = errors.New("validation failed, entered data is incorrect")
	// ErrNoImage indicates a post mutation arrived without an image reference.
	ErrNoImage = errors.New("no image provided")
	// ErrForbidden indicates the caller does not own the targeted post.
	ErrForbidden = errors.New("not authorized to modify other users content")
)

// UserService describes user lifecycle and profile operations.
type UserService interface {
	Register(ctx context.Context, name, email, password string) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetStatus(ctx context.Context, id string) (string, error)
	SetStatus(ctx context.Context, id, status string) error
	AppendPost(ctx context.Context, userID, postID string) error
	RemovePost(ctx context.Context, userID, postID string) error
}

type userService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) UserService {
	return &userService{users: users}
}

func (s *userService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	password = strings.TrimSpace(password)

	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if !strings.Contains(email, "@") || strings.ContainsAny(email, " \t") {
		return nil, fmt.Errorf("%w: please enter a valid email", ErrValidation)
	}
	if len(password) < 5 {
		return nil, fmt.Errorf("%w: password must be at least 5 characters", ErrValidation)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Status:       domain.DefaultStatus,
	}

	// Uniqueness is enforced by the store; a concurrent signup with the
	// same email loses the insert race and still surfaces as a duplicate.
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	email = normalizeEmail(email)
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return sanitizeUser(user), nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

func (s *userService) GetStatus(ctx context.Context, id string) (string, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return user.Status, nil
}

func (s *userService) SetStatus(ctx context.Context, id, status string) error {
	return s.users.UpdateStatus(ctx, id, status)
}

func (s *userService) AppendPost(ctx context.Context, userID, postID string) error {
	return s.users.AppendPost(ctx, userID, postID)
}

func (s *userService) RemovePost(ctx context.Context, userID, postID string) error {
	return s.users.RemovePost(ctx, userID, postID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Status:    user.Status,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
		PostIDs:   user.PostIDs,
	}
}
