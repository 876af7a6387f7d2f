package service

import (
	"context"

	"clientzap/internal/model"
	"clientzap/internal/repository"

	"github.com/rs/zerolog"
)

// UserService defines user-related business logic.
type UserService interface {
	// CreateUser provisions a local user record with free/inactive defaults.
	// Calling it again for an existing user is a no-op.
	CreateUser(ctx context.Context, userID, name, email string) (*model.User, error)
	GetUserByID(ctx context.Context, userID string) (*model.User, error)
}

type userService struct {
	repo   repository.UserRepository
	logger zerolog.Logger
}

// NewUserService creates a new UserService with a scoped logger.
func NewUserService(repo repository.UserRepository, logger zerolog.Logger) UserService {
	return &userService{
		repo:   repo,
		logger: logger.With().Str("service", "UserService").Logger(),
	}
}

func (s *userService) CreateUser(ctx context.Context, userID, name, email string) (*model.User, error) {
	u := &model.User{UserID: userID, Name: name, Email: email}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to create user")
		return nil, err
	}
	return s.repo.GetUserByID(ctx, userID)
}

func (s *userService) GetUserByID(ctx context.Context, userID string) (*model.User, error) {
	return s.repo.GetUserByID(ctx, userID)
}
