package service

import (
	"context"
	"fmt"

	"github.com/velora-labs/video-api/internal/models"
	"github.com/velora-labs/video-api/internal/repository"
)

type UserService interface {
	GetUserInfo(ctx context.Context, id int64) (*models.User, error)
}

type userService struct {
	u repository.UserRepository
}

func NewUserService(u repository.UserRepository) UserService {
	return &userService{
		u: u,
	}
}

func (s *userService) GetUserInfo(ctx context.Context, id int64) (*models.User, error) {
	user, isExist, err := s.u.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting user info: %w", err)
	}

	if !isExist {
		return nil, fmt.Errorf("%w: user %d", ErrNotFound, id)
	}

	return user, nil
}
