package service

import (
	"context"
	"errors"
	"strings"

	"stepable/internal/model"
	"stepable/internal/repository"
)

var ErrUserNotFound = errors.New("user not found")

type UserService interface {
	// Upsert creates or refreshes the profile of the signed-in user.
	Upsert(ctx context.Context, u *model.User) (*model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
}

type userService struct {
	userRepo        repository.UserRepository
	defaultLanguage string
}

func NewUserService(userRepo repository.UserRepository, defaultLanguage string) UserService {
	return &userService{userRepo: userRepo, defaultLanguage: defaultLanguage}
}

func (s *userService) Upsert(ctx context.Context, u *model.User) (*model.User, error) {
	if strings.TrimSpace(u.Language) == "" {
		u.Language = s.defaultLanguage
	}
	if err := s.userRepo.UpsertUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *userService) Get(ctx context.Context, id string) (*model.User, error) {
	u, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}
