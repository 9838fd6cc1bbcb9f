package app

import (
	"context"

	"freshscan/internal/domain/entity"
	"freshscan/internal/domain/port"
)

// UserService выбор активного модуля оператора
type UserService struct {
	repo port.UserRepository
}

func NewUserService(repo port.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.repo.Get(ctx, userID, chatID)
}

// SelectModule делает модуль активным для команд и фото оператора.
func (s *UserService) SelectModule(ctx context.Context, userID, chatID int64, id entity.ModuleID) (*entity.User, error) {
	if _, err := entity.LookupModule(id); err != nil {
		return nil, err
	}

	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SelectModule(ctx, userID, id); err != nil {
		return nil, err
	}
	user.SelectModule(id)

	return user, nil
}
