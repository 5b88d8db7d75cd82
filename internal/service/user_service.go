package service

import (
	"context"

	"task-manager-bot/internal/model"
	"task-manager-bot/internal/repository"
)

// UserService registers Telegram users on every interaction.
type UserService struct {
	users *repository.UserRepository
}

func NewUserService(users *repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// Register upserts the profile and seeds default categories for new users.
// Both happen in one transaction, so a user row never exists without its seed.
func (s *UserService) Register(ctx context.Context, u model.User) (*model.User, bool, error) {
	return s.users.UpsertWithSeed(ctx, u)
}

func (s *UserService) ListAll(ctx context.Context) ([]model.User, error) {
	return s.users.ListAll(ctx)
}
