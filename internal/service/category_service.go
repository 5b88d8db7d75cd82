package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"task-manager-bot/internal/model"
	"task-manager-bot/internal/repository"
)

var ErrInvalidCategory = errors.New("invalid category")

// CategoryService provides helpers around categories.
type CategoryService struct {
	repo *repository.CategoryRepository
}

func NewCategoryService(repo *repository.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

func (s *CategoryService) List(ctx context.Context, userID int64) ([]model.Category, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *CategoryService) Get(ctx context.Context, userID int64, id uint) (*model.Category, error) {
	return s.repo.GetByID(ctx, userID, id)
}

// Add creates a category; false means the user already has one with that name.
func (s *CategoryService) Add(ctx context.Context, userID int64, name, emoji string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > 64 {
		return false, fmt.Errorf("%w: name must have 1-64 characters", ErrInvalidCategory)
	}
	emoji = strings.TrimSpace(emoji)
	if emoji == "" {
		emoji = model.DefaultCategoryEmoji
	}
	return s.repo.Add(ctx, userID, name, emoji)
}

func (s *CategoryService) Delete(ctx context.Context, userID int64, id uint) (bool, error) {
	return s.repo.Delete(ctx, userID, id)
}

// FindByName matches ignoring case and accents.
func (s *CategoryService) FindByName(ctx context.Context, userID int64, name string) (*model.Category, error) {
	categories, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range categories {
		if model.FoldEqual(categories[i].Name, name) {
			return &categories[i], nil
		}
	}
	return nil, nil
}
