package repository

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"task-manager-bot/internal/model"
)

//go:embed seed/categories.yaml
var defaultCategoriesYAML []byte

type seedFile struct {
	Categories []struct {
		Name  string `yaml:"name"`
		Emoji string `yaml:"emoji"`
	} `yaml:"categories"`
}

// DefaultCategories returns the seed set given to every new user.
func DefaultCategories() ([]model.Category, error) {
	var seed seedFile
	if err := yaml.Unmarshal(defaultCategoriesYAML, &seed); err != nil {
		return nil, fmt.Errorf("parse category seed: %w", err)
	}
	out := make([]model.Category, 0, len(seed.Categories))
	for _, c := range seed.Categories {
		emoji := c.Emoji
		if emoji == "" {
			emoji = model.DefaultCategoryEmoji
		}
		out = append(out, model.Category{Name: c.Name, Emoji: emoji})
	}
	return out, nil
}

// CategoryRepository manages task categories.
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Add inserts the category unless (user, name) already exists.
// created is false for duplicates.
func (r *CategoryRepository) Add(ctx context.Context, userID int64, name, emoji string) (bool, error) {
	category := model.Category{UserID: userID, Name: name, Emoji: emoji}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&category)
	if res.Error != nil {
		return false, fmt.Errorf("create category: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Seed inserts the default set for a user, skipping names already present.
func (r *CategoryRepository) Seed(ctx context.Context, userID int64) error {
	defaults, err := DefaultCategories()
	if err != nil {
		return err
	}
	for i := range defaults {
		defaults[i].UserID = userID
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&defaults).Error; err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	return nil
}

func (r *CategoryRepository) ListByUser(ctx context.Context, userID int64) ([]model.Category, error) {
	var categories []model.Category
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, userID int64, id uint) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// Delete removes the category row only; tasks keep their category name.
func (r *CategoryRepository) Delete(ctx context.Context, userID int64, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).Delete(&model.Category{})
	if res.Error != nil {
		return false, fmt.Errorf("delete category: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
