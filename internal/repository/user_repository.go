package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"task-manager-bot/internal/model"
)

// UserRepository handles CRUD for users.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert creates the user on first contact and refreshes the profile
// afterwards. created reports whether the row is new.
func (r *UserRepository) Upsert(ctx context.Context, u model.User) (*model.User, bool, error) {
	var user model.User
	db := r.db.WithContext(ctx)
	err := db.Where("id = ?", u.ID).First(&user).Error
	switch {
	case err == nil:
		updates := map[string]interface{}{
			"username":   u.Username,
			"first_name": u.FirstName,
			"last_name":  u.LastName,
		}
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			return nil, false, fmt.Errorf("update user: %w", err)
		}
		return &user, false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = model.User{
			ID:        u.ID,
			Username:  u.Username,
			FirstName: u.FirstName,
			LastName:  u.LastName,
		}
		if err := db.Create(&user).Error; err != nil {
			return nil, false, fmt.Errorf("create user: %w", err)
		}
		return &user, true, nil
	default:
		return nil, false, fmt.Errorf("find user: %w", err)
	}
}

// UpsertWithSeed runs Upsert and, for a new user, seeds the default
// categories in the same transaction. A failed seed leaves no user row.
func (r *UserRepository) UpsertWithSeed(ctx context.Context, u model.User) (*model.User, bool, error) {
	var (
		user    *model.User
		created bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		user, created, err = NewUserRepository(tx).Upsert(ctx, u)
		if err != nil || !created {
			return err
		}
		return NewCategoryRepository(tx).Seed(ctx, user.ID)
	})
	if err != nil {
		return nil, false, err
	}
	return user, created, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) ListAll(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
