package repository

import (
	"context"
	"errors"

	"sharefit/internal/cache"
	"sharefit/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	// Mutate loads the user under a row lock, applies fn and saves the
	// result in the same transaction. An error from fn aborts the write.
	Mutate(ctx context.Context, id uint, fn func(*models.User) error) (*models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// GetByID serves cached profiles. Fields hidden from JSON, such as the
// password hash and TOTP secrets, are empty on a cache hit; read them through
// GetByUsername or Mutate.
func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	key := cache.UserKey(id)

	err := cache.Aside(ctx, key, &user, cache.UserTTL, func() error {
		if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUsername returns (nil, nil) when no user has that exact username.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Username already taken")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) Mutate(ctx context.Context, id uint, fn func(*models.User) error) (*models.User, error) {
	var user models.User
	key := cache.UserKey(id)
	published := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", id)
			}
			return models.NewInternalError(err)
		}
		if err := fn(&user); err != nil {
			return err
		}
		if err := tx.Save(&user).Error; err != nil {
			if isUniqueConstraintError(err) {
				return models.NewConflictError("Username already taken")
			}
			return models.NewInternalError(err)
		}

		cache.Publish(ctx, key, &user, cache.UserTTL)
		published = true
		return nil
	})
	if err != nil {
		if published {
			cache.Invalidate(ctx, key)
		}
		return nil, err
	}
	return &user, nil
}
