package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/weiawesome/user-avatar-service/internal/domain"
)

// GormAvatarRepository implements AvatarRepository using GORM.
type GormAvatarRepository struct {
	db *gorm.DB
}

// NewGormAvatarRepository creates a new GORM-based avatar repository.
func NewGormAvatarRepository(db *gorm.DB) *GormAvatarRepository {
	return &GormAvatarRepository{db: db}
}

// Find retrieves the avatar record for a user.
func (r *GormAvatarRepository) Find(ctx context.Context, userID string) (*domain.AvatarRecord, error) {
	if err := validateKey(userID); err != nil {
		return nil, err
	}

	var model domain.AvatarModel
	result := r.db.WithContext(ctx).First(&model, "user_id = ?", userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// Insert creates the avatar record. The primary key on user_id rejects a
// second record for the same user.
func (r *GormAvatarRepository) Insert(ctx context.Context, record *domain.AvatarRecord) error {
	if err := validateKey(record.UserID); err != nil {
		return err
	}

	model := domain.AvatarToModel(record)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err)
	}

	record.CreatedAt = model.CreatedAt
	return nil
}

// Delete removes the avatar record for a user.
func (r *GormAvatarRepository) Delete(ctx context.Context, userID string) error {
	if err := validateKey(userID); err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Delete(&domain.AvatarModel{}, "user_id = ?", userID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// translateError converts unique-constraint violations to ErrDuplicateKey.
// Drivers with error translation return gorm.ErrDuplicatedKey; the string
// checks cover drivers that do not.
func translateError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateKey
	}

	errStr := err.Error()

	// PostgreSQL / SQLite
	if strings.Contains(errStr, "duplicate key") || strings.Contains(errStr, "UNIQUE constraint") {
		return ErrDuplicateKey
	}

	// MySQL
	if strings.Contains(errStr, "Duplicate entry") {
		return ErrDuplicateKey
	}

	return err
}
