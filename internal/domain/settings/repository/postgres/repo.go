package postgres

import (
	"context"
	"errors"

	"github.com/Conte777/telegram-files/internal/domain/settings/deps"
	"github.com/Conte777/telegram-files/internal/domain/settings/entities"
	pkgerrors "github.com/Conte777/telegram-files/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository implements deps.SettingRepository using gorm
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new settings repository
func NewRepository(db *gorm.DB) deps.SettingRepository {
	return &Repository{db: db}
}

func (r *Repository) Get(ctx context.Context, key string) (string, bool, error) {
	var model entities.SettingRecordModel
	if err := r.db.WithContext(ctx).
		Where("key = ?", key).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, pkgerrors.NewPersistenceError("get setting", err)
	}

	return model.Value, true, nil
}

func (r *Repository) GetMany(ctx context.Context, keys []string) (map[string]string, error) {
	values := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return values, nil
	}

	var models []entities.SettingRecordModel
	if err := r.db.WithContext(ctx).
		Where("key IN ?", keys).
		Find(&models).Error; err != nil {
		return nil, pkgerrors.NewPersistenceError("get settings", err)
	}

	for _, m := range models {
		values[m.Key] = m.Value
	}

	return values, nil
}

func (r *Repository) Upsert(ctx context.Context, key, value string) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).
		Create(&entities.SettingRecordModel{Key: key, Value: value})
	if result.Error != nil {
		return pkgerrors.NewPersistenceError("upsert setting", result.Error)
	}

	return nil
}

func (r *Repository) CompareAndSwap(ctx context.Context, key, oldValue string, exists bool, newValue string) (bool, error) {
	if !exists {
		result := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&entities.SettingRecordModel{Key: key, Value: newValue})
		if result.Error != nil {
			return false, pkgerrors.NewPersistenceError("insert setting", result.Error)
		}
		return result.RowsAffected == 1, nil
	}

	result := r.db.WithContext(ctx).
		Model(&entities.SettingRecordModel{}).
		Where("key = ? AND value = ?", key, oldValue).
		Update("value", newValue)
	if result.Error != nil {
		return false, pkgerrors.NewPersistenceError("update setting", result.Error)
	}

	return result.RowsAffected == 1, nil
}
