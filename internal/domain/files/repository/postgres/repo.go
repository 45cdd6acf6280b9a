package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Conte777/telegram-files/internal/domain/files/deps"
	"github.com/Conte777/telegram-files/internal/domain/files/entities"
	fileserrors "github.com/Conte777/telegram-files/internal/domain/files/errors"
	pkgerrors "github.com/Conte777/telegram-files/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository implements deps.FileRepository on top of gorm.
// It runs against PostgreSQL and SQLite alike.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new file record repository
func NewRepository(db *gorm.DB) deps.FileRepository {
	return &Repository{db: db}
}

// Create inserts a file record, ignoring duplicates
func (r *Repository) Create(ctx context.Context, record *entities.FileRecord) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(entities.NewFileRecordModel(record))
	if result.Error != nil {
		return false, pkgerrors.NewPersistenceError("create file record", result.Error)
	}

	return result.RowsAffected > 0, nil
}

// GetByUniqueID retrieves a record by its stable content id
func (r *Repository) GetByUniqueID(ctx context.Context, uniqueID string) (*entities.FileRecord, error) {
	var model entities.FileRecordModel
	if err := r.db.WithContext(ctx).
		Where("unique_id = ?", uniqueID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fileserrors.ErrFileNotFound
		}
		return nil, pkgerrors.NewPersistenceError("get file record", err)
	}

	return model.ToEntity(), nil
}

// GetFilesByUniqueID loads all records whose unique id is in uniqueIDs
func (r *Repository) GetFilesByUniqueID(ctx context.Context, uniqueIDs []string) (map[string]*entities.FileRecord, error) {
	records := make(map[string]*entities.FileRecord, len(uniqueIDs))
	if len(uniqueIDs) == 0 {
		return records, nil
	}

	var models []entities.FileRecordModel
	if err := r.db.WithContext(ctx).
		Where("unique_id IN ?", uniqueIDs).
		Find(&models).Error; err != nil {
		return nil, pkgerrors.NewPersistenceError("get file records", err)
	}

	for i := range models {
		records[models[i].UniqueID] = models[i].ToEntity()
	}

	return records, nil
}

// UpdateStatus applies a derived status and local path. An empty localPath
// keeps the stored one. The record is matched on (id, uniqueID); a record
// still stored under an older file id of uniqueID is updated instead.
func (r *Repository) UpdateStatus(ctx context.Context, id int32, uniqueID, localPath string, status entities.DownloadStatus) (*entities.StatusChange, error) {
	var change *entities.StatusChange

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model, err := findRecord(tx, id, uniqueID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		updates := map[string]interface{}{}
		if model.DownloadStatus != string(status) {
			updates["download_status"] = string(status)
		}
		if localPath != "" && model.LocalPath != localPath {
			updates["local_path"] = localPath
		}
		if len(updates) == 0 {
			return nil
		}

		result := tx.Model(&entities.FileRecordModel{}).
			Where("id = ? AND unique_id = ?", model.ID, uniqueID).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}

		change = &entities.StatusChange{DownloadStatus: status, LocalPath: model.LocalPath}
		if localPath != "" {
			change.LocalPath = localPath
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.NewPersistenceError(fmt.Sprintf("update status of file %d", id), err)
	}

	return change, nil
}

// findRecord prefers the exact (id, uniqueID) row
func findRecord(tx *gorm.DB, id int32, uniqueID string) (*entities.FileRecordModel, error) {
	var model entities.FileRecordModel
	err := tx.Where("id = ? AND unique_id = ?", id, uniqueID).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = tx.Where("unique_id = ?", uniqueID).Order("id").First(&model).Error
	}
	if err != nil {
		return nil, err
	}
	return &model, nil
}

// UpdateFileID rewrites the stored file id of uniqueID. Rows left behind
// under other ids of the same unique id are merged into the kept one.
func (r *Repository) UpdateFileID(ctx context.Context, id int32, uniqueID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		keep, err := findRecord(tx, id, uniqueID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		if err := tx.Where("unique_id = ? AND id <> ?", uniqueID, keep.ID).
			Delete(&entities.FileRecordModel{}).Error; err != nil {
			return err
		}
		if keep.ID == id {
			return nil
		}

		return tx.Model(&entities.FileRecordModel{}).
			Where("id = ? AND unique_id = ?", keep.ID, uniqueID).
			Update("id", id).Error
	})
	if err != nil {
		return pkgerrors.NewPersistenceError("update file id", err)
	}

	return nil
}

type statusCount struct {
	DownloadStatus string
	Count          int64
	Bytes          int64
}

// GetDownloadStatistics counts records of an account per status
func (r *Repository) GetDownloadStatistics(ctx context.Context, telegramID int64) (*entities.Statistics, error) {
	var rows []statusCount
	if err := r.db.WithContext(ctx).
		Model(&entities.FileRecordModel{}).
		Select("download_status, COUNT(*) AS count, COALESCE(SUM(size), 0) AS bytes").
		Where("telegram_id = ?", telegramID).
		Group("download_status").
		Scan(&rows).Error; err != nil {
		return nil, pkgerrors.NewPersistenceError("download statistics", err)
	}

	stats := &entities.Statistics{ByStatus: make(map[entities.DownloadStatus]int64, len(entities.AllStatuses))}
	for _, s := range entities.AllStatuses {
		stats.ByStatus[s] = 0
	}
	for _, row := range rows {
		status := entities.DownloadStatus(row.DownloadStatus)
		stats.ByStatus[status] += row.Count
		stats.Total += row.Count
		if status == entities.StatusCompleted {
			stats.CompletedBytes = row.Bytes
		}
	}

	return stats, nil
}

// CountByStatus counts records of an account with the given status
func (r *Repository) CountByStatus(ctx context.Context, telegramID int64, status entities.DownloadStatus) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.FileRecordModel{}).
		Where("telegram_id = ? AND download_status = ?", telegramID, string(status)).
		Count(&count).Error; err != nil {
		return 0, pkgerrors.NewPersistenceError("count file records", err)
	}

	return count, nil
}
