package postgres

import (
	"context"
	"testing"

	"github.com/Conte777/telegram-files/internal/domain/files/entities"
	fileserrors "github.com/Conte777/telegram-files/internal/domain/files/errors"
	"github.com/Conte777/telegram-files/internal/infrastructure/database/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecord(id int32, uniqueID string, telegramID int64) *entities.FileRecord {
	return &entities.FileRecord{
		ID:             id,
		UniqueID:       uniqueID,
		TelegramID:     telegramID,
		ChatID:         -1001,
		MessageID:      int64(id) * 1024,
		Size:           1000,
		Type:           entities.TypePhoto,
		MimeType:       "image/jpeg",
		DownloadStatus: entities.StatusIdle,
	}
}

func TestRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(testdb.NewSQLite(t))

	created, err := repo.Create(ctx, newRecord(1, "A", 42))
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Create(ctx, newRecord(1, "A", 42))
	require.NoError(t, err)
	assert.False(t, created, "duplicate insert must be ignored")

	got, err := repo.GetByUniqueID(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, int32(1), got.ID)
	assert.Equal(t, int64(42), got.TelegramID)

	_, err = repo.GetByUniqueID(ctx, "missing")
	assert.ErrorIs(t, err, fileserrors.ErrFileNotFound)
}

func TestRepository_GetFilesByUniqueID(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(testdb.NewSQLite(t))

	for i, id := range []string{"A", "B", "C"} {
		_, err := repo.Create(ctx, newRecord(int32(i+1), id, 42))
		require.NoError(t, err)
	}

	got, err := repo.GetFilesByUniqueID(ctx, []string{"A", "C", "Z"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Contains(t, got, "A")
	assert.Contains(t, got, "C")

	empty, err := repo.GetFilesByUniqueID(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRepository_UpdateStatus_SuppressesNoop(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(testdb.NewSQLite(t))

	_, err := repo.Create(ctx, newRecord(7, "A", 42))
	require.NoError(t, err)

	change, err := repo.UpdateStatus(ctx, 7, "A", "", entities.StatusDownloading)
	require.NoError(t, err)
	require.NotNil(t, change)
	assert.Equal(t, entities.StatusDownloading, change.DownloadStatus)

	change, err = repo.UpdateStatus(ctx, 7, "A", "", entities.StatusDownloading)
	require.NoError(t, err)
	assert.Nil(t, change, "identical update must report no change")

	change, err = repo.UpdateStatus(ctx, 7, "A", "/data/a.jpg", entities.StatusCompleted)
	require.NoError(t, err)
	require.NotNil(t, change)
	assert.Equal(t, "/data/a.jpg", change.LocalPath)

	got, err := repo.GetByUniqueID(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, entities.StatusCompleted, got.DownloadStatus)
	assert.Equal(t, "/data/a.jpg", got.LocalPath)
}

func TestRepository_UpdateStatus_UnknownFile(t *testing.T) {
	repo := NewRepository(testdb.NewSQLite(t))

	change, err := repo.UpdateStatus(context.Background(), 1, "nope", "", entities.StatusPaused)
	require.NoError(t, err)
	assert.Nil(t, change)
}

func TestRepository_UpdateFileID(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(testdb.NewSQLite(t))

	_, err := repo.Create(ctx, newRecord(3, "A", 42))
	require.NoError(t, err)

	require.NoError(t, repo.UpdateFileID(ctx, 11, "A"))
	require.NoError(t, repo.UpdateFileID(ctx, 11, "A"))

	got, err := repo.GetByUniqueID(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, int32(11), got.ID)
}

func TestRepository_UpdateFileID_MergesStaleRows(t *testing.T) {
	ctx := context.Background()
	db := testdb.NewSQLite(t)
	repo := NewRepository(db)

	_, err := repo.Create(ctx, newRecord(3, "A", 42))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newRecord(7, "A", 42))
	require.NoError(t, err)

	require.NoError(t, repo.UpdateFileID(ctx, 7, "A"))

	var models []entities.FileRecordModel
	require.NoError(t, db.Where("unique_id = ?", "A").Find(&models).Error)
	require.Len(t, models, 1)
	assert.Equal(t, int32(7), models[0].ID)

	require.NoError(t, repo.UpdateFileID(ctx, 12, "A"))
	got, err := repo.GetByUniqueID(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, int32(12), got.ID)
}

func TestRepository_UpdateStatus_MatchesFileID(t *testing.T) {
	ctx := context.Background()
	db := testdb.NewSQLite(t)
	repo := NewRepository(db)

	_, err := repo.Create(ctx, newRecord(3, "A", 42))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newRecord(7, "A", 43))
	require.NoError(t, err)

	change, err := repo.UpdateStatus(ctx, 7, "A", "", entities.StatusDownloading)
	require.NoError(t, err)
	require.NotNil(t, change)

	var other entities.FileRecordModel
	require.NoError(t, db.Where("id = ? AND unique_id = ?", 3, "A").First(&other).Error)
	assert.Equal(t, string(entities.StatusIdle), other.DownloadStatus)

	var updated entities.FileRecordModel
	require.NoError(t, db.Where("id = ? AND unique_id = ?", 7, "A").First(&updated).Error)
	assert.Equal(t, string(entities.StatusDownloading), updated.DownloadStatus)
}

func TestRepository_UpdateStatus_StaleFileID(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(testdb.NewSQLite(t))

	_, err := repo.Create(ctx, newRecord(3, "A", 42))
	require.NoError(t, err)

	change, err := repo.UpdateStatus(ctx, 9, "A", "/data/a.jpg", entities.StatusCompleted)
	require.NoError(t, err)
	require.NotNil(t, change)

	got, err := repo.GetByUniqueID(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, entities.StatusCompleted, got.DownloadStatus)
	assert.Equal(t, "/data/a.jpg", got.LocalPath)
}

func TestRepository_Statistics(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(testdb.NewSQLite(t))

	statuses := []entities.DownloadStatus{entities.StatusCompleted, entities.StatusCompleted, entities.StatusDownloading}
	for i, s := range statuses {
		r := newRecord(int32(i+1), string(rune('A'+i)), 42)
		r.DownloadStatus = s
		_, err := repo.Create(ctx, r)
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, newRecord(99, "other", 7))
	require.NoError(t, err)

	stats, err := repo.GetDownloadStatistics(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.ByStatus[entities.StatusCompleted])
	assert.Equal(t, int64(1), stats.ByStatus[entities.StatusDownloading])
	assert.Equal(t, int64(0), stats.ByStatus[entities.StatusError])
	assert.Equal(t, int64(2000), stats.CompletedBytes)

	active, err := repo.CountByStatus(ctx, 42, entities.StatusDownloading)
	require.NoError(t, err)
	assert.Equal(t, int64(1), active)
}
