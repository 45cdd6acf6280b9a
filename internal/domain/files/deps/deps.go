package deps

import (
	"context"

	"github.com/Conte777/telegram-files/internal/domain/files/entities"
)

// FileRepository persists file metadata shared by all accounts
type FileRepository interface {
	// Create inserts the record; it returns false if (id, unique id) already exists
	Create(ctx context.Context, record *entities.FileRecord) (bool, error)
	GetByUniqueID(ctx context.Context, uniqueID string) (*entities.FileRecord, error)
	GetFilesByUniqueID(ctx context.Context, uniqueIDs []string) (map[string]*entities.FileRecord, error)
	// UpdateStatus returns nil when nothing changed
	UpdateStatus(ctx context.Context, id int32, uniqueID, localPath string, status entities.DownloadStatus) (*entities.StatusChange, error)
	// UpdateFileID points the record of uniqueID at the current backend file id
	UpdateFileID(ctx context.Context, id int32, uniqueID string) error
	GetDownloadStatistics(ctx context.Context, telegramID int64) (*entities.Statistics, error)
	CountByStatus(ctx context.Context, telegramID int64, status entities.DownloadStatus) (int64, error)
}

// FileTransfer copies a completed local file to external storage
type FileTransfer interface {
	Transfer(ctx context.Context, record *entities.FileRecord) error
}
