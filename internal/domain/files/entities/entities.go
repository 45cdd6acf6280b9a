package entities

import (
	"github.com/Conte777/telegram-files/internal/infrastructure/telegram/tdapi"
)

// File types as exposed to clients
const (
	TypePhoto = "photo"
	TypeVideo = "video"
	TypeAudio = "audio"
	TypeFile  = "file"
)

// DownloadStatus is the display state of a file, always derived from the backend
type DownloadStatus string

const (
	StatusIdle        DownloadStatus = "idle"
	StatusDownloading DownloadStatus = "downloading"
	StatusPaused      DownloadStatus = "paused"
	StatusCompleted   DownloadStatus = "completed"
	StatusError       DownloadStatus = "error"
)

// AllStatuses lists statuses in display order
var AllStatuses = []DownloadStatus{StatusIdle, StatusDownloading, StatusPaused, StatusCompleted, StatusError}

// FileRecord is the persisted metadata of a message file.
//
// ID is the backend file id and may be reassigned; UniqueID is stable.
// DownloadedSize is never read from storage.
type FileRecord struct {
	ID                  int32          `json:"id"`
	UniqueID            string         `json:"uniqueId"`
	TelegramID          int64          `json:"telegramId"`
	ChatID              int64          `json:"chatId"`
	MessageID           int64          `json:"messageId"`
	Date                int32          `json:"date"`
	HasSensitiveContent bool           `json:"hasSensitiveContent"`
	Size                int64          `json:"size"`
	DownloadedSize      int64          `json:"downloadedSize"`
	Type                string         `json:"type"`
	MimeType            string         `json:"mimeType"`
	FileName            string         `json:"fileName"`
	Thumbnail           string         `json:"thumbnail"`
	Caption             string         `json:"caption"`
	LocalPath           string         `json:"localPath"`
	DownloadStatus      DownloadStatus `json:"downloadStatus"`
}

// WithSourceField returns a copy carrying the live backend file id and
// downloaded size.
func (r FileRecord) WithSourceField(id int32, downloadedSize int64) FileRecord {
	r.ID = id
	r.DownloadedSize = downloadedSize
	return r
}

// StatusChange is what UpdateStatus actually changed
type StatusChange struct {
	DownloadStatus DownloadStatus
	LocalPath      string
}

// Statistics summarizes the downloads of one account
type Statistics struct {
	Total          int64                    `json:"total"`
	ByStatus       map[DownloadStatus]int64 `json:"byStatus"`
	CompletedBytes int64                    `json:"completedBytes"`
}

// DeriveDownloadStatus maps backend local file flags onto a DownloadStatus
func DeriveDownloadStatus(file *tdapi.File) DownloadStatus {
	if file == nil || file.Local == nil {
		return StatusIdle
	}
	local := file.Local
	switch {
	case local.IsDownloadingCompleted:
		return StatusCompleted
	case local.IsDownloadingActive:
		return StatusDownloading
	case local.DownloadedSize > 0:
		return StatusPaused
	case !local.CanBeDownloaded:
		return StatusError
	default:
		return StatusIdle
	}
}

// CompletedPath returns the local path only for fully downloaded files
func CompletedPath(file *tdapi.File) string {
	if file == nil || file.Local == nil || !file.Local.IsDownloadingCompleted {
		return ""
	}
	return file.Local.Path
}
