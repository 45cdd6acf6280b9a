package entities

import (
	"path/filepath"
	"strings"
	"time"

	filesentities "github.com/Conte777/telegram-files/internal/domain/files/entities"
)

// RootDirPrefix prefixes the data directory of every account
const RootDirPrefix = "account-"

// Account is an authorized Telegram account bound to its data directory
type Account struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"firstName"`
	RootPath  string    `json:"rootPath"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RootID identifies an account before it is authorized: the suffix of its
// root directory name after the last '-'
func RootID(rootPath string) string {
	base := filepath.Base(filepath.Clean(rootPath))
	if i := strings.LastIndex(base, "-"); i >= 0 {
		return base[i+1:]
	}
	return base
}

// Status tells whether an account can serve requests
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Profile is the client view of an account
type Profile struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
	Status    Status `json:"status"`
	IsPremium bool   `json:"isPremium"`
	RootPath  string `json:"rootPath,omitempty"`
	// LastAuthorizationState is set while the account is not authorized
	LastAuthorizationState interface{} `json:"lastAuthorizationState,omitempty"`
}

// Chat is the client view of a chat
type Chat struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Avatar      string `json:"avatar,omitempty"`
	UnreadCount int    `json:"unreadCount"`
	AutoEnabled bool   `json:"autoEnabled"`
}

// FileQuery selects a page of chat files
type FileQuery struct {
	Type          string
	Search        string
	FromMessageID int64
	Offset        int
	Limit         int
}

// ChatFiles is a page of chat files. Count is the backend total, Size the
// number of files in this page.
type ChatFiles struct {
	Files             []filesentities.FileRecord `json:"files"`
	Count             int                        `json:"count"`
	Size              int                        `json:"size"`
	NextFromMessageID int64                      `json:"nextFromMessageId"`
}

// Preview is either a ready local path or the id of a file being loaded
type Preview struct {
	FileID    int32  `json:"fileId,omitempty"`
	LocalPath string `json:"localPath,omitempty"`
}
