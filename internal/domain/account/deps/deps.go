package deps

import (
	"context"

	"github.com/Conte777/telegram-files/internal/domain/account/entities"
	filesentities "github.com/Conte777/telegram-files/internal/domain/files/entities"
	"github.com/Conte777/telegram-files/internal/infrastructure/telegram/tdapi"
)

// AccountRepository persists authorized accounts
type AccountRepository interface {
	// Create returns ErrAccountAlreadyExists when the id or root path is taken
	Create(ctx context.Context, account *entities.Account) error
	GetByID(ctx context.Context, id int64) (*entities.Account, error)
	GetByRootPath(ctx context.Context, rootPath string) (*entities.Account, error)
	List(ctx context.Context) ([]*entities.Account, error)
	Delete(ctx context.Context, id int64) error
}

// ClientFactory opens the backend client of an account root
type ClientFactory interface {
	Open(rootPath string) (tdapi.Client, error)
}

// Account is a running account actor
type Account interface {
	RootID() string
	TelegramID() int64
	Authorized() bool

	Profile(ctx context.Context) (*entities.Profile, error)
	BindSession(ctx context.Context, sessionID string) error

	GetChats(ctx context.Context, pinnedChatID int64, query string) ([]entities.Chat, error)
	GetChatFiles(ctx context.Context, chatID int64, query entities.FileQuery) (*entities.ChatFiles, error)
	GetChatFilesCount(ctx context.Context, chatID int64) (map[string]int, error)

	LoadPreview(ctx context.Context, chatID, messageID int64) (*entities.Preview, error)
	StartDownload(ctx context.Context, chatID, messageID int64, fileID int32) error
	// StartMessageDownload starts the primary file of a message
	StartMessageDownload(ctx context.Context, chatID, messageID int64) error
	CancelDownload(ctx context.Context, fileID int32) error
	TogglePauseDownload(ctx context.Context, fileID int32, pause bool) error
	ToggleAutoDownload(ctx context.Context, chatID int64) (bool, error)
	DownloadStatistics(ctx context.Context) (*filesentities.Statistics, error)

	// RunRawCommand sends a named backend request and returns the code that
	// tags its result event
	RunRawCommand(method string, params []byte) (string, error)
}

// AccountManager owns the running accounts
type AccountManager interface {
	Create(ctx context.Context) (Account, error)
	// Get finds an account by root id or telegram id
	Get(id string) (Account, error)
	GetByTelegramID(telegramID int64) (Account, error)
	List() []Account
	Remove(ctx context.Context, id string) error
	Counts() (active, total int)
}
