package deps

import (
	"context"

	"github.com/Conte777/telegram-files/internal/domain/settings/entities"
)

// SettingRepository is the key/value store of settings
type SettingRepository interface {
	// Get returns the stored value and whether the key exists
	Get(ctx context.Context, key string) (string, bool, error)
	GetMany(ctx context.Context, keys []string) (map[string]string, error)
	Upsert(ctx context.Context, key, value string) error
	// CompareAndSwap writes newValue only if the stored value is still oldValue
	// (or, with exists false, if the key is still absent)
	CompareAndSwap(ctx context.Context, key, oldValue string, exists bool, newValue string) (bool, error)
}

// SettingsService is the typed settings surface used by accounts and the HTTP layer
type SettingsService interface {
	UniqueOnly(ctx context.Context) (bool, error)
	NeedToLoadImages(ctx context.Context) (bool, error)
	ImageLoadSize(ctx context.Context) (string, error)
	AutoDownloadLimit(ctx context.Context) (int, error)
	AutoDownload(ctx context.Context) (*entities.AutoDownloadSetting, error)
	ToggleAutoDownload(ctx context.Context, telegramID, chatID int64) (bool, string, error)
	GetSettings(ctx context.Context, keys []string) (map[string]string, error)
	UpdateSettings(ctx context.Context, values map[string]string) error
}
