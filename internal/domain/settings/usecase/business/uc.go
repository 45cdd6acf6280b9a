package business

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Conte777/telegram-files/internal/domain/settings/deps"
	"github.com/Conte777/telegram-files/internal/domain/settings/entities"
	settingserrors "github.com/Conte777/telegram-files/internal/domain/settings/errors"
	pkgerrors "github.com/Conte777/telegram-files/pkg/errors"
	"github.com/rs/zerolog"
)

const maxSwapAttempts = 5

// UseCase exposes typed access to settings
type UseCase struct {
	repo   deps.SettingRepository
	logger zerolog.Logger
}

// NewUseCase creates a new settings use case
func NewUseCase(repo deps.SettingRepository, logger zerolog.Logger) *UseCase {
	return &UseCase{
		repo:   repo,
		logger: logger.With().Str("component", "settings").Logger(),
	}
}

func (uc *UseCase) value(ctx context.Context, key string) (string, error) {
	v, ok, err := uc.repo.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if !ok {
		def, _ := entities.Lookup(key)
		return def.Default, nil
	}
	return v, nil
}

func (uc *UseCase) boolValue(ctx context.Context, key string) (bool, error) {
	v, err := uc.value(ctx, key)
	if err != nil {
		return false, err
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		uc.logger.Warn().Str("key", key).Str("value", v).Msg("Invalid boolean setting, treating as false")
		return false, nil
	}
	return b, nil
}

func (uc *UseCase) UniqueOnly(ctx context.Context) (bool, error) {
	return uc.boolValue(ctx, entities.KeyUniqueOnly)
}

func (uc *UseCase) NeedToLoadImages(ctx context.Context) (bool, error) {
	return uc.boolValue(ctx, entities.KeyNeedToLoadImages)
}

func (uc *UseCase) ImageLoadSize(ctx context.Context) (string, error) {
	return uc.value(ctx, entities.KeyImageLoadSize)
}

func (uc *UseCase) AutoDownloadLimit(ctx context.Context) (int, error) {
	v, err := uc.value(ctx, entities.KeyAutoDownloadLimit)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		def, _ := entities.Lookup(entities.KeyAutoDownloadLimit)
		n, _ = strconv.Atoi(def.Default)
	}
	return n, nil
}

// AutoDownload returns the current auto-download chat set
func (uc *UseCase) AutoDownload(ctx context.Context) (*entities.AutoDownloadSetting, error) {
	raw, _, err := uc.repo.Get(ctx, entities.KeyAutoDownload)
	if err != nil {
		return nil, err
	}
	return decodeAutoDownload(raw)
}

func decodeAutoDownload(raw string) (*entities.AutoDownloadSetting, error) {
	setting := &entities.AutoDownloadSetting{}
	if raw == "" {
		return setting, nil
	}
	if err := json.Unmarshal([]byte(raw), setting); err != nil {
		return nil, pkgerrors.NewInternalErrorf("corrupt autoDownload setting: %v", err)
	}
	return setting, nil
}

// ToggleAutoDownload flips the membership of chatID for an account and
// returns the new state together with the encoded setting. The update is an
// optimistic compare-and-swap retried a few times.
func (uc *UseCase) ToggleAutoDownload(ctx context.Context, telegramID, chatID int64) (bool, string, error) {
	for attempt := 0; attempt < maxSwapAttempts; attempt++ {
		raw, exists, err := uc.repo.Get(ctx, entities.KeyAutoDownload)
		if err != nil {
			return false, "", err
		}

		setting, err := decodeAutoDownload(raw)
		if err != nil {
			return false, "", err
		}

		enabled := !setting.Exists(telegramID, chatID)
		if enabled {
			setting.Add(telegramID, chatID)
		} else {
			setting.Remove(telegramID, chatID)
		}

		encoded, err := json.Marshal(setting)
		if err != nil {
			return false, "", fmt.Errorf("failed to encode autoDownload setting: %w", err)
		}

		swapped, err := uc.repo.CompareAndSwap(ctx, entities.KeyAutoDownload, raw, exists, string(encoded))
		if err != nil {
			return false, "", err
		}
		if swapped {
			uc.logger.Info().
				Int64("telegram_id", telegramID).
				Int64("chat_id", chatID).
				Bool("enabled", enabled).
				Msg("Auto download toggled")
			return enabled, string(encoded), nil
		}

		uc.logger.Debug().Int("attempt", attempt+1).Msg("Concurrent autoDownload update, retrying")
	}

	return false, "", settingserrors.ErrConcurrentUpdate
}

// GetSettings returns values for keys (all public keys when empty),
// falling back to defaults for unset keys
func (uc *UseCase) GetSettings(ctx context.Context, keys []string) (map[string]string, error) {
	if len(keys) == 0 {
		for _, k := range entities.Keys() {
			if def, _ := entities.Lookup(k); !def.Internal {
				keys = append(keys, k)
			}
		}
	}

	for _, k := range keys {
		if _, ok := entities.Lookup(k); !ok {
			return nil, pkgerrors.NewValidationErrorf("%s: %s", settingserrors.ErrUnknownSetting.Error(), k)
		}
	}

	stored, err := uc.repo.GetMany(ctx, keys)
	if err != nil {
		return nil, err
	}

	result := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := stored[k]; ok {
			result[k] = v
			continue
		}
		def, _ := entities.Lookup(k)
		result[k] = def.Default
	}

	return result, nil
}

// UpdateSettings validates and stores a batch of values
func (uc *UseCase) UpdateSettings(ctx context.Context, values map[string]string) error {
	for k, v := range values {
		def, ok := entities.Lookup(k)
		if !ok {
			return pkgerrors.NewValidationErrorf("%s: %s", settingserrors.ErrUnknownSetting.Error(), k)
		}
		if def.Internal {
			return settingserrors.ErrReadOnlySetting
		}
		if err := def.Validate(v); err != nil {
			return pkgerrors.NewValidationErrorf("invalid value for %s: %v", k, err)
		}
	}

	for k, v := range values {
		if err := uc.repo.Upsert(ctx, k, v); err != nil {
			return err
		}
	}

	uc.logger.Info().Int("count", len(values)).Msg("Settings updated")
	return nil
}
