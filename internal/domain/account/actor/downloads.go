package actor

import (
	"context"
	"encoding/json"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/Conte777/telegram-files/internal/domain/account/entities"
	accounterrors "github.com/Conte777/telegram-files/internal/domain/account/errors"
	eventsentities "github.com/Conte777/telegram-files/internal/domain/events/entities"
	"github.com/Conte777/telegram-files/internal/domain/files/content"
	filesentities "github.com/Conte777/telegram-files/internal/domain/files/entities"
	fileserrors "github.com/Conte777/telegram-files/internal/domain/files/errors"
	"github.com/Conte777/telegram-files/internal/infrastructure/telegram/tdapi"
)

// downloadPriority is used for every user initiated download
const downloadPriority = 32

// telegramID returns the id of an authorized account with a stored profile
func (a *Actor) telegramID() (int64, error) {
	s := a.snap()
	if !s.authorized {
		return 0, accounterrors.ErrNotAuthorized
	}
	if s.account == nil {
		return 0, accounterrors.ErrProfileNotLoaded
	}
	return s.account.ID, nil
}

// StartDownload queues the file of a message. Files that are completed,
// active, partially present or not downloadable are rejected.
func (a *Actor) StartDownload(ctx context.Context, chatID, messageID int64, fileID int32) error {
	telegramID, err := a.telegramID()
	if err != nil {
		return err
	}

	var (
		file *tdapi.File
		msg  *tdapi.Message
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		file, err = Send[*tdapi.File](a.gateway, &tdapi.GetFile{FileID: fileID}).Await(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		msg, err = Send[*tdapi.Message](a.gateway, &tdapi.GetMessage{ChatID: chatID, MessageID: messageID}).Await(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if err := checkStartable(file); err != nil {
		return err
	}

	handler, err := content.Resolve(msg)
	if err != nil {
		return err
	}

	if err := a.bindRecord(ctx, handler.Record(telegramID)); err != nil {
		return err
	}

	if _, err := Send[tdapi.Object](a.gateway, &tdapi.AddFileToDownloads{
		FileID:    fileID,
		ChatID:    chatID,
		MessageID: messageID,
		Priority:  downloadPriority,
	}).Await(ctx); err != nil {
		return err
	}

	a.deps.Metrics.RecordDownloadStarted()
	a.logger.Info().
		Int32("file_id", fileID).
		Int64("chat_id", chatID).
		Int64("message_id", messageID).
		Msg("Download started")
	a.publishFileStatus(fileID, string(filesentities.StatusDownloading), "")
	return nil
}

func checkStartable(file *tdapi.File) error {
	local := file.Local
	switch {
	case local == nil:
		return fileserrors.ErrCannotBeDownloaded
	case local.IsDownloadingCompleted:
		return fileserrors.ErrAlreadyDownloaded
	case local.IsDownloadingActive:
		return fileserrors.ErrDownloading
	case local.DownloadedSize > 0:
		return fileserrors.ErrPartiallyDownloaded
	case !local.CanBeDownloaded:
		return fileserrors.ErrCannotBeDownloaded
	}
	return nil
}

// StartMessageDownload starts the file carried by a message
func (a *Actor) StartMessageDownload(ctx context.Context, chatID, messageID int64) error {
	msg, err := Send[*tdapi.Message](a.gateway, &tdapi.GetMessage{ChatID: chatID, MessageID: messageID}).Await(ctx)
	if err != nil {
		return err
	}

	handler, err := content.Resolve(msg)
	if err != nil {
		return err
	}

	return a.StartDownload(ctx, chatID, messageID, handler.File().ID)
}

// CancelDownload stops an active download
func (a *Actor) CancelDownload(ctx context.Context, fileID int32) error {
	file, err := Send[*tdapi.File](a.gateway, &tdapi.GetFile{FileID: fileID}).Await(ctx)
	if err != nil {
		return err
	}

	if file.Local == nil || !file.Local.IsDownloadingActive {
		return fileserrors.ErrNotDownloading
	}

	if _, err := Send[tdapi.Object](a.gateway, &tdapi.CancelDownloadFile{FileID: fileID}).Await(ctx); err != nil {
		return err
	}

	a.logger.Info().Int32("file_id", fileID).Msg("Download cancelled")
	a.publishFileStatus(fileID, string(filesentities.StatusIdle), "")
	return nil
}

// TogglePauseDownload pauses an active download or resumes a paused one
func (a *Actor) TogglePauseDownload(ctx context.Context, fileID int32, pause bool) error {
	file, err := Send[*tdapi.File](a.gateway, &tdapi.GetFile{FileID: fileID}).Await(ctx)
	if err != nil {
		return err
	}

	if uniqueID := file.UniqueID(); uniqueID != "" {
		if err := a.deps.Files.UpdateFileID(ctx, file.ID, uniqueID); err != nil {
			return err
		}
	}

	if err := checkPausable(file, pause); err != nil {
		return err
	}

	if _, err := Send[tdapi.Object](a.gateway, &tdapi.ToggleDownloadIsPaused{FileID: fileID, IsPaused: pause}).Await(ctx); err != nil {
		return err
	}

	status := filesentities.StatusDownloading
	if pause {
		status = filesentities.StatusPaused
	}
	a.logger.Info().Int32("file_id", fileID).Bool("pause", pause).Msg("Download toggled")
	a.publishFileStatus(fileID, string(status), "")
	return nil
}

func checkPausable(file *tdapi.File, pause bool) error {
	local := file.Local
	if local == nil {
		return fileserrors.ErrNotStarted
	}
	if pause {
		if !local.IsDownloadingActive {
			return fileserrors.ErrNotDownloading
		}
		return nil
	}
	if local.IsDownloadingActive {
		return fileserrors.ErrDownloading
	}
	if local.DownloadedSize == 0 || local.IsDownloadingCompleted {
		return fileserrors.ErrNotPaused
	}
	return nil
}

// LoadPreview returns the local path of a downloaded message preview, or
// downloads it and returns its file id once done
func (a *Actor) LoadPreview(ctx context.Context, chatID, messageID int64) (*entities.Preview, error) {
	telegramID, err := a.telegramID()
	if err != nil {
		return nil, err
	}

	enabled, err := a.deps.Settings.NeedToLoadImages(ctx)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return nil, fileserrors.ErrImageLoadingDisabled
	}

	size, err := a.deps.Settings.ImageLoadSize(ctx)
	if err != nil {
		return nil, err
	}

	msg, err := Send[*tdapi.Message](a.gateway, &tdapi.GetMessage{ChatID: chatID, MessageID: messageID}).Await(ctx)
	if err != nil {
		return nil, err
	}

	handler, err := content.Resolve(msg)
	if err != nil {
		return nil, err
	}

	preview, ok := handler.Preview(size)
	if !ok {
		return nil, fileserrors.ErrNoPreview
	}

	if path := filesentities.CompletedPath(preview); path != "" && fileExists(path) {
		return &entities.Preview{LocalPath: path}, nil
	}

	if preview.ID == handler.File().ID {
		if err := a.bindRecord(ctx, handler.Record(telegramID)); err != nil {
			return nil, err
		}
	}

	file, err := Send[*tdapi.File](a.gateway, &tdapi.DownloadFile{
		FileID:      preview.ID,
		Priority:    downloadPriority,
		Synchronous: true,
	}).Await(ctx)
	if err != nil {
		a.logger.Warn().Err(err).Int32("file_id", preview.ID).Msg("Preview download failed")
		return nil, err
	}

	id := preview.ID
	if file != nil {
		id = file.ID
	}
	return &entities.Preview{FileID: id}, nil
}

// bindRecord stores record, or points the record already stored for its
// unique id at the current file id
func (a *Actor) bindRecord(ctx context.Context, record filesentities.FileRecord) error {
	stored, err := a.deps.Files.GetByUniqueID(ctx, record.UniqueID)
	if err == nil {
		if stored.ID == record.ID {
			return nil
		}
		return a.deps.Files.UpdateFileID(ctx, record.ID, record.UniqueID)
	}
	if !errors.Is(err, fileserrors.ErrFileNotFound) {
		return err
	}
	_, err = a.deps.Files.Create(ctx, &record)
	return err
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ToggleAutoDownload flips automatic download of a chat and announces the
// new setting to the whole process
func (a *Actor) ToggleAutoDownload(ctx context.Context, chatID int64) (bool, error) {
	telegramID, err := a.telegramID()
	if err != nil {
		return false, err
	}

	enabled, setting, err := a.deps.Settings.ToggleAutoDownload(ctx, telegramID, chatID)
	if err != nil {
		return false, err
	}

	if a.deps.Broker != nil {
		payload, err := json.Marshal(eventsentities.AutoDownloadUpdated{Setting: setting})
		if err != nil {
			return enabled, err
		}
		if err := a.deps.Broker.Notify(ctx, eventsentities.TopicAutoDownloadUpdated, payload); err != nil {
			a.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("Failed to announce auto download update")
		}
	}

	return enabled, nil
}

// DownloadStatistics summarizes the stored files of the account
func (a *Actor) DownloadStatistics(ctx context.Context) (*filesentities.Statistics, error) {
	telegramID, err := a.telegramID()
	if err != nil {
		return nil, err
	}
	return a.deps.Files.GetDownloadStatistics(ctx, telegramID)
}
