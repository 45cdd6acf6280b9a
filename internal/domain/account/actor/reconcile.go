package actor

import (
	"github.com/Conte777/telegram-files/internal/domain/events/entities"
	filesentities "github.com/Conte777/telegram-files/internal/domain/files/entities"
	"github.com/Conte777/telegram-files/internal/infrastructure/telegram/tdapi"
)

// reconcileLoop persists pushed file states one at a time so that storage
// writes never stall the actor goroutine
func (a *Actor) reconcileLoop() {
	for {
		select {
		case file := <-a.reconcile:
			a.deps.Metrics.ReconcileQueueDepth.Dec()
			a.reconcileFile(file)
		case <-a.ctx.Done():
			return
		}
	}
}

// reconcileFile writes the derived status of file and publishes a
// file-status event only when the stored record actually changed
func (a *Actor) reconcileFile(file *tdapi.File) {
	uniqueID := file.UniqueID()
	if uniqueID == "" {
		return
	}

	status := filesentities.DeriveDownloadStatus(file)
	path := filesentities.CompletedPath(file)

	change, err := a.deps.Files.UpdateStatus(a.ctx, file.ID, uniqueID, path, status)
	if err != nil {
		if a.ctx.Err() == nil {
			a.logger.Error().Err(err).Int32("file_id", file.ID).Str("unique_id", uniqueID).Msg("Failed to reconcile file status")
		}
		return
	}
	if change == nil {
		return
	}

	a.deps.Metrics.RecordDownloadTransition(string(change.DownloadStatus))
	a.logger.Debug().
		Int32("file_id", file.ID).
		Str("status", string(change.DownloadStatus)).
		Msg("File status changed")
	a.publish(entities.TypeFileStatus, "", entities.FileStatus{
		FileID:         file.ID,
		DownloadStatus: string(change.DownloadStatus),
		LocalPath:      change.LocalPath,
	})

	if change.DownloadStatus == filesentities.StatusCompleted && a.deps.Transfer != nil {
		go a.transfer(uniqueID)
	}
}

func (a *Actor) transfer(uniqueID string) {
	record, err := a.deps.Files.GetByUniqueID(a.ctx, uniqueID)
	if err != nil {
		a.logger.Error().Err(err).Str("unique_id", uniqueID).Msg("Failed to load completed file for transfer")
		return
	}

	if err := a.deps.Transfer.Transfer(a.ctx, record); err != nil {
		a.logger.Error().Err(err).Str("unique_id", uniqueID).Msg("Failed to transfer completed file")
		return
	}
	a.logger.Info().Str("unique_id", uniqueID).Str("local_path", record.LocalPath).Msg("Completed file transferred")
}
