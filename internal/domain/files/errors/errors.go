package errors

import (
	pkgerrors "github.com/Conte777/telegram-files/pkg/errors"
)

var (
	ErrFileNotFound         = pkgerrors.NewNotFoundError("file record not found")
	ErrAlreadyDownloaded    = pkgerrors.NewPreconditionError("file already downloaded")
	ErrDownloading          = pkgerrors.NewPreconditionError("file is downloading")
	ErrNotDownloading       = pkgerrors.NewPreconditionError("file is not downloading")
	ErrNotStarted           = pkgerrors.NewPreconditionError("file not started downloading")
	ErrNotPaused            = pkgerrors.NewPreconditionError("file is not paused")
	ErrPartiallyDownloaded  = pkgerrors.NewPreconditionError("file is partially downloaded, resume it instead")
	ErrCannotBeDownloaded   = pkgerrors.NewPreconditionError("file can not be downloaded")
	ErrNoPreview            = pkgerrors.NewPreconditionError("message has no preview")
	ErrImageLoadingDisabled = pkgerrors.NewFeatureDisabledError("need to load images is disabled")
)
