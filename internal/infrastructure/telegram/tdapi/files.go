package tdapi

// File is the live state of a backend file.
type File struct {
	ID           int32       `json:"id"`
	Size         int64       `json:"size"`
	ExpectedSize int64       `json:"expected_size"`
	Local        *LocalFile  `json:"local"`
	Remote       *RemoteFile `json:"remote"`
}

func (*File) Type() string { return "file" }

// UniqueID returns the stable content identifier or "" if unknown.
func (f *File) UniqueID() string {
	if f == nil || f.Remote == nil {
		return ""
	}
	return f.Remote.UniqueID
}

type LocalFile struct {
	Path                   string `json:"path"`
	CanBeDownloaded        bool   `json:"can_be_downloaded"`
	IsDownloadingActive    bool   `json:"is_downloading_active"`
	IsDownloadingCompleted bool   `json:"is_downloading_completed"`
	DownloadedSize         int64  `json:"downloaded_size"`
}

type RemoteFile struct {
	ID       string `json:"id"`
	UniqueID string `json:"unique_id"`
}

// PhotoSize is one rendition of a photo. Type is the size letter
// (s, m, x, y, w, a, b, c, d, i).
type PhotoSize struct {
	Type   string `json:"type"`
	Photo  *File  `json:"photo"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type Photo struct {
	Sizes         []*PhotoSize `json:"sizes"`
	Minithumbnail []byte       `json:"minithumbnail,omitempty"`
}

type Thumbnail struct {
	File   *File `json:"file"`
	Width  int   `json:"width"`
	Height int   `json:"height"`
}

type Video struct {
	Duration      int        `json:"duration"`
	Width         int        `json:"width"`
	Height        int        `json:"height"`
	FileName      string     `json:"file_name"`
	MimeType      string     `json:"mime_type"`
	Minithumbnail []byte     `json:"minithumbnail,omitempty"`
	Thumbnail     *Thumbnail `json:"thumbnail"`
	Video         *File      `json:"video"`
}

type Audio struct {
	Duration            int        `json:"duration"`
	Title               string     `json:"title"`
	Performer           string     `json:"performer"`
	FileName            string     `json:"file_name"`
	MimeType            string     `json:"mime_type"`
	AlbumCoverThumbnail *Thumbnail `json:"album_cover_thumbnail"`
	Audio               *File      `json:"audio"`
}

type Document struct {
	FileName      string     `json:"file_name"`
	MimeType      string     `json:"mime_type"`
	Minithumbnail []byte     `json:"minithumbnail,omitempty"`
	Thumbnail     *Thumbnail `json:"thumbnail"`
	Document      *File      `json:"document"`
}

type GetFile struct {
	FileID int32 `json:"file_id"`
}

// DownloadFile starts a download. With Synchronous set the result arrives
// once the file is fully downloaded.
type DownloadFile struct {
	FileID      int32 `json:"file_id"`
	Priority    int   `json:"priority"`
	Offset      int64 `json:"offset"`
	Limit       int64 `json:"limit"`
	Synchronous bool  `json:"synchronous"`
}

// AddFileToDownloads queues the file of a message in the download list.
type AddFileToDownloads struct {
	FileID    int32 `json:"file_id"`
	ChatID    int64 `json:"chat_id"`
	MessageID int64 `json:"message_id"`
	Priority  int   `json:"priority"`
}

type CancelDownloadFile struct {
	FileID        int32 `json:"file_id"`
	OnlyIfPending bool  `json:"only_if_pending"`
}

type ToggleDownloadIsPaused struct {
	FileID   int32 `json:"file_id"`
	IsPaused bool  `json:"is_paused"`
}

func (*GetFile) Type() string                { return "getFile" }
func (*DownloadFile) Type() string           { return "downloadFile" }
func (*AddFileToDownloads) Type() string     { return "addFileToDownloads" }
func (*CancelDownloadFile) Type() string     { return "cancelDownloadFile" }
func (*ToggleDownloadIsPaused) Type() string { return "toggleDownloadIsPaused" }

func (*GetFile) function()                {}
func (*DownloadFile) function()           {}
func (*AddFileToDownloads) function()     {}
func (*CancelDownloadFile) function()     {}
func (*ToggleDownloadIsPaused) function() {}
