package tdapi

// Update is a backend push.
type Update interface {
	Object
	update()
}

type UpdateAuthorizationState struct {
	AuthorizationState AuthorizationState `json:"authorization_state"`
}

type UpdateFile struct {
	File *File `json:"file"`
}

// UpdateFileDownloads summarizes the download list.
type UpdateFileDownloads struct {
	TotalSize      int64 `json:"total_size"`
	TotalCount     int   `json:"total_count"`
	DownloadedSize int64 `json:"downloaded_size"`
}

type UpdateNewMessage struct {
	Message *Message `json:"message"`
}

func (*UpdateAuthorizationState) Type() string { return "updateAuthorizationState" }
func (*UpdateFile) Type() string               { return "updateFile" }
func (*UpdateFileDownloads) Type() string      { return "updateFileDownloads" }
func (*UpdateNewMessage) Type() string         { return "updateNewMessage" }

func (*UpdateAuthorizationState) update() {}
func (*UpdateFile) update()               {}
func (*UpdateFileDownloads) update()      {}
func (*UpdateNewMessage) update()         {}
