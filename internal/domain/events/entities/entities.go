package entities

import "encoding/json"

// Type is the kind of an event sent to a session
type Type string

const (
	TypeAuthorization Type = "authorization"
	TypeFile          Type = "file"
	TypeFileDownload  Type = "file-download"
	TypeFileStatus    Type = "file-status"
	TypeMethodResult  Type = "method-result"
	TypeError         Type = "error"
)

// Envelope is the JSON shape of every session event. Code is set only for
// results of dynamic commands.
type Envelope struct {
	Type Type        `json:"type"`
	Code string      `json:"code,omitempty"`
	Data interface{} `json:"data"`
}

// Encode renders the envelope as JSON
func (e Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// FileStatus is the payload of a file-status event
type FileStatus struct {
	FileID         int32  `json:"fileId"`
	DownloadStatus string `json:"downloadStatus"`
	LocalPath      string `json:"localPath,omitempty"`
}

// Topic names a process-wide notification stream
type Topic string

const (
	TopicAutoDownloadUpdated Topic = "auto-download-updated"
	TopicMessageReceived     Topic = "message-received"
)

// AutoDownloadUpdated carries the encoded autoDownload setting after a toggle
type AutoDownloadUpdated struct {
	Setting string `json:"setting"`
}

// MessageReceived announces a new message seen by an account
type MessageReceived struct {
	TelegramID int64 `json:"telegramId"`
	ChatID     int64 `json:"chatId"`
	MessageID  int64 `json:"messageId"`
}
