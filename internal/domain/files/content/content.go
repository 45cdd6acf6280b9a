// Package content converts backend message payloads into file records.
//
// Each supported payload kind has a Handler selected by the payload's type
// tag; anything without a handler is reported as unsupported content.
package content

import (
	"encoding/base64"

	"github.com/Conte777/telegram-files/internal/domain/files/entities"
	"github.com/Conte777/telegram-files/internal/infrastructure/telegram/tdapi"
	pkgerrors "github.com/Conte777/telegram-files/pkg/errors"
)

// Handler exposes the downloadable file of a message
type Handler interface {
	// File is the primary file of the message
	File() *tdapi.File
	// Record builds the file record of the message for an account
	Record(telegramID int64) entities.FileRecord
	// Preview returns the file to show as preview for a photo size letter
	Preview(size string) (*tdapi.File, bool)
}

type builder func(msg *tdapi.Message) (Handler, bool)

var builders = map[string]builder{
	(&tdapi.MessagePhoto{}).Type():    newPhoto,
	(&tdapi.MessageVideo{}).Type():    newVideo,
	(&tdapi.MessageAudio{}).Type():    newAudio,
	(&tdapi.MessageDocument{}).Type(): newDocument,
}

// Supported reports whether msg carries a file payload
func Supported(msg *tdapi.Message) bool {
	if msg == nil || msg.Content == nil {
		return false
	}
	_, ok := builders[msg.Content.Type()]
	return ok
}

// Resolve returns the handler for the payload of msg
func Resolve(msg *tdapi.Message) (Handler, error) {
	if msg == nil || msg.Content == nil {
		return nil, pkgerrors.NewUnsupportedContentError("empty")
	}

	build, ok := builders[msg.Content.Type()]
	if !ok {
		return nil, pkgerrors.NewUnsupportedContentError(msg.Content.Type())
	}

	h, ok := build(msg)
	if !ok || h.File() == nil {
		return nil, pkgerrors.NewUnsupportedContentError(msg.Content.Type())
	}
	return h, nil
}

// UniqueID returns the stable id of the message file or "" if there is none
func UniqueID(msg *tdapi.Message) string {
	h, err := Resolve(msg)
	if err != nil {
		return ""
	}
	return h.File().UniqueID()
}

// FileID returns the backend id of the message file or 0 if there is none
func FileID(msg *tdapi.Message) int32 {
	h, err := Resolve(msg)
	if err != nil {
		return 0
	}
	return h.File().ID
}

// UniqueIDs collects the known unique ids of msgs
func UniqueIDs(msgs []*tdapi.Message) []string {
	ids := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		if id := UniqueID(msg); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// FilterUnique drops every message whose file was already seen earlier in
// msgs. Messages without a file are kept.
func FilterUnique(msgs []*tdapi.Message) []*tdapi.Message {
	seen := make(map[string]struct{}, len(msgs))
	out := make([]*tdapi.Message, 0, len(msgs))
	for _, msg := range msgs {
		id := UniqueID(msg)
		if id != "" {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
		}
		out = append(out, msg)
	}
	return out
}

func thumbnail(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString(data)
}

func fileSize(f *tdapi.File) int64 {
	if f.Size > 0 {
		return f.Size
	}
	return f.ExpectedSize
}

// DownloadedSize returns the bytes of f present locally
func DownloadedSize(f *tdapi.File) int64 {
	if f.Local == nil {
		return 0
	}
	return f.Local.DownloadedSize
}

// baseRecord fills the fields shared by all kinds
func baseRecord(msg *tdapi.Message, file *tdapi.File, telegramID int64, fileType string) entities.FileRecord {
	return entities.FileRecord{
		ID:             file.ID,
		UniqueID:       file.UniqueID(),
		TelegramID:     telegramID,
		ChatID:         msg.ChatID,
		MessageID:      msg.ID,
		Date:           msg.Date,
		Size:           fileSize(file),
		DownloadedSize: DownloadedSize(file),
		Type:           fileType,
		LocalPath:      entities.CompletedPath(file),
		DownloadStatus: entities.DeriveDownloadStatus(file),
	}
}

func thumbnailFile(t *tdapi.Thumbnail) (*tdapi.File, bool) {
	if t == nil || t.File == nil {
		return nil, false
	}
	return t.File, true
}
