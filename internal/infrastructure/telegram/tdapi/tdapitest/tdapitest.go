// Package tdapitest provides an in-memory backend client and message
// builders for tests.
package tdapitest

import (
	"sync"

	"github.com/Conte777/telegram-files/internal/infrastructure/telegram/tdapi"
)

// Responder produces the result of a request
type Responder func(req tdapi.Function) tdapi.Object

// Client is a scripted tdapi.Client. Requests without a responder get an
// *tdapi.Ok result.
type Client struct {
	mu         sync.Mutex
	responders map[string]Responder
	sent       []tdapi.Function
	updates    chan tdapi.Update
	closed     bool
}

var _ tdapi.Client = (*Client)(nil)

// NewClient creates a client with a buffered update channel
func NewClient() *Client {
	return &Client{
		responders: make(map[string]Responder),
		updates:    make(chan tdapi.Update, 64),
	}
}

// On registers the responder for a request type tag
func (c *Client) On(requestType string, r Responder) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responders[requestType] = r
	return c
}

// Reply registers a fixed result for a request type tag
func (c *Client) Reply(requestType string, result tdapi.Object) *Client {
	return c.On(requestType, func(tdapi.Function) tdapi.Object { return result })
}

func (c *Client) Send(req tdapi.Function, handler tdapi.ResultHandler) {
	c.mu.Lock()
	c.sent = append(c.sent, req)
	r, ok := c.responders[req.Type()]
	c.mu.Unlock()

	go func() {
		if !ok {
			handler(&tdapi.Ok{})
			return
		}
		handler(r(req))
	}()
}

func (c *Client) Updates() <-chan tdapi.Update {
	return c.updates
}

// Push delivers an update as if the backend had sent it
func (c *Client) Push(u tdapi.Update) {
	c.updates <- u
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.updates)
	}
	return nil
}

// Sent returns the requests sent so far
func (c *Client) Sent() []tdapi.Function {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]tdapi.Function(nil), c.sent...)
}

// Count returns how many requests of a type were sent
func (c *Client) Count(requestType string) int {
	n := 0
	for _, req := range c.Sent() {
		if req.Type() == requestType {
			n++
		}
	}
	return n
}

// NewFile builds a downloadable file that has not been started
func NewFile(id int32, uniqueID string, size int64) *tdapi.File {
	return &tdapi.File{
		ID:   id,
		Size: size,
		Local: &tdapi.LocalFile{
			CanBeDownloaded: true,
		},
		Remote: &tdapi.RemoteFile{
			ID:       uniqueID + "-remote",
			UniqueID: uniqueID,
		},
	}
}

// Downloading marks f as actively downloading with n bytes present
func Downloading(f *tdapi.File, n int64) *tdapi.File {
	f.Local.IsDownloadingActive = true
	f.Local.DownloadedSize = n
	return f
}

// Paused marks f as stopped with n bytes present
func Paused(f *tdapi.File, n int64) *tdapi.File {
	f.Local.IsDownloadingActive = false
	f.Local.DownloadedSize = n
	return f
}

// Completed marks f as fully downloaded at path
func Completed(f *tdapi.File, path string) *tdapi.File {
	f.Local.IsDownloadingActive = false
	f.Local.IsDownloadingCompleted = true
	f.Local.DownloadedSize = f.Size
	f.Local.Path = path
	return f
}

// PhotoMessage builds a photo message; the last size is the full photo
func PhotoMessage(chatID, messageID int64, sizes ...*tdapi.PhotoSize) *tdapi.Message {
	return &tdapi.Message{
		ID:     messageID,
		ChatID: chatID,
		Date:   1700000000,
		Content: &tdapi.MessagePhoto{
			Photo:   &tdapi.Photo{Sizes: sizes, Minithumbnail: []byte{0xff, 0xd8}},
			Caption: "photo caption",
		},
	}
}

// PhotoSize builds one photo rendition
func PhotoSize(letter string, f *tdapi.File) *tdapi.PhotoSize {
	return &tdapi.PhotoSize{Type: letter, Photo: f, Width: 100, Height: 100}
}

func VideoMessage(chatID, messageID int64, f *tdapi.File, thumb *tdapi.File) *tdapi.Message {
	v := &tdapi.Video{FileName: "clip.mp4", MimeType: "video/mp4", Video: f}
	if thumb != nil {
		v.Thumbnail = &tdapi.Thumbnail{File: thumb}
	}
	return &tdapi.Message{ID: messageID, ChatID: chatID, Date: 1700000000, Content: &tdapi.MessageVideo{Video: v}}
}

func AudioMessage(chatID, messageID int64, f *tdapi.File) *tdapi.Message {
	return &tdapi.Message{
		ID:      messageID,
		ChatID:  chatID,
		Date:    1700000000,
		Content: &tdapi.MessageAudio{Audio: &tdapi.Audio{FileName: "song.mp3", MimeType: "audio/mpeg", Audio: f}},
	}
}

func DocumentMessage(chatID, messageID int64, f *tdapi.File) *tdapi.Message {
	return &tdapi.Message{
		ID:      messageID,
		ChatID:  chatID,
		Date:    1700000000,
		Content: &tdapi.MessageDocument{Document: &tdapi.Document{FileName: "report.pdf", MimeType: "application/pdf", Document: f}},
	}
}

func TextMessage(chatID, messageID int64) *tdapi.Message {
	return &tdapi.Message{ID: messageID, ChatID: chatID, Date: 1700000000, Content: &tdapi.MessageText{Text: "hello"}}
}
