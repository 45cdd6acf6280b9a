package content

import (
	"github.com/Conte777/telegram-files/internal/domain/files/entities"
	"github.com/Conte777/telegram-files/internal/infrastructure/telegram/tdapi"
)

type photo struct {
	msg     *tdapi.Message
	content *tdapi.MessagePhoto
}

func newPhoto(msg *tdapi.Message) (Handler, bool) {
	c, ok := msg.Content.(*tdapi.MessagePhoto)
	if !ok || c.Photo == nil || len(c.Photo.Sizes) == 0 {
		return nil, false
	}
	return &photo{msg: msg, content: c}, true
}

// File is the largest rendition
func (p *photo) File() *tdapi.File {
	sizes := p.content.Photo.Sizes
	return sizes[len(sizes)-1].Photo
}

func (p *photo) Record(telegramID int64) entities.FileRecord {
	r := baseRecord(p.msg, p.File(), telegramID, entities.TypePhoto)
	r.HasSensitiveContent = p.content.HasSpoiler
	r.MimeType = "image/jpeg"
	r.Thumbnail = thumbnail(p.content.Photo.Minithumbnail)
	r.Caption = p.content.Caption
	return r
}

// Preview picks the rendition with the exact size letter, falling back to
// the smallest one.
func (p *photo) Preview(size string) (*tdapi.File, bool) {
	for _, s := range p.content.Photo.Sizes {
		if s.Type == size && s.Photo != nil {
			return s.Photo, true
		}
	}
	first := p.content.Photo.Sizes[0]
	return first.Photo, first.Photo != nil
}

type video struct {
	msg     *tdapi.Message
	content *tdapi.MessageVideo
}

func newVideo(msg *tdapi.Message) (Handler, bool) {
	c, ok := msg.Content.(*tdapi.MessageVideo)
	if !ok || c.Video == nil {
		return nil, false
	}
	return &video{msg: msg, content: c}, true
}

func (v *video) File() *tdapi.File { return v.content.Video.Video }

func (v *video) Record(telegramID int64) entities.FileRecord {
	r := baseRecord(v.msg, v.File(), telegramID, entities.TypeVideo)
	r.HasSensitiveContent = v.content.HasSpoiler
	r.MimeType = v.content.Video.MimeType
	r.FileName = v.content.Video.FileName
	r.Thumbnail = thumbnail(v.content.Video.Minithumbnail)
	r.Caption = v.content.Caption
	return r
}

func (v *video) Preview(string) (*tdapi.File, bool) {
	return thumbnailFile(v.content.Video.Thumbnail)
}

type audio struct {
	msg     *tdapi.Message
	content *tdapi.MessageAudio
}

func newAudio(msg *tdapi.Message) (Handler, bool) {
	c, ok := msg.Content.(*tdapi.MessageAudio)
	if !ok || c.Audio == nil {
		return nil, false
	}
	return &audio{msg: msg, content: c}, true
}

func (a *audio) File() *tdapi.File { return a.content.Audio.Audio }

func (a *audio) Record(telegramID int64) entities.FileRecord {
	r := baseRecord(a.msg, a.File(), telegramID, entities.TypeAudio)
	r.MimeType = a.content.Audio.MimeType
	r.FileName = a.content.Audio.FileName
	r.Caption = a.content.Caption
	return r
}

func (a *audio) Preview(string) (*tdapi.File, bool) {
	return thumbnailFile(a.content.Audio.AlbumCoverThumbnail)
}

type document struct {
	msg     *tdapi.Message
	content *tdapi.MessageDocument
}

func newDocument(msg *tdapi.Message) (Handler, bool) {
	c, ok := msg.Content.(*tdapi.MessageDocument)
	if !ok || c.Document == nil {
		return nil, false
	}
	return &document{msg: msg, content: c}, true
}

func (d *document) File() *tdapi.File { return d.content.Document.Document }

func (d *document) Record(telegramID int64) entities.FileRecord {
	r := baseRecord(d.msg, d.File(), telegramID, entities.TypeFile)
	r.MimeType = d.content.Document.MimeType
	r.FileName = d.content.Document.FileName
	r.Thumbnail = thumbnail(d.content.Document.Minithumbnail)
	r.Caption = d.content.Caption
	return r
}

func (d *document) Preview(string) (*tdapi.File, bool) {
	return thumbnailFile(d.content.Document.Thumbnail)
}
