package telegram

import (
	"sort"

	"github.com/gotd/td/tg"

	"github.com/Conte777/telegram-files/internal/infrastructure/telegram/fileid"
	"github.com/Conte777/telegram-files/internal/infrastructure/telegram/tdapi"
)

// searchFilter maps a search filter to its MTProto counterpart
func searchFilter(f tdapi.SearchMessagesFilter) (tg.MessagesFilterClass, bool) {
	switch f {
	case "", tdapi.FilterEmpty:
		return &tg.InputMessagesFilterEmpty{}, true
	case tdapi.FilterPhotoAndVideo:
		return &tg.InputMessagesFilterPhotoVideo{}, true
	case tdapi.FilterPhoto:
		return &tg.InputMessagesFilterPhotos{}, true
	case tdapi.FilterVideo:
		return &tg.InputMessagesFilterVideo{}, true
	case tdapi.FilterAudio:
		return &tg.InputMessagesFilterMusic{}, true
	case tdapi.FilterDocument:
		return &tg.InputMessagesFilterDocument{}, true
	}
	return nil, false
}

// convertMessage registers the files of msg and describes its content
func (r *fileRegistry) convertMessage(msg *tg.Message) *tdapi.Message {
	chat := chatID(msg.PeerID)
	out := &tdapi.Message{
		ID:     int64(msg.ID),
		ChatID: chat,
		Date:   int32(msg.Date),
	}

	switch media := msg.Media.(type) {
	case nil:
		out.Content = &tdapi.MessageText{Text: msg.Message}

	case *tg.MessageMediaPhoto:
		photo, ok := media.Photo.(*tg.Photo)
		if !ok {
			out.Content = &tdapi.MessageUnsupported{}
			break
		}
		out.Content = &tdapi.MessagePhoto{
			Photo:      r.photo(photo, chat, out.ID),
			Caption:    msg.Message,
			HasSpoiler: media.Spoiler,
		}

	case *tg.MessageMediaDocument:
		doc, ok := media.Document.(*tg.Document)
		if !ok {
			out.Content = &tdapi.MessageUnsupported{}
			break
		}
		out.Content = r.document(doc, msg.Message, media.Spoiler, chat, out.ID)

	default:
		out.Content = &tdapi.MessageUnsupported{}
	}

	return out
}

func (r *fileRegistry) photo(p *tg.Photo, chat, messageID int64) *tdapi.Photo {
	out := &tdapi.Photo{}

	for _, size := range p.Sizes {
		var sizeType string
		var w, h int
		var bytes int64

		switch s := size.(type) {
		case *tg.PhotoStrippedSize:
			out.Minithumbnail = s.Bytes
			continue
		case *tg.PhotoSize:
			sizeType, w, h, bytes = s.Type, s.W, s.H, int64(s.Size)
		case *tg.PhotoSizeProgressive:
			sizeType, w, h = s.Type, s.W, s.H
			if n := len(s.Sizes); n > 0 {
				bytes = int64(s.Sizes[n-1])
			}
		default:
			continue
		}

		file := r.register(fileSource{
			uniqueID: fileid.EncodeUniqueID(fileid.UniqueTypePhoto, p.ID, sizeType),
			remoteID: fileid.EncodePhotoFileID(p, sizeType),
			dc:       p.DCID,
			location: &tg.InputPhotoFileLocation{
				ID:            p.ID,
				AccessHash:    p.AccessHash,
				FileReference: p.FileReference,
				ThumbSize:     sizeType,
			},
			size:      bytes,
			dir:       dirPhotos,
			mimeType:  "image/jpeg",
			chatID:    chat,
			messageID: messageID,
		})
		out.Sizes = append(out.Sizes, &tdapi.PhotoSize{Type: sizeType, Photo: file, Width: w, Height: h})
	}

	sort.SliceStable(out.Sizes, func(i, j int) bool {
		return out.Sizes[i].Width*out.Sizes[i].Height < out.Sizes[j].Width*out.Sizes[j].Height
	})
	return out
}

// document describes a document message by its attributes
func (r *fileRegistry) document(doc *tg.Document, caption string, spoiler bool, chat, messageID int64) tdapi.MessageContent {
	var (
		name  string
		video *tg.DocumentAttributeVideo
		audio *tg.DocumentAttributeAudio
		other bool
	)
	for _, attr := range doc.Attributes {
		switch a := attr.(type) {
		case *tg.DocumentAttributeFilename:
			name = a.FileName
		case *tg.DocumentAttributeVideo:
			video = a
		case *tg.DocumentAttributeAudio:
			audio = a
		case *tg.DocumentAttributeSticker, *tg.DocumentAttributeAnimated:
			other = true
		}
	}

	switch {
	case other, video != nil && video.RoundMessage, audio != nil && audio.Voice:
		return &tdapi.MessageUnsupported{}
	}

	src := fileSource{
		uniqueID:  fileid.EncodeUniqueID(fileid.UniqueTypeDocument, doc.ID, ""),
		remoteID:  fileid.EncodeDocumentFileID(doc, fileid.DetectDocumentType(doc)),
		dc:        doc.DCID,
		location:  &tg.InputDocumentFileLocation{ID: doc.ID, AccessHash: doc.AccessHash, FileReference: doc.FileReference},
		size:      doc.Size,
		name:      name,
		mimeType:  doc.MimeType,
		chatID:    chat,
		messageID: messageID,
	}
	mini, thumb := r.documentThumbs(doc, chat, messageID)

	switch {
	case video != nil:
		src.dir = dirVideos
		return &tdapi.MessageVideo{
			Video: &tdapi.Video{
				Duration:      int(video.Duration),
				Width:         video.W,
				Height:        video.H,
				FileName:      name,
				MimeType:      doc.MimeType,
				Minithumbnail: mini,
				Thumbnail:     thumb,
				Video:         r.register(src),
			},
			Caption:    caption,
			HasSpoiler: spoiler,
		}

	case audio != nil:
		src.dir = dirMusic
		return &tdapi.MessageAudio{
			Audio: &tdapi.Audio{
				Duration:            int(audio.Duration),
				Title:               audio.Title,
				Performer:           audio.Performer,
				FileName:            name,
				MimeType:            doc.MimeType,
				AlbumCoverThumbnail: thumb,
				Audio:               r.register(src),
			},
			Caption: caption,
		}
	}

	src.dir = dirDocuments
	return &tdapi.MessageDocument{
		Document: &tdapi.Document{
			FileName:      name,
			MimeType:      doc.MimeType,
			Minithumbnail: mini,
			Thumbnail:     thumb,
			Document:      r.register(src),
		},
		Caption: caption,
	}
}

// documentThumbs returns the stripped thumbnail and the largest regular one
func (r *fileRegistry) documentThumbs(doc *tg.Document, chat, messageID int64) ([]byte, *tdapi.Thumbnail) {
	var mini []byte
	var best *tg.PhotoSize

	for _, t := range doc.Thumbs {
		switch s := t.(type) {
		case *tg.PhotoStrippedSize:
			mini = s.Bytes
		case *tg.PhotoSize:
			if best == nil || s.W*s.H > best.W*best.H {
				best = s
			}
		}
	}

	if best == nil {
		return mini, nil
	}

	file := r.register(fileSource{
		uniqueID: fileid.EncodeUniqueID(fileid.UniqueTypeDocument, doc.ID, best.Type),
		remoteID: fileid.EncodeUniqueID(fileid.UniqueTypeDocument, doc.ID, best.Type),
		dc:       doc.DCID,
		location: &tg.InputDocumentFileLocation{
			ID:            doc.ID,
			AccessHash:    doc.AccessHash,
			FileReference: doc.FileReference,
			ThumbSize:     best.Type,
		},
		size:      int64(best.Size),
		dir:       dirThumbnails,
		mimeType:  "image/jpeg",
		chatID:    chat,
		messageID: messageID,
	})
	return mini, &tdapi.Thumbnail{File: file, Width: best.W, Height: best.H}
}

// foundMessages unpacks a messages.Messages result
func foundMessages(res tg.MessagesMessagesClass) (msgs []tg.MessageClass, users []tg.UserClass, chats []tg.ChatClass, count int) {
	switch m := res.(type) {
	case *tg.MessagesMessages:
		return m.Messages, m.Users, m.Chats, len(m.Messages)
	case *tg.MessagesMessagesSlice:
		return m.Messages, m.Users, m.Chats, m.Count
	case *tg.MessagesChannelMessages:
		return m.Messages, m.Users, m.Chats, m.Count
	case *tg.MessagesMessagesNotModified:
		return nil, nil, nil, m.Count
	}
	return nil, nil, nil, 0
}
