package content

import (
	"github.com/Conte777/telegram-files/internal/domain/files/entities"
	"github.com/Conte777/telegram-files/internal/infrastructure/telegram/tdapi"
)

// TypeMedia groups photos and videos in searches and counts
const TypeMedia = "media"

// CountFilters are the filters counted for a chat
var CountFilters = []tdapi.SearchMessagesFilter{
	tdapi.FilterPhotoAndVideo,
	tdapi.FilterPhoto,
	tdapi.FilterVideo,
	tdapi.FilterAudio,
	tdapi.FilterDocument,
}

var filterByType = map[string]tdapi.SearchMessagesFilter{
	TypeMedia:          tdapi.FilterPhotoAndVideo,
	entities.TypePhoto: tdapi.FilterPhoto,
	entities.TypeVideo: tdapi.FilterVideo,
	entities.TypeAudio: tdapi.FilterAudio,
	entities.TypeFile:  tdapi.FilterDocument,
}

// SearchFilter maps a client file type onto a search filter.
// Unknown and empty types search everything.
func SearchFilter(fileType string) tdapi.SearchMessagesFilter {
	if f, ok := filterByType[fileType]; ok {
		return f
	}
	return tdapi.FilterEmpty
}

// FilterType is the inverse of SearchFilter
func FilterType(filter tdapi.SearchMessagesFilter) string {
	for t, f := range filterByType {
		if f == filter {
			return t
		}
	}
	return ""
}

// ChatType collapses backend chat types into private, group or channel
func ChatType(chatType string) string {
	switch chatType {
	case tdapi.ChatTypeBasicGroup, tdapi.ChatTypeSupergroup:
		return "group"
	case tdapi.ChatTypeChannel:
		return "channel"
	default:
		return "private"
	}
}
