package entities

// AutoDownloadItem marks one chat of one account for automatic download
type AutoDownloadItem struct {
	TelegramID int64 `json:"telegramId"`
	ChatID     int64 `json:"chatId"`
}

// AutoDownloadSetting is the value of the autoDownload setting
type AutoDownloadSetting struct {
	Items []AutoDownloadItem `json:"items"`
}

func (s *AutoDownloadSetting) Exists(telegramID, chatID int64) bool {
	for _, item := range s.Items {
		if item.TelegramID == telegramID && item.ChatID == chatID {
			return true
		}
	}
	return false
}

func (s *AutoDownloadSetting) Add(telegramID, chatID int64) {
	if s.Exists(telegramID, chatID) {
		return
	}
	s.Items = append(s.Items, AutoDownloadItem{TelegramID: telegramID, ChatID: chatID})
}

func (s *AutoDownloadSetting) Remove(telegramID, chatID int64) {
	items := s.Items[:0]
	for _, item := range s.Items {
		if item.TelegramID == telegramID && item.ChatID == chatID {
			continue
		}
		items = append(items, item)
	}
	s.Items = items
}

// ChatIDs returns the auto-enabled chats of an account
func (s *AutoDownloadSetting) ChatIDs(telegramID int64) map[int64]struct{} {
	ids := make(map[int64]struct{})
	for _, item := range s.Items {
		if item.TelegramID == telegramID {
			ids[item.ChatID] = struct{}{}
		}
	}
	return ids
}
