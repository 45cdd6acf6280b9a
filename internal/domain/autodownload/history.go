package autodownload

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultHistoryLimit = 1000

// messageKey identifies a message of one account
type messageKey struct {
	TelegramID int64
	ChatID     int64
	MessageID  int64
}

// history remembers the most recently queued messages so that repeated
// notifications for the same message are queued once
type history struct {
	cache *lru.Cache[messageKey, struct{}]
}

func newHistory(size int) (*history, error) {
	if size <= 0 {
		size = defaultHistoryLimit
	}
	cache, err := lru.New[messageKey, struct{}](size)
	if err != nil {
		return nil, err
	}
	return &history{cache: cache}, nil
}

// Add records key and reports whether it was new
func (h *history) Add(key messageKey) bool {
	seen, _ := h.cache.ContainsOrAdd(key, struct{}{})
	return !seen
}

func (h *history) Len() int {
	return h.cache.Len()
}
