package telegram

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gotd/td/tg"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Conte777/telegram-files/internal/infrastructure/telegram/tdapi"
)

const (
	// channelIDOffset maps channel ids into the negative chat id range
	channelIDOffset = 1000000000000
	peerCacheSize   = 10000

	savedMessagesTitle  = "Saved Messages"
	deletedAccountTitle = "Deleted Account"
)

// chatID converts a peer to a chat id: users keep their id, basic groups
// are negated and channels are shifted below -10^12
func chatID(peer tg.PeerClass) int64 {
	switch p := peer.(type) {
	case *tg.PeerUser:
		return p.UserID
	case *tg.PeerChat:
		return -p.ChatID
	case *tg.PeerChannel:
		return -channelIDOffset - p.ChannelID
	}
	return 0
}

// channelOf returns the channel id of a channel chat id
func channelOf(id int64) (int64, bool) {
	if id < -channelIDOffset {
		return -channelIDOffset - id, true
	}
	return 0, false
}

// peer is what the adapter knows about a chat
type peer struct {
	chat  tdapi.Chat
	input tg.InputPeerClass
}

// peerCache keeps recently seen chats with their access hashes and the
// order of the last loaded dialog list
type peerCache struct {
	cache *lru.Cache[int64, *peer]

	mu    sync.Mutex
	order []int64
	total int
}

func newPeerCache(size int) (*peerCache, error) {
	cache, err := lru.New[int64, *peer](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create peer cache: %w", err)
	}
	return &peerCache{cache: cache}, nil
}

func (c *peerCache) get(id int64) (*peer, bool) {
	return c.cache.Get(id)
}

func (c *peerCache) inputPeer(id int64) (tg.InputPeerClass, error) {
	p, ok := c.cache.Get(id)
	if !ok {
		return nil, tdapi.NewError(400, "Chat not found")
	}
	return p.input, nil
}

func (c *peerCache) inputChannel(id int64) (*tg.InputChannel, bool) {
	p, ok := c.cache.Get(id)
	if !ok {
		return nil, false
	}
	ch, ok := p.input.(*tg.InputPeerChannel)
	if !ok {
		return nil, false
	}
	return &tg.InputChannel{ChannelID: ch.ChannelID, AccessHash: ch.AccessHash}, true
}

// add stores users and chats, keeping known unread counts
func (c *peerCache) add(users []tg.UserClass, chats []tg.ChatClass) {
	for _, u := range users {
		if p := userPeer(u); p != nil {
			c.put(p)
		}
	}
	for _, ch := range chats {
		if p := chatPeer(ch); p != nil {
			c.put(p)
		}
	}
}

// addEntities stores the entities attached to an update
func (c *peerCache) addEntities(e tg.Entities) {
	for _, u := range e.Users {
		c.put(userPeer(u))
	}
	for _, ch := range e.Chats {
		c.put(chatPeer(ch))
	}
	for _, ch := range e.Channels {
		c.put(chatPeer(ch))
	}
}

func (c *peerCache) put(p *peer) {
	if p == nil {
		return
	}
	if old, ok := c.cache.Peek(p.chat.ID); ok {
		p.chat.UnreadCount = old.chat.UnreadCount
	}
	c.cache.Add(p.chat.ID, p)
}

// setDialogs records the dialog order and unread counts
func (c *peerCache) setDialogs(dialogs []tg.DialogClass, total int) {
	order := make([]int64, 0, len(dialogs))
	for _, d := range dialogs {
		dialog, ok := d.(*tg.Dialog)
		if !ok {
			continue
		}
		id := chatID(dialog.Peer)
		if p, ok := c.cache.Peek(id); ok {
			updated := *p
			updated.chat.UnreadCount = dialog.UnreadCount
			c.cache.Add(id, &updated)
		}
		order = append(order, id)
	}

	if total < len(order) {
		total = len(order)
	}

	c.mu.Lock()
	c.order = order
	c.total = total
	c.mu.Unlock()
}

// dialogs returns the first limit chat ids of the dialog list
func (c *peerCache) dialogs(limit int) (ids []int64, total int, loaded bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.order == nil {
		return nil, 0, false
	}
	n := len(c.order)
	if limit > 0 && limit < n {
		n = limit
	}
	return append([]int64(nil), c.order[:n]...), c.total, true
}

func userPeer(u tg.UserClass) *peer {
	user, ok := u.(*tg.User)
	if !ok {
		return nil
	}

	title := strings.TrimSpace(user.FirstName + " " + user.LastName)
	switch {
	case user.Self:
		title = savedMessagesTitle
	case user.Deleted:
		title = deletedAccountTitle
	}

	p := &peer{
		chat: tdapi.Chat{
			ID:       user.ID,
			Title:    title,
			ChatType: tdapi.ChatTypePrivate,
		},
		input: &tg.InputPeerUser{UserID: user.ID, AccessHash: user.AccessHash},
	}
	if photo, ok := user.Photo.(*tg.UserProfilePhoto); ok {
		p.chat.Minithumbnail = photo.StrippedThumb
	}
	return p
}

func chatPeer(c tg.ChatClass) *peer {
	switch ch := c.(type) {
	case *tg.Chat:
		p := &peer{
			chat:  tdapi.Chat{ID: -ch.ID, Title: ch.Title, ChatType: tdapi.ChatTypeBasicGroup},
			input: &tg.InputPeerChat{ChatID: ch.ID},
		}
		if photo, ok := ch.Photo.(*tg.ChatPhoto); ok {
			p.chat.Minithumbnail = photo.StrippedThumb
		}
		return p

	case *tg.ChatForbidden:
		return &peer{
			chat:  tdapi.Chat{ID: -ch.ID, Title: ch.Title, ChatType: tdapi.ChatTypeBasicGroup},
			input: &tg.InputPeerChat{ChatID: ch.ID},
		}

	case *tg.Channel:
		chatType := tdapi.ChatTypeSupergroup
		if ch.Broadcast {
			chatType = tdapi.ChatTypeChannel
		}
		p := &peer{
			chat:  tdapi.Chat{ID: -channelIDOffset - ch.ID, Title: ch.Title, ChatType: chatType},
			input: &tg.InputPeerChannel{ChannelID: ch.ID, AccessHash: ch.AccessHash},
		}
		if photo, ok := ch.Photo.(*tg.ChatPhoto); ok {
			p.chat.Minithumbnail = photo.StrippedThumb
		}
		return p

	case *tg.ChannelForbidden:
		chatType := tdapi.ChatTypeSupergroup
		if ch.Broadcast {
			chatType = tdapi.ChatTypeChannel
		}
		return &peer{
			chat:  tdapi.Chat{ID: -channelIDOffset - ch.ID, Title: ch.Title, ChatType: chatType},
			input: &tg.InputPeerChannel{ChannelID: ch.ID, AccessHash: ch.AccessHash},
		}
	}
	return nil
}
