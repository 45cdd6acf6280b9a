package telegram

import (
	"context"

	"github.com/gotd/td/tg"

	"github.com/Conte777/telegram-files/internal/infrastructure/telegram/tdapi"
)

const maxPageSize = 100

func clampLimit(limit int) int {
	if limit <= 0 || limit > maxPageSize {
		return maxPageSize
	}
	return limit
}

func (c *Client) getMe(ctx context.Context) (*tdapi.User, error) {
	if !c.isReady() {
		return nil, errUnauthorized()
	}
	b, err := c.waitBackend(ctx)
	if err != nil {
		return nil, err
	}

	me, err := b.client.Self(ctx)
	if err != nil {
		return nil, err
	}
	c.peers.add([]tg.UserClass{me}, nil)

	user := &tdapi.User{
		ID:          me.ID,
		FirstName:   me.FirstName,
		LastName:    me.LastName,
		Username:    me.Username,
		PhoneNumber: me.Phone,
		IsPremium:   me.Premium,
	}
	if photo, ok := me.Photo.(*tg.UserProfilePhoto); ok {
		user.Minithumbnail = photo.StrippedThumb
	}
	return user, nil
}

// loadChats fetches the top of the dialog list into the peer cache
func (c *Client) loadChats(ctx context.Context, limit int) (*tdapi.Ok, error) {
	api, err := c.readyAPI(ctx)
	if err != nil {
		return nil, err
	}

	res, err := api.MessagesGetDialogs(ctx, &tg.MessagesGetDialogsRequest{
		OffsetPeer: &tg.InputPeerEmpty{},
		Limit:      clampLimit(limit),
	})
	if err != nil {
		return nil, err
	}

	switch d := res.(type) {
	case *tg.MessagesDialogs:
		c.peers.add(d.Users, d.Chats)
		c.peers.setDialogs(d.Dialogs, len(d.Dialogs))
	case *tg.MessagesDialogsSlice:
		c.peers.add(d.Users, d.Chats)
		c.peers.setDialogs(d.Dialogs, d.Count)
	}
	return &tdapi.Ok{}, nil
}

func (c *Client) getChats(ctx context.Context, limit int) (*tdapi.Chats, error) {
	ids, total, loaded := c.peers.dialogs(limit)
	if !loaded {
		if _, err := c.loadChats(ctx, limit); err != nil {
			return nil, err
		}
		ids, total, _ = c.peers.dialogs(limit)
	}
	return &tdapi.Chats{TotalCount: total, ChatIDs: ids}, nil
}

func (c *Client) searchChats(ctx context.Context, r *tdapi.SearchChatsOnServer) (*tdapi.Chats, error) {
	api, err := c.readyAPI(ctx)
	if err != nil {
		return nil, err
	}

	found, err := api.ContactsSearch(ctx, &tg.ContactsSearchRequest{
		Q:     r.Query,
		Limit: clampLimit(r.Limit),
	})
	if err != nil {
		return nil, err
	}
	c.peers.add(found.Users, found.Chats)

	seen := make(map[int64]bool)
	ids := make([]int64, 0, len(found.MyResults)+len(found.Results))
	for _, p := range append(found.MyResults, found.Results...) {
		id := chatID(p)
		if id == 0 || seen[id] {
			continue
		}
		if _, ok := c.peers.get(id); !ok {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return &tdapi.Chats{TotalCount: len(ids), ChatIDs: ids}, nil
}

func (c *Client) getChat(id int64) (*tdapi.Chat, error) {
	if !c.isReady() {
		return nil, errUnauthorized()
	}
	p, ok := c.peers.get(id)
	if !ok {
		return nil, tdapi.NewError(400, "Chat not found")
	}
	chat := p.chat
	return &chat, nil
}

func (c *Client) getMessage(ctx context.Context, chat, messageID int64) (*tdapi.Message, error) {
	api, err := c.readyAPI(ctx)
	if err != nil {
		return nil, err
	}

	ids := []tg.InputMessageClass{&tg.InputMessageID{ID: int(messageID)}}

	var res tg.MessagesMessagesClass
	if _, ok := channelOf(chat); ok {
		channel, ok := c.peers.inputChannel(chat)
		if !ok {
			return nil, tdapi.NewError(400, "Chat not found")
		}
		res, err = api.ChannelsGetMessages(ctx, &tg.ChannelsGetMessagesRequest{Channel: channel, ID: ids})
	} else {
		res, err = api.MessagesGetMessages(ctx, ids)
	}
	if err != nil {
		return nil, err
	}

	msgs, users, chats, _ := foundMessages(res)
	c.peers.add(users, chats)

	for _, m := range msgs {
		msg, ok := m.(*tg.Message)
		if !ok || int64(msg.ID) != messageID || chatID(msg.PeerID) != chat {
			continue
		}
		return c.files.convertMessage(msg), nil
	}
	return nil, tdapi.NewError(404, "Message not found")
}

func (c *Client) searchMessages(ctx context.Context, r *tdapi.SearchChatMessages) (*tdapi.FoundChatMessages, error) {
	filter, ok := searchFilter(r.Filter)
	if !ok {
		return nil, tdapi.NewError(400, "Unsupported filter %s", r.Filter)
	}
	api, err := c.readyAPI(ctx)
	if err != nil {
		return nil, err
	}
	peer, err := c.peers.inputPeer(r.ChatID)
	if err != nil {
		return nil, err
	}

	limit := clampLimit(r.Limit)
	res, err := api.MessagesSearch(ctx, &tg.MessagesSearchRequest{
		Peer:      peer,
		Q:         r.Query,
		Filter:    filter,
		OffsetID:  int(r.FromMessageID),
		AddOffset: r.Offset,
		Limit:     limit,
	})
	if err != nil {
		return nil, err
	}

	msgs, users, chats, count := foundMessages(res)
	c.peers.add(users, chats)

	found := &tdapi.FoundChatMessages{TotalCount: count}
	for _, m := range msgs {
		if msg, ok := m.(*tg.Message); ok {
			found.Messages = append(found.Messages, c.files.convertMessage(msg))
		}
	}
	if n := len(found.Messages); n > 0 && len(msgs) >= limit {
		found.NextFromMessageID = found.Messages[n-1].ID
	}
	return found, nil
}

func (c *Client) messageCount(ctx context.Context, r *tdapi.GetChatMessageCount) (*tdapi.Count, error) {
	filter, ok := searchFilter(r.Filter)
	if !ok {
		return nil, tdapi.NewError(400, "Unsupported filter %s", r.Filter)
	}
	api, err := c.readyAPI(ctx)
	if err != nil {
		return nil, err
	}
	peer, err := c.peers.inputPeer(r.ChatID)
	if err != nil {
		return nil, err
	}

	res, err := api.MessagesSearch(ctx, &tg.MessagesSearchRequest{
		Peer:   peer,
		Filter: filter,
		Limit:  1,
	})
	if err != nil {
		return nil, err
	}

	_, _, _, count := foundMessages(res)
	return &tdapi.Count{Count: count}, nil
}
