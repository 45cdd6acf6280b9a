package actor

import (
	"context"
	"encoding/base64"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Conte777/telegram-files/internal/domain/account/entities"
	accounterrors "github.com/Conte777/telegram-files/internal/domain/account/errors"
	"github.com/Conte777/telegram-files/internal/domain/files/content"
	filesentities "github.com/Conte777/telegram-files/internal/domain/files/entities"
	"github.com/Conte777/telegram-files/internal/infrastructure/telegram/tdapi"
)

const (
	chatListLimit    = 10
	defaultFileLimit = 20
	savedMessages    = "Saved Messages"
)

// Profile describes the account. Unauthorized accounts report their root
// and the last authorization state instead of backend data.
func (a *Actor) Profile(ctx context.Context) (*entities.Profile, error) {
	s := a.snap()
	if !s.authorized {
		profile := &entities.Profile{
			ID:       a.rootID,
			Name:     a.rootID,
			Status:   entities.StatusInactive,
			RootPath: a.rootPath,
		}
		if s.account != nil {
			profile.ID = formatID(s.account.ID)
			profile.Name = s.account.FirstName
		}
		if s.lastState != nil {
			profile.LastAuthorizationState = tdapi.Typed{Object: s.lastState}
		}
		return profile, nil
	}

	me, err := Send[*tdapi.User](a.gateway, &tdapi.GetMe{}).Await(ctx)
	if err != nil {
		return nil, err
	}

	return &entities.Profile{
		ID:        formatID(me.ID),
		Name:      strings.TrimSpace(me.FirstName + " " + me.LastName),
		Phone:     me.PhoneNumber,
		Avatar:    encodeThumbnail(me.Minithumbnail),
		Status:    entities.StatusActive,
		IsPremium: me.IsPremium,
		RootPath:  a.rootPath,
	}, nil
}

// GetChats lists chats, or searches them when query is set. pinnedChatID,
// when not zero, is always part of the result.
func (a *Actor) GetChats(ctx context.Context, pinnedChatID int64, query string) ([]entities.Chat, error) {
	telegramID, err := a.telegramID()
	if err != nil {
		return nil, err
	}

	var req tdapi.Function = &tdapi.GetChats{Limit: chatListLimit}
	if q := strings.TrimSpace(query); q != "" {
		req = &tdapi.SearchChatsOnServer{Query: q, Limit: chatListLimit}
	}

	found, err := Send[*tdapi.Chats](a.gateway, req).Await(ctx)
	if err != nil {
		return nil, err
	}

	ids := found.ChatIDs
	if pinnedChatID != 0 && !containsID(ids, pinnedChatID) {
		ids = append([]int64{pinnedChatID}, ids...)
	}

	setting, err := a.deps.Settings.AutoDownload(ctx)
	if err != nil {
		return nil, err
	}
	autoChats := setting.ChatIDs(telegramID)

	chats := make([]*tdapi.Chat, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			chat, err := Send[*tdapi.Chat](a.gateway, &tdapi.GetChat{ChatID: id}).Await(gctx)
			if err != nil {
				return err
			}
			chats[i] = chat
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]entities.Chat, 0, len(chats))
	for _, chat := range chats {
		name := chat.Title
		if chat.ID == telegramID {
			name = savedMessages
		}
		_, auto := autoChats[chat.ID]
		out = append(out, entities.Chat{
			ID:          chat.ID,
			Name:        name,
			Type:        content.ChatType(chat.ChatType),
			Avatar:      encodeThumbnail(chat.Minithumbnail),
			UnreadCount: chat.UnreadCount,
			AutoEnabled: auto,
		})
	}
	return out, nil
}

// GetChatFiles returns a page of chat files merged with their stored records
func (a *Actor) GetChatFiles(ctx context.Context, chatID int64, query entities.FileQuery) (*entities.ChatFiles, error) {
	telegramID, err := a.telegramID()
	if err != nil {
		return nil, err
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultFileLimit
	}

	found, err := Send[*tdapi.FoundChatMessages](a.gateway, &tdapi.SearchChatMessages{
		ChatID:        chatID,
		Query:         query.Search,
		FromMessageID: query.FromMessageID,
		Offset:        query.Offset,
		Limit:         limit,
		Filter:        content.SearchFilter(query.Type),
	}).Await(ctx)
	if err != nil {
		return nil, err
	}

	messages := found.Messages
	uniqueOnly, err := a.deps.Settings.UniqueOnly(ctx)
	if err != nil {
		return nil, err
	}
	if uniqueOnly {
		messages = content.FilterUnique(messages)
	}

	stored, err := a.deps.Files.GetFilesByUniqueID(ctx, content.UniqueIDs(messages))
	if err != nil {
		return nil, err
	}

	files := make([]filesentities.FileRecord, 0, len(messages))
	for _, msg := range messages {
		handler, err := content.Resolve(msg)
		if err != nil {
			continue
		}

		f := handler.File()
		if record, ok := stored[f.UniqueID()]; ok {
			files = append(files, record.WithSourceField(f.ID, content.DownloadedSize(f)))
			continue
		}
		files = append(files, handler.Record(telegramID))
	}

	return &entities.ChatFiles{
		Files:             files,
		Count:             found.TotalCount,
		Size:              len(files),
		NextFromMessageID: found.NextFromMessageID,
	}, nil
}

// GetChatFilesCount counts chat messages per file type
func (a *Actor) GetChatFilesCount(ctx context.Context, chatID int64) (map[string]int, error) {
	if !a.Authorized() {
		return nil, accounterrors.ErrNotAuthorized
	}

	counts := make([]int, len(content.CountFilters))
	g, gctx := errgroup.WithContext(ctx)
	for i, filter := range content.CountFilters {
		i, filter := i, filter
		g.Go(func() error {
			count, err := Send[*tdapi.Count](a.gateway, &tdapi.GetChatMessageCount{ChatID: chatID, Filter: filter}).Await(gctx)
			if err != nil {
				return err
			}
			counts[i] = count.Count
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]int, len(counts))
	for i, filter := range content.CountFilters {
		out[content.FilterType(filter)] = counts[i]
	}
	return out, nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func encodeThumbnail(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString(data)
}
